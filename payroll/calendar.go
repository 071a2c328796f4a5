package payroll

import (
	"fmt"
	"time"
)

// =============================================================================
// CALENDAR DATES - Payroll works on dates, never on instants
// =============================================================================

// DateLayout is the wire and storage format for calendar dates.
const DateLayout = "2006-01-02"

// NewDate returns midnight UTC of the given day.
func NewDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateOf drops the clock part of t, keeping its calendar day.
func DateOf(t time.Time) time.Time {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return DateOf(t), nil
}

func StartOfMonth(year int, month time.Month) time.Time { return NewDate(year, month, 1) }

func EndOfMonth(year int, month time.Month) time.Time {
	return NewDate(year, month+1, 1).AddDate(0, 0, -1)
}

// DaysInMonth counts calendar days, February included (28 or 29).
func DaysInMonth(year int, month time.Month) int {
	return EndOfMonth(year, month).Day()
}

// PeriodLabel renders "January 2024".
func PeriodLabel(month time.Month, year int) string {
	return fmt.Sprintf("%s %d", month, year)
}

// PreviousMonth returns the month before the one containing t.
func PreviousMonth(t time.Time) (time.Month, int) {
	p := StartOfMonth(t.Year(), t.Month()).AddDate(0, -1, 0)
	return p.Month(), p.Year()
}

// =============================================================================
// WORKING-DAY CALENDARS
// =============================================================================

// WorkingDayCalendar decides how many working days a month has, which is the
// divisor of the per-day rate.
type WorkingDayCalendar interface {
	WorkingDays(year int, month time.Month) int
}

// CalendarDays counts every day of the month. This is the default.
type CalendarDays struct{}

func (CalendarDays) WorkingDays(year int, month time.Month) int { return DaysInMonth(year, month) }

// WeekdayCalendar counts Monday through Friday, minus listed holidays that
// fall on a weekday.
type WeekdayCalendar struct {
	Holidays []time.Time
}

func (c WeekdayCalendar) WorkingDays(year int, month time.Month) int {
	holidays := make(map[time.Time]bool, len(c.Holidays))
	for _, h := range c.Holidays {
		holidays[DateOf(h)] = true
	}

	n := 0
	end := EndOfMonth(year, month)
	for d := StartOfMonth(year, month); !d.After(end); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		if holidays[d] {
			continue
		}
		n++
	}
	return n
}
