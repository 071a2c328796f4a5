package payroll

import (
	"context"
	"errors"
	"time"
)

// AttendanceInput records one employee's status on one date.
type AttendanceInput struct {
	EmployeeID EmployeeID       `validate:"required"`
	Date       time.Time        `validate:"required"`
	Status     AttendanceStatus `validate:"omitempty,oneof=present absent leave half_day"`
	CheckIn    string           `validate:"omitempty,datetime=15:04"`
	CheckOut   string           `validate:"omitempty,datetime=15:04"`
	Notes      string
}

// clockLayout is the wall-clock form check-in and check-out are stored in.
const clockLayout = "15:04"

// validate checks the input and rewrites CheckIn/CheckOut in zero-padded
// "HH:MM" form, so "9:30" is stored as "09:30".
func (in *AttendanceInput) validate() error {
	if err := validateStruct(in); err != nil {
		return err
	}
	checkIn, err := normalizeClock(&in.CheckIn)
	if err != nil {
		return &ValidationError{Field: "check_in", Message: err.Error()}
	}
	checkOut, err := normalizeClock(&in.CheckOut)
	if err != nil {
		return &ValidationError{Field: "check_out", Message: err.Error()}
	}
	if in.CheckIn != "" && in.CheckOut != "" && checkOut.Before(checkIn) {
		return &ValidationError{Field: "check_out", Message: "must not be before check_in"}
	}
	return nil
}

func normalizeClock(v *string) (time.Time, error) {
	if *v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(clockLayout, *v)
	if err != nil {
		return time.Time{}, errors.New("must be a time of day as HH:MM")
	}
	*v = t.Format(clockLayout)
	return t, nil
}

// RecordAttendance stores the status for (employee, date). A second record
// for the same pair fails with DuplicateRecordError.
func (s *Service) RecordAttendance(ctx context.Context, actor Actor, in AttendanceInput) (*AttendanceRecord, error) {
	if err := requireAdmin(actor, "record attendance"); err != nil {
		return nil, err
	}
	if in.Status == "" {
		in.Status = StatusPresent
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	if _, err := s.employee(ctx, s.store, in.EmployeeID); err != nil {
		return nil, err
	}

	rec := AttendanceRecord{
		ID:         AttendanceID(s.newID()),
		EmployeeID: in.EmployeeID,
		Date:       DateOf(in.Date),
		Status:     in.Status,
		CheckIn:    in.CheckIn,
		CheckOut:   in.CheckOut,
		Notes:      in.Notes,
		CreatedAt:  s.timestamp(),
	}
	if err := s.store.CreateAttendance(ctx, rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListAttendance returns attendance newest date first, optionally for one
// employee.
func (s *Service) ListAttendance(ctx context.Context, actor Actor, employeeID EmployeeID) ([]AttendanceRecord, error) {
	if err := requireAdmin(actor, "list attendance"); err != nil {
		return nil, err
	}
	return s.store.ListAttendance(ctx, AttendanceFilter{EmployeeID: employeeID})
}

// TallyAttendance counts an employee's records for the month by status.
// Days without a record are not counted at all, in particular not as absent.
// TotalWorkingDays comes from the service's working-day calendar.
func (s *Service) TallyAttendance(ctx context.Context, st Store, employeeID EmployeeID, month time.Month, year int) (AttendanceTally, error) {
	records, err := st.ListAttendance(ctx, AttendanceFilter{
		EmployeeID: employeeID,
		From:       StartOfMonth(year, month),
		To:         EndOfMonth(year, month),
	})
	if err != nil {
		return AttendanceTally{}, err
	}

	t := CountAttendance(records)
	t.TotalWorkingDays = s.calendar.WorkingDays(year, month)
	return t, nil
}

// CountAttendance partitions records by status. TotalWorkingDays is left 0.
func CountAttendance(records []AttendanceRecord) AttendanceTally {
	var t AttendanceTally
	for _, r := range records {
		switch r.Status {
		case StatusPresent:
			t.DaysPresent++
		case StatusAbsent:
			t.DaysAbsent++
		case StatusLeave:
			t.DaysOnLeave++
		case StatusHalfDay:
			t.HalfDays++
		}
	}
	return t
}
