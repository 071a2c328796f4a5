package payroll

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// MonthlyReport lists every salary record of a month. TotalPaid sums
// NetSalary over the paid ones only.
type MonthlyReport struct {
	Month     time.Month
	Year      int
	Records   []SalaryRecord
	TotalPaid decimal.Decimal
}

// AnnualReport sums paid NetSalary per calendar month. ByMonth[0] is January.
type AnnualReport struct {
	Year      int
	Records   []SalaryRecord // paid records only
	TotalPaid decimal.Decimal
	ByMonth   [12]decimal.Decimal
}

// MonthlyReport is read-only; an empty month yields a zero total.
func (s *Service) MonthlyReport(ctx context.Context, actor Actor, month time.Month, year int) (*MonthlyReport, error) {
	if err := requireAdmin(actor, "view reports"); err != nil {
		return nil, err
	}
	if err := validatePeriod(month, year); err != nil {
		return nil, err
	}

	records, err := s.store.ListSalaries(ctx, SalaryFilter{Month: month, Year: year})
	if err != nil {
		return nil, err
	}
	return &MonthlyReport{
		Month:     month,
		Year:      year,
		Records:   records,
		TotalPaid: SumPaid(records),
	}, nil
}

// AnnualReport is read-only; months without paid records report zero.
func (s *Service) AnnualReport(ctx context.Context, actor Actor, year int) (*AnnualReport, error) {
	if err := requireAdmin(actor, "view reports"); err != nil {
		return nil, err
	}
	if err := validatePeriod(time.January, year); err != nil {
		return nil, err
	}

	paid := true
	records, err := s.store.ListSalaries(ctx, SalaryFilter{Year: year, Paid: &paid})
	if err != nil {
		return nil, err
	}

	report := &AnnualReport{Year: year, Records: records, TotalPaid: decimal.Zero}
	for i := range report.ByMonth {
		report.ByMonth[i] = decimal.Zero
	}
	for _, r := range records {
		if r.Month < time.January || r.Month > time.December {
			continue
		}
		report.ByMonth[r.Month-1] = report.ByMonth[r.Month-1].Add(r.NetSalary)
		report.TotalPaid = report.TotalPaid.Add(r.NetSalary)
	}
	return report, nil
}

// SumPaid totals NetSalary over paid records.
func SumPaid(records []SalaryRecord) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		if r.IsPaid {
			total = total.Add(r.NetSalary)
		}
	}
	return total
}

// SumUnpaid totals NetSalary over unpaid records.
func SumUnpaid(records []SalaryRecord) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		if !r.IsPaid {
			total = total.Add(r.NetSalary)
		}
	}
	return total
}
