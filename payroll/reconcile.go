/*
reconcile.go - Month-end attendance to salary reconciliation

PURPOSE:
  Recomputes a salary record's attendance snapshot from the attendance
  ledger and feeds it through the calculator.

STEPS:
  1. Working days for (month, year) from the service calendar; by default the
     calendar day count, so February 2024 has 29.
  2. Count the employee's attendance records in [first day, last day] by
     status. Days without a record are simply not counted.
  3. Refresh the base salary snapshot from the employee, keep allowances and
     deductions, recalculate, persist.

IDEMPOTENCY:
  With unchanged attendance, repeated calls store identical amounts.

FROZEN RECORDS:
  A paid record is not reconciled (AlreadyPaidError); revert the payment first.
*/
package payroll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ReconcileSummary reports a bulk reconciliation run.
type ReconcileSummary struct {
	Month       time.Month
	Year        int
	Reconciled  int // existing records recomputed
	Created     int // records created for employees without one
	SkippedPaid int
	Failures    []ReconcileFailure
}

type ReconcileFailure struct {
	EmployeeID EmployeeID
	Err        error
}

// ReconcileSalary recomputes an existing salary record from attendance.
func (s *Service) ReconcileSalary(ctx context.Context, actor Actor, id SalaryID) (*SalaryRecord, error) {
	if err := requireAdmin(actor, "reconcile salaries"); err != nil {
		return nil, err
	}
	rec, err := s.salary(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	out, _, err := s.reconcilePeriod(ctx, rec.EmployeeID, rec.Month, rec.Year, false)
	return out, err
}

// ReconcileMonth recomputes the employee's record for the period, creating it
// when absent.
func (s *Service) ReconcileMonth(ctx context.Context, actor Actor, employeeID EmployeeID, month time.Month, year int) (*SalaryRecord, error) {
	if err := requireAdmin(actor, "reconcile salaries"); err != nil {
		return nil, err
	}
	if err := validatePeriod(month, year); err != nil {
		return nil, err
	}
	out, _, err := s.reconcilePeriod(ctx, employeeID, month, year, true)
	return out, err
}

// ReconcileAll reconciles the period for every active employee. Paid records
// are skipped; per-employee failures are collected, not fatal.
func (s *Service) ReconcileAll(ctx context.Context, actor Actor, month time.Month, year int) (*ReconcileSummary, error) {
	if err := requireAdmin(actor, "reconcile salaries"); err != nil {
		return nil, err
	}
	if err := validatePeriod(month, year); err != nil {
		return nil, err
	}

	employees, err := s.store.ListEmployees(ctx, EmployeeFilter{ActiveOnly: true})
	if err != nil {
		return nil, err
	}

	summary := &ReconcileSummary{Month: month, Year: year}
	for _, e := range employees {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		_, created, err := s.reconcilePeriod(ctx, e.ID, month, year, true)
		switch {
		case errors.Is(err, ErrAlreadyPaid):
			summary.SkippedPaid++
		case err != nil:
			summary.Failures = append(summary.Failures, ReconcileFailure{EmployeeID: e.ID, Err: err})
		case created:
			summary.Created++
		default:
			summary.Reconciled++
		}
	}
	return summary, nil
}

// reconcilePeriod does the work under the period lock, in one store
// transaction. create controls whether a missing record is created.
func (s *Service) reconcilePeriod(ctx context.Context, employeeID EmployeeID, month time.Month, year int, create bool) (*SalaryRecord, bool, error) {
	unlock := s.locks.Lock(periodKey(employeeID, month, year))
	defer unlock()

	var (
		out     SalaryRecord
		created bool
	)
	err := s.store.WithTx(ctx, func(st Store) error {
		emp, err := s.employee(ctx, st, employeeID)
		if err != nil {
			return err
		}

		rec, err := st.GetSalaryForPeriod(ctx, employeeID, month, year)
		if err != nil {
			return err
		}
		now := s.timestamp()
		switch {
		case rec == nil && !create:
			return &NotFoundError{Kind: "salary", ID: periodKey(employeeID, month, year)}
		case rec == nil:
			created = true
			rec = &SalaryRecord{
				ID:         SalaryID(s.newID()),
				EmployeeID: employeeID,
				Month:      month,
				Year:       year,
				Allowances: decimal.Zero,
				Deductions: decimal.Zero,
				CreatedAt:  now,
			}
		case rec.IsPaid:
			return &AlreadyPaidError{SalaryID: rec.ID}
		}

		tally, err := s.TallyAttendance(ctx, st, employeeID, month, year)
		if err != nil {
			return err
		}
		rec.BaseSalary = emp.BaseSalary
		rec.ApplyTally(tally)
		rec.Recalculate()
		rec.UpdatedAt = now

		if created {
			err = st.CreateSalary(ctx, *rec)
		} else {
			err = st.UpdateSalary(ctx, *rec)
		}
		if err != nil {
			return err
		}
		out = *rec
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &out, created, nil
}

func validatePeriod(month time.Month, year int) error {
	if month < time.January || month > time.December {
		return &ValidationError{Field: "month", Message: "must be between 1 and 12"}
	}
	if year < 1900 || year > 9999 {
		return &ValidationError{Field: "year", Message: "must be between 1900 and 9999"}
	}
	return nil
}

// periodKey identifies a salary record by its unique (employee, month, year).
func periodKey(employeeID EmployeeID, month time.Month, year int) string {
	return fmt.Sprintf("%s/%04d-%02d", employeeID, year, int(month))
}
