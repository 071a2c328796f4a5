package payroll

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// SalaryInput creates a salary record by hand. BaseSalary nil means the
// employee's current base salary.
type SalaryInput struct {
	EmployeeID       EmployeeID `validate:"required"`
	Month            time.Month `validate:"min=1,max=12"`
	Year             int        `validate:"min=1900,max=9999"`
	BaseSalary       *decimal.Decimal
	TotalWorkingDays int `validate:"min=0,max=31"`
	DaysPresent      int `validate:"min=0,max=31"`
	DaysAbsent       int `validate:"min=0,max=31"`
	DaysOnLeave      int `validate:"min=0,max=31"`
	HalfDays         int `validate:"min=0,max=31"`
	Allowances       decimal.Decimal
	Deductions       decimal.Decimal
}

func (in SalaryInput) validate() error {
	if err := validateStruct(in); err != nil {
		return err
	}
	if in.BaseSalary != nil {
		if err := nonNegative("base_salary", *in.BaseSalary); err != nil {
			return err
		}
	}
	if err := nonNegative("allowances", in.Allowances); err != nil {
		return err
	}
	return nonNegative("deductions", in.Deductions)
}

// SalaryDetail is a salary record with its employee and, when paid, its payment.
type SalaryDetail struct {
	Salary   SalaryRecord
	Employee Employee
	Payment  *Payment
}

// CreateSalary stores a computed salary record for (employee, month, year).
// A second record for the same period fails with DuplicateRecordError.
func (s *Service) CreateSalary(ctx context.Context, actor Actor, in SalaryInput) (*SalaryRecord, error) {
	if err := requireAdmin(actor, "create salary records"); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	emp, err := s.employee(ctx, s.store, in.EmployeeID)
	if err != nil {
		return nil, err
	}

	base := emp.BaseSalary
	if in.BaseSalary != nil {
		base = RoundMoney(*in.BaseSalary)
	}

	now := s.timestamp()
	rec := SalaryRecord{
		ID:         SalaryID(s.newID()),
		EmployeeID: emp.ID,
		Month:      in.Month,
		Year:       in.Year,
		BaseSalary: base,
		Allowances: RoundMoney(in.Allowances),
		Deductions: RoundMoney(in.Deductions),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	rec.ApplyTally(AttendanceTally{
		TotalWorkingDays: in.TotalWorkingDays,
		DaysPresent:      in.DaysPresent,
		DaysAbsent:       in.DaysAbsent,
		DaysOnLeave:      in.DaysOnLeave,
		HalfDays:         in.HalfDays,
	})
	rec.Recalculate()

	if err := s.store.CreateSalary(ctx, rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// GetSalary returns a salary record. Employees may read their own records.
func (s *Service) GetSalary(ctx context.Context, actor Actor, id SalaryID) (*SalaryDetail, error) {
	rec, err := s.salary(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	if err := s.canAccessEmployee(ctx, actor, rec.EmployeeID, "view this salary"); err != nil {
		return nil, err
	}
	emp, err := s.employee(ctx, s.store, rec.EmployeeID)
	if err != nil {
		return nil, err
	}

	detail := &SalaryDetail{Salary: *rec, Employee: *emp}
	if rec.IsPaid {
		if detail.Payment, err = s.store.GetPaymentBySalary(ctx, rec.ID); err != nil {
			return nil, err
		}
	}
	return detail, nil
}

// ListSalaries returns salary records newest period first. Admins may filter
// by employee; employees always get only their own.
func (s *Service) ListSalaries(ctx context.Context, actor Actor, employeeID EmployeeID) ([]SalaryRecord, error) {
	if !actor.IsAdmin() {
		emp, err := s.actorEmployee(ctx, actor)
		if err != nil {
			return nil, err
		}
		employeeID = emp.ID
	}
	return s.store.ListSalaries(ctx, SalaryFilter{EmployeeID: employeeID})
}

// salary loads a salary record or returns NotFoundError.
func (s *Service) salary(ctx context.Context, st Store, id SalaryID) (*SalaryRecord, error) {
	rec, err := st.GetSalary(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, &NotFoundError{Kind: "salary", ID: string(id)}
	}
	return rec, nil
}
