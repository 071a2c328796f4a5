package payroll

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// EmployeeInput holds the editable profile fields of an employee.
type EmployeeInput struct {
	Code          string    `validate:"required,max=50"`
	FullName      string    `validate:"required,max=200"`
	Email         string    `validate:"required,email"`
	Phone         string    `validate:"required,max=15"`
	Address       string
	DateOfJoining time.Time `validate:"required"`
	Designation   string    `validate:"required,max=100"`
	Department    string    `validate:"required,max=100"`
	BankName      string    `validate:"required,max=200"`
	AccountNumber string    `validate:"required,max=50"`
	IFSCCode      string    `validate:"required,max=20"`
	BaseSalary    decimal.Decimal

	// UserID links a login identity at creation time. Ignored by
	// UpdateEmployee; use LinkEmployeeUser to change an existing link.
	UserID string
}

func (in EmployeeInput) validate() error {
	if err := validateStruct(in); err != nil {
		return err
	}
	return nonNegative("base_salary", in.BaseSalary)
}

func (in EmployeeInput) apply(e *Employee) {
	e.Code = in.Code
	e.FullName = in.FullName
	e.Email = in.Email
	e.Phone = in.Phone
	e.Address = in.Address
	e.DateOfJoining = DateOf(in.DateOfJoining)
	e.Designation = in.Designation
	e.Department = in.Department
	e.BankName = in.BankName
	e.AccountNumber = in.AccountNumber
	e.IFSCCode = in.IFSCCode
	e.BaseSalary = RoundMoney(in.BaseSalary)
}

// EmployeeDetail is an employee with its salary history, newest first.
type EmployeeDetail struct {
	Employee Employee
	Salaries []SalaryRecord
}

// CreateEmployee adds an active employee. The code and any linked user must
// be unique.
func (s *Service) CreateEmployee(ctx context.Context, actor Actor, in EmployeeInput) (*Employee, error) {
	if err := requireAdmin(actor, "create employees"); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	now := s.timestamp()
	e := Employee{
		ID:        EmployeeID(s.newID()),
		UserID:    in.UserID,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	in.apply(&e)

	if err := s.store.CreateEmployee(ctx, e); err != nil {
		return nil, err
	}
	return &e, nil
}

// UpdateEmployee replaces the profile fields. Salary records keep the base
// salary snapshot they were computed with.
func (s *Service) UpdateEmployee(ctx context.Context, actor Actor, id EmployeeID, in EmployeeInput) (*Employee, error) {
	if err := requireAdmin(actor, "edit employees"); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	e, err := s.employee(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	in.apply(e)
	e.UpdatedAt = s.timestamp()

	if err := s.store.UpdateEmployee(ctx, *e); err != nil {
		return nil, err
	}
	return e, nil
}

// GetEmployee returns the employee and its salary records. Employees may
// read their own profile.
func (s *Service) GetEmployee(ctx context.Context, actor Actor, id EmployeeID) (*EmployeeDetail, error) {
	if err := s.canAccessEmployee(ctx, actor, id, "view other employees"); err != nil {
		return nil, err
	}
	e, err := s.employee(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	salaries, err := s.store.ListSalaries(ctx, SalaryFilter{EmployeeID: id})
	if err != nil {
		return nil, err
	}
	return &EmployeeDetail{Employee: *e, Salaries: salaries}, nil
}

// ListEmployees returns all employees, active or not, filtered by search.
func (s *Service) ListEmployees(ctx context.Context, actor Actor, search string) ([]Employee, error) {
	if err := requireAdmin(actor, "list employees"); err != nil {
		return nil, err
	}
	return s.store.ListEmployees(ctx, EmployeeFilter{Search: search})
}

// DeactivateEmployee soft-deletes: the row and its history remain.
func (s *Service) DeactivateEmployee(ctx context.Context, actor Actor, id EmployeeID) (*Employee, error) {
	if err := requireAdmin(actor, "deactivate employees"); err != nil {
		return nil, err
	}
	e, err := s.employee(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	e.IsActive = false
	e.UpdatedAt = s.timestamp()
	if err := s.store.UpdateEmployee(ctx, *e); err != nil {
		return nil, err
	}
	return e, nil
}

// LinkEmployeeUser attaches a login identity to an employee. An empty userID
// removes the link. Linking is always an explicit administrative action;
// nothing links identities implicitly (for example by matching email).
func (s *Service) LinkEmployeeUser(ctx context.Context, actor Actor, id EmployeeID, userID string) (*Employee, error) {
	if err := requireAdmin(actor, "link employee accounts"); err != nil {
		return nil, err
	}
	e, err := s.employee(ctx, s.store, id)
	if err != nil {
		return nil, err
	}

	if userID != "" {
		linked, err := s.store.GetEmployeeByUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		if linked != nil && linked.ID != id {
			return nil, &DuplicateRecordError{Kind: "user_link", Key: userID}
		}
	}

	e.UserID = userID
	e.UpdatedAt = s.timestamp()
	if err := s.store.UpdateEmployee(ctx, *e); err != nil {
		return nil, err
	}
	return e, nil
}

// employee loads an employee or returns NotFoundError.
func (s *Service) employee(ctx context.Context, st Store, id EmployeeID) (*Employee, error) {
	e, err := st.GetEmployee(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, &NotFoundError{Kind: "employee", ID: string(id)}
	}
	return e, nil
}
