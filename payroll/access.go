package payroll

import "context"

// =============================================================================
// ACTORS - Capability checks are explicit, never ambient session state
// =============================================================================

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
)

func (r Role) Valid() bool { return r == RoleAdmin || r == RoleEmployee }

// Actor is the caller of a service operation. UserID is the login identity
// established by the auth layer in front of this package.
type Actor struct {
	UserID string
	Role   Role
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// unknownRole is the action reported for callers whose role is neither
// admin nor employee.
const unknownRole = "use payroll without a known role"

// requireAdmin fails with ForbiddenError unless the actor is an admin.
func requireAdmin(a Actor, action string) error {
	if a.IsAdmin() {
		return nil
	}
	if !a.Role.Valid() {
		action = unknownRole
	}
	return &ForbiddenError{Role: a.Role, Action: action}
}

// actorEmployee resolves a non-admin actor to its linked employee.
func (s *Service) actorEmployee(ctx context.Context, a Actor) (*Employee, error) {
	if !a.Role.Valid() {
		return nil, &ForbiddenError{Role: a.Role, Action: unknownRole}
	}
	if a.Role != RoleEmployee {
		return nil, &ForbiddenError{Role: a.Role, Action: "act as an employee"}
	}
	if a.UserID == "" {
		return nil, &NotFoundError{Kind: "employee", ID: "(no user)"}
	}
	emp, err := s.store.GetEmployeeByUser(ctx, a.UserID)
	if err != nil {
		return nil, err
	}
	if emp == nil {
		return nil, &NotFoundError{Kind: "employee", ID: "user:" + a.UserID}
	}
	return emp, nil
}

// canAccessEmployee allows admins and the employee linked to the actor.
func (s *Service) canAccessEmployee(ctx context.Context, a Actor, id EmployeeID, action string) error {
	if a.IsAdmin() {
		return nil
	}
	emp, err := s.actorEmployee(ctx, a)
	if err != nil {
		return err
	}
	if emp.ID != id {
		return &ForbiddenError{Role: a.Role, Action: action}
	}
	return nil
}
