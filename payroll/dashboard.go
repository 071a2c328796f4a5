package payroll

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

const (
	dashboardRecentPayments = 10
	dashboardChartMonths    = 6
	dashboardRecentSalaries = 5
	dashboardNotifications  = 5
)

// Dashboard is the landing view. Exactly one of Admin and Employee is set,
// unless NoProfile is true (an employee identity not linked to any employee).
type Dashboard struct {
	Admin     *AdminDashboard
	Employee  *EmployeeDashboard
	NoProfile bool
}

type AdminDashboard struct {
	ActiveEmployees int
	TotalPaid       decimal.Decimal
	TotalUnpaid     decimal.Decimal
	PaidThisMonth   decimal.Decimal
	RecentPayments  []Payment
	Chart           []MonthTotal // oldest first, current month last
}

type MonthTotal struct {
	Month time.Month
	Year  int
	Total decimal.Decimal
}

type EmployeeDashboard struct {
	Employee            Employee
	RecentSalaries      []SalaryRecord
	UnpaidCount         int
	UnreadNotifications []Notification
}

// Dashboard builds the admin or employee landing view for the actor.
func (s *Service) Dashboard(ctx context.Context, actor Actor) (*Dashboard, error) {
	switch actor.Role {
	case RoleAdmin:
		d, err := s.adminDashboard(ctx)
		if err != nil {
			return nil, err
		}
		return &Dashboard{Admin: d}, nil
	case RoleEmployee:
		emp, err := s.actorEmployee(ctx, actor)
		if IsNotFound(err) {
			return &Dashboard{NoProfile: true}, nil
		}
		if err != nil {
			return nil, err
		}
		d, err := s.employeeDashboard(ctx, emp)
		if err != nil {
			return nil, err
		}
		return &Dashboard{Employee: d}, nil
	default:
		return nil, &ForbiddenError{Role: actor.Role, Action: "view the dashboard"}
	}
}

func (s *Service) adminDashboard(ctx context.Context) (*AdminDashboard, error) {
	active, err := s.store.ListEmployees(ctx, EmployeeFilter{ActiveOnly: true})
	if err != nil {
		return nil, err
	}
	all, err := s.store.ListSalaries(ctx, SalaryFilter{})
	if err != nil {
		return nil, err
	}
	payments, err := s.store.ListPayments(ctx, dashboardRecentPayments)
	if err != nil {
		return nil, err
	}

	today := s.today()
	d := &AdminDashboard{
		ActiveEmployees: len(active),
		TotalPaid:       SumPaid(all),
		TotalUnpaid:     SumUnpaid(all),
		PaidThisMonth:   decimal.Zero,
		RecentPayments:  payments,
	}

	// Chart covers calendar months ending with the current one.
	first := StartOfMonth(today.Year(), today.Month())
	index := make(map[string]int, dashboardChartMonths)
	for i := dashboardChartMonths - 1; i >= 0; i-- {
		m := first.AddDate(0, -i, 0)
		index[periodKey("", m.Month(), m.Year())] = len(d.Chart)
		d.Chart = append(d.Chart, MonthTotal{Month: m.Month(), Year: m.Year(), Total: decimal.Zero})
	}
	for _, r := range all {
		if !r.IsPaid {
			continue
		}
		if i, ok := index[periodKey("", r.Month, r.Year)]; ok {
			d.Chart[i].Total = d.Chart[i].Total.Add(r.NetSalary)
		}
		if r.Month == today.Month() && r.Year == today.Year() {
			d.PaidThisMonth = d.PaidThisMonth.Add(r.NetSalary)
		}
	}
	return d, nil
}

func (s *Service) employeeDashboard(ctx context.Context, emp *Employee) (*EmployeeDashboard, error) {
	salaries, err := s.store.ListSalaries(ctx, SalaryFilter{EmployeeID: emp.ID})
	if err != nil {
		return nil, err
	}
	unread, err := s.store.ListNotifications(ctx, NotificationFilter{
		EmployeeID: emp.ID,
		UnreadOnly: true,
		Limit:      dashboardNotifications,
	})
	if err != nil {
		return nil, err
	}

	d := &EmployeeDashboard{Employee: *emp, UnreadNotifications: unread}
	for _, r := range salaries {
		if !r.IsPaid {
			d.UnpaidCount++
		}
	}
	if len(salaries) > dashboardRecentSalaries {
		salaries = salaries[:dashboardRecentSalaries]
	}
	d.RecentSalaries = salaries
	return d, nil
}
