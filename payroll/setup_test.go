package payroll_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/payroll/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var (
	admin = payroll.Actor{UserID: "admin-1", Role: payroll.RoleAdmin}

	// march15 is the fixed "now" of every test service.
	march15 = time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)
)

type fixture struct {
	svc   *payroll.Service
	store *store.Memory
	ctx   context.Context
}

func newFixture(t *testing.T, opts ...payroll.Option) *fixture {
	t.Helper()
	mem := store.NewMemory()
	return &fixture{
		svc:   newService(mem, opts...),
		store: mem,
		ctx:   context.Background(),
	}
}

func newService(st payroll.TxStore, opts ...payroll.Option) *payroll.Service {
	base := []payroll.Option{
		payroll.WithClock(func() time.Time { return march15 }),
		payroll.WithIDGenerator(sequentialIDs()),
	}
	return payroll.NewService(st, append(base, opts...)...)
}

func sequentialIDs() func() string {
	var n atomic.Int64
	return func() string { return fmt.Sprintf("id-%d", n.Add(1)) }
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func employeeInput(code string, base string) payroll.EmployeeInput {
	return payroll.EmployeeInput{
		Code:          code,
		FullName:      "Employee " + code,
		Email:         code + "@example.com",
		Phone:         "9876543210",
		DateOfJoining: time.Date(2023, time.June, 1, 0, 0, 0, 0, time.UTC),
		Designation:   "Engineer",
		Department:    "Platform",
		BankName:      "State Bank",
		AccountNumber: "00112233",
		IFSCCode:      "SBIN0001234",
		BaseSalary:    money(base),
	}
}

func (f *fixture) createEmployee(t *testing.T, code string, base string) *payroll.Employee {
	t.Helper()
	emp, err := f.svc.CreateEmployee(f.ctx, admin, employeeInput(code, base))
	require.NoError(t, err)
	return emp
}

// linkedEmployee creates an employee linked to a login and returns both.
func (f *fixture) linkedEmployee(t *testing.T, code string, base string) (*payroll.Employee, payroll.Actor) {
	t.Helper()
	emp := f.createEmployee(t, code, base)
	userID := "user-" + code
	_, err := f.svc.LinkEmployeeUser(f.ctx, admin, emp.ID, userID)
	require.NoError(t, err)
	return emp, payroll.Actor{UserID: userID, Role: payroll.RoleEmployee}
}

func (f *fixture) attend(t *testing.T, empID payroll.EmployeeID, status payroll.AttendanceStatus, dates ...time.Time) {
	t.Helper()
	for _, d := range dates {
		_, err := f.svc.RecordAttendance(f.ctx, admin, payroll.AttendanceInput{
			EmployeeID: empID,
			Date:       d,
			Status:     status,
		})
		require.NoError(t, err)
	}
}

// salary creates an unpaid record for the period with fixed tallies.
func (f *fixture) salary(t *testing.T, empID payroll.EmployeeID, month time.Month, year int) *payroll.SalaryRecord {
	t.Helper()
	rec, err := f.svc.CreateSalary(f.ctx, admin, payroll.SalaryInput{
		EmployeeID:       empID,
		Month:            month,
		Year:             year,
		TotalWorkingDays: 30,
		DaysPresent:      26,
		HalfDays:         2,
		Allowances:       money("500"),
		Deductions:       money("200"),
	})
	require.NoError(t, err)
	return rec
}

func (f *fixture) pay(t *testing.T, id payroll.SalaryID) *payroll.Payment {
	t.Helper()
	p, err := f.svc.ProcessPayment(f.ctx, admin, id, payroll.PaymentInput{Method: payroll.MethodBankTransfer})
	require.NoError(t, err)
	return p
}

// days returns the given days of a month as dates.
func days(year int, month time.Month, ds ...int) []time.Time {
	out := make([]time.Time, 0, len(ds))
	for _, d := range ds {
		out = append(out, payroll.NewDate(year, month, d))
	}
	return out
}

func dayRange(year int, month time.Month, from, to int) []time.Time {
	var out []time.Time
	for d := from; d <= to; d++ {
		out = append(out, payroll.NewDate(year, month, d))
	}
	return out
}
