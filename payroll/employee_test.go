package payroll_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// EMPLOYEE TESTS
// =============================================================================

func TestCreateEmployee(t *testing.T) {
	f := newFixture(t)

	emp, err := f.svc.CreateEmployee(f.ctx, admin, employeeInput("EMP001", "30000.555"))
	require.NoError(t, err)

	assert.NotEmpty(t, emp.ID)
	assert.Equal(t, "EMP001", emp.Code)
	assert.True(t, emp.IsActive)
	assert.Equal(t, "30000.56", payroll.FormatMoney(emp.BaseSalary))
	assert.Equal(t, march15, emp.CreatedAt)
}

func TestCreateEmployee_DuplicateCode(t *testing.T) {
	f := newFixture(t)
	f.createEmployee(t, "EMP001", "30000")

	_, err := f.svc.CreateEmployee(f.ctx, admin, employeeInput("EMP001", "1"))

	var dup *payroll.DuplicateRecordError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "employee", dup.Kind)
}

func TestCreateEmployee_Validation(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*payroll.EmployeeInput)
		field string
	}{
		{"missing code", func(in *payroll.EmployeeInput) { in.Code = "" }, "code"},
		{"bad email", func(in *payroll.EmployeeInput) { in.Email = "not-an-email" }, "email"},
		{"long phone", func(in *payroll.EmployeeInput) { in.Phone = "+91 98765 43210 00" }, "phone"},
		{"missing joining date", func(in *payroll.EmployeeInput) { in.DateOfJoining = time.Time{} }, "date_of_joining"},
		{"missing ifsc", func(in *payroll.EmployeeInput) { in.IFSCCode = "" }, "ifsc_code"},
		{"negative base", func(in *payroll.EmployeeInput) { in.BaseSalary = money("-1") }, "base_salary"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			in := employeeInput("EMP001", "30000")
			tt.edit(&in)

			_, err := f.svc.CreateEmployee(f.ctx, admin, in)

			var verr *payroll.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestDeactivateEmployee_KeepsHistory(t *testing.T) {
	// GIVEN: An employee with a salary record
	// WHEN: Deactivated
	// THEN: Still listed and readable, marked inactive, history intact

	f := newFixture(t)
	emp := f.createEmployee(t, "EMP001", "30000")
	f.salary(t, emp.ID, time.March, 2024)

	got, err := f.svc.DeactivateEmployee(f.ctx, admin, emp.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	all, err := f.svc.ListEmployees(f.ctx, admin, "")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.False(t, all[0].IsActive)

	detail, err := f.svc.GetEmployee(f.ctx, admin, emp.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Salaries, 1)
}

func TestListEmployees_Search(t *testing.T) {
	f := newFixture(t)
	f.createEmployee(t, "ENG-7", "1000")
	f.createEmployee(t, "OPS-2", "1000")

	got, err := f.svc.ListEmployees(f.ctx, admin, "eng")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ENG-7", got[0].Code)
}

func TestLinkEmployeeUser(t *testing.T) {
	f := newFixture(t)
	a, actor := f.linkedEmployee(t, "EMP001", "30000")
	b := f.createEmployee(t, "EMP002", "30000")

	_, err := f.svc.LinkEmployeeUser(f.ctx, admin, b.ID, actor.UserID)
	var dup *payroll.DuplicateRecordError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "user_link", dup.Kind)

	// Re-linking the same pair is fine.
	_, err = f.svc.LinkEmployeeUser(f.ctx, admin, a.ID, actor.UserID)
	require.NoError(t, err)

	// Unlink frees the identity.
	_, err = f.svc.LinkEmployeeUser(f.ctx, admin, a.ID, "")
	require.NoError(t, err)
	got, err := f.svc.LinkEmployeeUser(f.ctx, admin, b.ID, actor.UserID)
	require.NoError(t, err)
	assert.Equal(t, actor.UserID, got.UserID)
}

// =============================================================================
// ATTENDANCE TESTS
// =============================================================================

func TestRecordAttendance(t *testing.T) {
	f := newFixture(t)
	emp := f.createEmployee(t, "EMP001", "30000")

	rec, err := f.svc.RecordAttendance(f.ctx, admin, payroll.AttendanceInput{
		EmployeeID: emp.ID,
		Date:       time.Date(2024, time.March, 4, 9, 15, 0, 0, time.UTC),
		CheckIn:    "09:15",
		CheckOut:   "18:00",
	})
	require.NoError(t, err)
	assert.Equal(t, payroll.StatusPresent, rec.Status, "status defaults to present")
	assert.Equal(t, payroll.NewDate(2024, time.March, 4), rec.Date)

	_, err = f.svc.RecordAttendance(f.ctx, admin, payroll.AttendanceInput{
		EmployeeID: emp.ID,
		Date:       payroll.NewDate(2024, time.March, 4),
		Status:     payroll.StatusAbsent,
	})
	var dup *payroll.DuplicateRecordError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "attendance", dup.Kind)
}

func TestRecordAttendance_Rejects(t *testing.T) {
	f := newFixture(t)
	emp := f.createEmployee(t, "EMP001", "30000")
	day := payroll.NewDate(2024, time.March, 4)

	_, err := f.svc.RecordAttendance(f.ctx, admin, payroll.AttendanceInput{
		EmployeeID: emp.ID, Date: day, CheckIn: "18:00", CheckOut: "09:00",
	})
	var verr *payroll.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "check_out", verr.Field)

	_, err = f.svc.RecordAttendance(f.ctx, admin, payroll.AttendanceInput{
		EmployeeID: emp.ID, Date: day, Status: "sleeping",
	})
	assert.ErrorIs(t, err, payroll.ErrValidation)

	_, err = f.svc.RecordAttendance(f.ctx, admin, payroll.AttendanceInput{
		EmployeeID: "nobody", Date: day,
	})
	assert.ErrorIs(t, err, payroll.ErrNotFound)
}

func TestRecordAttendance_ClockTimes(t *testing.T) {
	// GIVEN: A check-in with a one-digit hour
	// WHEN: It is recorded with a later check-out
	// THEN: The times are compared as times and stored zero-padded

	f := newFixture(t)
	emp := f.createEmployee(t, "EMP001", "30000")

	rec, err := f.svc.RecordAttendance(f.ctx, admin, payroll.AttendanceInput{
		EmployeeID: emp.ID, Date: payroll.NewDate(2024, time.March, 4), CheckIn: "9:30", CheckOut: "17:00",
	})
	require.NoError(t, err)
	assert.Equal(t, "09:30", rec.CheckIn)
	assert.Equal(t, "17:00", rec.CheckOut)

	_, err = f.svc.RecordAttendance(f.ctx, admin, payroll.AttendanceInput{
		EmployeeID: emp.ID, Date: payroll.NewDate(2024, time.March, 5), CheckIn: "10:00", CheckOut: "9:59",
	})
	var verr *payroll.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "check_out", verr.Field)

	_, err = f.svc.RecordAttendance(f.ctx, admin, payroll.AttendanceInput{
		EmployeeID: emp.ID, Date: payroll.NewDate(2024, time.March, 6), CheckIn: "25:00",
	})
	assert.ErrorIs(t, err, payroll.ErrValidation)
}

// =============================================================================
// ACCESS TESTS
// =============================================================================

func TestUnknownRole_Forbidden(t *testing.T) {
	f := newFixture(t)
	emp := f.createEmployee(t, "EMP001", "30000")
	guest := payroll.Actor{UserID: "user-EMP001", Role: "guest"}

	_, err := f.svc.ListEmployees(f.ctx, guest, "")
	var ferr *payroll.ForbiddenError
	require.ErrorAs(t, err, &ferr)
	assert.Contains(t, ferr.Error(), "without a known role")

	_, err = f.svc.ListSalaries(f.ctx, guest, emp.ID)
	require.ErrorAs(t, err, &ferr)
	assert.Contains(t, ferr.Error(), "without a known role")
}

func TestEmployeeActor_SeesOnlyOwnRecords(t *testing.T) {
	// GIVEN: Two linked employees with salary records
	// WHEN: One of them reads
	// THEN: Own records are visible, the colleague's are forbidden

	f := newFixture(t)
	me, self := f.linkedEmployee(t, "EMP001", "30000")
	other, _ := f.linkedEmployee(t, "EMP002", "30000")
	mine := f.salary(t, me.ID, time.March, 2024)
	theirs := f.salary(t, other.ID, time.March, 2024)

	list, err := f.svc.ListSalaries(f.ctx, self, other.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, mine.ID, list[0].ID, "filter is overridden with own employee")

	_, err = f.svc.GetSalary(f.ctx, self, mine.ID)
	assert.NoError(t, err)
	_, err = f.svc.GetSalary(f.ctx, self, theirs.ID)
	assert.ErrorIs(t, err, payroll.ErrForbidden)

	_, err = f.svc.GetEmployee(f.ctx, self, me.ID)
	assert.NoError(t, err)
	_, err = f.svc.GetEmployee(f.ctx, self, other.ID)
	assert.ErrorIs(t, err, payroll.ErrForbidden)

	_, err = f.svc.ListEmployees(f.ctx, self, "")
	assert.ErrorIs(t, err, payroll.ErrForbidden)
	_, err = f.svc.CreateSalary(f.ctx, self, payroll.SalaryInput{EmployeeID: me.ID, Month: time.May, Year: 2024})
	assert.ErrorIs(t, err, payroll.ErrForbidden)
}

func TestEmployeeActor_Unlinked(t *testing.T) {
	f := newFixture(t)
	stranger := payroll.Actor{UserID: "user-x", Role: payroll.RoleEmployee}

	_, err := f.svc.ListSalaries(f.ctx, stranger, "")
	assert.ErrorIs(t, err, payroll.ErrNotFound)

	d, err := f.svc.Dashboard(f.ctx, stranger)
	require.NoError(t, err)
	assert.True(t, d.NoProfile)
	assert.Nil(t, d.Admin)
	assert.Nil(t, d.Employee)
}

func TestCreateSalary_DuplicatePeriod(t *testing.T) {
	f := newFixture(t)
	emp := f.createEmployee(t, "EMP001", "30000")
	f.salary(t, emp.ID, time.March, 2024)

	_, err := f.svc.CreateSalary(f.ctx, admin, payroll.SalaryInput{EmployeeID: emp.ID, Month: time.March, Year: 2024})

	var dup *payroll.DuplicateRecordError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "salary", dup.Kind)
}

// =============================================================================
// NOTIFICATION AND DASHBOARD TESTS
// =============================================================================

func TestNotifications_Inbox(t *testing.T) {
	f := newFixture(t)
	me, self := f.linkedEmployee(t, "EMP001", "30000")
	other, colleague := f.linkedEmployee(t, "EMP002", "30000")
	f.pay(t, f.salary(t, me.ID, time.March, 2024).ID)
	f.pay(t, f.salary(t, other.ID, time.March, 2024).ID)

	mine, err := f.svc.ListNotifications(f.ctx, self)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, me.ID, mine[0].EmployeeID)

	_, err = f.svc.MarkNotificationRead(f.ctx, colleague, mine[0].ID)
	assert.ErrorIs(t, err, payroll.ErrForbidden)

	n, err := f.svc.MarkNotificationRead(f.ctx, self, mine[0].ID)
	require.NoError(t, err)
	assert.True(t, n.IsRead)

	n, err = f.svc.MarkNotificationRead(f.ctx, self, mine[0].ID)
	require.NoError(t, err)
	assert.True(t, n.IsRead)

	_, err = f.svc.MarkNotificationRead(f.ctx, self, "missing")
	assert.ErrorIs(t, err, payroll.ErrNotFound)

	all, err := f.svc.ListNotifications(f.ctx, admin)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestDashboard_Admin(t *testing.T) {
	// GIVEN: Now is March 15 2024; a paid March record, an unpaid February
	//        record, and an inactive employee
	// THEN: Totals split paid/unpaid, chart ends at March 2024

	f := newFixture(t)
	emp := f.createEmployee(t, "EMP001", "30000")
	gone := f.createEmployee(t, "EMP002", "30000")
	_, err := f.svc.DeactivateEmployee(f.ctx, admin, gone.ID)
	require.NoError(t, err)
	f.pay(t, f.salary(t, emp.ID, time.March, 2024).ID)
	f.salary(t, emp.ID, time.February, 2024)

	d, err := f.svc.Dashboard(f.ctx, admin)
	require.NoError(t, err)
	require.NotNil(t, d.Admin)

	assert.Equal(t, 1, d.Admin.ActiveEmployees)
	assert.Equal(t, "27300.00", payroll.FormatMoney(d.Admin.TotalPaid))
	assert.Equal(t, "27300.00", payroll.FormatMoney(d.Admin.TotalUnpaid))
	assert.Equal(t, "27300.00", payroll.FormatMoney(d.Admin.PaidThisMonth))
	assert.Len(t, d.Admin.RecentPayments, 1)

	require.Len(t, d.Admin.Chart, 6)
	assert.Equal(t, time.October, d.Admin.Chart[0].Month)
	assert.Equal(t, 2023, d.Admin.Chart[0].Year)
	last := d.Admin.Chart[5]
	assert.Equal(t, time.March, last.Month)
	assert.Equal(t, "27300.00", payroll.FormatMoney(last.Total))
	assert.Equal(t, "0.00", payroll.FormatMoney(d.Admin.Chart[4].Total))
}

func TestDashboard_Employee(t *testing.T) {
	f := newFixture(t)
	me, self := f.linkedEmployee(t, "EMP001", "30000")
	f.pay(t, f.salary(t, me.ID, time.March, 2024).ID)
	f.salary(t, me.ID, time.February, 2024)

	d, err := f.svc.Dashboard(f.ctx, self)
	require.NoError(t, err)
	require.NotNil(t, d.Employee)

	assert.Equal(t, me.ID, d.Employee.Employee.ID)
	assert.Len(t, d.Employee.RecentSalaries, 2)
	assert.Equal(t, time.March, d.Employee.RecentSalaries[0].Month)
	assert.Equal(t, 1, d.Employee.UnpaidCount)
	assert.Len(t, d.Employee.UnreadNotifications, 1)
}
