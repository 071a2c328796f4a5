package payroll_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/payroll"
)

func TestMonthlyReport_EmptyMonthIsZero(t *testing.T) {
	f := newFixture(t)

	report, err := f.svc.MonthlyReport(f.ctx, admin, time.July, 2024)
	require.NoError(t, err)

	assert.Empty(t, report.Records)
	assert.Equal(t, "0.00", payroll.FormatMoney(report.TotalPaid))
}

func TestMonthlyReport_TotalsOnlyPaidRecords(t *testing.T) {
	// GIVEN: Two March records, one paid; one April record, paid
	// WHEN: The March report is built
	// THEN: Both March records are listed, only the paid one is totalled

	f := newFixture(t)
	a := f.createEmployee(t, "EMP001", "30000")
	b := f.createEmployee(t, "EMP002", "30000")

	f.pay(t, f.salary(t, a.ID, time.March, 2024).ID)
	f.salary(t, b.ID, time.March, 2024)
	f.pay(t, f.salary(t, a.ID, time.April, 2024).ID)

	report, err := f.svc.MonthlyReport(f.ctx, admin, time.March, 2024)
	require.NoError(t, err)

	assert.Len(t, report.Records, 2)
	assert.Equal(t, "27300.00", payroll.FormatMoney(report.TotalPaid))
	assert.Equal(t, "27300.00", payroll.FormatMoney(payroll.SumUnpaid(report.Records)))
}

func TestAnnualReport_SumsPaidPerMonth(t *testing.T) {
	// GIVEN: Paid records in January and March 2024, an unpaid one in
	//        February, and a paid one in 2023
	// THEN: Per-month totals for 2024 only, zero elsewhere

	f := newFixture(t)
	a := f.createEmployee(t, "EMP001", "30000")
	b := f.createEmployee(t, "EMP002", "30000")

	f.pay(t, f.salary(t, a.ID, time.January, 2024).ID)
	f.pay(t, f.salary(t, a.ID, time.March, 2024).ID)
	f.pay(t, f.salary(t, b.ID, time.March, 2024).ID)
	f.salary(t, a.ID, time.February, 2024)
	f.pay(t, f.salary(t, a.ID, time.December, 2023).ID)

	report, err := f.svc.AnnualReport(f.ctx, admin, 2024)
	require.NoError(t, err)

	assert.Len(t, report.Records, 3)
	assert.Equal(t, "27300.00", payroll.FormatMoney(report.ByMonth[0]))
	assert.Equal(t, "0.00", payroll.FormatMoney(report.ByMonth[1]))
	assert.Equal(t, "54600.00", payroll.FormatMoney(report.ByMonth[2]))
	assert.Equal(t, "0.00", payroll.FormatMoney(report.ByMonth[11]))
	assert.Equal(t, "81900.00", payroll.FormatMoney(report.TotalPaid))
}

func TestAnnualReport_EmptyYearIsZero(t *testing.T) {
	f := newFixture(t)
	a := f.createEmployee(t, "EMP001", "30000")
	f.pay(t, f.salary(t, a.ID, time.March, 2023).ID)

	report, err := f.svc.AnnualReport(f.ctx, admin, 2024)
	require.NoError(t, err)

	assert.Empty(t, report.Records)
	assert.Equal(t, "0.00", payroll.FormatMoney(report.TotalPaid))
	for i, m := range report.ByMonth {
		assert.Equal(t, "0.00", payroll.FormatMoney(m), "month %d", i+1)
	}
}

func TestReports_AdminOnly(t *testing.T) {
	f := newFixture(t)
	_, self := f.linkedEmployee(t, "EMP001", "30000")

	_, err := f.svc.MonthlyReport(f.ctx, self, time.March, 2024)
	assert.ErrorIs(t, err, payroll.ErrForbidden)

	_, err = f.svc.AnnualReport(f.ctx, self, 2024)
	assert.ErrorIs(t, err, payroll.ErrForbidden)

	_, err = f.svc.MonthlyReport(f.ctx, admin, 0, 2024)
	assert.ErrorIs(t, err, payroll.ErrValidation)
}
