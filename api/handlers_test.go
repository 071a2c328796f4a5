/*
handlers_test.go - HTTP tests for the payroll API

Tests for:
- Actor headers and role enforcement (403)
- Error mapping (400, 404, 409)
- Reconcile, pay, revert flow over HTTP
- JSON and .xlsx reports
*/
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/export"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/payroll/store"
	"github.com/xuri/excelize/v2"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var testNow = time.Date(2024, time.April, 2, 9, 0, 0, 0, time.UTC)

type caller struct {
	userID string
	role   string
}

var (
	asAdmin    = caller{userID: "admin-1", role: "admin"}
	asStranger = caller{userID: "user-x", role: "employee"}
)

func newTestServer(t *testing.T) (http.Handler, *payroll.Service) {
	t.Helper()
	svc := payroll.NewService(store.NewMemory(),
		payroll.WithClock(func() time.Time { return testNow }))
	return NewRouter(NewHandler(svc)), svc
}

func call(t *testing.T, h http.Handler, as caller, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if as.userID != "" {
		req.Header.Set(HeaderUserID, as.userID)
	}
	if as.role != "" {
		req.Header.Set(HeaderUserRole, as.role)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func employeeBody(code string) map[string]any {
	return map[string]any{
		"employee_id":     code,
		"full_name":       "Asha Rao",
		"email":           code + "@example.com",
		"phone":           "9876543210",
		"date_of_joining": "2023-06-01",
		"designation":     "Engineer",
		"department":      "Platform",
		"bank_name":       "State Bank",
		"account_number":  "00112233",
		"ifsc_code":       "SBIN0001234",
		"base_salary":     "30000",
	}
}

func createEmployee(t *testing.T, h http.Handler, code string) EmployeeDTO {
	t.Helper()
	rec := call(t, h, asAdmin, http.MethodPost, "/api/employees", employeeBody(code))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[EmployeeDTO](t, rec)
}

// reconciledMarch records attendance for 1..days of March 2024 and
// reconciles the month.
func reconciledMarch(t *testing.T, h http.Handler, empID string, days int) SalaryDTO {
	t.Helper()
	for d := 1; d <= days; d++ {
		rec := call(t, h, asAdmin, http.MethodPost, "/api/attendance", map[string]any{
			"employee": empID,
			"date":     fmt.Sprintf("2024-03-%02d", d),
			"status":   "present",
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}
	rec := call(t, h, asAdmin, http.MethodPost, "/api/payroll/reconcile", map[string]any{
		"employee_id": empID, "month": 3, "year": 2024,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[SalaryDTO](t, rec)
}

// =============================================================================
// BASIC ENDPOINTS
// =============================================================================

func TestHealth(t *testing.T) {
	h, _ := newTestServer(t)

	rec := call(t, h, caller{}, http.MethodGet, "/api/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, rec)["status"])
}

func TestCreateEmployee_Errors(t *testing.T) {
	h, _ := newTestServer(t)
	createEmployee(t, h, "EMP001")

	tests := []struct {
		name   string
		as     caller
		body   any
		status int
		errMsg string
	}{
		{"duplicate code", asAdmin, employeeBody("EMP001"), http.StatusConflict, "conflict"},
		{"employee role", asStranger, employeeBody("EMP002"), http.StatusForbidden, "forbidden"},
		{"no role", caller{}, employeeBody("EMP002"), http.StatusForbidden, "forbidden"},
		{"malformed json", asAdmin, "{", http.StatusBadRequest, "invalid request body"},
		{"bad date", asAdmin, func() map[string]any {
			b := employeeBody("EMP003")
			b["date_of_joining"] = "01/06/2023"
			return b
		}(), http.StatusBadRequest, "validation failed"},
		{"bad email", asAdmin, func() map[string]any {
			b := employeeBody("EMP004")
			b["email"] = "nope"
			return b
		}(), http.StatusBadRequest, "validation failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := call(t, h, tt.as, http.MethodPost, "/api/employees", tt.body)

			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.errMsg, decode[ErrorResponse](t, rec).Error)
		})
	}
}

func TestEmployeeEndpoints(t *testing.T) {
	h, _ := newTestServer(t)
	emp := createEmployee(t, h, "EMP001")
	assert.Equal(t, "EMP001", emp.EmployeeID)
	assert.Equal(t, "30000.00", emp.BaseSalary)
	assert.Equal(t, "2023-06-01", emp.DateOfJoining)

	update := employeeBody("EMP001")
	update["base_salary"] = "32000.5"
	rec := call(t, h, asAdmin, http.MethodPut, "/api/employees/"+emp.ID, update)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "32000.50", decode[EmployeeDTO](t, rec).BaseSalary)

	rec = call(t, h, asAdmin, http.MethodDelete, "/api/employees/"+emp.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[EmployeeDTO](t, rec).IsActive)

	rec = call(t, h, asAdmin, http.MethodGet, "/api/employees?search=emp0", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]EmployeeDTO](t, rec), 1)

	rec = call(t, h, asAdmin, http.MethodGet, "/api/employees/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCalculatePreview(t *testing.T) {
	h, _ := newTestServer(t)

	rec := call(t, h, caller{}, http.MethodPost, "/api/salaries/calculate", map[string]any{
		"base_salary": "30000", "total_working_days": 30, "days_present": 26,
		"half_days": 2, "allowances": "500", "deductions": "200",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[CalculateResponse](t, rec)
	assert.Equal(t, "1000.00", got.SalaryPerDay)
	assert.Equal(t, "27000.00", got.CalculatedAmount)
	assert.Equal(t, "27300.00", got.NetSalary)

	rec = call(t, h, caller{}, http.MethodPost, "/api/salaries/calculate", map[string]any{
		"base_salary": "30000", "total_working_days": 30, "deductions": "-1",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// PAYMENT FLOW
// =============================================================================

func TestPaymentFlow(t *testing.T) {
	// GIVEN: An employee with 15 present days in March 2024, reconciled
	// WHEN: The salary is paid, paid again, reverted, reverted again
	// THEN: 201, 409, 200, 409 and the ledger keeps both entries

	h, _ := newTestServer(t)
	emp := createEmployee(t, h, "EMP001")
	sal := reconciledMarch(t, h, emp.ID, 15)
	assert.Equal(t, 31, sal.TotalWorkingDays)
	assert.Equal(t, 15, sal.DaysPresent)
	assert.Equal(t, "967.74", sal.SalaryPerDay)
	assert.Equal(t, "14516.10", sal.NetSalary)

	payURL := "/api/salaries/" + sal.ID + "/payment"
	rec := call(t, h, asAdmin, http.MethodPost, payURL, map[string]any{
		"payment_date": "2024-04-01", "payment_method": "bank_transfer", "transaction_reference": "UTR-9",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	payment := decode[PaymentDTO](t, rec)
	assert.Equal(t, "2024-04-01", payment.PaymentDate)
	assert.Equal(t, "UTR-9", payment.TransactionReference)

	rec = call(t, h, asAdmin, http.MethodPost, payURL, map[string]any{"payment_method": "cash"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = call(t, h, asAdmin, http.MethodGet, "/api/salaries/"+sal.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decode[SalaryDetailDTO](t, rec)
	assert.True(t, detail.Salary.IsPaid)
	require.NotNil(t, detail.Payment)
	assert.Equal(t, payment.ID, detail.Payment.ID)

	rec = call(t, h, asAdmin, http.MethodPost, "/api/salaries/"+sal.ID+"/calculate", nil)
	assert.Equal(t, http.StatusConflict, rec.Code, "paid records are frozen")

	rec = call(t, h, asAdmin, http.MethodPost, "/api/salaries/"+sal.ID+"/mark-unpaid", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.False(t, decode[SalaryDTO](t, rec).IsPaid)

	rec = call(t, h, asAdmin, http.MethodPost, "/api/salaries/"+sal.ID+"/mark-unpaid", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = call(t, h, asAdmin, http.MethodGet, "/api/transactions?employee="+emp.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	txs := decode[[]TransactionDTO](t, rec)
	require.Len(t, txs, 2)
	assert.Equal(t, "reversal", txs[0].Type)
	assert.Equal(t, "-14516.10", txs[0].Amount)
	assert.Equal(t, "disbursement", txs[1].Type)
	assert.Equal(t, "14516.10", txs[1].Amount)
}

func TestProcessPayment_Errors(t *testing.T) {
	h, _ := newTestServer(t)
	emp := createEmployee(t, h, "EMP001")
	sal := reconciledMarch(t, h, emp.ID, 1)
	payURL := "/api/salaries/" + sal.ID + "/payment"

	rec := call(t, h, asAdmin, http.MethodPost, payURL, map[string]any{"payment_method": "gold"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(t, h, asAdmin, http.MethodPost, payURL, map[string]any{
		"payment_method": "cash", "payment_date": "yesterday",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(t, h, asAdmin, http.MethodPost, "/api/salaries/missing/payment", map[string]any{"payment_method": "cash"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReconcileAll(t *testing.T) {
	h, _ := newTestServer(t)
	createEmployee(t, h, "EMP001")
	createEmployee(t, h, "EMP002")

	rec := call(t, h, asAdmin, http.MethodPost, "/api/payroll/reconcile", map[string]any{"month": 3, "year": 2024})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	summary := decode[ReconcileSummaryDTO](t, rec)
	assert.Equal(t, 2, summary.Created)
	assert.Equal(t, 0, summary.Reconciled)
	assert.Empty(t, summary.Failures)

	rec = call(t, h, asAdmin, http.MethodPost, "/api/payroll/reconcile", map[string]any{"month": 0, "year": 2024})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// EMPLOYEE SELF-SERVICE
// =============================================================================

func TestEmployeeSelfService(t *testing.T) {
	// GIVEN: Two employees, one linked to user-1, both with a paid March salary
	// THEN: user-1 sees only their own salary, ledger and inbox

	h, _ := newTestServer(t)
	me := createEmployee(t, h, "EMP001")
	other := createEmployee(t, h, "EMP002")
	rec := call(t, h, asAdmin, http.MethodPost, "/api/employees/"+me.ID+"/link", map[string]any{"user_id": "user-1"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "user-1", decode[EmployeeDTO](t, rec).UserID)

	mine := reconciledMarch(t, h, me.ID, 2)
	theirs := reconciledMarch(t, h, other.ID, 3)
	for _, id := range []string{mine.ID, theirs.ID} {
		rec := call(t, h, asAdmin, http.MethodPost, "/api/salaries/"+id+"/payment", map[string]any{"payment_method": "upi"})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	self := caller{userID: "user-1", role: "Employee"}

	rec = call(t, h, self, http.MethodGet, "/api/salaries", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	salaries := decode[[]SalaryDTO](t, rec)
	require.Len(t, salaries, 1)
	assert.Equal(t, mine.ID, salaries[0].ID)

	rec = call(t, h, self, http.MethodGet, "/api/salaries/"+theirs.ID, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = call(t, h, self, http.MethodGet, "/api/transactions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]TransactionDTO](t, rec), 1)

	rec = call(t, h, self, http.MethodGet, "/api/notifications", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	notes := decode[[]NotificationDTO](t, rec)
	require.Len(t, notes, 1)
	assert.Equal(t, "salary_paid", notes[0].Type)

	rec = call(t, h, self, http.MethodPost, "/api/notifications/"+notes[0].ID+"/read", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[NotificationDTO](t, rec).IsRead)

	rec = call(t, h, self, http.MethodGet, "/api/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	dash := decode[DashboardDTO](t, rec)
	require.NotNil(t, dash.Employee)
	assert.Equal(t, me.ID, dash.Employee.Employee.ID)
	assert.Empty(t, dash.Employee.UnreadNotifications)

	rec = call(t, h, self, http.MethodGet, "/api/reports/monthly?month=3&year=2024", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDashboard_UnlinkedEmployee(t *testing.T) {
	h, _ := newTestServer(t)

	rec := call(t, h, asStranger, http.MethodGet, "/api/dashboard", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	dash := decode[DashboardDTO](t, rec)
	assert.True(t, dash.NoProfile)
	assert.Nil(t, dash.Employee)
	assert.Nil(t, dash.Admin)
}

// =============================================================================
// REPORTS
// =============================================================================

func TestMonthlyReport(t *testing.T) {
	h, _ := newTestServer(t)
	emp := createEmployee(t, h, "EMP001")
	sal := reconciledMarch(t, h, emp.ID, 31)
	rec := call(t, h, asAdmin, http.MethodPost, "/api/salaries/"+sal.ID+"/payment", map[string]any{"payment_method": "cash"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = call(t, h, asAdmin, http.MethodGet, "/api/reports/monthly?month=3&year=2024", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	report := decode[MonthlyReportDTO](t, rec)
	assert.Equal(t, "March 2024", report.Period)
	assert.Len(t, report.Records, 1)
	assert.Equal(t, "29999.94", report.TotalPaid)

	rec = call(t, h, asAdmin, http.MethodGet, "/api/reports/monthly?month=5&year=2024", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	empty := decode[MonthlyReportDTO](t, rec)
	assert.Empty(t, empty.Records)
	assert.Equal(t, "0.00", empty.TotalPaid)

	rec = call(t, h, asAdmin, http.MethodGet, "/api/reports/monthly?year=2024", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(t, h, asAdmin, http.MethodGet, "/api/reports/monthly?month=march&year=2024", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReportExports(t *testing.T) {
	h, _ := newTestServer(t)
	emp := createEmployee(t, h, "EMP001")
	sal := reconciledMarch(t, h, emp.ID, 31)
	rec := call(t, h, asAdmin, http.MethodPost, "/api/salaries/"+sal.ID+"/payment", map[string]any{"payment_method": "cash"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = call(t, h, asAdmin, http.MethodGet, "/api/reports/monthly/export?month=3&year=2024", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "payroll-2024-03.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	title, err := f.GetCellValue(export.MonthlySheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Payroll March 2024", title)
	code, err := f.GetCellValue(export.MonthlySheet, "A4")
	require.NoError(t, err)
	assert.Equal(t, "EMP001", code)

	rec = call(t, h, asAdmin, http.MethodGet, "/api/reports/annual/export?year=2024", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "payroll-2024.xlsx")

	annual, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer annual.Close()
	march, err := annual.GetCellValue(export.AnnualSheet, "A6")
	require.NoError(t, err)
	assert.Equal(t, "March", march)

	rec = call(t, h, asAdmin, http.MethodGet, "/api/reports/annual?year=2024", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	report := decode[AnnualReportDTO](t, rec)
	require.Len(t, report.Months, 12)
	assert.Equal(t, "29999.94", report.Months[2].Total)
	assert.Equal(t, "29999.94", report.TotalPaid)
}
