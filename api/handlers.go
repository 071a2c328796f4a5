/*
handlers.go - HTTP API handlers for the payroll service

PURPOSE:
  Exposes payroll.Service via REST. Handles HTTP request/response, JSON
  serialization and wire-format conversion, and delegates every decision
  (including role checks) to the service.

ENDPOINTS:
  Employees:
    GET    /api/employees?search=      List employees (admin)
    POST   /api/employees              Create employee (admin)
    GET    /api/employees/{id}         Employee with salary history
    PUT    /api/employees/{id}         Update employee (admin)
    DELETE /api/employees/{id}         Deactivate employee (admin, soft delete)
    POST   /api/employees/{id}/link    Link/unlink a login identity (admin)

  Attendance:
    GET    /api/attendance?employee=   List attendance (admin)
    POST   /api/attendance             Record attendance (admin)

  Salaries:
    POST   /api/salaries/calculate     Calculator preview, nothing stored
    GET    /api/salaries?employee=     List salary records
    POST   /api/salaries               Create salary record (admin)
    GET    /api/salaries/{id}          Salary record with employee and payment
    POST   /api/salaries/{id}/calculate    Reconcile from attendance (admin)
    POST   /api/salaries/{id}/payment      Process payment (admin)
    POST   /api/salaries/{id}/mark-unpaid  Revert payment (admin)
    POST   /api/payroll/reconcile      Reconcile one employee or everyone (admin)

  Ledger, reports, notifications:
    GET    /api/transactions?employee=
    GET    /api/reports/monthly?month=&year=   (+ /export for .xlsx)
    GET    /api/reports/annual?year=           (+ /export for .xlsx)
    GET    /api/notifications
    POST   /api/notifications/{id}/read

ACTOR:
  The caller is taken from X-User-ID and X-User-Role, set by the auth layer
  in front of this service. Unknown roles are rejected by the service (403).

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, malformed body or query
  - 403: Role may not perform the action
  - 404: Resource not found
  - 409: Already paid / not paid / duplicate record
  - 500: Internal errors (logged with the request ID)

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/warp/payroll-engine/export"
	"github.com/warp/payroll-engine/payroll"
	"github.com/xuri/excelize/v2"
)

const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *payroll.Service
}

// NewHandler creates a new handler over the payroll service.
func NewHandler(svc *payroll.Service) *Handler {
	return &Handler{Service: svc}
}

func actorFrom(r *http.Request) payroll.Actor {
	return payroll.Actor{
		UserID: strings.TrimSpace(r.Header.Get(HeaderUserID)),
		Role:   payroll.Role(strings.ToLower(strings.TrimSpace(r.Header.Get(HeaderUserRole)))),
	}
}

// =============================================================================
// HEALTH AND DASHBOARD
// =============================================================================

// Health handles GET /api/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Dashboard handles GET /api/dashboard
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	d, err := h.Service.Dashboard(r.Context(), actor)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDashboardDTO(actor.Role, d))
}

// =============================================================================
// EMPLOYEE ENDPOINTS
// =============================================================================

// ListEmployees handles GET /api/employees
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Service.ListEmployees(r.Context(), actorFrom(r), r.URL.Query().Get("search"))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTOs(employees))
}

// CreateEmployee handles POST /api/employees
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req EmployeeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in, err := req.toInput()
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	emp, err := h.Service.CreateEmployee(r.Context(), actorFrom(r), in)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(*emp))
}

// GetEmployee handles GET /api/employees/{id}
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id := payroll.EmployeeID(chi.URLParam(r, "id"))
	detail, err := h.Service.GetEmployee(r.Context(), actorFrom(r), id)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, EmployeeDetailDTO{
		EmployeeDTO: toEmployeeDTO(detail.Employee),
		Salaries:    toSalaryDTOs(detail.Salaries),
	})
}

// UpdateEmployee handles PUT /api/employees/{id}
func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	var req EmployeeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in, err := req.toInput()
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	id := payroll.EmployeeID(chi.URLParam(r, "id"))
	emp, err := h.Service.UpdateEmployee(r.Context(), actorFrom(r), id, in)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*emp))
}

// DeactivateEmployee handles DELETE /api/employees/{id}
func (h *Handler) DeactivateEmployee(w http.ResponseWriter, r *http.Request) {
	id := payroll.EmployeeID(chi.URLParam(r, "id"))
	emp, err := h.Service.DeactivateEmployee(r.Context(), actorFrom(r), id)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*emp))
}

// LinkEmployeeUser handles POST /api/employees/{id}/link
func (h *Handler) LinkEmployeeUser(w http.ResponseWriter, r *http.Request) {
	var req LinkUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	id := payroll.EmployeeID(chi.URLParam(r, "id"))
	emp, err := h.Service.LinkEmployeeUser(r.Context(), actorFrom(r), id, strings.TrimSpace(req.UserID))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*emp))
}

func (req EmployeeRequest) toInput() (payroll.EmployeeInput, error) {
	joined, err := parseDateField("date_of_joining", req.DateOfJoining, true)
	if err != nil {
		return payroll.EmployeeInput{}, err
	}
	return payroll.EmployeeInput{
		Code:          strings.TrimSpace(req.EmployeeID),
		UserID:        strings.TrimSpace(req.UserID),
		FullName:      strings.TrimSpace(req.FullName),
		Email:         strings.TrimSpace(req.Email),
		Phone:         strings.TrimSpace(req.Phone),
		Address:       req.Address,
		DateOfJoining: joined,
		Designation:   req.Designation,
		Department:    req.Department,
		BankName:      req.BankName,
		AccountNumber: req.AccountNumber,
		IFSCCode:      req.IFSCCode,
		BaseSalary:    req.BaseSalary,
	}, nil
}

// =============================================================================
// ATTENDANCE ENDPOINTS
// =============================================================================

// ListAttendance handles GET /api/attendance
func (h *Handler) ListAttendance(w http.ResponseWriter, r *http.Request) {
	employeeID := payroll.EmployeeID(r.URL.Query().Get("employee"))
	records, err := h.Service.ListAttendance(r.Context(), actorFrom(r), employeeID)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	out := make([]AttendanceDTO, 0, len(records))
	for _, a := range records {
		out = append(out, toAttendanceDTO(a))
	}
	writeJSON(w, http.StatusOK, out)
}

// RecordAttendance handles POST /api/attendance
func (h *Handler) RecordAttendance(w http.ResponseWriter, r *http.Request) {
	var req AttendanceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	day, err := parseDateField("date", req.Date, true)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	rec, err := h.Service.RecordAttendance(r.Context(), actorFrom(r), payroll.AttendanceInput{
		EmployeeID: payroll.EmployeeID(req.EmployeeID),
		Date:       day,
		Status:     payroll.AttendanceStatus(req.Status),
		CheckIn:    req.CheckIn,
		CheckOut:   req.CheckOut,
		Notes:      req.Notes,
	})
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAttendanceDTO(*rec))
}

// =============================================================================
// SALARY ENDPOINTS
// =============================================================================

// CalculatePreview handles POST /api/salaries/calculate
func (h *Handler) CalculatePreview(w http.ResponseWriter, r *http.Request) {
	var req CalculateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	b, err := payroll.PreviewSalary(payroll.SalaryInputs{
		BaseSalary:       req.BaseSalary,
		TotalWorkingDays: req.TotalWorkingDays,
		DaysPresent:      req.DaysPresent,
		HalfDays:         req.HalfDays,
		Allowances:       req.Allowances,
		Deductions:       req.Deductions,
	})
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, CalculateResponse{
		SalaryPerDay:     money(b.SalaryPerDay),
		CalculatedAmount: money(b.CalculatedAmount),
		NetSalary:        money(b.NetSalary),
	})
}

// ListSalaries handles GET /api/salaries
func (h *Handler) ListSalaries(w http.ResponseWriter, r *http.Request) {
	employeeID := payroll.EmployeeID(r.URL.Query().Get("employee"))
	records, err := h.Service.ListSalaries(r.Context(), actorFrom(r), employeeID)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSalaryDTOs(records))
}

// CreateSalary handles POST /api/salaries
func (h *Handler) CreateSalary(w http.ResponseWriter, r *http.Request) {
	var req SalaryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	rec, err := h.Service.CreateSalary(r.Context(), actorFrom(r), payroll.SalaryInput{
		EmployeeID:       payroll.EmployeeID(req.EmployeeID),
		Month:            time.Month(req.Month),
		Year:             req.Year,
		BaseSalary:       req.BaseSalary,
		TotalWorkingDays: req.TotalWorkingDays,
		DaysPresent:      req.DaysPresent,
		DaysAbsent:       req.DaysAbsent,
		DaysOnLeave:      req.DaysOnLeave,
		HalfDays:         req.HalfDays,
		Allowances:       req.Allowances,
		Deductions:       req.Deductions,
	})
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSalaryDTO(*rec))
}

// GetSalary handles GET /api/salaries/{id}
func (h *Handler) GetSalary(w http.ResponseWriter, r *http.Request) {
	id := payroll.SalaryID(chi.URLParam(r, "id"))
	detail, err := h.Service.GetSalary(r.Context(), actorFrom(r), id)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	out := SalaryDetailDTO{
		Salary:   toSalaryDTO(detail.Salary),
		Employee: toEmployeeDTO(detail.Employee),
	}
	if detail.Payment != nil {
		p := toPaymentDTO(*detail.Payment)
		out.Payment = &p
	}
	writeJSON(w, http.StatusOK, out)
}

// ReconcileSalary handles POST /api/salaries/{id}/calculate
func (h *Handler) ReconcileSalary(w http.ResponseWriter, r *http.Request) {
	id := payroll.SalaryID(chi.URLParam(r, "id"))
	rec, err := h.Service.ReconcileSalary(r.Context(), actorFrom(r), id)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSalaryDTO(*rec))
}

// ProcessPayment handles POST /api/salaries/{id}/payment
func (h *Handler) ProcessPayment(w http.ResponseWriter, r *http.Request) {
	var req PaymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	paidOn, err := parseDateField("payment_date", req.PaymentDate, false)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	id := payroll.SalaryID(chi.URLParam(r, "id"))
	p, err := h.Service.ProcessPayment(r.Context(), actorFrom(r), id, payroll.PaymentInput{
		PaymentDate: paidOn,
		Method:      payroll.PaymentMethod(req.PaymentMethod),
		Reference:   req.TransactionReference,
		Notes:       req.Notes,
	})
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPaymentDTO(*p))
}

// MarkUnpaid handles POST /api/salaries/{id}/mark-unpaid
func (h *Handler) MarkUnpaid(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	id := payroll.SalaryID(chi.URLParam(r, "id"))
	if err := h.Service.RevertPayment(r.Context(), actor, id); err != nil {
		h.serviceError(w, r, err)
		return
	}
	detail, err := h.Service.GetSalary(r.Context(), actor, id)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSalaryDTO(detail.Salary))
}

// Reconcile handles POST /api/payroll/reconcile. employee_id is the employee
// record ID; without it every active employee is reconciled.
func (h *Handler) Reconcile(w http.ResponseWriter, r *http.Request) {
	var req ReconcileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	actor := actorFrom(r)
	month := time.Month(req.Month)

	if req.EmployeeID != "" {
		rec, err := h.Service.ReconcileMonth(r.Context(), actor, payroll.EmployeeID(req.EmployeeID), month, req.Year)
		if err != nil {
			h.serviceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toSalaryDTO(*rec))
		return
	}

	summary, err := h.Service.ReconcileAll(r.Context(), actor, month, req.Year)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReconcileSummaryDTO(summary))
}

// =============================================================================
// LEDGER, REPORTS, NOTIFICATIONS
// =============================================================================

// ListTransactions handles GET /api/transactions
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	employeeID := payroll.EmployeeID(r.URL.Query().Get("employee"))
	txs, err := h.Service.ListTransactions(r.Context(), actorFrom(r), employeeID)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTOs(txs))
}

// MonthlyReport handles GET /api/reports/monthly
func (h *Handler) MonthlyReport(w http.ResponseWriter, r *http.Request) {
	report, ok := h.monthlyReport(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, MonthlyReportDTO{
		Month:     int(report.Month),
		Year:      report.Year,
		Period:    payroll.PeriodLabel(report.Month, report.Year),
		Records:   toSalaryDTOs(report.Records),
		TotalPaid: money(report.TotalPaid),
	})
}

// MonthlyReportExport handles GET /api/reports/monthly/export
func (h *Handler) MonthlyReportExport(w http.ResponseWriter, r *http.Request) {
	report, ok := h.monthlyReport(w, r)
	if !ok {
		return
	}
	employees, err := h.Service.ListEmployees(r.Context(), actorFrom(r), "")
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	byID := make(map[payroll.EmployeeID]payroll.Employee, len(employees))
	for _, e := range employees {
		byID[e.ID] = e
	}

	f, err := export.MonthlyWorkbook(report, byID)
	if err != nil {
		h.serviceError(w, r, fmt.Errorf("build monthly workbook: %w", err))
		return
	}
	writeWorkbook(w, f, fmt.Sprintf("payroll-%04d-%02d.xlsx", report.Year, int(report.Month)))
}

func (h *Handler) monthlyReport(w http.ResponseWriter, r *http.Request) (*payroll.MonthlyReport, bool) {
	month, err := queryInt(r, "month")
	if err != nil {
		h.serviceError(w, r, err)
		return nil, false
	}
	year, err := queryInt(r, "year")
	if err != nil {
		h.serviceError(w, r, err)
		return nil, false
	}
	report, err := h.Service.MonthlyReport(r.Context(), actorFrom(r), time.Month(month), year)
	if err != nil {
		h.serviceError(w, r, err)
		return nil, false
	}
	return report, true
}

// AnnualReport handles GET /api/reports/annual
func (h *Handler) AnnualReport(w http.ResponseWriter, r *http.Request) {
	report, ok := h.annualReport(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toAnnualReportDTO(report))
}

// AnnualReportExport handles GET /api/reports/annual/export
func (h *Handler) AnnualReportExport(w http.ResponseWriter, r *http.Request) {
	report, ok := h.annualReport(w, r)
	if !ok {
		return
	}
	f, err := export.AnnualWorkbook(report)
	if err != nil {
		h.serviceError(w, r, fmt.Errorf("build annual workbook: %w", err))
		return
	}
	writeWorkbook(w, f, fmt.Sprintf("payroll-%04d.xlsx", report.Year))
}

func (h *Handler) annualReport(w http.ResponseWriter, r *http.Request) (*payroll.AnnualReport, bool) {
	year, err := queryInt(r, "year")
	if err != nil {
		h.serviceError(w, r, err)
		return nil, false
	}
	report, err := h.Service.AnnualReport(r.Context(), actorFrom(r), year)
	if err != nil {
		h.serviceError(w, r, err)
		return nil, false
	}
	return report, true
}

// ListNotifications handles GET /api/notifications
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	ns, err := h.Service.ListNotifications(r.Context(), actorFrom(r))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toNotificationDTOs(ns))
}

// MarkNotificationRead handles POST /api/notifications/{id}/read
func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	id := payroll.NotificationID(chi.URLParam(r, "id"))
	n, err := h.Service.MarkNotificationRead(r.Context(), actorFrom(r), id)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toNotificationDTO(*n))
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// serviceError maps payroll error kinds to HTTP status codes. Anything
// unrecognized is a 500 and is logged; its details are not sent to the client.
func (h *Handler) serviceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, payroll.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation failed", err)
	case errors.Is(err, payroll.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", err)
	case errors.Is(err, payroll.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found", err)
	case errors.Is(err, payroll.ErrAlreadyPaid),
		errors.Is(err, payroll.ErrNotPaid),
		errors.Is(err, payroll.ErrDuplicateRecord),
		errors.Is(err, payroll.ErrDuplicateIdempotencyKey):
		writeError(w, http.StatusConflict, "conflict", err)
	default:
		log.Printf("[API] %s %s request_id=%s: %v",
			r.Method, r.URL.Path, middleware.GetReqID(r.Context()), err)
		writeError(w, http.StatusInternalServerError, "internal error", nil)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return false
	}
	return true
}

func parseDateField(field, value string, required bool) (time.Time, error) {
	if value == "" {
		if required {
			return time.Time{}, &payroll.ValidationError{Field: field, Message: "is required"}
		}
		return time.Time{}, nil
	}
	t, err := payroll.ParseDate(value)
	if err != nil {
		return time.Time{}, &payroll.ValidationError{Field: field, Message: "must be YYYY-MM-DD"}
	}
	return t, nil
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, &payroll.ValidationError{Field: name, Message: "is required"}
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &payroll.ValidationError{Field: name, Message: "must be an integer"}
	}
	return n, nil
}

func writeWorkbook(w http.ResponseWriter, f *excelize.File, filename string) {
	defer f.Close()
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if err := f.Write(w); err != nil {
		log.Printf("[API] write %s: %v", filename, err)
	}
}
