/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the payroll domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

WIRE FORMATS:
  - Money in responses: string with exactly two decimals ("27300.00")
  - Money in requests: JSON number or string, parsed as a decimal
  - Dates: "YYYY-MM-DD"; timestamps: RFC 3339
  - Month: integer 1-12
  - employee_id in bodies is the business code; "id" is the record ID

VALIDATION:
  Field rules live on the payroll input types. Handlers only convert
  wire formats (dates) and report malformed values as validation errors.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/payroll"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// EMPLOYEES
// =============================================================================

type EmployeeDTO struct {
	ID            string `json:"id"`
	EmployeeID    string `json:"employee_id"`
	UserID        string `json:"user_id,omitempty"`
	FullName      string `json:"full_name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	DateOfJoining string `json:"date_of_joining"`
	Designation   string `json:"designation"`
	Department    string `json:"department"`
	BankName      string `json:"bank_name"`
	AccountNumber string `json:"account_number"`
	IFSCCode      string `json:"ifsc_code"`
	BaseSalary    string `json:"base_salary"`
	IsActive      bool   `json:"is_active"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

// EmployeeDetailDTO is an employee with its salary history.
type EmployeeDetailDTO struct {
	EmployeeDTO
	Salaries []SalaryDTO `json:"salaries"`
}

// EmployeeRequest creates or updates an employee. UserID is only honoured
// on create; use the link endpoint afterwards.
type EmployeeRequest struct {
	EmployeeID    string          `json:"employee_id"`
	UserID        string          `json:"user_id"`
	FullName      string          `json:"full_name"`
	Email         string          `json:"email"`
	Phone         string          `json:"phone"`
	Address       string          `json:"address"`
	DateOfJoining string          `json:"date_of_joining"`
	Designation   string          `json:"designation"`
	Department    string          `json:"department"`
	BankName      string          `json:"bank_name"`
	AccountNumber string          `json:"account_number"`
	IFSCCode      string          `json:"ifsc_code"`
	BaseSalary    decimal.Decimal `json:"base_salary"`
}

// LinkUserRequest links (or with an empty user_id unlinks) a login identity.
type LinkUserRequest struct {
	UserID string `json:"user_id"`
}

// =============================================================================
// ATTENDANCE
// =============================================================================

type AttendanceDTO struct {
	ID         string `json:"id"`
	EmployeeID string `json:"employee"`
	Date       string `json:"date"`
	Status     string `json:"status"`
	CheckIn    string `json:"check_in,omitempty"`
	CheckOut   string `json:"check_out,omitempty"`
	Notes      string `json:"notes,omitempty"`
	CreatedAt  string `json:"created_at"`
}

type AttendanceRequest struct {
	EmployeeID string `json:"employee"`
	Date       string `json:"date"`
	Status     string `json:"status"`
	CheckIn    string `json:"check_in"`
	CheckOut   string `json:"check_out"`
	Notes      string `json:"notes"`
}

// =============================================================================
// SALARY RECORDS
// =============================================================================

type SalaryDTO struct {
	ID               string `json:"id"`
	EmployeeID       string `json:"employee"`
	Month            int    `json:"month"`
	Year             int    `json:"year"`
	Period           string `json:"period"`
	BaseSalary       string `json:"base_salary"`
	TotalWorkingDays int    `json:"total_working_days"`
	DaysPresent      int    `json:"days_present"`
	DaysAbsent       int    `json:"days_absent"`
	DaysOnLeave      int    `json:"days_on_leave"`
	HalfDays         int    `json:"half_days"`
	SalaryPerDay     string `json:"salary_per_day"`
	CalculatedAmount string `json:"calculated_amount"`
	Allowances       string `json:"allowances"`
	Deductions       string `json:"deductions"`
	NetSalary        string `json:"net_salary"`
	IsPaid           bool   `json:"is_paid"`
	CreatedAt        string `json:"created_at"`
	UpdatedAt        string `json:"updated_at"`
}

type SalaryDetailDTO struct {
	Salary   SalaryDTO   `json:"salary"`
	Employee EmployeeDTO `json:"employee"`
	Payment  *PaymentDTO `json:"payment,omitempty"`
}

// SalaryRequest creates a salary record. A missing base_salary uses the
// employee's current base salary.
type SalaryRequest struct {
	EmployeeID       string           `json:"employee"`
	Month            int              `json:"month"`
	Year             int              `json:"year"`
	BaseSalary       *decimal.Decimal `json:"base_salary"`
	TotalWorkingDays int              `json:"total_working_days"`
	DaysPresent      int              `json:"days_present"`
	DaysAbsent       int              `json:"days_absent"`
	DaysOnLeave      int              `json:"days_on_leave"`
	HalfDays         int              `json:"half_days"`
	Allowances       decimal.Decimal  `json:"allowances"`
	Deductions       decimal.Decimal  `json:"deductions"`
}

// CalculateRequest is a calculator preview; nothing is stored.
type CalculateRequest struct {
	BaseSalary       decimal.Decimal `json:"base_salary"`
	TotalWorkingDays int             `json:"total_working_days"`
	DaysPresent      int             `json:"days_present"`
	HalfDays         int             `json:"half_days"`
	Allowances       decimal.Decimal `json:"allowances"`
	Deductions       decimal.Decimal `json:"deductions"`
}

type CalculateResponse struct {
	SalaryPerDay     string `json:"salary_per_day"`
	CalculatedAmount string `json:"calculated_amount"`
	NetSalary        string `json:"net_salary"`
}

// ReconcileRequest reconciles one employee's period, or every active
// employee when employee_id is empty.
type ReconcileRequest struct {
	EmployeeID string `json:"employee_id"`
	Month      int    `json:"month"`
	Year       int    `json:"year"`
}

type ReconcileSummaryDTO struct {
	Month       int                   `json:"month"`
	Year        int                   `json:"year"`
	Reconciled  int                   `json:"reconciled"`
	Created     int                   `json:"created"`
	SkippedPaid int                   `json:"skipped_paid"`
	Failures    []ReconcileFailureDTO `json:"failures"`
}

type ReconcileFailureDTO struct {
	EmployeeID string `json:"employee"`
	Error      string `json:"error"`
}

// =============================================================================
// PAYMENTS
// =============================================================================

type PaymentDTO struct {
	ID                   string `json:"id"`
	SalaryID             string `json:"salary_record"`
	PaymentDate          string `json:"payment_date"`
	PaymentMethod        string `json:"payment_method"`
	TransactionReference string `json:"transaction_reference,omitempty"`
	Notes                string `json:"notes,omitempty"`
	ProcessedBy          string `json:"processed_by,omitempty"`
	CreatedAt            string `json:"created_at"`
}

type PaymentRequest struct {
	PaymentDate          string `json:"payment_date"`
	PaymentMethod        string `json:"payment_method"`
	TransactionReference string `json:"transaction_reference"`
	Notes                string `json:"notes"`
}

// =============================================================================
// LEDGER AND NOTIFICATIONS
// =============================================================================

type TransactionDTO struct {
	ID             string `json:"id"`
	EmployeeID     string `json:"employee"`
	SalaryID       string `json:"salary_record"`
	PaymentID      string `json:"payment,omitempty"`
	Type           string `json:"transaction_type"`
	Amount         string `json:"amount"`
	Date           string `json:"transaction_date"`
	Description    string `json:"description"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
	CreatedAt      string `json:"created_at"`
}

type NotificationDTO struct {
	ID         string `json:"id"`
	EmployeeID string `json:"employee"`
	Type       string `json:"notification_type"`
	Title      string `json:"title"`
	Message    string `json:"message"`
	IsRead     bool   `json:"is_read"`
	CreatedAt  string `json:"created_at"`
}

// =============================================================================
// REPORTS AND DASHBOARD
// =============================================================================

type MonthlyReportDTO struct {
	Month     int         `json:"month"`
	Year      int         `json:"year"`
	Period    string      `json:"period"`
	Records   []SalaryDTO `json:"records"`
	TotalPaid string      `json:"total_paid"`
}

type MonthTotalDTO struct {
	Month int    `json:"month"`
	Year  int    `json:"year"`
	Label string `json:"label"`
	Total string `json:"total"`
}

type AnnualReportDTO struct {
	Year      int             `json:"year"`
	Months    []MonthTotalDTO `json:"months"`
	Records   []SalaryDTO     `json:"records"`
	TotalPaid string          `json:"total_paid"`
}

type DashboardDTO struct {
	Role      string                `json:"role"`
	NoProfile bool                  `json:"no_profile,omitempty"`
	Admin     *AdminDashboardDTO    `json:"admin,omitempty"`
	Employee  *EmployeeDashboardDTO `json:"employee,omitempty"`
}

type AdminDashboardDTO struct {
	ActiveEmployees int             `json:"active_employees"`
	TotalPaid       string          `json:"total_paid"`
	TotalUnpaid     string          `json:"total_unpaid"`
	PaidThisMonth   string          `json:"paid_this_month"`
	RecentPayments  []PaymentDTO    `json:"recent_payments"`
	Chart           []MonthTotalDTO `json:"chart"`
}

type EmployeeDashboardDTO struct {
	Employee            EmployeeDTO       `json:"employee"`
	RecentSalaries      []SalaryDTO       `json:"recent_salaries"`
	UnpaidCount         int               `json:"unpaid_count"`
	UnreadNotifications []NotificationDTO `json:"unread_notifications"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func money(d decimal.Decimal) string { return payroll.FormatMoney(d) }

func date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(payroll.DateLayout)
}

func timestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func toEmployeeDTO(e payroll.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:            string(e.ID),
		EmployeeID:    e.Code,
		UserID:        e.UserID,
		FullName:      e.FullName,
		Email:         e.Email,
		Phone:         e.Phone,
		Address:       e.Address,
		DateOfJoining: date(e.DateOfJoining),
		Designation:   e.Designation,
		Department:    e.Department,
		BankName:      e.BankName,
		AccountNumber: e.AccountNumber,
		IFSCCode:      e.IFSCCode,
		BaseSalary:    money(e.BaseSalary),
		IsActive:      e.IsActive,
		CreatedAt:     timestamp(e.CreatedAt),
		UpdatedAt:     timestamp(e.UpdatedAt),
	}
}

func toEmployeeDTOs(es []payroll.Employee) []EmployeeDTO {
	out := make([]EmployeeDTO, 0, len(es))
	for _, e := range es {
		out = append(out, toEmployeeDTO(e))
	}
	return out
}

func toAttendanceDTO(a payroll.AttendanceRecord) AttendanceDTO {
	return AttendanceDTO{
		ID:         string(a.ID),
		EmployeeID: string(a.EmployeeID),
		Date:       date(a.Date),
		Status:     string(a.Status),
		CheckIn:    a.CheckIn,
		CheckOut:   a.CheckOut,
		Notes:      a.Notes,
		CreatedAt:  timestamp(a.CreatedAt),
	}
}

func toSalaryDTO(r payroll.SalaryRecord) SalaryDTO {
	return SalaryDTO{
		ID:               string(r.ID),
		EmployeeID:       string(r.EmployeeID),
		Month:            int(r.Month),
		Year:             r.Year,
		Period:           r.Period(),
		BaseSalary:       money(r.BaseSalary),
		TotalWorkingDays: r.TotalWorkingDays,
		DaysPresent:      r.DaysPresent,
		DaysAbsent:       r.DaysAbsent,
		DaysOnLeave:      r.DaysOnLeave,
		HalfDays:         r.HalfDays,
		SalaryPerDay:     money(r.SalaryPerDay),
		CalculatedAmount: money(r.CalculatedAmount),
		Allowances:       money(r.Allowances),
		Deductions:       money(r.Deductions),
		NetSalary:        money(r.NetSalary),
		IsPaid:           r.IsPaid,
		CreatedAt:        timestamp(r.CreatedAt),
		UpdatedAt:        timestamp(r.UpdatedAt),
	}
}

func toSalaryDTOs(rs []payroll.SalaryRecord) []SalaryDTO {
	out := make([]SalaryDTO, 0, len(rs))
	for _, r := range rs {
		out = append(out, toSalaryDTO(r))
	}
	return out
}

func toPaymentDTO(p payroll.Payment) PaymentDTO {
	return PaymentDTO{
		ID:                   string(p.ID),
		SalaryID:             string(p.SalaryID),
		PaymentDate:          date(p.PaymentDate),
		PaymentMethod:        string(p.Method),
		TransactionReference: p.Reference,
		Notes:                p.Notes,
		ProcessedBy:          p.ProcessedBy,
		CreatedAt:            timestamp(p.CreatedAt),
	}
}

func toPaymentDTOs(ps []payroll.Payment) []PaymentDTO {
	out := make([]PaymentDTO, 0, len(ps))
	for _, p := range ps {
		out = append(out, toPaymentDTO(p))
	}
	return out
}

func toTransactionDTOs(txs []payroll.Transaction) []TransactionDTO {
	out := make([]TransactionDTO, 0, len(txs))
	for _, tx := range txs {
		out = append(out, TransactionDTO{
			ID:             string(tx.ID),
			EmployeeID:     string(tx.EmployeeID),
			SalaryID:       string(tx.SalaryID),
			PaymentID:      string(tx.PaymentID),
			Type:           string(tx.Type),
			Amount:         money(tx.Amount),
			Date:           date(tx.Date),
			Description:    tx.Description,
			IdempotencyKey: tx.IdempotencyKey,
			CreatedAt:      timestamp(tx.CreatedAt),
		})
	}
	return out
}

func toNotificationDTO(n payroll.Notification) NotificationDTO {
	return NotificationDTO{
		ID:         string(n.ID),
		EmployeeID: string(n.EmployeeID),
		Type:       string(n.Type),
		Title:      n.Title,
		Message:    n.Message,
		IsRead:     n.IsRead,
		CreatedAt:  timestamp(n.CreatedAt),
	}
}

func toNotificationDTOs(ns []payroll.Notification) []NotificationDTO {
	out := make([]NotificationDTO, 0, len(ns))
	for _, n := range ns {
		out = append(out, toNotificationDTO(n))
	}
	return out
}

func toReconcileSummaryDTO(s *payroll.ReconcileSummary) ReconcileSummaryDTO {
	out := ReconcileSummaryDTO{
		Month:       int(s.Month),
		Year:        s.Year,
		Reconciled:  s.Reconciled,
		Created:     s.Created,
		SkippedPaid: s.SkippedPaid,
		Failures:    []ReconcileFailureDTO{},
	}
	for _, f := range s.Failures {
		out.Failures = append(out.Failures, ReconcileFailureDTO{
			EmployeeID: string(f.EmployeeID),
			Error:      f.Err.Error(),
		})
	}
	return out
}

func monthTotal(month time.Month, year int, total decimal.Decimal) MonthTotalDTO {
	return MonthTotalDTO{
		Month: int(month),
		Year:  year,
		Label: payroll.PeriodLabel(month, year),
		Total: money(total),
	}
}

func toAnnualReportDTO(r *payroll.AnnualReport) AnnualReportDTO {
	out := AnnualReportDTO{
		Year:      r.Year,
		Records:   toSalaryDTOs(r.Records),
		TotalPaid: money(r.TotalPaid),
	}
	for i, total := range r.ByMonth {
		out.Months = append(out.Months, monthTotal(time.Month(i+1), r.Year, total))
	}
	return out
}

func toDashboardDTO(role payroll.Role, d *payroll.Dashboard) DashboardDTO {
	out := DashboardDTO{Role: string(role), NoProfile: d.NoProfile}
	if a := d.Admin; a != nil {
		chart := make([]MonthTotalDTO, 0, len(a.Chart))
		for _, m := range a.Chart {
			chart = append(chart, monthTotal(m.Month, m.Year, m.Total))
		}
		out.Admin = &AdminDashboardDTO{
			ActiveEmployees: a.ActiveEmployees,
			TotalPaid:       money(a.TotalPaid),
			TotalUnpaid:     money(a.TotalUnpaid),
			PaidThisMonth:   money(a.PaidThisMonth),
			RecentPayments:  toPaymentDTOs(a.RecentPayments),
			Chart:           chart,
		}
	}
	if e := d.Employee; e != nil {
		out.Employee = &EmployeeDashboardDTO{
			Employee:            toEmployeeDTO(e.Employee),
			RecentSalaries:      toSalaryDTOs(e.RecentSalaries),
			UnpaidCount:         e.UnpaidCount,
			UnreadNotifications: toNotificationDTOs(e.UnreadNotifications),
		}
	}
	return out
}
