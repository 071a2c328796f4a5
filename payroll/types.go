/*
Package payroll provides the payroll administration engine.

PURPOSE:
  This package holds the domain model and the operations of a small payroll
  system: employee records, daily attendance, monthly salary records, payment
  disbursement and the ledger/notification side effects of paying a salary.

KEY CONCEPTS IN THIS FILE (types.go):
  - Employee: identity, bank details and the base salary used for pro-ration
  - AttendanceRecord: one status per (employee, date)
  - SalaryRecord: one per (employee, month, year), mutable until paid
  - Payment: at most one per SalaryRecord, exists only while the record is paid
  - Transaction: append-only ledger entry for disbursed (or reversed) money
  - Notification: per-employee inbox message with read/unread state

DESIGN PRINCIPLES:
  1. Precision: every monetary value is a decimal.Decimal, never a float
  2. Type Safety: strong typing for IDs prevents mixing employee/salary IDs
  3. Append-only ledger: transactions are never edited or deleted

SEE ALSO:
  - calculator.go: Pro-rated salary formula
  - service.go: Operations over a TxStore
  - store.go: Persistence interfaces
*/
package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID string
type AttendanceID string
type SalaryID string
type PaymentID string
type TransactionID string
type NotificationID string

// =============================================================================
// EMPLOYEE
// =============================================================================

// Employee is a person on the payroll.
// Code is the business identifier ("employee_id" in forms and exports) and is
// unique across all employees. UserID optionally links the employee to a login
// identity owned by the external auth layer; at most one employee per identity.
type Employee struct {
	ID     EmployeeID
	Code   string
	UserID string

	FullName      string
	Email         string
	Phone         string
	Address       string
	DateOfJoining time.Time
	Designation   string
	Department    string

	BankName      string
	AccountNumber string
	IFSCCode      string

	BaseSalary decimal.Decimal
	IsActive   bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// =============================================================================
// ATTENDANCE
// =============================================================================

type AttendanceStatus string

const (
	StatusPresent AttendanceStatus = "present"
	StatusAbsent  AttendanceStatus = "absent"
	StatusLeave   AttendanceStatus = "leave"
	StatusHalfDay AttendanceStatus = "half_day"
)

// AttendanceRecord is the status of one employee on one calendar date.
// CheckIn and CheckOut are wall-clock "HH:MM" strings, empty when unknown.
type AttendanceRecord struct {
	ID         AttendanceID
	EmployeeID EmployeeID
	Date       time.Time
	Status     AttendanceStatus
	CheckIn    string
	CheckOut   string
	Notes      string
	CreatedAt  time.Time
}

// AttendanceTally is the per-status day count of one employee over one month.
type AttendanceTally struct {
	TotalWorkingDays int
	DaysPresent      int
	DaysAbsent       int
	DaysOnLeave      int
	HalfDays         int
}

// =============================================================================
// SALARY RECORD
// =============================================================================

// SalaryRecord is one employee's payroll computation for a month.
//
// INVARIANTS (hold after every Recalculate):
//   - SalaryPerDay     = BaseSalary / TotalWorkingDays (0 when no working days)
//   - CalculatedAmount = (DaysPresent + 0.5*HalfDays) * SalaryPerDay
//   - NetSalary        = CalculatedAmount + Allowances - Deductions
//
// Once IsPaid is true the record is frozen until the payment is reverted.
type SalaryRecord struct {
	ID         SalaryID
	EmployeeID EmployeeID
	Month      time.Month
	Year       int
	BaseSalary decimal.Decimal

	TotalWorkingDays int
	DaysPresent      int
	DaysAbsent       int
	DaysOnLeave      int
	HalfDays         int

	SalaryPerDay     decimal.Decimal
	CalculatedAmount decimal.Decimal
	Allowances       decimal.Decimal
	Deductions       decimal.Decimal
	NetSalary        decimal.Decimal

	IsPaid    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Tally returns the attendance snapshot stored on the record.
func (s SalaryRecord) Tally() AttendanceTally {
	return AttendanceTally{
		TotalWorkingDays: s.TotalWorkingDays,
		DaysPresent:      s.DaysPresent,
		DaysAbsent:       s.DaysAbsent,
		DaysOnLeave:      s.DaysOnLeave,
		HalfDays:         s.HalfDays,
	}
}

// ApplyTally overwrites the attendance snapshot.
func (s *SalaryRecord) ApplyTally(t AttendanceTally) {
	s.TotalWorkingDays = t.TotalWorkingDays
	s.DaysPresent = t.DaysPresent
	s.DaysAbsent = t.DaysAbsent
	s.DaysOnLeave = t.DaysOnLeave
	s.HalfDays = t.HalfDays
}

// Recalculate recomputes the derived amounts from the snapshot fields.
func (s *SalaryRecord) Recalculate() {
	b := Calculate(SalaryInputs{
		BaseSalary:       s.BaseSalary,
		TotalWorkingDays: s.TotalWorkingDays,
		DaysPresent:      s.DaysPresent,
		HalfDays:         s.HalfDays,
		Allowances:       s.Allowances,
		Deductions:       s.Deductions,
	})
	s.SalaryPerDay = b.SalaryPerDay
	s.CalculatedAmount = b.CalculatedAmount
	s.NetSalary = b.NetSalary
}

// Period returns a human label such as "February 2024".
func (s SalaryRecord) Period() string {
	return PeriodLabel(s.Month, s.Year)
}

// =============================================================================
// PAYMENT
// =============================================================================

type PaymentMethod string

const (
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodCash         PaymentMethod = "cash"
	MethodCheque       PaymentMethod = "cheque"
	MethodUPI          PaymentMethod = "upi"
	MethodOther        PaymentMethod = "other"
)

// Payment records the disbursement of a SalaryRecord. Reference is the
// external transaction reference (bank/UPI id), if any.
type Payment struct {
	ID          PaymentID
	SalaryID    SalaryID
	PaymentDate time.Time
	Method      PaymentMethod
	Reference   string
	Notes       string
	ProcessedBy string
	CreatedAt   time.Time
}

// =============================================================================
// TRANSACTION - Append-only ledger entry
// =============================================================================

type TransactionType string

const (
	TxDisbursement TransactionType = "disbursement" // Salary paid out
	TxReversal     TransactionType = "reversal"     // Payment reverted, negative amount
)

// Transaction is an immutable ledger entry. PaymentID is kept as a plain
// reference: the payment row may be gone after a reversal, the entry is not.
type Transaction struct {
	ID             TransactionID
	EmployeeID     EmployeeID
	SalaryID       SalaryID
	PaymentID      PaymentID
	Type           TransactionType
	Amount         decimal.Decimal
	Date           time.Time
	Description    string
	IdempotencyKey string
	CreatedAt      time.Time
}

// =============================================================================
// NOTIFICATION
// =============================================================================

type NotificationType string

const (
	NotifySalaryPaid    NotificationType = "salary_paid"
	NotifySalaryPending NotificationType = "salary_pending"
)

type Notification struct {
	ID         NotificationID
	EmployeeID EmployeeID
	Type       NotificationType
	Title      string
	Message    string
	IsRead     bool
	CreatedAt  time.Time
}
