/*
store.go - Persistence interfaces

PURPOSE:
  Defines the boundary between the payroll operations and the database.
  Implementations: store/sqlite (production) and payroll/store (in-memory).

CONVENTIONS:
  - Get* returns (nil, nil) when the record does not exist; the service
    turns that into a NotFoundError with context.
  - Create and Append methods return *DuplicateRecordError on unique-key violations
    (employee code, user link, (employee, date), (employee, month, year),
    one payment per salary). AppendTransaction returns
    ErrDuplicateIdempotencyKey for a repeated idempotency key.
  - List* return newest first.

APPEND-ONLY:
  Transactions have no update or delete. Notifications only flip IsRead.

ATOMICITY:
  TxStore.WithTx runs fn against a transactional view. If fn returns an
  error nothing fn wrote is kept. Paying a salary (payment, paid flag,
  ledger entry, notification) always goes through WithTx.
*/
package payroll

import (
	"context"
	"time"
)

// =============================================================================
// FILTERS
// =============================================================================

type EmployeeFilter struct {
	Search     string // case-insensitive substring of name, code or email
	ActiveOnly bool
}

type AttendanceFilter struct {
	EmployeeID EmployeeID // empty = all
	From, To   time.Time  // inclusive; zero = unbounded
}

type SalaryFilter struct {
	EmployeeID EmployeeID // empty = all
	Month      time.Month // 0 = any
	Year       int        // 0 = any
	Paid       *bool      // nil = any
	Limit      int        // 0 = no limit
}

type TransactionFilter struct {
	EmployeeID EmployeeID
	SalaryID   SalaryID
}

type NotificationFilter struct {
	EmployeeID EmployeeID
	UnreadOnly bool
	Limit      int
}

// =============================================================================
// STORE
// =============================================================================

type EmployeeStore interface {
	CreateEmployee(ctx context.Context, e Employee) error
	UpdateEmployee(ctx context.Context, e Employee) error
	GetEmployee(ctx context.Context, id EmployeeID) (*Employee, error)
	GetEmployeeByUser(ctx context.Context, userID string) (*Employee, error)
	ListEmployees(ctx context.Context, f EmployeeFilter) ([]Employee, error)
}

type AttendanceStore interface {
	CreateAttendance(ctx context.Context, a AttendanceRecord) error
	ListAttendance(ctx context.Context, f AttendanceFilter) ([]AttendanceRecord, error)
}

type SalaryStore interface {
	CreateSalary(ctx context.Context, s SalaryRecord) error
	UpdateSalary(ctx context.Context, s SalaryRecord) error
	GetSalary(ctx context.Context, id SalaryID) (*SalaryRecord, error)
	GetSalaryForPeriod(ctx context.Context, employeeID EmployeeID, month time.Month, year int) (*SalaryRecord, error)
	ListSalaries(ctx context.Context, f SalaryFilter) ([]SalaryRecord, error)
}

type PaymentStore interface {
	CreatePayment(ctx context.Context, p Payment) error
	GetPaymentBySalary(ctx context.Context, salaryID SalaryID) (*Payment, error)
	DeletePayment(ctx context.Context, id PaymentID) error
	ListPayments(ctx context.Context, limit int) ([]Payment, error)
}

type TransactionStore interface {
	AppendTransaction(ctx context.Context, tx Transaction) error
	ListTransactions(ctx context.Context, f TransactionFilter) ([]Transaction, error)
}

type NotificationStore interface {
	AppendNotification(ctx context.Context, n Notification) error
	GetNotification(ctx context.Context, id NotificationID) (*Notification, error)
	ListNotifications(ctx context.Context, f NotificationFilter) ([]Notification, error)
	MarkNotificationRead(ctx context.Context, id NotificationID) error
}

// Store is everything the service persists.
type Store interface {
	EmployeeStore
	AttendanceStore
	SalaryStore
	PaymentStore
	TransactionStore
	NotificationStore
}

// TxStore wraps Store with transaction support.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns error, transaction is rolled back.
	// If fn returns nil, transaction is committed.
	WithTx(ctx context.Context, fn func(Store) error) error
}
