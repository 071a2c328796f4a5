/*
service.go - Payroll operations

PURPOSE:
  Service is the operation surface the presentation layer calls. Every
  operation takes the calling Actor explicitly; role checks happen here, not
  in ambient session state.

OPERATIONS (by file):
  employee.go:     CreateEmployee, UpdateEmployee, GetEmployee, ListEmployees,
                   DeactivateEmployee, LinkEmployeeUser
  attendance.go:   RecordAttendance, ListAttendance, TallyAttendance
  salary.go:       CreateSalary, GetSalary, ListSalaries
  reconcile.go:    ReconcileSalary, ReconcileMonth, ReconcileAll
  payment.go:      ProcessPayment, RevertPayment
  report.go:       MonthlyReport, AnnualReport
  ledger.go:       ListTransactions
  notification.go: ListNotifications, MarkNotificationRead
  dashboard.go:    Dashboard

CONCURRENCY:
  Operations run to completion within the caller's request. Mutations of a
  salary record (reconcile, pay, revert) hold a per-record lock and run
  inside TxStore.WithTx, so two concurrent payments of the same record
  cannot both succeed.

USAGE:
  svc := payroll.NewService(store)
  admin := payroll.Actor{UserID: "u-1", Role: payroll.RoleAdmin}
  rec, err := svc.ReconcileMonth(ctx, admin, empID, time.February, 2024)
*/
package payroll

import (
	"time"

	"github.com/google/uuid"
)

// Service implements the payroll operations over a TxStore.
type Service struct {
	store    TxStore
	calendar WorkingDayCalendar
	now      func() time.Time
	newID    func() string
	locks    *keyedLocks
}

// Option configures a Service.
type Option func(*Service)

// WithCalendar sets how working days per month are counted.
func WithCalendar(c WorkingDayCalendar) Option {
	return func(s *Service) { s.calendar = c }
}

// WithClock overrides the time source (tests, replays).
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides record ID generation.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) { s.newID = gen }
}

// NewService creates a service. Defaults: calendar-day working days,
// wall clock, random UUIDs.
func NewService(store TxStore, opts ...Option) *Service {
	s := &Service{
		store:    store,
		calendar: CalendarDays{},
		now:      time.Now,
		newID:    uuid.NewString,
		locks:    newKeyedLocks(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) today() time.Time { return DateOf(s.now()) }

func (s *Service) timestamp() time.Time { return s.now().UTC() }
