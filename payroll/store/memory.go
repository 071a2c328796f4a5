// Package store provides an in-memory payroll.TxStore.
package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory keeps every table in insertion-ordered slices. All methods are safe
// for concurrent use; WithTx holds the write lock for the whole transaction.
type Memory struct {
	mu   sync.RWMutex
	data *tables
}

type tables struct {
	employees     []payroll.Employee
	attendance    []payroll.AttendanceRecord
	salaries      []payroll.SalaryRecord
	payments      []payroll.Payment
	transactions  []payroll.Transaction
	notifications []payroll.Notification
}

func NewMemory() *Memory {
	return &Memory{data: &tables{}}
}

// WithTx executes fn within a transaction.
// Simulated with a snapshot + rollback on error.
func (m *Memory) WithTx(_ context.Context, fn func(payroll.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.data.clone()
	if err := fn(view{t: m.data}); err != nil {
		m.data = snapshot
		return err
	}
	return nil
}

func (t *tables) clone() *tables {
	return &tables{
		employees:     append([]payroll.Employee(nil), t.employees...),
		attendance:    append([]payroll.AttendanceRecord(nil), t.attendance...),
		salaries:      append([]payroll.SalaryRecord(nil), t.salaries...),
		payments:      append([]payroll.Payment(nil), t.payments...),
		transactions:  append([]payroll.Transaction(nil), t.transactions...),
		notifications: append([]payroll.Notification(nil), t.notifications...),
	}
}

// read runs fn on the current tables under the read lock.
func (m *Memory) read(fn func(v view) error) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fn(view{t: m.data})
}

// write runs fn on the current tables under the write lock.
func (m *Memory) write(fn func(v view) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(view{t: m.data})
}

// =============================================================================
// LOCKED API (payroll.Store)
// =============================================================================

func (m *Memory) CreateEmployee(ctx context.Context, e payroll.Employee) error {
	return m.write(func(v view) error { return v.CreateEmployee(ctx, e) })
}

func (m *Memory) UpdateEmployee(ctx context.Context, e payroll.Employee) error {
	return m.write(func(v view) error { return v.UpdateEmployee(ctx, e) })
}

func (m *Memory) GetEmployee(ctx context.Context, id payroll.EmployeeID) (out *payroll.Employee, err error) {
	err = m.read(func(v view) error { out, err = v.GetEmployee(ctx, id); return err })
	return out, err
}

func (m *Memory) GetEmployeeByUser(ctx context.Context, userID string) (out *payroll.Employee, err error) {
	err = m.read(func(v view) error { out, err = v.GetEmployeeByUser(ctx, userID); return err })
	return out, err
}

func (m *Memory) ListEmployees(ctx context.Context, f payroll.EmployeeFilter) (out []payroll.Employee, err error) {
	err = m.read(func(v view) error { out, err = v.ListEmployees(ctx, f); return err })
	return out, err
}

func (m *Memory) CreateAttendance(ctx context.Context, a payroll.AttendanceRecord) error {
	return m.write(func(v view) error { return v.CreateAttendance(ctx, a) })
}

func (m *Memory) ListAttendance(ctx context.Context, f payroll.AttendanceFilter) (out []payroll.AttendanceRecord, err error) {
	err = m.read(func(v view) error { out, err = v.ListAttendance(ctx, f); return err })
	return out, err
}

func (m *Memory) CreateSalary(ctx context.Context, s payroll.SalaryRecord) error {
	return m.write(func(v view) error { return v.CreateSalary(ctx, s) })
}

func (m *Memory) UpdateSalary(ctx context.Context, s payroll.SalaryRecord) error {
	return m.write(func(v view) error { return v.UpdateSalary(ctx, s) })
}

func (m *Memory) GetSalary(ctx context.Context, id payroll.SalaryID) (out *payroll.SalaryRecord, err error) {
	err = m.read(func(v view) error { out, err = v.GetSalary(ctx, id); return err })
	return out, err
}

func (m *Memory) GetSalaryForPeriod(ctx context.Context, employeeID payroll.EmployeeID, month time.Month, year int) (out *payroll.SalaryRecord, err error) {
	err = m.read(func(v view) error { out, err = v.GetSalaryForPeriod(ctx, employeeID, month, year); return err })
	return out, err
}

func (m *Memory) ListSalaries(ctx context.Context, f payroll.SalaryFilter) (out []payroll.SalaryRecord, err error) {
	err = m.read(func(v view) error { out, err = v.ListSalaries(ctx, f); return err })
	return out, err
}

func (m *Memory) CreatePayment(ctx context.Context, p payroll.Payment) error {
	return m.write(func(v view) error { return v.CreatePayment(ctx, p) })
}

func (m *Memory) GetPaymentBySalary(ctx context.Context, salaryID payroll.SalaryID) (out *payroll.Payment, err error) {
	err = m.read(func(v view) error { out, err = v.GetPaymentBySalary(ctx, salaryID); return err })
	return out, err
}

func (m *Memory) DeletePayment(ctx context.Context, id payroll.PaymentID) error {
	return m.write(func(v view) error { return v.DeletePayment(ctx, id) })
}

func (m *Memory) ListPayments(ctx context.Context, limit int) (out []payroll.Payment, err error) {
	err = m.read(func(v view) error { out, err = v.ListPayments(ctx, limit); return err })
	return out, err
}

func (m *Memory) AppendTransaction(ctx context.Context, tx payroll.Transaction) error {
	return m.write(func(v view) error { return v.AppendTransaction(ctx, tx) })
}

func (m *Memory) ListTransactions(ctx context.Context, f payroll.TransactionFilter) (out []payroll.Transaction, err error) {
	err = m.read(func(v view) error { out, err = v.ListTransactions(ctx, f); return err })
	return out, err
}

func (m *Memory) AppendNotification(ctx context.Context, n payroll.Notification) error {
	return m.write(func(v view) error { return v.AppendNotification(ctx, n) })
}

func (m *Memory) GetNotification(ctx context.Context, id payroll.NotificationID) (out *payroll.Notification, err error) {
	err = m.read(func(v view) error { out, err = v.GetNotification(ctx, id); return err })
	return out, err
}

func (m *Memory) ListNotifications(ctx context.Context, f payroll.NotificationFilter) (out []payroll.Notification, err error) {
	err = m.read(func(v view) error { out, err = v.ListNotifications(ctx, f); return err })
	return out, err
}

func (m *Memory) MarkNotificationRead(ctx context.Context, id payroll.NotificationID) error {
	return m.write(func(v view) error { return v.MarkNotificationRead(ctx, id) })
}

// =============================================================================
// UNLOCKED VIEW - Used directly inside WithTx
// =============================================================================

type view struct {
	t *tables
}

func (v view) CreateEmployee(_ context.Context, e payroll.Employee) error {
	for _, x := range v.t.employees {
		if x.ID == e.ID || x.Code == e.Code {
			return &payroll.DuplicateRecordError{Kind: "employee", Key: e.Code}
		}
		if e.UserID != "" && x.UserID == e.UserID {
			return &payroll.DuplicateRecordError{Kind: "user_link", Key: e.UserID}
		}
	}
	v.t.employees = append(v.t.employees, e)
	return nil
}

func (v view) UpdateEmployee(_ context.Context, e payroll.Employee) error {
	at := -1
	for i, x := range v.t.employees {
		if x.ID == e.ID {
			at = i
			continue
		}
		if x.Code == e.Code {
			return &payroll.DuplicateRecordError{Kind: "employee", Key: e.Code}
		}
		if e.UserID != "" && x.UserID == e.UserID {
			return &payroll.DuplicateRecordError{Kind: "user_link", Key: e.UserID}
		}
	}
	if at < 0 {
		return &payroll.NotFoundError{Kind: "employee", ID: string(e.ID)}
	}
	v.t.employees[at] = e
	return nil
}

func (v view) GetEmployee(_ context.Context, id payroll.EmployeeID) (*payroll.Employee, error) {
	for _, x := range v.t.employees {
		if x.ID == id {
			return &x, nil
		}
	}
	return nil, nil
}

func (v view) GetEmployeeByUser(_ context.Context, userID string) (*payroll.Employee, error) {
	if userID == "" {
		return nil, nil
	}
	for _, x := range v.t.employees {
		if x.UserID == userID {
			return &x, nil
		}
	}
	return nil, nil
}

func (v view) ListEmployees(_ context.Context, f payroll.EmployeeFilter) ([]payroll.Employee, error) {
	search := strings.ToLower(f.Search)
	out := []payroll.Employee{}
	for i := len(v.t.employees) - 1; i >= 0; i-- {
		x := v.t.employees[i]
		if f.ActiveOnly && !x.IsActive {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(x.FullName), search) &&
			!strings.Contains(strings.ToLower(x.Code), search) &&
			!strings.Contains(strings.ToLower(x.Email), search) {
			continue
		}
		out = append(out, x)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (v view) CreateAttendance(_ context.Context, a payroll.AttendanceRecord) error {
	for _, x := range v.t.attendance {
		if x.EmployeeID == a.EmployeeID && x.Date.Equal(a.Date) {
			return &payroll.DuplicateRecordError{
				Kind: "attendance",
				Key:  string(a.EmployeeID) + "@" + a.Date.Format(payroll.DateLayout),
			}
		}
	}
	v.t.attendance = append(v.t.attendance, a)
	return nil
}

func (v view) ListAttendance(_ context.Context, f payroll.AttendanceFilter) ([]payroll.AttendanceRecord, error) {
	out := []payroll.AttendanceRecord{}
	for i := len(v.t.attendance) - 1; i >= 0; i-- {
		x := v.t.attendance[i]
		if f.EmployeeID != "" && x.EmployeeID != f.EmployeeID {
			continue
		}
		if !f.From.IsZero() && x.Date.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && x.Date.After(f.To) {
			continue
		}
		out = append(out, x)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (v view) CreateSalary(_ context.Context, s payroll.SalaryRecord) error {
	for _, x := range v.t.salaries {
		if x.ID == s.ID || (x.EmployeeID == s.EmployeeID && x.Month == s.Month && x.Year == s.Year) {
			return duplicateSalary(s)
		}
	}
	v.t.salaries = append(v.t.salaries, s)
	return nil
}

func (v view) UpdateSalary(_ context.Context, s payroll.SalaryRecord) error {
	at := -1
	for i, x := range v.t.salaries {
		if x.ID == s.ID {
			at = i
			continue
		}
		if x.EmployeeID == s.EmployeeID && x.Month == s.Month && x.Year == s.Year {
			return duplicateSalary(s)
		}
	}
	if at < 0 {
		return &payroll.NotFoundError{Kind: "salary", ID: string(s.ID)}
	}
	v.t.salaries[at] = s
	return nil
}

func duplicateSalary(s payroll.SalaryRecord) error {
	return &payroll.DuplicateRecordError{
		Kind: "salary",
		Key:  string(s.EmployeeID) + "@" + payroll.PeriodLabel(s.Month, s.Year),
	}
}

func (v view) GetSalary(_ context.Context, id payroll.SalaryID) (*payroll.SalaryRecord, error) {
	for _, x := range v.t.salaries {
		if x.ID == id {
			return &x, nil
		}
	}
	return nil, nil
}

func (v view) GetSalaryForPeriod(_ context.Context, employeeID payroll.EmployeeID, month time.Month, year int) (*payroll.SalaryRecord, error) {
	for _, x := range v.t.salaries {
		if x.EmployeeID == employeeID && x.Month == month && x.Year == year {
			return &x, nil
		}
	}
	return nil, nil
}

func (v view) ListSalaries(_ context.Context, f payroll.SalaryFilter) ([]payroll.SalaryRecord, error) {
	out := []payroll.SalaryRecord{}
	for i := len(v.t.salaries) - 1; i >= 0; i-- {
		x := v.t.salaries[i]
		if f.EmployeeID != "" && x.EmployeeID != f.EmployeeID {
			continue
		}
		if f.Month != 0 && x.Month != f.Month {
			continue
		}
		if f.Year != 0 && x.Year != f.Year {
			continue
		}
		if f.Paid != nil && x.IsPaid != *f.Paid {
			continue
		}
		out = append(out, x)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year > out[j].Year
		}
		return out[i].Month > out[j].Month
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (v view) CreatePayment(_ context.Context, p payroll.Payment) error {
	for _, x := range v.t.payments {
		if x.ID == p.ID || x.SalaryID == p.SalaryID {
			return &payroll.DuplicateRecordError{Kind: "payment", Key: string(p.SalaryID)}
		}
	}
	v.t.payments = append(v.t.payments, p)
	return nil
}

func (v view) GetPaymentBySalary(_ context.Context, salaryID payroll.SalaryID) (*payroll.Payment, error) {
	for _, x := range v.t.payments {
		if x.SalaryID == salaryID {
			return &x, nil
		}
	}
	return nil, nil
}

func (v view) DeletePayment(_ context.Context, id payroll.PaymentID) error {
	for i, x := range v.t.payments {
		if x.ID == id {
			v.t.payments = append(v.t.payments[:i:i], v.t.payments[i+1:]...)
			return nil
		}
	}
	return nil
}

func (v view) ListPayments(_ context.Context, limit int) ([]payroll.Payment, error) {
	out := []payroll.Payment{}
	for i := len(v.t.payments) - 1; i >= 0; i-- {
		out = append(out, v.t.payments[i])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PaymentDate.After(out[j].PaymentDate) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (v view) AppendTransaction(_ context.Context, tx payroll.Transaction) error {
	for _, x := range v.t.transactions {
		if tx.IdempotencyKey != "" && x.IdempotencyKey == tx.IdempotencyKey {
			return payroll.ErrDuplicateIdempotencyKey
		}
	}
	v.t.transactions = append(v.t.transactions, tx)
	return nil
}

func (v view) ListTransactions(_ context.Context, f payroll.TransactionFilter) ([]payroll.Transaction, error) {
	out := []payroll.Transaction{}
	for i := len(v.t.transactions) - 1; i >= 0; i-- {
		x := v.t.transactions[i]
		if f.EmployeeID != "" && x.EmployeeID != f.EmployeeID {
			continue
		}
		if f.SalaryID != "" && x.SalaryID != f.SalaryID {
			continue
		}
		out = append(out, x)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (v view) AppendNotification(_ context.Context, n payroll.Notification) error {
	v.t.notifications = append(v.t.notifications, n)
	return nil
}

func (v view) GetNotification(_ context.Context, id payroll.NotificationID) (*payroll.Notification, error) {
	for _, x := range v.t.notifications {
		if x.ID == id {
			return &x, nil
		}
	}
	return nil, nil
}

func (v view) ListNotifications(_ context.Context, f payroll.NotificationFilter) ([]payroll.Notification, error) {
	out := []payroll.Notification{}
	for i := len(v.t.notifications) - 1; i >= 0; i-- {
		x := v.t.notifications[i]
		if f.EmployeeID != "" && x.EmployeeID != f.EmployeeID {
			continue
		}
		if f.UnreadOnly && x.IsRead {
			continue
		}
		out = append(out, x)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (v view) MarkNotificationRead(_ context.Context, id payroll.NotificationID) error {
	for i := range v.t.notifications {
		if v.t.notifications[i].ID == id {
			v.t.notifications[i].IsRead = true
			return nil
		}
	}
	return &payroll.NotFoundError{Kind: "notification", ID: string(id)}
}
