/*
Package sqlite provides a SQLite-backed implementation of payroll.TxStore.

PURPOSE:
  Persists employees, attendance, salary records, payments, the transaction
  ledger and notifications. The same schema ports to PostgreSQL with only
  dialect changes (TEXT money columns become NUMERIC).

KEY TABLES:
  employees:     code UNIQUE, user_id UNIQUE (NULL when unlinked)
  attendance:    UNIQUE (employee_id, date)
  salaries:      UNIQUE (employee_id, month, year)
  payments:      salary_id UNIQUE, at most one per salary record
  transactions:  append-only ledger, idempotency_key UNIQUE
  notifications: per-employee inbox

APPEND-ONLY ENFORCEMENT:
  - No UPDATE statements on transactions table
  - No DELETE statements on transactions table
  - Reverted payments are recorded as reversal entries

MONEY:
  Amounts are stored as decimal strings and parsed back with shopspring
  decimal. Sums are computed in Go, never with SQL floating point.

CONCURRENCY:
  The pool is limited to one connection. Writers serialize on it, and an
  in-memory database (":memory:") stays a single database for the life of
  the Store. Inside WithTx every query goes through the *sql.Tx.

USAGE:
  store, err := sqlite.New("./data/payroll.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  svc := payroll.NewService(store)

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - payroll/store.go: Interface definitions
  - payroll/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/payroll"
)

// timestampLayout is fixed-width so TEXT ordering matches time ordering.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements payroll.TxStore using SQLite.
type Store struct {
	db *sql.DB
	q  querier
	tx *sql.Tx
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{db: db, q: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL UNIQUE,
		user_id TEXT UNIQUE,
		full_name TEXT NOT NULL,
		email TEXT NOT NULL,
		phone TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		date_of_joining TEXT NOT NULL DEFAULT '',
		designation TEXT NOT NULL DEFAULT '',
		department TEXT NOT NULL DEFAULT '',
		bank_name TEXT NOT NULL DEFAULT '',
		account_number TEXT NOT NULL DEFAULT '',
		ifsc_code TEXT NOT NULL DEFAULT '',
		base_salary TEXT NOT NULL,
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS attendance (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES employees(id),
		date TEXT NOT NULL,
		status TEXT NOT NULL,
		check_in TEXT NOT NULL DEFAULT '',
		check_out TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	-- One status per employee per day
	CREATE UNIQUE INDEX IF NOT EXISTS idx_attendance_employee_date
		ON attendance(employee_id, date);

	CREATE TABLE IF NOT EXISTS salaries (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES employees(id),
		month INTEGER NOT NULL,
		year INTEGER NOT NULL,
		base_salary TEXT NOT NULL,
		total_working_days INTEGER NOT NULL,
		days_present INTEGER NOT NULL,
		days_absent INTEGER NOT NULL,
		days_on_leave INTEGER NOT NULL,
		half_days INTEGER NOT NULL,
		salary_per_day TEXT NOT NULL,
		calculated_amount TEXT NOT NULL,
		allowances TEXT NOT NULL,
		deductions TEXT NOT NULL,
		net_salary TEXT NOT NULL,
		is_paid INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- One salary record per employee per month
	CREATE UNIQUE INDEX IF NOT EXISTS idx_salaries_employee_period
		ON salaries(employee_id, year, month);

	CREATE TABLE IF NOT EXISTS payments (
		id TEXT PRIMARY KEY,
		salary_id TEXT NOT NULL UNIQUE REFERENCES salaries(id),
		payment_date TEXT NOT NULL,
		method TEXT NOT NULL,
		reference TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		processed_by TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	-- Ledger. payment_id has no foreign key: reversals outlive the payment row.
	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		salary_id TEXT NOT NULL,
		payment_id TEXT NOT NULL DEFAULT '',
		tx_type TEXT NOT NULL,
		amount TEXT NOT NULL,
		date TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		idempotency_key TEXT UNIQUE,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_employee_date
		ON transactions(employee_id, date);
	CREATE INDEX IF NOT EXISTS idx_transactions_salary
		ON transactions(salary_id);

	CREATE TABLE IF NOT EXISTS notifications (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES employees(id),
		type TEXT NOT NULL,
		title TEXT NOT NULL,
		message TEXT NOT NULL,
		is_read INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_notifications_employee
		ON notifications(employee_id, is_read);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// TRANSACTIONAL STORE (payroll.TxStore interface)
// =============================================================================

// WithTx executes a function within a database transaction. Nested calls
// join the outer transaction.
func (s *Store) WithTx(ctx context.Context, fn func(store payroll.Store) error) error {
	if s.tx != nil {
		return fn(s)
	}

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&Store{db: s.db, q: sqlTx, tx: sqlTx}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

// =============================================================================
// EMPLOYEES
// =============================================================================

const employeeColumns = `id, code, user_id, full_name, email, phone, address, date_of_joining,
	designation, department, bank_name, account_number, ifsc_code, base_salary, is_active,
	created_at, updated_at`

func (s *Store) CreateEmployee(ctx context.Context, e payroll.Employee) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO employees (`+employeeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Code, nullString(e.UserID), e.FullName, e.Email, e.Phone, e.Address,
		formatDate(e.DateOfJoining), e.Designation, e.Department,
		e.BankName, e.AccountNumber, e.IFSCCode, e.BaseSalary.String(), e.IsActive,
		formatTimestamp(e.CreatedAt), formatTimestamp(e.UpdatedAt),
	)
	if err != nil {
		return employeeError(err, e)
	}
	return nil
}

func (s *Store) UpdateEmployee(ctx context.Context, e payroll.Employee) error {
	res, err := s.q.ExecContext(ctx, `
		UPDATE employees SET
			code = ?, user_id = ?, full_name = ?, email = ?, phone = ?, address = ?,
			date_of_joining = ?, designation = ?, department = ?, bank_name = ?,
			account_number = ?, ifsc_code = ?, base_salary = ?, is_active = ?, updated_at = ?
		WHERE id = ?`,
		e.Code, nullString(e.UserID), e.FullName, e.Email, e.Phone, e.Address,
		formatDate(e.DateOfJoining), e.Designation, e.Department, e.BankName,
		e.AccountNumber, e.IFSCCode, e.BaseSalary.String(), e.IsActive,
		formatTimestamp(e.UpdatedAt), e.ID,
	)
	if err != nil {
		return employeeError(err, e)
	}
	return requireRow(res, "employee", string(e.ID))
}

func employeeError(err error, e payroll.Employee) error {
	if isUniqueConstraintError(err) {
		if strings.Contains(err.Error(), "employees.user_id") {
			return &payroll.DuplicateRecordError{Kind: "user_link", Key: e.UserID}
		}
		return &payroll.DuplicateRecordError{Kind: "employee", Key: e.Code}
	}
	return fmt.Errorf("failed to save employee: %w", err)
}

func (s *Store) GetEmployee(ctx context.Context, id payroll.EmployeeID) (*payroll.Employee, error) {
	row := s.q.QueryRowContext(ctx, "SELECT "+employeeColumns+" FROM employees WHERE id = ?", id)
	return oneEmployee(row)
}

func (s *Store) GetEmployeeByUser(ctx context.Context, userID string) (*payroll.Employee, error) {
	if userID == "" {
		return nil, nil
	}
	row := s.q.QueryRowContext(ctx, "SELECT "+employeeColumns+" FROM employees WHERE user_id = ?", userID)
	return oneEmployee(row)
}

func oneEmployee(row *sql.Row) (*payroll.Employee, error) {
	e, err := scanEmployee(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Store) ListEmployees(ctx context.Context, f payroll.EmployeeFilter) ([]payroll.Employee, error) {
	var (
		where []string
		args  []any
	)
	if f.ActiveOnly {
		where = append(where, "is_active = 1")
	}
	if f.Search != "" {
		like := "%" + strings.ToLower(f.Search) + "%"
		where = append(where, "(lower(full_name) LIKE ? OR lower(code) LIKE ? OR lower(email) LIKE ?)")
		args = append(args, like, like, like)
	}

	query := "SELECT " + employeeColumns + " FROM employees" + whereClause(where) +
		" ORDER BY created_at DESC, rowid DESC"
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	employees := []payroll.Employee{}
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

func scanEmployee(sc scanner) (payroll.Employee, error) {
	var (
		e                                 payroll.Employee
		userID                            sql.NullString
		joined, base, createdAt, updateAt string
	)
	err := sc.Scan(
		&e.ID, &e.Code, &userID, &e.FullName, &e.Email, &e.Phone, &e.Address, &joined,
		&e.Designation, &e.Department, &e.BankName, &e.AccountNumber, &e.IFSCCode,
		&base, &e.IsActive, &createdAt, &updateAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return e, err
		}
		return e, fmt.Errorf("failed to scan employee: %w", err)
	}
	d := columnDecoder{table: "employees"}
	e.UserID = userID.String
	e.DateOfJoining = d.date("date_of_joining", joined)
	e.BaseSalary = d.money("base_salary", base)
	e.CreatedAt = d.timestamp("created_at", createdAt)
	e.UpdatedAt = d.timestamp("updated_at", updateAt)
	return e, d.err
}

// =============================================================================
// ATTENDANCE
// =============================================================================

func (s *Store) CreateAttendance(ctx context.Context, a payroll.AttendanceRecord) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO attendance (id, employee_id, date, status, check_in, check_out, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.EmployeeID, formatDate(a.Date), a.Status, a.CheckIn, a.CheckOut, a.Notes,
		formatTimestamp(a.CreatedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return &payroll.DuplicateRecordError{
				Kind: "attendance",
				Key:  string(a.EmployeeID) + "@" + formatDate(a.Date),
			}
		}
		return fmt.Errorf("failed to save attendance: %w", err)
	}
	return nil
}

func (s *Store) ListAttendance(ctx context.Context, f payroll.AttendanceFilter) ([]payroll.AttendanceRecord, error) {
	var (
		where []string
		args  []any
	)
	if f.EmployeeID != "" {
		where = append(where, "employee_id = ?")
		args = append(args, f.EmployeeID)
	}
	if !f.From.IsZero() {
		where = append(where, "date >= ?")
		args = append(args, formatDate(f.From))
	}
	if !f.To.IsZero() {
		where = append(where, "date <= ?")
		args = append(args, formatDate(f.To))
	}

	rows, err := s.q.QueryContext(ctx, `
		SELECT id, employee_id, date, status, check_in, check_out, notes, created_at
		FROM attendance`+whereClause(where)+`
		ORDER BY date DESC, rowid DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance: %w", err)
	}
	defer rows.Close()

	records := []payroll.AttendanceRecord{}
	for rows.Next() {
		var (
			a               payroll.AttendanceRecord
			date, createdAt string
		)
		if err := rows.Scan(&a.ID, &a.EmployeeID, &date, &a.Status, &a.CheckIn, &a.CheckOut, &a.Notes, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		d := columnDecoder{table: "attendance"}
		a.Date = d.date("date", date)
		a.CreatedAt = d.timestamp("created_at", createdAt)
		if d.err != nil {
			return nil, d.err
		}
		records = append(records, a)
	}
	return records, rows.Err()
}

// =============================================================================
// SALARY RECORDS
// =============================================================================

const salaryColumns = `id, employee_id, month, year, base_salary, total_working_days,
	days_present, days_absent, days_on_leave, half_days, salary_per_day, calculated_amount,
	allowances, deductions, net_salary, is_paid, created_at, updated_at`

func (s *Store) CreateSalary(ctx context.Context, r payroll.SalaryRecord) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO salaries (`+salaryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.EmployeeID, int(r.Month), r.Year, r.BaseSalary.String(), r.TotalWorkingDays,
		r.DaysPresent, r.DaysAbsent, r.DaysOnLeave, r.HalfDays,
		r.SalaryPerDay.String(), r.CalculatedAmount.String(),
		r.Allowances.String(), r.Deductions.String(), r.NetSalary.String(), r.IsPaid,
		formatTimestamp(r.CreatedAt), formatTimestamp(r.UpdatedAt),
	)
	if err != nil {
		return salaryError(err, r)
	}
	return nil
}

func (s *Store) UpdateSalary(ctx context.Context, r payroll.SalaryRecord) error {
	res, err := s.q.ExecContext(ctx, `
		UPDATE salaries SET
			employee_id = ?, month = ?, year = ?, base_salary = ?, total_working_days = ?,
			days_present = ?, days_absent = ?, days_on_leave = ?, half_days = ?,
			salary_per_day = ?, calculated_amount = ?, allowances = ?, deductions = ?,
			net_salary = ?, is_paid = ?, updated_at = ?
		WHERE id = ?`,
		r.EmployeeID, int(r.Month), r.Year, r.BaseSalary.String(), r.TotalWorkingDays,
		r.DaysPresent, r.DaysAbsent, r.DaysOnLeave, r.HalfDays,
		r.SalaryPerDay.String(), r.CalculatedAmount.String(), r.Allowances.String(),
		r.Deductions.String(), r.NetSalary.String(), r.IsPaid,
		formatTimestamp(r.UpdatedAt), r.ID,
	)
	if err != nil {
		return salaryError(err, r)
	}
	return requireRow(res, "salary", string(r.ID))
}

func salaryError(err error, r payroll.SalaryRecord) error {
	if isUniqueConstraintError(err) {
		return &payroll.DuplicateRecordError{
			Kind: "salary",
			Key:  string(r.EmployeeID) + "@" + payroll.PeriodLabel(r.Month, r.Year),
		}
	}
	return fmt.Errorf("failed to save salary: %w", err)
}

func (s *Store) GetSalary(ctx context.Context, id payroll.SalaryID) (*payroll.SalaryRecord, error) {
	row := s.q.QueryRowContext(ctx, "SELECT "+salaryColumns+" FROM salaries WHERE id = ?", id)
	return oneSalary(row)
}

func (s *Store) GetSalaryForPeriod(ctx context.Context, employeeID payroll.EmployeeID, month time.Month, year int) (*payroll.SalaryRecord, error) {
	row := s.q.QueryRowContext(ctx,
		"SELECT "+salaryColumns+" FROM salaries WHERE employee_id = ? AND month = ? AND year = ?",
		employeeID, int(month), year,
	)
	return oneSalary(row)
}

func oneSalary(row *sql.Row) (*payroll.SalaryRecord, error) {
	r, err := scanSalary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) ListSalaries(ctx context.Context, f payroll.SalaryFilter) ([]payroll.SalaryRecord, error) {
	var (
		where []string
		args  []any
	)
	if f.EmployeeID != "" {
		where = append(where, "employee_id = ?")
		args = append(args, f.EmployeeID)
	}
	if f.Month != 0 {
		where = append(where, "month = ?")
		args = append(args, int(f.Month))
	}
	if f.Year != 0 {
		where = append(where, "year = ?")
		args = append(args, f.Year)
	}
	if f.Paid != nil {
		where = append(where, "is_paid = ?")
		args = append(args, *f.Paid)
	}

	query := "SELECT " + salaryColumns + " FROM salaries" + whereClause(where) +
		" ORDER BY year DESC, month DESC, rowid DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query salaries: %w", err)
	}
	defer rows.Close()

	records := []payroll.SalaryRecord{}
	for rows.Next() {
		r, err := scanSalary(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func scanSalary(sc scanner) (payroll.SalaryRecord, error) {
	var (
		r                           payroll.SalaryRecord
		month                       int
		base, perDay, calculated    string
		allowances, deductions, net string
		createdAt, updatedAt        string
	)
	err := sc.Scan(
		&r.ID, &r.EmployeeID, &month, &r.Year, &base, &r.TotalWorkingDays,
		&r.DaysPresent, &r.DaysAbsent, &r.DaysOnLeave, &r.HalfDays, &perDay, &calculated,
		&allowances, &deductions, &net, &r.IsPaid, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return r, err
		}
		return r, fmt.Errorf("failed to scan salary: %w", err)
	}
	d := columnDecoder{table: "salaries"}
	r.Month = time.Month(month)
	r.BaseSalary = d.money("base_salary", base)
	r.SalaryPerDay = d.money("salary_per_day", perDay)
	r.CalculatedAmount = d.money("calculated_amount", calculated)
	r.Allowances = d.money("allowances", allowances)
	r.Deductions = d.money("deductions", deductions)
	r.NetSalary = d.money("net_salary", net)
	r.CreatedAt = d.timestamp("created_at", createdAt)
	r.UpdatedAt = d.timestamp("updated_at", updatedAt)
	return r, d.err
}

// =============================================================================
// PAYMENTS
// =============================================================================

const paymentColumns = "id, salary_id, payment_date, method, reference, notes, processed_by, created_at"

func (s *Store) CreatePayment(ctx context.Context, p payroll.Payment) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO payments (`+paymentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.SalaryID, formatDate(p.PaymentDate), p.Method, p.Reference, p.Notes,
		p.ProcessedBy, formatTimestamp(p.CreatedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return &payroll.DuplicateRecordError{Kind: "payment", Key: string(p.SalaryID)}
		}
		return fmt.Errorf("failed to save payment: %w", err)
	}
	return nil
}

func (s *Store) GetPaymentBySalary(ctx context.Context, salaryID payroll.SalaryID) (*payroll.Payment, error) {
	row := s.q.QueryRowContext(ctx, "SELECT "+paymentColumns+" FROM payments WHERE salary_id = ?", salaryID)
	p, err := scanPayment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) DeletePayment(ctx context.Context, id payroll.PaymentID) error {
	_, err := s.q.ExecContext(ctx, "DELETE FROM payments WHERE id = ?", id)
	return err
}

func (s *Store) ListPayments(ctx context.Context, limit int) ([]payroll.Payment, error) {
	query := "SELECT " + paymentColumns + " FROM payments ORDER BY payment_date DESC, rowid DESC"
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	payments := []payroll.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func scanPayment(sc scanner) (payroll.Payment, error) {
	var (
		p                 payroll.Payment
		paidOn, createdAt string
	)
	err := sc.Scan(&p.ID, &p.SalaryID, &paidOn, &p.Method, &p.Reference, &p.Notes, &p.ProcessedBy, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return p, err
		}
		return p, fmt.Errorf("failed to scan payment: %w", err)
	}
	d := columnDecoder{table: "payments"}
	p.PaymentDate = d.date("payment_date", paidOn)
	p.CreatedAt = d.timestamp("created_at", createdAt)
	return p, d.err
}

// =============================================================================
// TRANSACTION LEDGER
// =============================================================================

// AppendTransaction adds an entry to the ledger.
func (s *Store) AppendTransaction(ctx context.Context, tx payroll.Transaction) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO transactions
		(id, employee_id, salary_id, payment_id, tx_type, amount, date, description, idempotency_key, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.EmployeeID, tx.SalaryID, tx.PaymentID, tx.Type, tx.Amount.String(),
		formatDate(tx.Date), tx.Description, nullString(tx.IdempotencyKey),
		formatTimestamp(tx.CreatedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return payroll.ErrDuplicateIdempotencyKey
		}
		return fmt.Errorf("failed to append transaction: %w", err)
	}
	return nil
}

func (s *Store) ListTransactions(ctx context.Context, f payroll.TransactionFilter) ([]payroll.Transaction, error) {
	var (
		where []string
		args  []any
	)
	if f.EmployeeID != "" {
		where = append(where, "employee_id = ?")
		args = append(args, f.EmployeeID)
	}
	if f.SalaryID != "" {
		where = append(where, "salary_id = ?")
		args = append(args, f.SalaryID)
	}

	rows, err := s.q.QueryContext(ctx, `
		SELECT id, employee_id, salary_id, payment_id, tx_type, amount, date, description,
		       idempotency_key, created_at
		FROM transactions`+whereClause(where)+`
		ORDER BY date DESC, rowid DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	txs := []payroll.Transaction{}
	for rows.Next() {
		var (
			tx                      payroll.Transaction
			amount, date, createdAt string
			idempotencyKey          sql.NullString
		)
		err := rows.Scan(&tx.ID, &tx.EmployeeID, &tx.SalaryID, &tx.PaymentID, &tx.Type,
			&amount, &date, &tx.Description, &idempotencyKey, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		d := columnDecoder{table: "transactions"}
		tx.Amount = d.money("amount", amount)
		tx.Date = d.date("date", date)
		tx.IdempotencyKey = idempotencyKey.String
		tx.CreatedAt = d.timestamp("created_at", createdAt)
		if d.err != nil {
			return nil, d.err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// =============================================================================
// NOTIFICATIONS
// =============================================================================

const notificationColumns = "id, employee_id, type, title, message, is_read, created_at"

func (s *Store) AppendNotification(ctx context.Context, n payroll.Notification) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO notifications (`+notificationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.EmployeeID, n.Type, n.Title, n.Message, n.IsRead, formatTimestamp(n.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save notification: %w", err)
	}
	return nil
}

func (s *Store) GetNotification(ctx context.Context, id payroll.NotificationID) (*payroll.Notification, error) {
	row := s.q.QueryRowContext(ctx, "SELECT "+notificationColumns+" FROM notifications WHERE id = ?", id)
	n, err := scanNotification(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (s *Store) ListNotifications(ctx context.Context, f payroll.NotificationFilter) ([]payroll.Notification, error) {
	var (
		where []string
		args  []any
	)
	if f.EmployeeID != "" {
		where = append(where, "employee_id = ?")
		args = append(args, f.EmployeeID)
	}
	if f.UnreadOnly {
		where = append(where, "is_read = 0")
	}

	query := "SELECT " + notificationColumns + " FROM notifications" + whereClause(where) +
		" ORDER BY created_at DESC, rowid DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	out := []payroll.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Store) MarkNotificationRead(ctx context.Context, id payroll.NotificationID) error {
	res, err := s.q.ExecContext(ctx, "UPDATE notifications SET is_read = 1 WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireRow(res, "notification", string(id))
}

func scanNotification(sc scanner) (payroll.Notification, error) {
	var (
		n         payroll.Notification
		createdAt string
	)
	err := sc.Scan(&n.ID, &n.EmployeeID, &n.Type, &n.Title, &n.Message, &n.IsRead, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return n, err
		}
		return n, fmt.Errorf("failed to scan notification: %w", err)
	}
	d := columnDecoder{table: "notifications"}
	n.CreatedAt = d.timestamp("created_at", createdAt)
	return n, d.err
}

// =============================================================================
// HELPERS
// =============================================================================

type scanner interface {
	Scan(dest ...any) error
}

func whereClause(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

func requireRow(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &payroll.NotFoundError{Kind: kind, ID: id}
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(payroll.DateLayout)
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// columnDecoder parses TEXT columns back into domain values. It keeps the
// first failure so a corrupt row is reported rather than read as zero.
type columnDecoder struct {
	table string
	err   error
}

func (d *columnDecoder) fail(column, raw string, err error) {
	if d.err == nil {
		d.err = fmt.Errorf("corrupt %s.%s value %q: %w", d.table, column, raw, err)
	}
}

func (d *columnDecoder) money(column, raw string) decimal.Decimal {
	v, err := payroll.ParseMoney(raw)
	if err != nil {
		d.fail(column, raw, err)
		return decimal.Zero
	}
	return v
}

func (d *columnDecoder) date(column, raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	t, err := payroll.ParseDate(raw)
	if err != nil {
		d.fail(column, raw, err)
	}
	return t
}

func (d *columnDecoder) timestamp(column, raw string) time.Time {
	t, err := time.Parse(timestampLayout, raw)
	if err != nil {
		d.fail(column, raw, err)
	}
	return t
}

func isUniqueConstraintError(err error) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.ExtendedCode == sqlite3.ErrConstraintUnique ||
		se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}
