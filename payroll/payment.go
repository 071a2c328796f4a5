/*
payment.go - Payment lifecycle of a salary record

STATE MACHINE (per salary record):
  Unpaid --ProcessPayment--> Paid --RevertPayment--> Unpaid

PROCESS PAYMENT (all-or-nothing, one store transaction):
  1. Payment row (one per salary record)
  2. is_paid = true
  3. Disbursement ledger entry for net_salary
  4. salary_paid notification to the employee

REVERT PAYMENT (all-or-nothing, one store transaction):
  1. is_paid = false
  2. Payment row deleted
  3. Disbursement entry kept; a reversal entry of -net_salary is appended so
     the employee's ledger nets to zero. Financial history is never deleted.
  4. salary_pending notification to the employee

CONCURRENCY:
  Both hold the salary record's lock and re-read the record inside the
  transaction, so of two simultaneous payments exactly one succeeds and the
  other gets AlreadyPaidError.
*/
package payroll

import (
	"context"
	"fmt"
	"time"
)

// PaymentInput describes how a salary was paid. A zero PaymentDate means today.
type PaymentInput struct {
	PaymentDate time.Time
	Method      PaymentMethod `validate:"required,oneof=bank_transfer cash cheque upi other"`
	Reference   string        `validate:"max=100"`
	Notes       string
}

// ProcessPayment marks the salary paid and records payment, ledger entry and
// notification atomically. Fails with AlreadyPaidError if already paid.
func (s *Service) ProcessPayment(ctx context.Context, actor Actor, salaryID SalaryID, in PaymentInput) (*Payment, error) {
	if err := requireAdmin(actor, "process payments"); err != nil {
		return nil, err
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	rec, err := s.salary(ctx, s.store, salaryID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(periodKey(rec.EmployeeID, rec.Month, rec.Year))
	defer unlock()

	paymentDate := DateOf(in.PaymentDate)
	if in.PaymentDate.IsZero() {
		paymentDate = s.today()
	}

	var payment Payment
	err = s.store.WithTx(ctx, func(st Store) error {
		rec, err := s.salary(ctx, st, salaryID)
		if err != nil {
			return err
		}
		if rec.IsPaid {
			return &AlreadyPaidError{SalaryID: rec.ID}
		}

		now := s.timestamp()
		payment = Payment{
			ID:          PaymentID(s.newID()),
			SalaryID:    rec.ID,
			PaymentDate: paymentDate,
			Method:      in.Method,
			Reference:   in.Reference,
			Notes:       in.Notes,
			ProcessedBy: actor.UserID,
			CreatedAt:   now,
		}
		if err := st.CreatePayment(ctx, payment); err != nil {
			return err
		}

		rec.IsPaid = true
		rec.UpdatedAt = now
		if err := st.UpdateSalary(ctx, *rec); err != nil {
			return err
		}

		if err := st.AppendTransaction(ctx, Transaction{
			ID:             TransactionID(s.newID()),
			EmployeeID:     rec.EmployeeID,
			SalaryID:       rec.ID,
			PaymentID:      payment.ID,
			Type:           TxDisbursement,
			Amount:         rec.NetSalary,
			Date:           paymentDate,
			Description:    fmt.Sprintf("Salary payment for %s", rec.Period()),
			IdempotencyKey: "disbursement:" + string(payment.ID),
			CreatedAt:      now,
		}); err != nil {
			return err
		}

		return st.AppendNotification(ctx, Notification{
			ID:         NotificationID(s.newID()),
			EmployeeID: rec.EmployeeID,
			Type:       NotifySalaryPaid,
			Title:      "Salary Paid",
			Message: fmt.Sprintf("Your salary for %s has been processed. Amount: %s",
				rec.Period(), FormatMoney(rec.NetSalary)),
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// RevertPayment marks a paid salary unpaid again. Fails with NotPaidError if
// the record is not paid.
func (s *Service) RevertPayment(ctx context.Context, actor Actor, salaryID SalaryID) error {
	if err := requireAdmin(actor, "revert payments"); err != nil {
		return err
	}
	rec, err := s.salary(ctx, s.store, salaryID)
	if err != nil {
		return err
	}

	unlock := s.locks.Lock(periodKey(rec.EmployeeID, rec.Month, rec.Year))
	defer unlock()

	return s.store.WithTx(ctx, func(st Store) error {
		rec, err := s.salary(ctx, st, salaryID)
		if err != nil {
			return err
		}
		if !rec.IsPaid {
			return &NotPaidError{SalaryID: rec.ID}
		}

		now := s.timestamp()
		rec.IsPaid = false
		rec.UpdatedAt = now
		if err := st.UpdateSalary(ctx, *rec); err != nil {
			return err
		}

		payment, err := st.GetPaymentBySalary(ctx, rec.ID)
		if err != nil {
			return err
		}
		if payment != nil {
			if err := st.DeletePayment(ctx, payment.ID); err != nil {
				return err
			}
			if err := st.AppendTransaction(ctx, Transaction{
				ID:             TransactionID(s.newID()),
				EmployeeID:     rec.EmployeeID,
				SalaryID:       rec.ID,
				PaymentID:      payment.ID,
				Type:           TxReversal,
				Amount:         rec.NetSalary.Neg(),
				Date:           s.today(),
				Description:    fmt.Sprintf("Reversal of salary payment for %s", rec.Period()),
				IdempotencyKey: "reversal:" + string(payment.ID),
				CreatedAt:      now,
			}); err != nil {
				return err
			}
		}

		return st.AppendNotification(ctx, Notification{
			ID:         NotificationID(s.newID()),
			EmployeeID: rec.EmployeeID,
			Type:       NotifySalaryPending,
			Title:      "Salary Pending",
			Message:    fmt.Sprintf("Your salary payment for %s has been reverted and is pending.", rec.Period()),
			CreatedAt:  now,
		})
	})
}
