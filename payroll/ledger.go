/*
ledger.go - Salary disbursement ledger

PURPOSE:
  Transactions are the immutable record of money paid out. They are written
  only by ProcessPayment (disbursement) and RevertPayment (reversal) and are
  never updated or deleted, so an employee's ledger always explains how the
  current total paid came to be.

EXAMPLE FLOW:
  1. March salary paid:     disbursement +27300.00
  2. Payment reverted:      reversal     -27300.00
  3. Paid again next day:   disbursement +27300.00
  Ledger nets to 27300.00; all three entries remain.
*/
package payroll

import (
	"context"

	"github.com/shopspring/decimal"
)

// ListTransactions returns ledger entries newest first. Admins see all or
// filter by employee; employees see only their own.
func (s *Service) ListTransactions(ctx context.Context, actor Actor, employeeID EmployeeID) ([]Transaction, error) {
	if !actor.IsAdmin() {
		emp, err := s.actorEmployee(ctx, actor)
		if err != nil {
			return nil, err
		}
		employeeID = emp.ID
	}
	return s.store.ListTransactions(ctx, TransactionFilter{EmployeeID: employeeID})
}

// LedgerTotal sums transaction amounts (reversals are negative).
func LedgerTotal(txs []Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		total = total.Add(tx.Amount)
	}
	return total
}
