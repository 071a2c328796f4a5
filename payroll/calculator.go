/*
calculator.go - Pro-rated salary calculation

PURPOSE:
  Maps a base salary and a month's attendance tallies to the payable amount.
  This is the only arithmetic in the system; everything else stores or sums
  its results.

FORMULA:
  salary_per_day    = round2(base_salary / total_working_days)
  calculated_amount = round2((days_present + 0.5 * half_days) * salary_per_day)
  net_salary        = calculated_amount + allowances - deductions

  With total_working_days = 0 there is no per-day rate: salary_per_day and
  calculated_amount are 0 and net_salary = allowances - deductions. This is a
  defined result, not an error.

ROUNDING:
  Banker's rounding (half-even) to 2 places, the same rule decimal columns use
  when quantized. Calculate is pure: identical inputs give bit-identical outputs.

EXAMPLE:
  Calculate(SalaryInputs{BaseSalary: 30000, TotalWorkingDays: 30,
      DaysPresent: 26, HalfDays: 2, Allowances: 500, Deductions: 200})
  => SalaryPerDay 1000.00, CalculatedAmount 27000.00, NetSalary 27300.00
*/
package payroll

import "github.com/shopspring/decimal"

// MoneyPlaces is the number of fractional digits kept for monetary values.
const MoneyPlaces = 2

var half = decimal.NewFromFloat(0.5)

// SalaryInputs are the values the formula reads.
type SalaryInputs struct {
	BaseSalary       decimal.Decimal
	TotalWorkingDays int `validate:"min=0,max=31"`
	DaysPresent      int `validate:"min=0,max=31"`
	HalfDays         int `validate:"min=0,max=31"`
	Allowances       decimal.Decimal
	Deductions       decimal.Decimal
}

// PreviewSalary checks the inputs and applies the formula without storing
// anything.
func PreviewSalary(in SalaryInputs) (SalaryBreakdown, error) {
	if err := validateStruct(in); err != nil {
		return SalaryBreakdown{}, err
	}
	if err := nonNegative("base_salary", in.BaseSalary); err != nil {
		return SalaryBreakdown{}, err
	}
	if err := nonNegative("allowances", in.Allowances); err != nil {
		return SalaryBreakdown{}, err
	}
	if err := nonNegative("deductions", in.Deductions); err != nil {
		return SalaryBreakdown{}, err
	}
	return Calculate(in), nil
}

// SalaryBreakdown is the formula's result.
type SalaryBreakdown struct {
	SalaryPerDay     decimal.Decimal
	CalculatedAmount decimal.Decimal
	NetSalary        decimal.Decimal
}

// Calculate applies the pro-ration formula.
func Calculate(in SalaryInputs) SalaryBreakdown {
	allowances := RoundMoney(in.Allowances)
	deductions := RoundMoney(in.Deductions)

	if in.TotalWorkingDays == 0 {
		return SalaryBreakdown{
			SalaryPerDay:     decimal.Zero,
			CalculatedAmount: decimal.Zero,
			NetSalary:        allowances.Sub(deductions),
		}
	}

	perDay := RoundMoney(in.BaseSalary.Div(decimal.NewFromInt(int64(in.TotalWorkingDays))))
	paidDays := decimal.NewFromInt(int64(in.DaysPresent)).
		Add(decimal.NewFromInt(int64(in.HalfDays)).Mul(half))
	calculated := RoundMoney(paidDays.Mul(perDay))

	return SalaryBreakdown{
		SalaryPerDay:     perDay,
		CalculatedAmount: calculated,
		NetSalary:        calculated.Add(allowances).Sub(deductions),
	}
}

// RoundMoney rounds half-even to MoneyPlaces.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(MoneyPlaces)
}

// FormatMoney renders d with exactly MoneyPlaces fractional digits.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixedBank(MoneyPlaces)
}

// ParseMoney parses a decimal string and rounds it to MoneyPlaces.
// An empty string is zero.
func ParseMoney(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	return RoundMoney(d), nil
}
