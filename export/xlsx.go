/*
Package export renders payroll reports as .xlsx workbooks.

WORKBOOKS:
  Monthly: one row per salary record (employee, tallies, amounts, status)
           followed by a "Total Paid" row.
  Annual:  one row per calendar month with the paid total, then a grand total.

Money cells are numeric with a two-decimal number format, so the sheet can
be summed in a spreadsheet; the authoritative amounts stay in the database.
*/
package export

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/warp/payroll-engine/payroll"
	"github.com/xuri/excelize/v2"
)

const (
	MonthlySheet = "Monthly Payroll"
	AnnualSheet  = "Annual Payroll"

	// Built-in excelize number format "#,##0.00".
	moneyNumFmt = 4
)

var monthlyHeaders = []string{
	"Employee ID", "Name", "Department", "Working Days", "Present", "Absent",
	"Leave", "Half Days", "Base Salary", "Per Day", "Calculated", "Allowances",
	"Deductions", "Net Salary", "Status",
}

// MonthlyWorkbook builds the monthly payroll sheet. employees resolves names
// for the records; unknown employees are listed by ID.
func MonthlyWorkbook(r *payroll.MonthlyReport, employees map[payroll.EmployeeID]payroll.Employee) (_ *excelize.File, err error) {
	f, styles, err := newWorkbook(MonthlySheet)
	if err != nil {
		return nil, err
	}
	defer closeOnError(f, &err)

	title := "Payroll " + payroll.PeriodLabel(r.Month, r.Year)
	if err := f.SetCellValue(MonthlySheet, "A1", title); err != nil {
		return nil, err
	}
	if err := writeHeader(f, MonthlySheet, 3, monthlyHeaders, styles.header); err != nil {
		return nil, err
	}

	row := 4
	for _, rec := range r.Records {
		emp, ok := employees[rec.EmployeeID]
		code, name := string(rec.EmployeeID), ""
		if ok {
			code, name = emp.Code, emp.FullName
		}
		status := "Unpaid"
		if rec.IsPaid {
			status = "Paid"
		}
		values := []interface{}{
			code, name, emp.Department,
			rec.TotalWorkingDays, rec.DaysPresent, rec.DaysAbsent, rec.DaysOnLeave, rec.HalfDays,
			rec.BaseSalary.InexactFloat64(), rec.SalaryPerDay.InexactFloat64(),
			rec.CalculatedAmount.InexactFloat64(), rec.Allowances.InexactFloat64(),
			rec.Deductions.InexactFloat64(), rec.NetSalary.InexactFloat64(),
			status,
		}
		if err := setRow(f, MonthlySheet, row, values); err != nil {
			return nil, err
		}
		row++
	}
	if err := moneyColumns(f, MonthlySheet, "I", "N", 4, row-1, styles.money); err != nil {
		return nil, err
	}

	totalRow := row + 1
	if err := f.SetCellValue(MonthlySheet, fmt.Sprintf("M%d", totalRow), "Total Paid"); err != nil {
		return nil, err
	}
	if err := f.SetCellValue(MonthlySheet, fmt.Sprintf("N%d", totalRow), r.TotalPaid.InexactFloat64()); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(MonthlySheet, fmt.Sprintf("M%d", totalRow), fmt.Sprintf("N%d", totalRow), styles.total); err != nil {
		return nil, err
	}

	if err := f.SetColWidth(MonthlySheet, "A", "C", 18); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(MonthlySheet, "I", "N", 14); err != nil {
		return nil, err
	}
	return f, nil
}

// AnnualWorkbook builds the per-month totals sheet for a year.
func AnnualWorkbook(r *payroll.AnnualReport) (_ *excelize.File, err error) {
	f, styles, err := newWorkbook(AnnualSheet)
	if err != nil {
		return nil, err
	}
	defer closeOnError(f, &err)

	if err := f.SetCellValue(AnnualSheet, "A1", fmt.Sprintf("Payroll %d", r.Year)); err != nil {
		return nil, err
	}
	if err := writeHeader(f, AnnualSheet, 3, []string{"Month", "Total Paid"}, styles.header); err != nil {
		return nil, err
	}

	for i, total := range r.ByMonth {
		row := 4 + i
		if err := setRow(f, AnnualSheet, row, []interface{}{
			time.Month(i + 1).String(),
			total.InexactFloat64(),
		}); err != nil {
			return nil, err
		}
	}
	if err := moneyColumns(f, AnnualSheet, "B", "B", 4, 15, styles.money); err != nil {
		return nil, err
	}

	if err := setRow(f, AnnualSheet, 17, []interface{}{"Total", r.TotalPaid.InexactFloat64()}); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(AnnualSheet, "A17", "B17", styles.total); err != nil {
		return nil, err
	}

	if err := f.SetColWidth(AnnualSheet, "A", "B", 20); err != nil {
		return nil, err
	}
	return f, nil
}

// =============================================================================
// HELPERS
// =============================================================================

type workbookStyles struct {
	header int
	money  int
	total  int
}

func newWorkbook(sheet string) (_ *excelize.File, styles workbookStyles, err error) {
	f := excelize.NewFile()
	defer closeOnError(f, &err)

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, styles, err
	}

	if styles.header, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"DDEBF7"}, Pattern: 1},
	}); err != nil {
		return nil, styles, fmt.Errorf("error creating header style: %w", err)
	}
	if styles.money, err = f.NewStyle(&excelize.Style{NumFmt: moneyNumFmt}); err != nil {
		return nil, styles, fmt.Errorf("error creating money style: %w", err)
	}
	if styles.total, err = f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		NumFmt: moneyNumFmt,
	}); err != nil {
		return nil, styles, fmt.Errorf("error creating total style: %w", err)
	}
	return f, styles, nil
}

// closeOnError releases c when the enclosing builder fails. A failing Close
// is joined to the builder's error.
func closeOnError(c io.Closer, err *error) {
	if *err != nil {
		*err = errors.Join(*err, c.Close())
	}
}

func writeHeader(f *excelize.File, sheet string, row int, headers []string, style int) error {
	values := make([]interface{}, len(headers))
	for i, h := range headers {
		values[i] = h
	}
	if err := setRow(f, sheet, row, values); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(headers), row)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), last, style)
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func moneyColumns(f *excelize.File, sheet, from, to string, firstRow, lastRow, style int) error {
	if lastRow < firstRow {
		return nil
	}
	return f.SetCellStyle(sheet, fmt.Sprintf("%s%d", from, firstRow), fmt.Sprintf("%s%d", to, lastRow), style)
}
