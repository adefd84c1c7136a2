// Package export renders payment schedules as xlsx workbooks.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"treasurytracker/internal/models"
)

// SheetName is the worksheet that holds the schedule.
const SheetName = "Schedule"

// ContentType is the MIME type of the written workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var headers = []string{"Date", "Type", "Amount", "Status", "Description", "Actual Date", "Actual Amount"}

// ScheduleWorkbook lays out the investment's events one per row, in the
// order given, below a header row.
func ScheduleWorkbook(inv *models.Investment, events []models.PaymentEvent) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, err
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return nil, err
		}
	}

	for idx, e := range events {
		row := idx + 2
		actualDate := ""
		if e.ActualPaymentDate != nil {
			actualDate = e.ActualPaymentDate.Format("2006-01-02")
		}
		actualAmount := ""
		if e.ActualPaymentAmount.Valid {
			actualAmount = e.ActualPaymentAmount.Decimal.StringFixed(2)
		}

		values := []interface{}{
			e.PaymentDate.Format("2006-01-02"),
			string(e.PaymentType),
			e.PaymentAmount.StringFixed(2),
			string(e.PaymentStatus),
			safeCell(e.Description),
			actualDate,
			actualAmount,
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return nil, err
		}
	}

	_ = f.SetColWidth(SheetName, "A", "A", 12)
	_ = f.SetColWidth(SheetName, "B", "B", 14)
	_ = f.SetColWidth(SheetName, "C", "C", 14)
	_ = f.SetColWidth(SheetName, "D", "D", 10)
	_ = f.SetColWidth(SheetName, "E", "E", 40)
	_ = f.SetColWidth(SheetName, "F", "G", 14)

	if err := f.SetDocProps(&excelize.DocProperties{
		Title:   safeCell(inv.Description),
		Subject: fmt.Sprintf("%s payment schedule", inv.Type),
	}); err != nil {
		return nil, err
	}
	return f, nil
}

// WriteSchedule writes the schedule workbook to w.
func WriteSchedule(w io.Writer, inv *models.Investment, events []models.PaymentEvent) error {
	f, err := ScheduleWorkbook(inv, events)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

// Filename is the suggested attachment name for an investment's schedule.
func Filename(inv *models.Investment) string {
	return fmt.Sprintf("schedule_%s.xlsx", inv.ID)
}

// safeCell neutralizes values a spreadsheet would evaluate as a formula.
func safeCell(s string) string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return s
	}
	switch trimmed[0] {
	case '=', '+', '-', '@':
		return "'" + s
	}
	return s
}
