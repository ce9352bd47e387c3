// Package report renders batch summaries as control spreadsheets and
// PDF run reports.
package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"github.com/teo1264/enel-system/internal/batch"
)

const (
	controlSheet    = "controle"
	summarySheet    = "resumo"
	duplicatesSheet = "duplicatas"
	missingSheet    = "faltantes"
)

var controlHeaders = []string{
	"Site", "Account", "Period", "Status", "Document",
	"Issue Date", "Due Date", "Amount (R$)", "Gross (R$)",
	"TUSD Credit (R$)", "TE Credit (R$)", "Solar Savings %",
	"Consumption (kWh)", "Baseline (kWh)", "% of Baseline",
	"Severity", "Source File", "Note",
}

// BuildControlXLSX renders the control workbook: one row per
// document, plus the run summary, the duplicate list and the sites
// that produced no invoice.
func BuildControlXLSX(s batch.Summary) ([]byte, error) {
	f := excelize.NewFile()
	f.SetSheetName("Sheet1", controlSheet)
	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(duplicatesSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(missingSheet); err != nil {
		return nil, err
	}

	if err := setRow(f, controlSheet, 1, toCells(controlHeaders)); err != nil {
		return nil, err
	}
	for i, o := range s.Outcomes {
		if err := setRow(f, controlSheet, i+2, controlRow(o)); err != nil {
			return nil, err
		}
	}

	writeSummarySheet(f, s)

	_ = setRow(f, duplicatesSheet, 1, toCells([]string{"Source File", "Account", "Document", "Reason"}))
	row := 2
	for _, o := range s.Outcomes {
		if o.Status != batch.StatusDuplicate {
			continue
		}
		account, document := "", ""
		if o.Record != nil {
			account, document = o.Record.AccountID, o.Record.DocumentID
		}
		_ = setRow(f, duplicatesSheet, row, toCells([]string{o.SourceFile, account, document, o.DuplicateReason}))
		row++
	}

	_ = setRow(f, missingSheet, 1, toCells([]string{"Site", "Account", "Due Day"}))
	for i, m := range s.MissingSites {
		_ = setRow(f, missingSheet, i+2, []any{m.SiteName, m.AccountID, m.DueDay})
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func controlRow(o batch.Outcome) []any {
	site := o.SiteName
	if o.Unmapped {
		site = "(not in registry)"
	}
	row := []any{site, "", "", string(o.Status), "", "", "", "", "", "", "", "", "", "", "", "", o.SourceFile, noteFor(o)}

	if o.Record != nil {
		rec := o.Record
		row[1] = rec.AccountID
		row[2] = rec.Period.String()
		row[4] = rec.DocumentID
		if !rec.IssueDate.IsZero() {
			row[5] = rec.IssueDate.Format("02/01/2006")
		}
		row[6] = rec.DueDate.Format("02/01/2006")
		row[7] = rec.TotalAmount.StringFixed(2)
		if rec.HasSolar() {
			row[8] = rec.GrossAmount().StringFixed(2)
			row[9] = rec.Solar.TUSDCredit.StringFixed(2)
			row[10] = rec.Solar.TECredit.StringFixed(2)
			row[11] = fmt.Sprintf("%.1f", rec.SolarSavingsPercent())
		}
		row[12] = rec.ConsumptionKWh
	}
	if o.Assessment != nil {
		if o.Assessment.SampleCount > 0 {
			row[13] = o.Assessment.BaselineKWh
			row[14] = fmt.Sprintf("%.1f", o.Assessment.PercentOfBaseline)
		}
		row[15] = string(o.Assessment.Severity)
	}
	return row
}

func noteFor(o batch.Outcome) string {
	switch o.Status {
	case batch.StatusDuplicate:
		return o.DuplicateReason
	case batch.StatusFailed:
		if o.FailureField != "" {
			return fmt.Sprintf("%s: %s", o.FailureField, o.FailureReason)
		}
		return o.FailureReason
	}
	if o.Unmapped {
		return "account not in registry"
	}
	return ""
}

func writeSummarySheet(f *excelize.File, s batch.Summary) {
	rows := [][]any{
		{"Run ID", s.RunID},
		{"Period", s.Period.String()},
		{"Started", s.StartedAt.Format(time.RFC3339)},
		{"Finished", s.FinishedAt.Format(time.RFC3339)},
		{"Partial", s.Partial},
		{"Expected Units", s.ExpectedUnits},
		{"Total Documents", s.Total},
		{"Accepted", s.Accepted},
		{"Duplicates", s.Duplicates},
		{"Failed", s.Failed},
		{"Unmapped Accounts", s.Unmapped},
		{"High Consumption Alerts", s.Alerts},
		{"Missing Sites", len(s.MissingSites)},
		{"Total Amount (R$)", s.TotalAmount.StringFixed(2)},
	}
	for i, row := range rows {
		_ = setRow(f, summarySheet, i+1, row)
	}
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}

func toCells(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// BuildRunPDF renders a one-page PDF run report.
func BuildRunPDF(s batch.Summary) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Invoice Processing Run")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Run: %s", s.RunID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Period: %s", s.Period))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Started: %s", s.StartedAt.Format(time.RFC3339)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Finished: %s", s.FinishedAt.Format(time.RFC3339)))
	pdf.Ln(5)
	if s.Partial {
		pdf.Cell(0, 6, "Run stopped early: results are partial")
		pdf.Ln(5)
	}

	pdf.Ln(4)
	pdf.Cell(0, 6, fmt.Sprintf("Expected Units: %d", s.ExpectedUnits))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Total Documents: %d", s.Total))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Accepted: %d", s.Accepted))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Duplicates: %d", s.Duplicates))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Failed: %d", s.Failed))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Unmapped Accounts: %d", s.Unmapped))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("High Consumption Alerts: %d", s.Alerts))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Total Amount: R$ %s", s.TotalAmount.StringFixed(2)))
	pdf.Ln(8)

	if s.Alerts > 0 {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(60, 6, "Site", "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 6, "Account", "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 6, "Consumption (kWh)", "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 6, "% of Baseline", "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 10)
		for _, o := range s.Outcomes {
			if !o.Alerting() || o.Record == nil {
				continue
			}
			site := o.SiteName
			if site == "" {
				site = "(not in registry)"
			}
			pdf.CellFormat(60, 6, site, "1", 0, "L", false, 0, "")
			pdf.CellFormat(40, 6, o.Record.AccountID, "1", 0, "C", false, 0, "")
			pdf.CellFormat(40, 6, fmt.Sprintf("%.0f", o.Record.ConsumptionKWh), "1", 0, "R", false, 0, "")
			pdf.CellFormat(40, 6, fmt.Sprintf("%.1f", o.Assessment.PercentOfBaseline), "1", 0, "R", false, 0, "")
			pdf.Ln(-1)
		}
		pdf.Ln(4)
	}

	if len(s.MissingSites) > 0 {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(80, 6, "Site Without Invoice", "1", 0, "C", false, 0, "")
		pdf.CellFormat(50, 6, "Account", "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, "Due Day", "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 10)
		for _, m := range s.MissingSites {
			pdf.CellFormat(80, 6, m.SiteName, "1", 0, "L", false, 0, "")
			pdf.CellFormat(50, 6, m.AccountID, "1", 0, "C", false, 0, "")
			pdf.CellFormat(30, 6, fmt.Sprintf("%d", m.DueDay), "1", 0, "C", false, 0, "")
			pdf.Ln(-1)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
