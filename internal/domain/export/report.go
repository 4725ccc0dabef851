// Package export renders batch outcomes into an XLSX report: one summary
// sheet per batch, one row per transaction on the detail sheet.
package export

import (
	"bytes"
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/cardpilot/statement-engine/internal/domain/statement"
	"github.com/cardpilot/statement-engine/pkg/money"
)

const (
	summarySheet      = "summary"
	transactionsSheet = "transactions"
)

// BuildReport renders outcomes into a workbook.
func BuildReport(outcomes []*statement.Outcome) ([]byte, error) {
	f := excelize.NewFile()
	f.SetSheetName("Sheet1", summarySheet)
	if _, err := f.NewSheet(transactionsSheet); err != nil {
		return nil, fmt.Errorf("create transactions sheet: %w", err)
	}

	writeSummary(f, outcomes)
	writeTransactions(f, outcomes)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteReportFile renders outcomes and writes the workbook to path.
func WriteReportFile(path string, outcomes []*statement.Outcome) error {
	data, err := BuildReport(outcomes)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func writeSummary(f *excelize.File, outcomes []*statement.Outcome) {
	headers := []string{
		"Statement", "Bank", "Status", "Failure Reason", "Transactions",
		"Spend Total", "Confidence", "Low Confidence", "Decrypt Attempts", "Parse Attempts",
	}
	for col, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		_ = f.SetCellValue(summarySheet, cell, h)
	}

	for i, outcome := range outcomes {
		row := i + 2
		set := func(col int, v interface{}) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(summarySheet, cell, v)
		}

		set(1, outcome.SourceID)

		if outcome.Failed() {
			set(3, "failed")
			set(4, string(outcome.Failure))
			continue
		}

		ext := outcome.Extraction
		set(2, ext.CardDetails.Bank)
		set(3, "ok")
		set(5, len(ext.Transactions))
		set(6, money.FormatINR(ext.SpendTotal))
		set(7, ext.ParseConfidence)
		set(8, ext.LowConfidence)
		set(9, ext.DecryptAttempts)
		set(10, ext.ParseAttempts)
	}
}

func writeTransactions(f *excelize.File, outcomes []*statement.Outcome) {
	headers := []string{
		"Statement", "Date", "Description", "Amount", "Direction",
		"Category", "Tier", "Excluded", "Exclusion Reason",
	}
	for col, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		_ = f.SetCellValue(transactionsSheet, cell, h)
	}

	row := 2
	for _, outcome := range outcomes {
		if outcome.Failed() {
			continue
		}
		for _, txn := range outcome.Extraction.Transactions {
			set := func(col int, v interface{}) {
				cell, _ := excelize.CoordinatesToCellName(col, row)
				_ = f.SetCellValue(transactionsSheet, cell, v)
			}
			set(1, outcome.SourceID)
			set(2, txn.Date.Format("2006-01-02"))
			set(3, txn.Description)
			set(4, money.FormatINR(txn.Amount))
			set(5, string(txn.Direction))
			set(6, string(txn.Category))
			set(7, string(txn.Tier))
			set(8, txn.Excluded)
			set(9, txn.ExclusionReason)
			row++
		}
	}
}
