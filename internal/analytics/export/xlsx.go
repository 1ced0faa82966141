package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/vinylworks/vinylops/internal/analytics"
)

// WriteSummaryXLSX writes sum as a workbook with one sheet per section.
// Numeric cells stay numeric so spreadsheets can re-total them.
func WriteSummaryXLSX(w io.Writer, sum analytics.Summary) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheets := []struct {
		name    string
		records [][]string
		numeric func(row, col int) bool
	}{
		{"Summary", headerRecords(sum), func(row, col int) bool { return col == 1 && row >= summaryFirstNumericRow }},
		{"Periods", bucketRecords(sum.Buckets), func(_, col int) bool { return col >= 2 }},
		{"Partners", partnerRecords(sum.Partners), func(_, col int) bool { return col >= 1 }},
		{"Currencies", currencyRecords(sum.Currencies), func(_, col int) bool { return col >= 1 }},
	}
	for i, sheet := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet.name); err != nil {
				return fmt.Errorf("export: rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet.name); err != nil {
			return fmt.Errorf("export: new sheet %s: %w", sheet.name, err)
		}
		for r, record := range sheet.records {
			for c, value := range record {
				cell, err := excelize.CoordinatesToCellName(c+1, r+1)
				if err != nil {
					return err
				}
				if err := f.SetCellValue(sheet.name, cell, cellValue(value, r > 0 && sheet.numeric(r, c))); err != nil {
					return fmt.Errorf("export: set %s!%s: %w", sheet.name, cell, err)
				}
			}
		}
	}
	f.SetActiveSheet(0)
	return f.Write(w)
}

// summaryFirstNumericRow is the "JPY per USD" row of headerRecords; every
// value from there down is a number.
const summaryFirstNumericRow = 5

// cellValue converts numeric columns so spreadsheets can re-total them. Text
// columns are written verbatim even when they look like numbers.
func cellValue(value string, numeric bool) any {
	if !numeric {
		return value
	}
	if n, err := strconv.ParseFloat(value, 64); err == nil {
		return n
	}
	return value
}
