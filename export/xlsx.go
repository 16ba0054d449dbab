package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"transitdesk/models"
)

// XLSX writes a single-sheet workbook: header in row 1, one row per record.
func XLSX(w io.Writer, sheet string, header []string, rows [][]any) error {
	if len(rows) == 0 {
		return ErrEmpty
	}
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if sheet == "" {
		sheet = "Sheet1"
	}
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	headerRow := make([]any, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, row := range rows {
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = cellText(v)
		}
		axis, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, axis, &cells); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

// RecordsXLSX exports records through the given columns.
func RecordsXLSX(w io.Writer, sheet string, columns []models.Column, records []models.Record) error {
	header, rows := Rows(columns, records)
	return XLSX(w, sheet, header, rows)
}

// XLSXFileName is <prefix>_YYYY-MM-DD.xlsx in UTC.
func XLSXFileName(prefix string, now time.Time) string {
	return fmt.Sprintf("%s_%s.xlsx", prefix, now.UTC().Format("2006-01-02"))
}
