// Package export serializes record sets for download.
package export

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"transitdesk/models"
)

// EmptyNotice is shown to the operator instead of an empty file.
const EmptyNotice = "No records available to export!"

var ErrEmpty = errors.New("no records available to export")

// Placeholder renders missing and null values.
const Placeholder = "-"

// Rows pulls the columns out of each record. Missing fields become nil.
func Rows(columns []models.Column, records []models.Record) ([]string, [][]any) {
	header := make([]string, len(columns))
	for i, c := range columns {
		header[i] = c.Header
	}
	rows := make([][]any, len(records))
	for i, r := range records {
		row := make([]any, len(columns))
		for j, c := range columns {
			row[j] = r[c.Field]
		}
		rows[i] = row
	}
	return header, rows
}

// CSV writes header and rows with every field quoted. Rows are joined by
// "\n" with no trailing newline. An empty row set writes nothing.
func CSV(w io.Writer, header []string, rows [][]any) error {
	if len(rows) == 0 {
		return ErrEmpty
	}
	bw := bufio.NewWriter(w)
	writeLine := func(fields []string) {
		for i, f := range fields {
			if i > 0 {
				bw.WriteByte(',')
			}
			bw.WriteByte('"')
			bw.WriteString(strings.ReplaceAll(f, `"`, `""`))
			bw.WriteByte('"')
		}
	}

	writeLine(header)
	for _, row := range rows {
		bw.WriteByte('\n')
		fields := make([]string, len(row))
		for i, v := range row {
			fields[i] = cellText(v)
		}
		writeLine(fields)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// RecordsCSV exports records through the given columns.
func RecordsCSV(w io.Writer, columns []models.Column, records []models.Record) error {
	header, rows := Rows(columns, records)
	return CSV(w, header, rows)
}

func cellText(v any) string {
	if v == nil {
		return Placeholder
	}
	return models.FormatValue(v)
}

// FileName is <prefix>_YYYY-MM-DD.csv in UTC.
func FileName(prefix string, now time.Time) string {
	return fmt.Sprintf("%s_%s.csv", prefix, now.UTC().Format("2006-01-02"))
}
