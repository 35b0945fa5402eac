// Package export writes extracted records as CSV or XLSX, one row per
// document, in a fixed column order.
package export

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/FACorreiaa/ride-receipts/internal/domain/receipt"
	"github.com/FACorreiaa/ride-receipts/internal/domain/receipt/insights"
)

// SourceColumn is the first column of every export.
const SourceColumn = "Source File"

// Output formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// ErrUnknownFormat is returned for formats other than csv and xlsx.
var ErrUnknownFormat = errors.New("unknown export format")

// Columns returns SourceColumn, then fields in order, then any field a record
// carries that fields does not list, in first-seen order.
func Columns(fields []string, records []receipt.Record) []string {
	cols := make([]string, 0, len(fields)+1)
	seen := map[string]bool{SourceColumn: true}
	cols = append(cols, SourceColumn)
	add := func(f string) {
		if !seen[f] {
			seen[f] = true
			cols = append(cols, f)
		}
	}
	for _, f := range fields {
		add(f)
	}
	for _, rec := range records {
		for _, f := range rec.Fields() {
			add(f)
		}
	}
	return cols
}

// Rows renders records against cols. Fields a record lacks are written as
// receipt.Absent.
func Rows(cols []string, records []receipt.Record) [][]string {
	rows := make([][]string, len(records))
	for i, rec := range records {
		row := make([]string, len(cols))
		for j, c := range cols {
			if c == SourceColumn {
				row[j] = rec.Source
				continue
			}
			row[j] = rec.Value(c)
		}
		rows[i] = row
	}
	return rows
}

// WriteCSV writes a header row and one row per record.
func WriteCSV(w io.Writer, cols []string, records []receipt.Record) error {
	cw := gocsv.DefaultCSVWriter(w)
	if err := cw.Write(cols); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, row := range Rows(cols, records) {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// SummaryRow is one metric of a batch summary.
type SummaryRow struct {
	Metric string `csv:"Metric"`
	Value  string `csv:"Value"`
}

// MetricRows returns the currency-independent metrics of a summary.
func MetricRows(s insights.Summary) []SummaryRow {
	return []SummaryRow{
		{"Receipts", strconv.Itoa(s.Records)},
		{"Total", s.Total.StringFixed(2)},
		{"Highest Total", s.Highest.StringFixed(2)},
		{"Average Total", s.Average().StringFixed(2)},
		{"Average Duration (min)", s.AverageDuration.StringFixed(2)},
		{"Fees", s.Fees.StringFixed(2)},
		{"Taxes", s.Taxes.StringFixed(2)},
		{"Tips", s.Tips.StringFixed(2)},
	}
}

// SummaryRows flattens a summary into metric rows followed by one plain
// total per currency.
func SummaryRows(s insights.Summary) []SummaryRow {
	rows := MetricRows(s)
	for _, code := range s.Currencies() {
		rows = append(rows, SummaryRow{"Total " + code, s.TotalsByCurrency[code].String()})
	}
	return rows
}

// WriteSummaryCSV writes the summary as Metric,Value rows.
func WriteSummaryCSV(w io.Writer, s insights.Summary) error {
	rows := SummaryRows(s)
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}

// FormatFor infers the format from a file extension, defaulting to csv.
func FormatFor(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return FormatXLSX
	}
	return FormatCSV
}

// WriteFile writes records to path. For csv the summary, when given, goes to
// a sibling "<name>.summary.csv"; for xlsx it becomes a second sheet.
func WriteFile(path, format string, cols []string, records []receipt.Record, summary *insights.Summary) error {
	switch format {
	case FormatCSV, FormatXLSX:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if format == FormatXLSX {
		err = WriteXLSX(f, cols, records, summary)
	} else {
		err = WriteCSV(f, cols, records)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil || format == FormatXLSX || summary == nil {
		return err
	}

	summaryPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".summary.csv"
	sf, err := os.Create(summaryPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", summaryPath, err)
	}
	err = WriteSummaryCSV(sf, *summary)
	if cerr := sf.Close(); err == nil {
		err = cerr
	}
	return err
}
