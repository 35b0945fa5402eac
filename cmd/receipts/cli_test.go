package main

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/ride-receipts/internal/domain/receipt"
	"github.com/FACorreiaa/ride-receipts/internal/domain/receipt/export"
	"github.com/FACorreiaa/ride-receipts/internal/domain/receipt/receipttest"
	"github.com/FACorreiaa/ride-receipts/internal/domain/receipt/service"
)

// execute runs the CLI with the receipts environment cleared.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	for _, k := range []string{
		"RECEIPTS_LOCALE", "RECEIPTS_CATALOGUE_FILE", "RECEIPTS_DETECT_GAPS",
		"RECEIPTS_GAP_START", "RECEIPTS_GAP_END", "RECEIPTS_NOISE", "RECEIPTS_PDF_ENGINE",
		"RECEIPTS_WORKERS", "RECEIPTS_DOCUMENT_TIMEOUT", "RECEIPTS_OUTPUT_FORMAT",
		"RECEIPTS_OUTPUT", "RECEIPTS_METRICS_FILE", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(k, "")
	}

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// writeReceipts stores generated receipts as text files and returns them in name order.
func writeReceipts(t *testing.T, dir string, count int) []receipttest.Document {
	t.Helper()
	docs := receipttest.NewWithSeed(7).Receipts(count)
	for i := range docs {
		docs[i].Source = strings.TrimSuffix(docs[i].Source, ".pdf") + ".txt"
		require.NoError(t, os.WriteFile(filepath.Join(dir, docs[i].Source), []byte(docs[i].Text), 0o600))
	}
	slices.SortFunc(docs, func(a, b receipttest.Document) int {
		return strings.Compare(a.Source, b.Source)
	})
	return docs
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestVersionCmd(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "receipts version dev (catalogue 2024.1)\n", out)
}

func TestExtractCmd_CSV(t *testing.T) {
	dir := t.TempDir()
	docs := writeReceipts(t, dir, 4)
	outPath := filepath.Join(t.TempDir(), "out.csv")

	out, stderr, err := execute(t, "extract", dir, "--out", outPath)
	require.NoError(t, err, stderr)
	assert.Contains(t, out, "Wrote 4 of 4 receipts")
	assert.Contains(t, out, "Receipts")
	assert.Regexp(t, `Total CAD\s+\$[\d,]+\.\d{2}`, out)
	assert.Regexp(t, `Total USD\s+\$[\d,]+\.\d{2}`, out)

	rows := readCSV(t, outPath)
	require.Len(t, rows, len(docs)+1)

	header := rows[0]
	assert.Equal(t, export.SourceColumn, header[0])
	col := func(name string) int {
		for i, h := range header {
			if h == name {
				return i
			}
		}
		t.Fatalf("column %q missing", name)
		return -1
	}

	for i, doc := range docs {
		row := rows[i+1]
		assert.Equal(t, doc.Source, row[0])
		for _, field := range []string{receipt.FieldTotalAmount, receipt.FieldInvoiceDate, receipt.FieldDropoffAddress} {
			assert.Equal(t, doc.Expected[field], row[col(field)], "%s %s", doc.Source, field)
		}
	}

	_, err = os.Stat(filepath.Join(filepath.Dir(outPath), "out.summary.csv"))
	assert.NoError(t, err)
}

func TestExtractCmd_XLSX(t *testing.T) {
	dir := t.TempDir()
	writeReceipts(t, dir, 2)
	outPath := filepath.Join(t.TempDir(), "out.xlsx")

	_, stderr, err := execute(t, "extract", dir, "-o", outPath)
	require.NoError(t, err, stderr)

	f, err := excelize.OpenFile(outPath)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(export.RecordsSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	summary, err := f.GetRows(export.SummarySheet)
	require.NoError(t, err)
	assert.NotEmpty(t, summary)
}

func TestExtractCmd_SkipsUnreadable(t *testing.T) {
	dir := t.TempDir()
	docs := writeReceipts(t, dir, 1)
	outPath := filepath.Join(t.TempDir(), "out.csv")

	_, stderr, err := execute(t, "extract",
		filepath.Join(dir, docs[0].Source),
		filepath.Join(dir, "missing.txt"),
		"--out", outPath, "--summary=false",
	)
	require.NoError(t, err)
	assert.Contains(t, stderr, "skipped")
	assert.Contains(t, stderr, "missing.txt")
	assert.Len(t, readCSV(t, outPath), 2)
}

func TestExtractCmd_NothingSucceeded(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "out.csv")

	_, _, err := execute(t, "extract", filepath.Join(t.TempDir(), "missing.txt"), "--out", outPath)
	require.ErrorIs(t, err, service.ErrNoSuccess)

	_, statErr := os.Stat(outPath)
	assert.True(t, os.IsNotExist(statErr), "no export without a successful receipt")
}

func TestExtractCmd_Patterns(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"),
		[]byte("Trip fare CA$10.00\nPromo code RIDE10\nTotal CA$10.00\n"), 0o600))
	outPath := filepath.Join(t.TempDir(), "out.csv")

	_, stderr, err := execute(t, "extract", dir, "--out", outPath,
		"-p", `Promo Code=Promo code (\w+)`)
	require.NoError(t, err, stderr)

	rows := readCSV(t, outPath)
	require.Len(t, rows, 2)
	assert.Equal(t, "Promo Code", rows[0][len(rows[0])-1])
	assert.Equal(t, "RIDE10", rows[1][len(rows[1])-1])
}

func TestExtractCmd_Fill(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"),
		[]byte("Trip fare CA$10.00\nTip CA$1.50\nTotal CA$11.50\n"), 0o600))
	outPath := filepath.Join(t.TempDir(), "out.csv")

	_, stderr, err := execute(t, "extract", dir, "--out", outPath, "--summary=false",
		"--fill", `Tips=Tip CA\$([\d.]+)`,
		"--fill", `Total Amount=Trip fare CA\$([\d.]+)`,
	)
	require.NoError(t, err, stderr)

	rows := readCSV(t, outPath)
	require.Len(t, rows, 2)
	values := map[string]string{}
	for i, h := range rows[0] {
		values[h] = rows[1][i]
	}
	assert.Equal(t, "1.50", values[receipt.FieldTips])
	assert.Equal(t, "11.50", values[receipt.FieldTotalAmount], "found fields are not replaced")
}

func TestExtractCmd_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no args", []string{"extract"}},
		{"pattern without field", []string{"extract", ".", "-p", "Promo"}},
		{"pattern not compiling", []string{"extract", ".", "-p", "Promo=("}},
		{"fill without field", []string{"extract", ".", "--fill", "Promo"}},
		{"unknown locale", []string{"extract", ".", "--locale", "FR"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestGapsCmd(t *testing.T) {
	dir := t.TempDir()
	text := "Total CA$18.50\nTrip fare CA$10.00\nSubtotal CA$12.50\nAirport Fee CA$3.00\nBooking Feee CA$2.50\nPayments\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte(text), 0o600))

	out, stderr, err := execute(t, "gaps", dir)
	require.NoError(t, err, stderr)
	assert.Contains(t, out, "a.txt:4: Airport Fee CA$3.00")
	assert.Contains(t, out, "a.txt:5: Booking Feee CA$2.50 (Booking Fee?)")
	assert.NotContains(t, out, "Subtotal")
}

func TestGapsCmd_Clean(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"),
		[]byte("Trip fare CA$10.00\nTips CA$1.00\nPayments\n"), 0o600))

	out, _, err := execute(t, "gaps", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "No unrecognized lines.")
}

func TestCatalogueCmd(t *testing.T) {
	out, _, err := execute(t, "catalogue", "--rules")
	require.NoError(t, err)

	assert.Contains(t, out, "Catalogue 2024.1")
	assert.Contains(t, out, "CA$")
	assert.Contains(t, out, "(default)")
	assert.Contains(t, out, "Total Amount [total]")
	assert.Contains(t, out, "Rules (global):")
	assert.Contains(t, out, "Pickup and Dropoff -> ")
}

func TestCatalogueCmd_Extension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extra.toml")
	require.NoError(t, os.WriteFile(path, []byte(`version = "2024.1-airport"

[[fields]]
name = "Airport Fee"
role = "fee"

[[rules]]
id      = "Airport Fee"
locale  = "CA"
pattern = 'Airport Fee CA\$([\d,]+\.\d{2})'
field   = "Airport Fee"
`), 0o600))

	out, _, err := execute(t, "catalogue", "--catalogue", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Catalogue 2024.1-airport")
	assert.Contains(t, out, "Airport Fee [fee]")
}

func TestCollectFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.txt", "a.PDF", "notes.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.txt"), 0o700))

	paths, err := collectFiles([]string{dir, "explicit.pdf"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.PDF"),
		filepath.Join(dir, "b.txt"),
		"explicit.pdf",
	}, paths)
}

func TestParsePatterns(t *testing.T) {
	rules, err := parsePatterns([]string{` Promo Code =Promo code (\w+=\d)`})
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, []string{"Promo Code"}, rules[0].Fields())
	assert.True(t, rules[0].Matches("Promo code X=1"))
}
