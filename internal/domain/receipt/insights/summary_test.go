package insights

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/ride-receipts/internal/domain/receipt"
	"github.com/FACorreiaa/ride-receipts/internal/domain/receipt/parser"
	"github.com/FACorreiaa/ride-receipts/internal/domain/receipt/patterns"
	"github.com/FACorreiaa/ride-receipts/internal/domain/receipt/receipttest"
)

func record(locale receipt.Locale, currency string, values map[string]string) receipt.Record {
	return receipt.NewRecord(receipt.Meta{Locale: locale, Currency: currency}, nil, values)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msg string) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "%s: want %s, got %s", msg, want, got)
}

func TestAggregate_Empty(t *testing.T) {
	s := Aggregate(nil, patterns.Default().Roles())

	assert.Zero(t, s.Records)
	for name, d := range map[string]decimal.Decimal{
		"total":    s.Total,
		"highest":  s.Highest,
		"duration": s.AverageDuration,
		"fees":     s.Fees,
		"taxes":    s.Taxes,
		"tips":     s.Tips,
		"average":  s.Average(),
	} {
		assert.True(t, d.IsZero(), name)
	}
	assert.Empty(t, s.TotalsByCurrency)
	assert.Empty(t, s.Currencies())
}

func TestAggregate(t *testing.T) {
	roles := patterns.Default().Roles()
	records := []receipt.Record{
		record(receipt.LocaleCanada, "CAD", map[string]string{
			receipt.FieldTotalAmount:      "15.75",
			receipt.FieldTripDuration:     "18",
			receipt.FieldBookingFee:       "1.25",
			receipt.FieldTorontoFee:       "0.10",
			receipt.FieldTaxes:            "1.63",
			receipt.FieldTips:             "0.37",
			receipt.FieldAirportSurcharge: receipt.Absent,
		}),
		record(receipt.LocaleUnitedStates, "USD", map[string]string{
			receipt.FieldTotalAmount:      "1,020.00",
			receipt.FieldTripDuration:     "45",
			receipt.FieldAirportSurcharge: "4.00",
			receipt.FieldMarketplaceFee:   "0.50",
			receipt.FieldTaxes:            "2.00",
		}),
		record(receipt.LocaleUnitedStates, "USD", map[string]string{
			receipt.FieldTotalAmount:  "not a number",
			receipt.FieldTripDuration: receipt.Absent,
			receipt.FieldTips:         receipt.FormatMismatch,
		}),
	}

	s := Aggregate(records, roles)

	assert.Equal(t, 3, s.Records)
	assertDecimal(t, "1035.75", s.Total, "total")
	assertDecimal(t, "1020.00", s.Highest, "highest")
	assertDecimal(t, "31.5", s.AverageDuration, "average duration over present values only")
	assertDecimal(t, "5.85", s.Fees, "fees across both locales")
	assertDecimal(t, "3.63", s.Taxes, "taxes")
	assertDecimal(t, "0.37", s.Tips, "tips")
	assertDecimal(t, "345.25", s.Average(), "average total")

	assert.Equal(t, []string{"CAD", "USD"}, s.Currencies())
	assert.Equal(t, "15.75", s.TotalsByCurrency["CAD"].String())
	assert.Equal(t, "1020.00", s.TotalsByCurrency["USD"].String())
	assert.Equal(t, 2, s.ByLocale[receipt.LocaleUnitedStates])
}

func TestAggregate_DoesNotMutate(t *testing.T) {
	rec := record(receipt.LocaleCanada, "CAD", map[string]string{receipt.FieldTotalAmount: "3.00"})
	before := rec.Values()

	Aggregate([]receipt.Record{rec, rec}, patterns.Default().Roles())

	assert.Equal(t, before, rec.Values())
}

func TestAggregate_ExtractedBatch(t *testing.T) {
	cat := patterns.Default()
	docs := receipttest.NewWithSeed(7).Receipts(10)

	records := make([]receipt.Record, len(docs))
	want := decimal.Zero
	for i, doc := range docs {
		records[i] = parser.ExtractSource(doc.Source, doc.Text, cat.RuleSet(doc.Locale))
		want = want.Add(dec(doc.Expected[receipt.FieldTotalAmount]))
	}

	s := Aggregate(records, cat.Roles())

	require.Equal(t, 10, s.Records)
	assertDecimal(t, want.String(), s.Total, "total of generated receipts")
	assert.Len(t, s.TotalsByCurrency, 2)
}
