// Package insights derives batch statistics from extracted receipt records.
package insights

import (
	"slices"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/ride-receipts/internal/domain/receipt"
	"github.com/FACorreiaa/ride-receipts/internal/domain/receipt/patterns"
	"github.com/FACorreiaa/ride-receipts/pkg/money"
)

// Summary is the aggregate of a batch. Amount fields are plain sums across
// records regardless of currency; TotalsByCurrency keeps them apart.
type Summary struct {
	Records         int
	Total           decimal.Decimal
	Highest         decimal.Decimal
	AverageDuration decimal.Decimal // minutes
	Fees            decimal.Decimal
	Taxes           decimal.Decimal
	Tips            decimal.Decimal

	TotalsByCurrency map[string]*money.Money
	ByLocale         map[receipt.Locale]int
}

// Aggregate computes the summary of records. Field roles come from the
// catalogue. Absent or non-numeric values count as zero; an empty batch
// yields an all-zero summary.
func Aggregate(records []receipt.Record, roles patterns.Roles) Summary {
	s := Summary{
		TotalsByCurrency: make(map[string]*money.Money),
		ByLocale:         make(map[receipt.Locale]int),
	}

	var durationSum decimal.Decimal
	var durations int64

	for _, rec := range records {
		s.Records++
		if rec.Locale != "" {
			s.ByLocale[rec.Locale]++
		}

		if total, ok := amount(rec, roles.Total); ok {
			s.Total = s.Total.Add(total)
			if total.GreaterThan(s.Highest) {
				s.Highest = total
			}
			addCurrency(s.TotalsByCurrency, rec.Currency, rec.Value(roles.Total))
		}

		if d, ok := number(rec, roles.Duration); ok {
			durationSum = durationSum.Add(d)
			durations++
		}

		for _, f := range roles.Fees {
			if fee, ok := amount(rec, f); ok {
				s.Fees = s.Fees.Add(fee)
			}
		}
		if tax, ok := amount(rec, roles.Tax); ok {
			s.Taxes = s.Taxes.Add(tax)
		}
		if tip, ok := amount(rec, roles.Tip); ok {
			s.Tips = s.Tips.Add(tip)
		}
	}

	if durations > 0 {
		s.AverageDuration = durationSum.Div(decimal.NewFromInt(durations)).Round(2)
	}
	return s
}

// Average returns the mean total per record, zero for an empty batch.
func (s Summary) Average() decimal.Decimal {
	if s.Records == 0 {
		return decimal.Zero
	}
	return s.Total.Div(decimal.NewFromInt(int64(s.Records))).Round(2)
}

// Currencies returns the currency codes present in TotalsByCurrency, sorted.
func (s Summary) Currencies() []string {
	codes := make([]string, 0, len(s.TotalsByCurrency))
	for c := range s.TotalsByCurrency {
		codes = append(codes, c)
	}
	slices.Sort(codes)
	return codes
}

func amount(rec receipt.Record, field string) (decimal.Decimal, bool) {
	if field == "" || !rec.Present(field) {
		return decimal.Zero, false
	}
	d, err := money.ParseDecimal(rec.Value(field))
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

func number(rec receipt.Record, field string) (decimal.Decimal, bool) {
	if field == "" || !rec.Present(field) {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(rec.Value(field))
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

func addCurrency(totals map[string]*money.Money, currency, value string) {
	m, err := money.Parse(value, currency)
	if err != nil {
		return
	}
	code := m.Currency()
	// same currency key, Sum cannot mismatch
	if sum, err := money.Sum(code, totals[code], m); err == nil {
		totals[code] = sum
	}
}
