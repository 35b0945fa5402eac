// Package receipttest generates synthetic ride receipt documents in the
// linearized text form the extractor consumes, together with the values a
// correct extraction should produce.
package receipttest

import (
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/FACorreiaa/ride-receipts/internal/domain/receipt"
)

// Document is one generated receipt.
type Document struct {
	Source   string
	Locale   receipt.Locale
	Text     string
	Expected map[string]string
}

// Generator produces receipts using gofakeit.
type Generator struct {
	faker *gofakeit.Faker
}

// New creates a generator with a random seed.
func New() *Generator {
	return &Generator{faker: gofakeit.New(0)}
}

// NewWithSeed creates a generator with a fixed seed for reproducible output.
func NewWithSeed(seed int64) *Generator {
	return &Generator{faker: gofakeit.New(seed)}
}

type localeTemplate struct {
	country string
	marker  string
	unit    string
	taxName string
	fees    []string
}

var templates = map[receipt.Locale]localeTemplate{
	receipt.LocaleCanada: {
		country: "Canada",
		marker:  "CA$",
		unit:    "kilometers",
		taxName: "HST",
		fees:    []string{receipt.FieldBookingFee, receipt.FieldTorontoFee, receipt.FieldTorontoAccessFee},
	},
	receipt.LocaleUnitedStates: {
		country: "United States",
		marker:  "US$",
		unit:    "miles",
		taxName: "Sales Tax",
		fees:    []string{receipt.FieldBookingFee, receipt.FieldAirportSurcharge, receipt.FieldMarketplaceFee},
	},
}

// Receipt generates one receipt for locale. Unknown locales use the US template.
func (g *Generator) Receipt(locale receipt.Locale) Document {
	tpl, ok := templates[locale]
	if !ok {
		locale = receipt.LocaleUnitedStates
		tpl = templates[locale]
	}

	f := g.faker
	expected := map[string]string{receipt.FieldCountry: tpl.country}
	money := func(cents int) string {
		return fmt.Sprintf("%s%d.%02d", tpl.marker, cents/100, cents%100)
	}
	plain := func(cents int) string {
		return fmt.Sprintf("%d.%02d", cents/100, cents%100)
	}

	trip := f.DateRange(
		time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
	).Truncate(time.Minute)

	rider := f.FirstName() + " " + f.LastName()
	driver := f.FirstName()
	plate := strings.ToUpper(f.Lexify("???")) + " " + f.Numerify("###")
	service := f.RandomString([]string{"UberX", "UberXL", "Comfort", "Green"})
	distance := fmt.Sprintf("%.2f", f.Float64Range(0.5, 40))
	duration := f.Number(3, 90)
	payment := f.RandomString([]string{"Visa", "Mastercard", "American Express"})

	fare := f.Number(500, 6000)
	tips := f.Number(0, 1500)
	tax := fare * 13 / 100
	total := fare + tax + tips

	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format+"\n", args...)
	}

	line("%s", trip.Format("January 2, 2006"))
	line("Thanks for tipping, %s!", rider)
	feeLines := make([]string, 0, len(tpl.fees))
	for _, name := range tpl.fees {
		cents := f.Number(10, 400)
		total += cents
		feeLines = append(feeLines, fmt.Sprintf("%s %s", name, money(cents)))
		expected[name] = plain(cents)
	}
	line("Total %s", money(total))
	line("Trip fare %s", money(fare))
	line("Subtotal %s", money(fare))
	for _, l := range feeLines {
		line("%s", l)
	}
	line("%s %s", tpl.taxName, money(tax))
	line("Tips %s", money(tips))
	line("Payments")
	line("%s ••••%s %s %s", payment, f.Numerify("####"), trip.Format("01/02/06 3:04 PM"), money(total))
	line("You rode with %s", driver)
	line("License Plate: %s", plate)
	line("%s %s %s | %d min", service, distance, tpl.unit, duration)

	pickup := trip.Add(-time.Duration(duration) * time.Minute)
	pickupAddr := g.address()
	line("%s | %s", pickup.Format("3:04 PM"), pickupAddr)
	for i := f.Number(0, 2); i > 0; i-- {
		stop := pickup.Add(time.Duration(i) * time.Minute)
		line("%s | %s", stop.Format("3:04 PM"), g.address())
	}
	dropoffAddr := g.address()
	line("%s | %s", trip.Format("3:04 PM"), dropoffAddr)

	expected[receipt.FieldInvoiceDate] = trip.Format("2006-01-02")
	expected[receipt.FieldRiderName] = rider
	expected[receipt.FieldDriverName] = driver
	expected[receipt.FieldLicensePlate] = plate
	expected[receipt.FieldServiceType] = service
	expected[receipt.FieldTripDistance] = distance
	expected[receipt.FieldTripDuration] = fmt.Sprint(duration)
	expected[receipt.FieldPickupTime] = pickup.Format("3:04 PM")
	expected[receipt.FieldPickupAddress] = pickupAddr
	expected[receipt.FieldDropoffTime] = trip.Format("3:04 PM")
	expected[receipt.FieldDropoffAddress] = dropoffAddr
	expected[receipt.FieldTripFare] = plain(fare)
	expected[receipt.FieldTips] = plain(tips)
	expected[receipt.FieldTaxes] = plain(tax)
	expected[receipt.FieldTotalAmount] = plain(total)
	expected[receipt.FieldPaymentMethod] = payment
	expected[receipt.FieldCardChargedDate] = trip.Format("2006-01-02 15:04")

	return Document{
		Source:   fmt.Sprintf("receipt-%s-%s.pdf", strings.ToLower(string(locale)), f.Numerify("######")),
		Locale:   locale,
		Text:     b.String(),
		Expected: expected,
	}
}

// Receipts generates count receipts alternating between locales.
func (g *Generator) Receipts(count int, locales ...receipt.Locale) []Document {
	if len(locales) == 0 {
		locales = []receipt.Locale{receipt.LocaleCanada, receipt.LocaleUnitedStates}
	}
	docs := make([]Document, count)
	for i := range docs {
		docs[i] = g.Receipt(locales[i%len(locales)])
	}
	return docs
}

func (g *Generator) address() string {
	return fmt.Sprintf("%s %s, %s", g.faker.StreetNumber(), g.faker.StreetName(), g.faker.City())
}
