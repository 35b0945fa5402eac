package patterns

import (
	"github.com/FACorreiaa/ride-receipts/internal/domain/receipt"
)

// DefaultVersion tags the built-in catalogue.
const DefaultVersion = "2024.1"

// Source layouts of date-like captures.
const (
	InvoiceDateLayout = "January 2, 2006"
	CardChargedLayout = "1/2/06 3:04 PM"
)

// Shared sub-patterns. Monetary groups capture the number only.
const (
	amount   = `([\d,]+\.\d{2})`
	services = `(UberX|UberXL|UberPool|UberBlack|UberSUV|Comfort|Green)`
	months   = `(?:January|February|March|April|May|June|July|August|September|October|November|December)`
)

// Rule IDs of composite rules.
const (
	RuleServiceDetails = "Service Type, Distance, and Duration"
	RulePickupDropoff  = "Pickup and Dropoff"
)

// Default returns the built-in ride receipt catalogue: Canada (CA$ receipts,
// kilometres, Toronto surcharges, HST) and United States (US$ or bare $,
// miles, sales tax). Canada has marker priority; United States is the default.
func Default() *Catalogue {
	c, err := New(DefaultSpec())
	if err != nil {
		panic(err)
	}
	return c
}

// DefaultSpec returns the spec behind Default so callers can derive variants.
func DefaultSpec() Spec {
	return Spec{
		Version: DefaultVersion,
		Default: receipt.LocaleUnitedStates,
		Fields: []FieldSpec{
			{Name: receipt.FieldInvoiceDate},
			{Name: receipt.FieldRiderName},
			{Name: receipt.FieldDriverName},
			{Name: receipt.FieldLicensePlate},
			{Name: receipt.FieldServiceType},
			{Name: receipt.FieldTripDistance},
			{Name: receipt.FieldTripDuration, Role: RoleDuration},
			{Name: receipt.FieldPickupTime},
			{Name: receipt.FieldPickupAddress},
			{Name: receipt.FieldDropoffTime},
			{Name: receipt.FieldDropoffAddress},
			{Name: receipt.FieldTripFare},
			{Name: receipt.FieldBookingFee, Role: RoleFee},
			{Name: receipt.FieldTorontoFee, Role: RoleFee},
			{Name: receipt.FieldTorontoAccessFee, Role: RoleFee},
			{Name: receipt.FieldAirportSurcharge, Role: RoleFee},
			{Name: receipt.FieldMarketplaceFee, Role: RoleFee},
			{Name: receipt.FieldTips, Role: RoleTip},
			{Name: receipt.FieldTaxes, Role: RoleTax},
			{Name: receipt.FieldTotalAmount, Role: RoleTotal},
			{Name: receipt.FieldPaymentMethod},
			{Name: receipt.FieldCardChargedDate},
			{Name: receipt.FieldCountry},
		},
		Global: globalRules(),
		Locales: []LocaleRules{
			{
				Profile: LocaleProfile{
					Tag:      receipt.LocaleCanada,
					Country:  "Canada",
					Currency: "CAD",
					Markers:  []string{"CA$"},
				},
				Rules: canadaRules(),
			},
			{
				Profile: LocaleProfile{
					Tag:      receipt.LocaleUnitedStates,
					Country:  "United States",
					Currency: "USD",
					Markers:  []string{"US$"},
				},
				Rules: unitedStatesRules(),
			},
		},
	}
}

func globalRules() []Rule {
	return []Rule{
		MustRule(receipt.FieldRiderName, `Thanks for tipping, ([^\n!]+)`,
			Single(receipt.FieldRiderName)),
		MustRule(receipt.FieldInvoiceDate, `(`+months+` \d{1,2}, \d{4})`,
			Date(receipt.FieldInvoiceDate, InvoiceDateLayout)),
		MustRule(receipt.FieldDriverName, `You rode with ([^\n]+)`,
			Single(receipt.FieldDriverName)),
		MustRule(receipt.FieldLicensePlate, `License Plate: ([^\n]+)`,
			Single(receipt.FieldLicensePlate)),
		// Pickup is the earliest logged waypoint, dropoff the latest. Multi-stop
		// trips report only the two ends.
		MustRule(RulePickupDropoff, `(\d{1,2}:\d{2} [AP]M) \| ([^\n]+)`,
			Target{Field: receipt.FieldPickupTime, Group: 1, Occurrence: OccurrenceFirst},
			Target{Field: receipt.FieldPickupAddress, Group: 2, Occurrence: OccurrenceFirst},
			Target{Field: receipt.FieldDropoffTime, Group: 1, Occurrence: OccurrenceLast},
			Target{Field: receipt.FieldDropoffAddress, Group: 2, Occurrence: OccurrenceLast},
		),
		MustRule(receipt.FieldPaymentMethod, `\b(Cash|Visa|Mastercard|American Express|PayPal)\b`,
			Single(receipt.FieldPaymentMethod)),
		MustRule(receipt.FieldCardChargedDate, `(\d{1,2}/\d{1,2}/\d{2,4} \d{1,2}:\d{2} [AP]M)`,
			Date(receipt.FieldCardChargedDate, CardChargedLayout)),
	}
}

func serviceRule(unit string) Rule {
	return MustRule(RuleServiceDetails, services+`\s+(\d+\.\d+) `+unit+` \| (\d+)\s*min`,
		Target{Field: receipt.FieldServiceType, Group: 1},
		Target{Field: receipt.FieldTripDistance, Group: 2},
		Target{Field: receipt.FieldTripDuration, Group: 3},
	)
}

func canadaRules() []Rule {
	const cur = `CA\$`
	return []Rule{
		serviceRule("kilometers"),
		MustRule(receipt.FieldTripFare, `Trip fare `+cur+amount, Single(receipt.FieldTripFare)),
		MustRule(receipt.FieldBookingFee, `Booking Fee `+cur+amount, Single(receipt.FieldBookingFee)),
		MustRule(receipt.FieldTips, `Tips `+cur+amount, Single(receipt.FieldTips)),
		MustRule(receipt.FieldTorontoFee, `Toronto Fee Recovery Surcharges `+cur+amount,
			Single(receipt.FieldTorontoFee)),
		MustRule(receipt.FieldTorontoAccessFee, `Toronto Accessibility Fee Recovery Surcharges `+cur+amount,
			Single(receipt.FieldTorontoAccessFee)),
		MustRule(receipt.FieldTaxes, `HST `+cur+amount, Single(receipt.FieldTaxes)),
		MustRule(receipt.FieldTotalAmount, `Total `+cur+amount, Single(receipt.FieldTotalAmount)),
	}
}

func unitedStatesRules() []Rule {
	const cur = `(?:US)?\$`
	return []Rule{
		serviceRule("miles"),
		MustRule(receipt.FieldTripFare, `Trip fare `+cur+amount, Single(receipt.FieldTripFare)),
		MustRule(receipt.FieldBookingFee, `Booking Fee `+cur+amount, Single(receipt.FieldBookingFee)),
		MustRule(receipt.FieldTips, `Tips `+cur+amount, Single(receipt.FieldTips)),
		MustRule(receipt.FieldAirportSurcharge, `Airport Surcharge `+cur+amount,
			Single(receipt.FieldAirportSurcharge)),
		MustRule(receipt.FieldMarketplaceFee, `Marketplace Fee `+cur+amount,
			Single(receipt.FieldMarketplaceFee)),
		MustRule(receipt.FieldTaxes, `Sales Tax `+cur+amount, Single(receipt.FieldTaxes)),
		MustRule(receipt.FieldTotalAmount, `Total `+cur+amount, Single(receipt.FieldTotalAmount)),
	}
}
