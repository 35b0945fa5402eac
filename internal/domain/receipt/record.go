// Package receipt holds the record model shared by the extraction pipeline:
// field names, sentinel values, locale tags and the extracted record itself.
package receipt

import (
	"errors"
	"slices"
)

// Sentinel values stored in a record instead of failing the extraction.
const (
	// Absent marks a field no rule matched.
	Absent = "Not Available"
	// FormatMismatch marks a date-like capture that did not parse.
	FormatMismatch = "Invalid Format"
)

// Error taxonomy. Only source.ErrDocumentUnreadable aborts a document;
// the values below are recovered locally and surface in diagnostics.
var (
	ErrLocaleIndeterminate = errors.New("no locale marker found")
	ErrFieldAbsent         = errors.New("field not found")
	ErrDateFormatMismatch  = errors.New("date does not match expected format")
)

// Locale identifies a receipt template family (currency, fee schedule, distance unit).
type Locale string

const (
	LocaleCanada       Locale = "CA"
	LocaleUnitedStates Locale = "US"
)

// Well-known field names of the default catalogue.
const (
	FieldInvoiceDate      = "Date of Invoice"
	FieldRiderName        = "Rider Name"
	FieldDriverName       = "Driver Name"
	FieldLicensePlate     = "Vehicle License Plate"
	FieldServiceType      = "Service Type"
	FieldTripDistance     = "Trip Distance"
	FieldTripDuration     = "Trip Duration"
	FieldPickupTime       = "Pickup Time"
	FieldPickupAddress    = "Pickup Address"
	FieldDropoffTime      = "Dropoff Time"
	FieldDropoffAddress   = "Dropoff Address"
	FieldTripFare         = "Trip Fare"
	FieldBookingFee       = "Booking Fee"
	FieldTorontoFee       = "Toronto Fee Recovery Surcharges"
	FieldTorontoAccessFee = "Toronto Accessibility Fee Recovery Surcharges"
	FieldAirportSurcharge = "Airport Surcharge"
	FieldMarketplaceFee   = "Marketplace Fee"
	FieldTips             = "Tips"
	FieldTaxes            = "Taxes"
	FieldTotalAmount      = "Total Amount"
	FieldPaymentMethod    = "Payment Method"
	FieldCardChargedDate  = "Card Charged Date"
	FieldCountry          = "Country"
)

// Meta describes where a record came from.
type Meta struct {
	Source   string
	Locale   Locale
	Currency string
}

// Record is one extracted document. Every known field is present; fields no
// rule filled hold Absent. A Record is read-only; With returns a modified copy.
type Record struct {
	Meta
	fields []string
	values map[string]string
}

// NewRecord builds a record over the given field order. Values for fields not
// listed in fields are appended after them in sorted order so the shape stays
// deterministic.
func NewRecord(meta Meta, fields []string, values map[string]string) Record {
	order := make([]string, 0, len(fields)+len(values))
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		order = append(order, f)
	}

	var extra []string
	for f := range values {
		if _, ok := seen[f]; !ok {
			extra = append(extra, f)
		}
	}
	slices.Sort(extra)
	order = append(order, extra...)

	vals := make(map[string]string, len(order))
	for _, f := range order {
		v, ok := values[f]
		if !ok || v == "" {
			v = Absent
		}
		vals[f] = v
	}

	return Record{Meta: meta, fields: order, values: vals}
}

// Value returns the field value, or Absent for unknown fields.
func (r Record) Value(field string) string {
	if v, ok := r.values[field]; ok {
		return v
	}
	return Absent
}

// Present reports whether the field holds a real value (neither sentinel).
func (r Record) Present(field string) bool {
	v, ok := r.values[field]
	return ok && v != Absent && v != FormatMismatch
}

// Has reports whether the field is part of the record shape.
func (r Record) Has(field string) bool {
	_, ok := r.values[field]
	return ok
}

// Fields returns the field names in record order.
func (r Record) Fields() []string {
	return slices.Clone(r.fields)
}

// Values returns a copy of the field map.
func (r Record) Values() map[string]string {
	out := make(map[string]string, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// Missing lists the fields still holding Absent, in record order.
func (r Record) Missing() []string {
	var out []string
	for _, f := range r.fields {
		if r.values[f] == Absent {
			out = append(out, f)
		}
	}
	return out
}

// With returns a copy of r with field set to value. Unknown fields are
// appended to the shape.
func (r Record) With(field, value string) Record {
	if value == "" {
		value = Absent
	}
	out := Record{
		Meta:   r.Meta,
		fields: slices.Clone(r.fields),
		values: r.Values(),
	}
	if _, ok := out.values[field]; !ok {
		out.fields = append(out.fields, field)
	}
	out.values[field] = value
	return out
}
