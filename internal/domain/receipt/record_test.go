package receipt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRecord(t *testing.T) {
	t.Run("pre-populates every known field", func(t *testing.T) {
		rec := NewRecord(Meta{Source: "a.pdf"}, []string{FieldTripFare, FieldTips}, nil)

		assert.Equal(t, []string{FieldTripFare, FieldTips}, rec.Fields())
		assert.Equal(t, Absent, rec.Value(FieldTripFare))
		assert.Equal(t, Absent, rec.Value(FieldTips))
		assert.Equal(t, "a.pdf", rec.Source)
	})

	t.Run("keeps values and appends unknown fields sorted", func(t *testing.T) {
		rec := NewRecord(Meta{}, []string{FieldTripFare}, map[string]string{
			FieldTripFare: "12.50",
			"Zone":        "B",
			"Airport":     "YYZ",
		})

		assert.Equal(t, []string{FieldTripFare, "Airport", "Zone"}, rec.Fields())
		assert.Equal(t, "12.50", rec.Value(FieldTripFare))
	})

	t.Run("empty values become absent", func(t *testing.T) {
		rec := NewRecord(Meta{}, []string{FieldTips}, map[string]string{FieldTips: ""})
		assert.Equal(t, Absent, rec.Value(FieldTips))
		assert.Equal(t, []string{FieldTips}, rec.Missing())
	})

	t.Run("duplicate field names collapse", func(t *testing.T) {
		rec := NewRecord(Meta{}, []string{FieldTips, FieldTips}, nil)
		assert.Len(t, rec.Fields(), 1)
	})
}

func TestRecord_Present(t *testing.T) {
	rec := NewRecord(Meta{}, []string{FieldTips, FieldCardChargedDate, FieldTripFare}, map[string]string{
		FieldTips:            "1.00",
		FieldCardChargedDate: FormatMismatch,
	})

	assert.True(t, rec.Present(FieldTips))
	assert.False(t, rec.Present(FieldCardChargedDate))
	assert.False(t, rec.Present(FieldTripFare))
	assert.False(t, rec.Present("unknown"))
	assert.True(t, rec.Has(FieldTripFare))
	assert.False(t, rec.Has("unknown"))
	assert.Equal(t, Absent, rec.Value("unknown"))
}

func TestRecord_With(t *testing.T) {
	orig := NewRecord(Meta{Source: "x"}, []string{FieldTips}, nil)

	updated := orig.With(FieldTips, "2.00").With("Zone", "B")

	assert.Equal(t, Absent, orig.Value(FieldTips), "original must not change")
	assert.False(t, orig.Has("Zone"))
	assert.Equal(t, "2.00", updated.Value(FieldTips))
	assert.Equal(t, []string{FieldTips, "Zone"}, updated.Fields())
	assert.Equal(t, "x", updated.Source)
}

func TestRecord_ValuesIsCopy(t *testing.T) {
	rec := NewRecord(Meta{}, []string{FieldTips}, map[string]string{FieldTips: "1.00"})
	vals := rec.Values()
	vals[FieldTips] = "9.99"
	assert.Equal(t, "1.00", rec.Value(FieldTips))
}
