package sniffer

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/FACorreiaa/ride-receipts/internal/domain/receipt"
	"github.com/FACorreiaa/ride-receipts/internal/domain/receipt/patterns"
)

func TestSelector_Detect(t *testing.T) {
	s := ForCatalogue(patterns.Default())

	tests := []struct {
		name   string
		text   string
		want   receipt.Locale
		wantOK bool
	}{
		{"canadian marker", "Trip fare CA$12.50\nTotal CA$15.75", receipt.LocaleCanada, true},
		{"us marker", "Trip fare US$12.50", receipt.LocaleUnitedStates, true},
		{"bare dollar falls back", "Trip fare $12.50", receipt.LocaleUnitedStates, false},
		{"empty text", "", receipt.LocaleUnitedStates, false},
		{"both markers, canada has priority", "Total US$3.00 Total CA$4.00", receipt.LocaleCanada, true},
		{"priority ignores position", "CA$1.00 appears after US$2.00", receipt.LocaleCanada, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := s.Detect(tt.text)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, s.Select(tt.text))
		})
	}
}

func TestSelector_Idempotent(t *testing.T) {
	s := ForCatalogue(patterns.Default())
	text := "Thanks for riding\nTotal CA$15.75"

	first := s.Select(text)
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, s.Select(text))
	}
}

func TestSelector_ConcurrentUse(t *testing.T) {
	s := ForCatalogue(patterns.Default())

	var wg sync.WaitGroup
	results := make([]receipt.Locale, 64)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			text := "Total US$1.00"
			if i%2 == 0 {
				text = "Total CA$1.00"
			}
			results[i] = s.Select(text)
		}(i)
	}
	wg.Wait()

	for i, got := range results {
		if i%2 == 0 {
			assert.Equal(t, receipt.LocaleCanada, got)
		} else {
			assert.Equal(t, receipt.LocaleUnitedStates, got)
		}
	}
}

func TestSelector_CustomPriority(t *testing.T) {
	profiles := []patterns.LocaleProfile{
		{Tag: "GB", Markers: []string{"£"}},
		{Tag: "EU", Markers: []string{"€", "EUR"}},
	}
	s := NewSelector(profiles, "EU")

	assert.Equal(t, receipt.Locale("GB"), s.Select("£4.00 and €5.00"))
	assert.Equal(t, receipt.Locale("EU"), s.Select("EUR 5.00"))
	assert.Equal(t, receipt.Locale("EU"), s.Default())
}

func TestSelector_NoMarkers(t *testing.T) {
	s := NewSelector([]patterns.LocaleProfile{{Tag: "XX"}}, "XX")
	loc, ok := s.Detect("anything")
	assert.Equal(t, receipt.Locale("XX"), loc)
	assert.False(t, ok)
}
