package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/FACorreiaa/ride-receipts/internal/domain/receipt"
	"github.com/FACorreiaa/ride-receipts/internal/domain/receipt/patterns"
)

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		layout  string
		want    string
		wantErr bool
	}{
		{"invoice date", "March 14, 2024", patterns.InvoiceDateLayout, "2024-03-14", false},
		{"single digit day", "July 4, 2023", patterns.InvoiceDateLayout, "2023-07-04", false},
		{"card charged afternoon", "03/14/24 5:30 PM", patterns.CardChargedLayout, "2024-03-14 17:30", false},
		{"card charged midnight", "1/2/23 12:05 AM", patterns.CardChargedLayout, "2023-01-02 00:05", false},
		{"surrounding space", "  March 1, 2024 ", patterns.InvoiceDateLayout, "2024-03-01", false},
		{"four digit year", "03/14/2024 5:30 PM", patterns.CardChargedLayout, receipt.FormatMismatch, true},
		{"abbreviated month", "Mar 14, 2024", patterns.InvoiceDateLayout, receipt.FormatMismatch, true},
		{"impossible day", "February 30, 2024", patterns.InvoiceDateLayout, receipt.FormatMismatch, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeDate(tt.value, tt.layout)
			assert.Equal(t, tt.want, got)
			if tt.wantErr {
				assert.ErrorIs(t, err, receipt.ErrDateFormatMismatch)
				return
			}
			assert.NoError(t, err)
		})
	}
}
