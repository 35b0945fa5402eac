package parser

import (
	"fmt"
	"strings"
	"time"

	"github.com/FACorreiaa/ride-receipts/internal/domain/receipt"
)

// Canonical output layouts.
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04"
)

// NormalizeDate parses value with the source layout and reformats it to
// DateLayout, or DateTimeLayout when the source layout carries a clock.
// A value that does not parse yields receipt.FormatMismatch and an error
// wrapping receipt.ErrDateFormatMismatch.
func NormalizeDate(value, layout string) (string, error) {
	ts, err := time.Parse(layout, strings.TrimSpace(value))
	if err != nil {
		return receipt.FormatMismatch, fmt.Errorf("%w: %q against %q: %w",
			receipt.ErrDateFormatMismatch, value, layout, err)
	}
	return ts.Format(outputLayout(layout)), nil
}

func outputLayout(layout string) string {
	if strings.Contains(layout, ":04") {
		return DateTimeLayout
	}
	return DateLayout
}
