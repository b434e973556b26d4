package ubl

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/customeros/invoicextract/dto"
)

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// parseDate returns the minimum-date sentinel for missing or unparsable text.
func parseDate(text string) dto.Date {
	text = strings.TrimSpace(text)
	if text == "" {
		return dto.Date{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return dto.NewDate(t)
		}
	}
	return dto.Date{}
}

// parseQuantity rounds half to even, 0 when text is not a decimal.
func parseQuantity(text string) int {
	d, err := decimal.NewFromString(strings.TrimSpace(text))
	if err != nil {
		return 0
	}
	return int(d.RoundBank(0).IntPart())
}

// lineTotal is subtotal+tax with at most two decimals and no trailing zeros.
// It falls back to the subtotal text when either side is not a decimal.
func lineTotal(subtotal, tax string) string {
	s, err := decimal.NewFromString(subtotal)
	if err != nil {
		return subtotal
	}
	t, err := decimal.NewFromString(tax)
	if err != nil {
		return subtotal
	}
	return s.Add(t).Round(2).String()
}
