package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestFormat(t *testing.T) {
	cases := []struct {
		currency string
		amount   string
		want     string
	}{
		{"ETB", "150", "Br 150.00"},
		{"USD", "9.5", "$9.50"},
		{"KES", "1000.456", "1000.46 KES"},
	}
	for _, tc := range cases {
		if got := Format(tc.currency, decimal.RequireFromString(tc.amount)); got != tc.want {
			t.Errorf("Format(%s, %s) = %q, want %q", tc.currency, tc.amount, got, tc.want)
		}
	}
}
