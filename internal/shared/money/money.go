package money

import (
	"github.com/shopspring/decimal"
)

// Format renders an amount with two decimals and its currency symbol when one is known.
func Format(currency string, amount decimal.Decimal) string {
	s := amount.StringFixed(2)
	switch currency {
	case "USD":
		return "$" + s
	case "EUR":
		return "€" + s
	case "ETB":
		return "Br " + s
	default:
		return s + " " + currency
	}
}
