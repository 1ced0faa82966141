package fx

import "strings"

// Currency is an upper-cased ISO currency code.
type Currency string

// Currencies handled by the conversion table.
const (
	USD Currency = "USD"
	JPY Currency = "JPY"
	VND Currency = "VND"
)

// NormalizeCurrency upper-cases a code for comparison.
func NormalizeCurrency(code string) Currency {
	return Currency(strings.ToUpper(code))
}

// Known reports whether the converter has a rate for c.
func (c Currency) Known() bool {
	switch c {
	case USD, JPY, VND:
		return true
	}
	return false
}

// ToUSD converts amount from currency into USD. USD and unrecognised codes are
// returned unchanged. No rounding is applied.
func ToUSD(amount float64, currency string, rates ExchangeRates) float64 {
	switch NormalizeCurrency(currency) {
	case JPY:
		return amount / rates.JPYPerUSD
	case VND:
		return amount / rates.VNDPerUSD
	default:
		return amount
	}
}

// FromUSD converts a USD amount into currency, mirroring ToUSD.
func FromUSD(amount float64, currency string, rates ExchangeRates) float64 {
	switch NormalizeCurrency(currency) {
	case JPY:
		return amount * rates.JPYPerUSD
	case VND:
		return amount * rates.VNDPerUSD
	default:
		return amount
	}
}
