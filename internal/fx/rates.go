package fx

import "math"

// Fallback rates used whenever a configured rate is missing or unusable.
const (
	DefaultJPYPerUSD = 150.0
	DefaultVNDPerUSD = 25000.0
)

// ExchangeRates holds how many units of each local currency buy one USD.
type ExchangeRates struct {
	JPYPerUSD float64 `json:"jpyPerUsd"`
	VNDPerUSD float64 `json:"vndPerUsd"`
	UpdatedAt string  `json:"updatedAt,omitempty"`
}

// PartialRates is a possibly incomplete rate set as read from storage or a request.
type PartialRates struct {
	JPYPerUSD *float64 `json:"jpyPerUsd,omitempty"`
	VNDPerUSD *float64 `json:"vndPerUsd,omitempty"`
	UpdatedAt string   `json:"updatedAt,omitempty"`
}

// DefaultRates returns the fallback rate set.
func DefaultRates() ExchangeRates {
	return ExchangeRates{JPYPerUSD: DefaultJPYPerUSD, VNDPerUSD: DefaultVNDPerUSD}
}

// Partial converts a complete rate set into its partial form.
func (r ExchangeRates) Partial() *PartialRates {
	jpy, vnd := r.JPYPerUSD, r.VNDPerUSD
	return &PartialRates{JPYPerUSD: &jpy, VNDPerUSD: &vnd, UpdatedAt: r.UpdatedAt}
}

// Valid reports whether both rates are finite and positive.
func (r ExchangeRates) Valid() bool {
	return ValidRate(r.JPYPerUSD) && ValidRate(r.VNDPerUSD)
}

// ValidRate reports whether v can be used as a divisor for conversion.
func ValidRate(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}

// Normalizer fills unusable rates with injected defaults.
type Normalizer struct {
	Defaults ExchangeRates
}

// NewNormalizer constructs a normalizer with the supplied fallbacks.
func NewNormalizer(defaults ExchangeRates) Normalizer {
	return Normalizer{Defaults: defaults}
}

// Normalize never fails: each rate is validated independently and replaced by
// its default when missing, non-finite or not positive. UpdatedAt passes through.
func (n Normalizer) Normalize(in *PartialRates) ExchangeRates {
	out := ExchangeRates{
		JPYPerUSD: n.defaultJPY(),
		VNDPerUSD: n.defaultVND(),
	}
	if in == nil {
		return out
	}
	if in.JPYPerUSD != nil && ValidRate(*in.JPYPerUSD) {
		out.JPYPerUSD = *in.JPYPerUSD
	}
	if in.VNDPerUSD != nil && ValidRate(*in.VNDPerUSD) {
		out.VNDPerUSD = *in.VNDPerUSD
	}
	out.UpdatedAt = in.UpdatedAt
	return out
}

func (n Normalizer) defaultJPY() float64 {
	if ValidRate(n.Defaults.JPYPerUSD) {
		return n.Defaults.JPYPerUSD
	}
	return DefaultJPYPerUSD
}

func (n Normalizer) defaultVND() float64 {
	if ValidRate(n.Defaults.VNDPerUSD) {
		return n.Defaults.VNDPerUSD
	}
	return DefaultVNDPerUSD
}
