package fx

import (
	"math"
	"testing"
)

var testRates = ExchangeRates{JPYPerUSD: 150, VNDPerUSD: 25000}

func TestToUSD(t *testing.T) {
	cases := []struct {
		amount   float64
		currency string
		want     float64
	}{
		{15000, "JPY", 100},
		{15000, "jpy", 100},
		{2500000, "VND", 100},
		{42, "USD", 42},
		{42, "EUR", 42},
		{-300, "JPY", -2},
		{0, "VND", 0},
	}
	for _, tc := range cases {
		if got := ToUSD(tc.amount, tc.currency, testRates); got != tc.want {
			t.Fatalf("ToUSD(%v, %s) = %v want %v", tc.amount, tc.currency, got, tc.want)
		}
	}
}

func TestFromUSD(t *testing.T) {
	if got := FromUSD(2, "Jpy", testRates); got != 300 {
		t.Fatalf("expected 300 got %v", got)
	}
	if got := FromUSD(2, "VND", testRates); got != 50000 {
		t.Fatalf("expected 50000 got %v", got)
	}
	if got := FromUSD(2, "THB", testRates); got != 2 {
		t.Fatalf("expected passthrough got %v", got)
	}
}

func TestRoundTrip(t *testing.T) {
	rates := ExchangeRates{JPYPerUSD: 157.31, VNDPerUSD: 25437.5}
	for _, currency := range []string{"JPY", "VND", "USD"} {
		for _, amount := range []float64{0.01, 1, 1234.56, 9876543.21, -77} {
			back := FromUSD(ToUSD(amount, currency, rates), currency, rates)
			if math.Abs(back-amount) > 1e-6*math.Max(1, math.Abs(amount)) {
				t.Fatalf("%s round trip %v -> %v", currency, amount, back)
			}
		}
	}
}

func TestUSDIdentityForAnyRates(t *testing.T) {
	for _, rates := range []ExchangeRates{testRates, {JPYPerUSD: 1, VNDPerUSD: 1}, {}} {
		if got := ToUSD(99.5, "USD", rates); got != 99.5 {
			t.Fatalf("expected identity, got %v", got)
		}
	}
}

func TestCurrencyKnown(t *testing.T) {
	if !NormalizeCurrency("vnd").Known() {
		t.Fatalf("expected VND known")
	}
	if NormalizeCurrency("EUR").Known() {
		t.Fatalf("expected EUR unknown")
	}
}
