// Package settings stores the operator-maintained USD exchange rates.
package settings

import (
	"errors"
	"time"
)

// Sentinel errors for the settings domain.
var (
	ErrValidation = errors.New("settings: validation failed")
)

// UpdateRequest is the body accepted by PUT /settings/exchange-rates.
type UpdateRequest struct {
	JPYPerUSD float64 `json:"jpyPerUsd" validate:"required,gt=0,finite"`
	VNDPerUSD float64 `json:"vndPerUsd" validate:"required,gt=0,finite"`
}

// record mirrors the exchange_rate_settings row. Rate columns are nullable so a
// partially seeded row still normalizes field by field.
type record struct {
	JPYPerUSD *float64
	VNDPerUSD *float64
	UpdatedAt *time.Time
}
