package settings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vinylworks/vinylops/internal/fx"
)

const settingsRowID = 1

// Repository persists the single exchange rate settings row.
type Repository interface {
	Get(ctx context.Context) (fx.PartialRates, bool, error)
	Save(ctx context.Context, rates fx.ExchangeRates) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository returns a pgx backed Repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) Get(ctx context.Context) (fx.PartialRates, bool, error) {
	var rec record
	err := r.db.QueryRow(ctx,
		`SELECT jpy_per_usd, vnd_per_usd, updated_at FROM exchange_rate_settings WHERE id = $1`,
		settingsRowID,
	).Scan(&rec.JPYPerUSD, &rec.VNDPerUSD, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fx.PartialRates{}, false, nil
	}
	if err != nil {
		return fx.PartialRates{}, false, fmt.Errorf("settings: get: %w", err)
	}
	out := fx.PartialRates{JPYPerUSD: rec.JPYPerUSD, VNDPerUSD: rec.VNDPerUSD}
	if rec.UpdatedAt != nil {
		out.UpdatedAt = rec.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return out, true, nil
}

func (r *repository) Save(ctx context.Context, rates fx.ExchangeRates) error {
	updatedAt, err := time.Parse(time.RFC3339, rates.UpdatedAt)
	if err != nil {
		updatedAt = time.Now().UTC()
	}
	_, err = r.db.Exec(ctx, `
INSERT INTO exchange_rate_settings (id, jpy_per_usd, vnd_per_usd, updated_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE
SET jpy_per_usd = EXCLUDED.jpy_per_usd,
    vnd_per_usd = EXCLUDED.vnd_per_usd,
    updated_at  = EXCLUDED.updated_at`,
		settingsRowID, rates.JPYPerUSD, rates.VNDPerUSD, updatedAt)
	if err != nil {
		return fmt.Errorf("settings: save: %w", err)
	}
	return nil
}
