// Package shared holds persistence helpers used by more than one domain.
package shared

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// ErrIdempotencyConflict indicates the key was already used.
var ErrIdempotencyConflict = errors.New("idempotent request already processed")

// IdempotencyStore persists request keys in idempotency_keys.
type IdempotencyStore struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewIdempotencyStore constructs the store.
func NewIdempotencyStore(pool *pgxpool.Pool) *IdempotencyStore {
	return &IdempotencyStore{pool: pool, now: time.Now}
}

// Claim records key for module against resourceID. If the key was already
// claimed by the same module it returns the stored resource ID with
// claimed=false. A key held by another module, or one stored without a
// resource, yields ErrIdempotencyConflict.
func (s *IdempotencyStore) Claim(ctx context.Context, key, module, resourceID string) (string, bool, error) {
	if s == nil || s.pool == nil {
		return "", false, errors.New("idempotency store not initialised")
	}
	if key == "" {
		return "", false, errors.New("idempotency key required")
	}
	if module == "" {
		return "", false, errors.New("idempotency module required")
	}
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO idempotency_keys (key, module, resource_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO NOTHING`, key, module, resourceID, s.now())
	if err != nil {
		return "", false, fmt.Errorf("idempotency: insert: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return resourceID, true, nil
	}

	var owner, existing string
	err = s.pool.QueryRow(ctx, `SELECT module, resource_id FROM idempotency_keys WHERE key = $1`, key).Scan(&owner, &existing)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, ErrIdempotencyConflict
	}
	if err != nil {
		return "", false, fmt.Errorf("idempotency: lookup: %w", err)
	}
	if owner != module || existing == "" {
		return "", false, ErrIdempotencyConflict
	}
	return existing, false, nil
}

// Cleanup removes entries older than retention.
func (s *IdempotencyStore) Cleanup(ctx context.Context, olderThan time.Duration) (int64, error) {
	if s == nil || s.pool == nil {
		return 0, nil
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM idempotency_keys WHERE created_at < $1`, s.now().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("idempotency: cleanup: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Delete releases a key, typically after the guarded work failed to start.
func (s *IdempotencyStore) Delete(ctx context.Context, key string) error {
	if s == nil || s.pool == nil {
		return nil
	}
	if key == "" {
		return errors.New("idempotency key required")
	}
	_, err := s.pool.Exec(ctx, `DELETE FROM idempotency_keys WHERE key = $1`, key)
	return err
}

// IsUniqueViolation reports whether err is a Postgres unique constraint error.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
