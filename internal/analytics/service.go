// Package analytics serves aggregated totals of orders, sales and payments
// converted to USD.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/vinylworks/vinylops/internal/aggregation"
	"github.com/vinylworks/vinylops/internal/fx"
	"github.com/vinylworks/vinylops/internal/records"
)

// ErrInvalidRequest wraps every request validation failure.
var ErrInvalidRequest = errors.New("analytics: invalid request")

// requestDateLayout accepts zero-padded and unpadded months and days.
const requestDateLayout = "2006-1-2"

// computeTimeout bounds a shared computation once it is detached from the
// caller that started it.
const computeTimeout = 30 * time.Second

// errRateFallback keeps summaries computed with default rates out of the cache.
var errRateFallback = errors.New("analytics: computed with default rates")

// RowSource loads projected rows for a record kind.
type RowSource interface {
	Rows(ctx context.Context, kind records.Kind, start, end string) ([]aggregation.Row, error)
}

// RateSource provides the current exchange rates.
type RateSource interface {
	Rates(ctx context.Context) (fx.ExchangeRates, error)
}

// Request selects what to aggregate. Empty Start or End leaves that side open.
type Request struct {
	Kind  records.Kind     `json:"kind"`
	Unit  aggregation.Unit `json:"unit"`
	Start string           `json:"start"`
	End   string           `json:"end"`
}

// Normalize validates kind, unit and date formats and returns the request in
// canonical form.
func (r Request) Normalize() (Request, error) {
	kind, err := records.ParseKind(string(r.Kind))
	if err != nil {
		return Request{}, fmt.Errorf("%w: kind %q", ErrInvalidRequest, r.Kind)
	}
	unit, err := aggregation.ParseUnit(string(r.Unit))
	if err != nil {
		return Request{}, fmt.Errorf("%w: unit %q", ErrInvalidRequest, r.Unit)
	}
	for _, d := range []string{r.Start, r.End} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(requestDateLayout, d); err != nil {
			return Request{}, fmt.Errorf("%w: date %q", ErrInvalidRequest, d)
		}
	}
	return Request{Kind: kind, Unit: unit, Start: r.Start, End: r.End}, nil
}

// Summary is a cached aggregation result for one request.
type Summary struct {
	Kind records.Kind `json:"kind"`
	aggregation.Result
	RateFallback bool `json:"rateFallback,omitempty"`
}

// Service coordinates row loading, rate lookup, aggregation and caching.
type Service struct {
	rows   RowSource
	rates  RateSource
	engine *aggregation.Engine
	cache  *Cache
	logger *slog.Logger
	group  singleflight.Group
}

// NewService wires the analytics service. cache may be nil.
func NewService(rows RowSource, rates RateSource, engine *aggregation.Engine, cache *Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{rows: rows, rates: rates, engine: engine, cache: cache, logger: logger}
}

// Summarize returns the aggregation for req, from cache when possible.
// Concurrent identical requests share one computation, which keeps running if
// the caller that started it goes away. Results computed with default rates
// are returned but never cached.
func (s *Service) Summarize(ctx context.Context, req Request) (Summary, error) {
	req, err := req.Normalize()
	if err != nil {
		return Summary{}, err
	}
	key, err := s.cache.BuildKey(ctx, summaryKey(req)...)
	if err != nil {
		s.logger.Warn("analytics: cache unavailable", slog.Any("error", err))
		return s.compute(ctx, req)
	}

	ch := s.group.DoChan(key, func() (any, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), computeTimeout)
		defer cancel()

		var out, degraded Summary
		err := s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (any, error) {
			sum, err := s.compute(ctx, req)
			if err != nil {
				return nil, err
			}
			if sum.RateFallback {
				degraded = sum
				return nil, errRateFallback
			}
			return sum, nil
		})
		if errors.Is(err, errRateFallback) {
			return degraded, nil
		}
		return out, err
	})
	select {
	case <-ctx.Done():
		return Summary{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Summary{}, res.Err
		}
		return res.Val.(Summary), nil
	}
}

// Invalidate drops every cached summary.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx)
}

func (s *Service) compute(ctx context.Context, req Request) (Summary, error) {
	var (
		rows     []aggregation.Row
		rates    fx.ExchangeRates
		fallback bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows, err = s.rows.Rows(gctx, req.Kind, req.Start, req.End)
		if err != nil {
			return fmt.Errorf("analytics: load %s rows: %w", req.Kind, err)
		}
		return nil
	})
	g.Go(func() error {
		current, err := s.rates.Rates(gctx)
		if err != nil {
			s.logger.Warn("analytics: rates unavailable, using defaults", slog.Any("error", err))
			fallback = true
			return nil
		}
		rates = current
		return nil
	})
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	result := s.engine.Aggregate(rows, rates, req.Unit, req.Start, req.End)
	return Summary{Kind: req.Kind, Result: result, RateFallback: fallback}, nil
}
