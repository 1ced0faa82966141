package analytics

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinylworks/vinylops/internal/aggregation"
	"github.com/vinylworks/vinylops/internal/fx"
	"github.com/vinylworks/vinylops/internal/records"
)

type stubRows struct {
	rows  []aggregation.Row
	err   error
	calls atomic.Int32
	delay time.Duration
}

func (s *stubRows) Rows(ctx context.Context, kind records.Kind, start, end string) ([]aggregation.Row, error) {
	s.calls.Add(1)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return s.rows, s.err
}

type stubRates struct {
	rates fx.ExchangeRates
	err   error
}

func (s stubRates) Rates(ctx context.Context) (fx.ExchangeRates, error) {
	return s.rates, s.err
}

var sampleRows = []aggregation.Row{
	{ID: "1", Date: "2025-06-05", Partner: "A", Currency: "JPY", Amount: 15000, Confirmed: true},
	{ID: "2", Date: "2025-06-20", Partner: "A", Currency: "USD", Amount: 100},
}

func testEngine() *aggregation.Engine {
	cal := aggregation.Calendar{Location: time.UTC, WeekStart: aggregation.DefaultWeekStart}
	return aggregation.NewEngine(cal, fx.NewNormalizer(fx.DefaultRates()))
}

func newRedisCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute), mr
}

func monthRequest() Request {
	return Request{Kind: records.KindOrders, Unit: aggregation.UnitMonth, Start: "2025-06-01", End: "2025-06-30"}
}

func TestSummarizeAggregatesRows(t *testing.T) {
	svc := NewService(&stubRows{rows: sampleRows}, stubRates{rates: fx.DefaultRates()}, testEngine(), nil, nil)

	sum, err := svc.Summarize(context.Background(), monthRequest())
	require.NoError(t, err)
	assert.Equal(t, records.KindOrders, sum.Kind)
	require.Len(t, sum.Buckets, 1)
	assert.Equal(t, "2025-06", sum.Buckets[0].Key)
	assert.InDelta(t, 200, sum.TotalUSD, 1e-9)
	assert.False(t, sum.RateFallback)
}

func TestSummarizeNormalizesRequest(t *testing.T) {
	svc := NewService(&stubRows{rows: sampleRows}, stubRates{rates: fx.DefaultRates()}, testEngine(), nil, nil)
	sum, err := svc.Summarize(context.Background(), Request{Kind: "ORDERS", Unit: " Week "})
	require.NoError(t, err)
	assert.Equal(t, records.KindOrders, sum.Kind)
	assert.Equal(t, aggregation.UnitWeek, sum.Unit)
}

func TestSummarizeRejectsInvalidRequests(t *testing.T) {
	svc := NewService(&stubRows{}, stubRates{}, testEngine(), nil, nil)
	for name, req := range map[string]Request{
		"kind": {Kind: "refunds", Unit: aggregation.UnitDay},
		"unit": {Kind: records.KindSales, Unit: "quarter"},
		"date": {Kind: records.KindSales, Unit: aggregation.UnitDay, Start: "June 1"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Summarize(context.Background(), req)
			assert.ErrorIs(t, err, ErrInvalidRequest)
		})
	}
}

func TestSummarizeFallsBackToDefaultRates(t *testing.T) {
	svc := NewService(&stubRows{rows: sampleRows}, stubRates{err: errors.New("db down")}, testEngine(), nil, nil)
	sum, err := svc.Summarize(context.Background(), monthRequest())
	require.NoError(t, err)
	assert.True(t, sum.RateFallback)
	assert.Equal(t, fx.DefaultJPYPerUSD, sum.Rates.JPYPerUSD)
	assert.InDelta(t, 200, sum.TotalUSD, 1e-9)
}

func TestSummarizePropagatesRowErrors(t *testing.T) {
	svc := NewService(&stubRows{err: errors.New("boom")}, stubRates{}, testEngine(), nil, nil)
	_, err := svc.Summarize(context.Background(), monthRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load orders rows")
}

func TestSummarizeUsesCacheUntilBumped(t *testing.T) {
	cache, _ := newRedisCache(t)
	rows := &stubRows{rows: sampleRows}
	svc := NewService(rows, stubRates{rates: fx.DefaultRates()}, testEngine(), cache, nil)
	ctx := context.Background()

	first, err := svc.Summarize(ctx, monthRequest())
	require.NoError(t, err)
	second, err := svc.Summarize(ctx, monthRequest())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, rows.calls.Load())

	require.NoError(t, svc.Invalidate(ctx))
	_, err = svc.Summarize(ctx, monthRequest())
	require.NoError(t, err)
	assert.EqualValues(t, 2, rows.calls.Load())
}

func TestSummarizeCollapsesConcurrentMisses(t *testing.T) {
	rows := &stubRows{rows: sampleRows, delay: 50 * time.Millisecond}
	svc := NewService(rows, stubRates{rates: fx.DefaultRates()}, testEngine(), nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Summarize(context.Background(), monthRequest())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Less(t, rows.calls.Load(), int32(5))
}

type recoveringRates struct {
	calls atomic.Int32
	rates fx.ExchangeRates
}

func (r *recoveringRates) Rates(ctx context.Context) (fx.ExchangeRates, error) {
	if r.calls.Add(1) == 1 {
		return fx.ExchangeRates{}, errors.New("settings unavailable")
	}
	return r.rates, nil
}

func TestSummarizeDoesNotCacheFallbackResults(t *testing.T) {
	cache, _ := newRedisCache(t)
	rates := &recoveringRates{rates: fx.ExchangeRates{JPYPerUSD: 100, VNDPerUSD: 25000}}
	svc := NewService(&stubRows{rows: sampleRows}, rates, testEngine(), cache, nil)
	ctx := context.Background()

	first, err := svc.Summarize(ctx, monthRequest())
	require.NoError(t, err)
	assert.True(t, first.RateFallback)
	assert.InDelta(t, 200, first.TotalUSD, 1e-9)

	second, err := svc.Summarize(ctx, monthRequest())
	require.NoError(t, err)
	assert.False(t, second.RateFallback)
	assert.Equal(t, 100.0, second.Rates.JPYPerUSD)
	assert.InDelta(t, 250, second.TotalUSD, 1e-9)

	third, err := svc.Summarize(ctx, monthRequest())
	require.NoError(t, err)
	assert.Equal(t, second, third)
	assert.EqualValues(t, 2, rates.calls.Load())
}

func TestSummarizeRejectsImpossibleDates(t *testing.T) {
	rows := &stubRows{rows: sampleRows}
	svc := NewService(rows, stubRates{rates: fx.DefaultRates()}, testEngine(), nil, nil)
	for _, d := range []string{"2025-00-01", "2025-13-01", "2025-02-30", "2025-06-00"} {
		_, err := svc.Summarize(context.Background(), Request{Kind: records.KindOrders, Unit: aggregation.UnitMonth, Start: d, End: "2025-06-30"})
		assert.ErrorIs(t, err, ErrInvalidRequest, d)
	}
	assert.Zero(t, rows.calls.Load())

	_, err := svc.Summarize(context.Background(), Request{Kind: records.KindOrders, Unit: aggregation.UnitMonth, Start: "2025-6-1", End: "2025-06-30"})
	assert.NoError(t, err)
}

func TestSummarizeSurvivesLeaderCancellation(t *testing.T) {
	rows := &stubRows{rows: sampleRows, delay: 300 * time.Millisecond}
	svc := NewService(rows, stubRates{rates: fx.DefaultRates()}, testEngine(), nil, nil)

	leaderCtx, cancel := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := svc.Summarize(leaderCtx, monthRequest())
		leaderErr <- err
	}()
	require.Eventually(t, func() bool { return rows.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	type outcome struct {
		sum Summary
		err error
	}
	follower := make(chan outcome, 1)
	go func() {
		sum, err := svc.Summarize(context.Background(), monthRequest())
		follower <- outcome{sum, err}
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	assert.ErrorIs(t, <-leaderErr, context.Canceled)
	got := <-follower
	require.NoError(t, got.err)
	assert.InDelta(t, 200, got.sum.TotalUSD, 1e-9)
	assert.EqualValues(t, 1, rows.calls.Load())
}
