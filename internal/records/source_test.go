package records

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinylworks/vinylops/internal/aggregation"
)

var utcCalendar = aggregation.Calendar{Location: time.UTC, WeekStart: aggregation.DefaultWeekStart}

func TestSourceRowsProjectsKind(t *testing.T) {
	repo := &memRepo{
		payments: []Payment{
			{Reference: "PAY-1", Payee: "Label", DueDate: day(2025, 6, 1), Currency: "USD", Amount: 10},
			{Reference: "PAY-2", Category: "Rent", DueDate: day(2025, 6, 2), Currency: "JPY", Amount: 1500},
		},
	}
	src := NewSource(repo, utcCalendar)

	rows, err := src.Rows(context.Background(), KindPayments, "2025-06-01", "2025-06-30")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Rent", rows[1].Partner)

	require.Len(t, repo.filters, 1)
	assert.Equal(t, day(2025, 6, 1), repo.filters[0].From)
	assert.Equal(t, day(2025, 6, 30), repo.filters[0].To)
	assert.Zero(t, repo.filters[0].Limit)
}

func TestSourceRowsLeavesBadBoundsOpen(t *testing.T) {
	repo := &memRepo{}
	_, err := NewSource(repo, utcCalendar).Rows(context.Background(), KindOrders, "", "garbage")
	require.NoError(t, err)
	assert.True(t, repo.filters[0].From.IsZero())
	assert.True(t, repo.filters[0].To.IsZero())
}

func TestSourceRowsErrors(t *testing.T) {
	_, err := NewSource(&memRepo{}, utcCalendar).Rows(context.Background(), Kind("refunds"), "", "")
	assert.ErrorIs(t, err, ErrUnknownKind)

	_, err = NewSource(&memRepo{err: errBoom}, utcCalendar).Rows(context.Background(), KindSales, "", "")
	assert.ErrorIs(t, err, errBoom)
}

func TestWithFilterBuildsPlaceholders(t *testing.T) {
	query, args := withFilter("SELECT 1 FROM t WHERE 1=1", "d", "d", Filter{From: day(2025, 1, 1), Limit: 10, Offset: -5})
	assert.Equal(t, "SELECT 1 FROM t WHERE 1=1 AND d >= $1 ORDER BY d LIMIT $2 OFFSET $3", query)
	assert.Equal(t, []any{day(2025, 1, 1), 10, 0}, args)
}
