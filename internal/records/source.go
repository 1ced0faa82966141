package records

import (
	"context"

	"github.com/vinylworks/vinylops/internal/aggregation"
)

// Source projects stored records into aggregation rows.
type Source struct {
	repo     Repository
	calendar aggregation.Calendar
}

// NewSource binds a repository. cal must match the engine calendar so that the
// SQL prefilter and the in-memory range check agree.
func NewSource(repo Repository, cal aggregation.Calendar) *Source {
	return &Source{repo: repo, calendar: cal}
}

// Rows returns every record of kind whose date may fall in [start, end].
// Unparseable or empty bounds are left open; the engine applies the exact range.
func (s *Source) Rows(ctx context.Context, kind Kind, start, end string) ([]aggregation.Row, error) {
	f := Filter{}
	if t, ok := s.calendar.ParseDate(start); ok {
		f.From = t
	}
	if t, ok := s.calendar.ParseDate(end); ok {
		f.To = t
	}
	return s.list(ctx, kind, f)
}

// List returns one page of kind as raw records for the listing endpoint.
func (s *Source) List(ctx context.Context, kind Kind, f Filter) (any, error) {
	switch kind {
	case KindOrders:
		return s.repo.ListPurchaseOrders(ctx, f)
	case KindSales:
		return s.repo.ListSalesOrders(ctx, f)
	case KindPayments:
		return s.repo.ListPayments(ctx, f)
	default:
		return nil, ErrUnknownKind
	}
}

func (s *Source) list(ctx context.Context, kind Kind, f Filter) ([]aggregation.Row, error) {
	switch kind {
	case KindOrders:
		items, err := s.repo.ListPurchaseOrders(ctx, f)
		return project(items, err)
	case KindSales:
		items, err := s.repo.ListSalesOrders(ctx, f)
		return project(items, err)
	case KindPayments:
		items, err := s.repo.ListPayments(ctx, f)
		return project(items, err)
	default:
		return nil, ErrUnknownKind
	}
}

type projector interface {
	Row() aggregation.Row
}

func project[T projector](items []T, err error) ([]aggregation.Row, error) {
	if err != nil {
		return nil, err
	}
	rows := make([]aggregation.Row, 0, len(items))
	for _, item := range items {
		rows = append(rows, item.Row())
	}
	return rows, nil
}
