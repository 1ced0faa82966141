package records

import (
	"context"
	"errors"
)

type memRepo struct {
	orders   []PurchaseOrder
	sales    []SalesOrder
	payments []Payment
	filters  []Filter
	err      error
}

func (m *memRepo) ListPurchaseOrders(ctx context.Context, f Filter) ([]PurchaseOrder, error) {
	m.filters = append(m.filters, f)
	return m.orders, m.err
}

func (m *memRepo) ListSalesOrders(ctx context.Context, f Filter) ([]SalesOrder, error) {
	m.filters = append(m.filters, f)
	return m.sales, m.err
}

func (m *memRepo) ListPayments(ctx context.Context, f Filter) ([]Payment, error) {
	m.filters = append(m.filters, f)
	return m.payments, m.err
}

var errBoom = errors.New("boom")
