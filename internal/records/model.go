// Package records holds the business documents whose amounts are aggregated:
// purchase orders, sales orders and payments. Each type projects itself into an
// aggregation.Row.
package records

import (
	"errors"
	"strings"
	"time"

	"github.com/vinylworks/vinylops/internal/aggregation"
)

// Kind selects one of the aggregated record families.
type Kind string

const (
	KindOrders   Kind = "orders"
	KindSales    Kind = "sales"
	KindPayments Kind = "payments"
)

// Kinds lists every supported kind in display order.
var Kinds = []Kind{KindOrders, KindSales, KindPayments}

// ErrUnknownKind is returned for kinds outside Kinds.
var ErrUnknownKind = errors.New("records: unknown kind")

// ParseKind validates a kind from user input.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", ErrUnknownKind
}

// PurchaseOrder is an order placed with a supplier. It counts as confirmed once
// the order form has been issued.
type PurchaseOrder struct {
	ID        int64      `json:"id"`
	OrderNo   string     `json:"orderNo"`
	Supplier  string     `json:"supplier"`
	OrderDate time.Time  `json:"orderDate"`
	Currency  string     `json:"currency"`
	Amount    float64    `json:"amount"`
	IssuedAt  *time.Time `json:"issuedAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Row projects the order for aggregation.
func (p PurchaseOrder) Row() aggregation.Row {
	return aggregation.Row{
		ID:        p.OrderNo,
		Date:      formatDate(p.OrderDate),
		Partner:   p.Supplier,
		Currency:  p.Currency,
		Amount:    p.Amount,
		Confirmed: p.IssuedAt != nil,
	}
}

// SalesOrder is an order received from a customer. It counts as confirmed once
// the goods are delivered.
type SalesOrder struct {
	ID          int64      `json:"id"`
	OrderNo     string     `json:"orderNo"`
	Customer    string     `json:"customer"`
	OrderDate   time.Time  `json:"orderDate"`
	Currency    string     `json:"currency"`
	Amount      float64    `json:"amount"`
	DeliveredAt *time.Time `json:"deliveredAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Row projects the sales order for aggregation.
func (s SalesOrder) Row() aggregation.Row {
	return aggregation.Row{
		ID:        s.OrderNo,
		Date:      formatDate(s.OrderDate),
		Partner:   s.Customer,
		Currency:  s.Currency,
		Amount:    s.Amount,
		Confirmed: s.DeliveredAt != nil,
	}
}

// Payment is an outgoing payment. Payments without a named payee are grouped
// by their cost category.
type Payment struct {
	ID        int64      `json:"id"`
	Reference string     `json:"reference"`
	Payee     string     `json:"payee"`
	Category  string     `json:"category"`
	DueDate   time.Time  `json:"dueDate"`
	Currency  string     `json:"currency"`
	Amount    float64    `json:"amount"`
	PaidAt    *time.Time `json:"paidAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Row projects the payment for aggregation.
func (p Payment) Row() aggregation.Row {
	partner := strings.TrimSpace(p.Payee)
	if partner == "" {
		partner = p.Category
	}
	return aggregation.Row{
		ID:        p.Reference,
		Date:      formatDate(p.DueDate),
		Partner:   partner,
		Currency:  p.Currency,
		Amount:    p.Amount,
		Confirmed: p.PaidAt != nil,
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(aggregation.DateLayout)
}
