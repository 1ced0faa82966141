package records

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Filter narrows a listing. Zero From/To leave that side open; Limit 0 lists
// everything.
type Filter struct {
	From   time.Time
	To     time.Time
	Limit  int
	Offset int
}

// Repository lists the aggregated record families.
type Repository interface {
	ListPurchaseOrders(ctx context.Context, f Filter) ([]PurchaseOrder, error)
	ListSalesOrders(ctx context.Context, f Filter) ([]SalesOrder, error)
	ListPayments(ctx context.Context, f Filter) ([]Payment, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository returns a pgx backed Repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) ListPurchaseOrders(ctx context.Context, f Filter) ([]PurchaseOrder, error) {
	query, args := withFilter(
		`SELECT id, order_no, supplier_name, order_date, currency, amount, issued_at, created_at FROM purchase_orders WHERE 1=1`,
		"order_date", "order_date, id", f)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("records: list purchase orders: %w", err)
	}
	return collect(rows, func(row pgx.Rows) (PurchaseOrder, error) {
		var p PurchaseOrder
		err := row.Scan(&p.ID, &p.OrderNo, &p.Supplier, &p.OrderDate, &p.Currency, &p.Amount, &p.IssuedAt, &p.CreatedAt)
		return p, err
	})
}

func (r *repository) ListSalesOrders(ctx context.Context, f Filter) ([]SalesOrder, error) {
	query, args := withFilter(
		`SELECT id, order_no, customer_name, order_date, currency, amount, delivered_at, created_at FROM sales_orders WHERE 1=1`,
		"order_date", "order_date, id", f)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("records: list sales orders: %w", err)
	}
	return collect(rows, func(row pgx.Rows) (SalesOrder, error) {
		var s SalesOrder
		err := row.Scan(&s.ID, &s.OrderNo, &s.Customer, &s.OrderDate, &s.Currency, &s.Amount, &s.DeliveredAt, &s.CreatedAt)
		return s, err
	})
}

func (r *repository) ListPayments(ctx context.Context, f Filter) ([]Payment, error) {
	query, args := withFilter(
		`SELECT id, reference, payee, category, due_date, currency, amount, paid_at, created_at FROM payments WHERE 1=1`,
		"due_date", "due_date, id", f)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("records: list payments: %w", err)
	}
	return collect(rows, func(row pgx.Rows) (Payment, error) {
		var p Payment
		err := row.Scan(&p.ID, &p.Reference, &p.Payee, &p.Category, &p.DueDate, &p.Currency, &p.Amount, &p.PaidAt, &p.CreatedAt)
		return p, err
	})
}

func withFilter(base, dateColumn, orderBy string, f Filter) (string, []any) {
	query := base
	args := []any{}
	argCount := 0
	if !f.From.IsZero() {
		argCount++
		query += ` AND ` + dateColumn + ` >= $` + strconv.Itoa(argCount)
		args = append(args, f.From)
	}
	if !f.To.IsZero() {
		argCount++
		query += ` AND ` + dateColumn + ` <= $` + strconv.Itoa(argCount)
		args = append(args, f.To)
	}
	query += ` ORDER BY ` + orderBy
	if f.Limit > 0 {
		argCount++
		query += ` LIMIT $` + strconv.Itoa(argCount)
		args = append(args, f.Limit)

		offset := f.Offset
		if offset < 0 {
			offset = 0
		}
		argCount++
		query += ` OFFSET $` + strconv.Itoa(argCount)
		args = append(args, offset)
	}
	return query, args
}

func collect[T any](rows pgx.Rows, scan func(pgx.Rows) (T, error)) ([]T, error) {
	defer rows.Close()
	out := make([]T, 0)
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("records: scan: %w", err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}
