package orders

import (
	"context"
	"errors"
	"fmt"

	"paginaflex/internal/infra/dbx"

	"github.com/jackc/pgx/v5"
)

type Repository struct {
	q   dbx.Querier
	gen *NumberGenerator
}

var _ Store = (*Repository)(nil)

func NewRepository(q dbx.Querier, gen *NumberGenerator) *Repository {
	if gen == nil {
		panic("orders: NumberGenerator is nil")
	}
	return &Repository{
		q:   q,
		gen: gen,
	}
}

// Create inserts the order and its items. Call it inside a transaction so a
// failing item does not leave a half written order behind.
func (r *Repository) Create(ctx context.Context, d *Detail) error {
	if len(d.Items) == 0 {
		return ErrEmptyCart
	}
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	o := &d.Order
	if o.Status == "" {
		o.Status = StatusPending
	}
	err := r.q.QueryRow(ctx, `
INSERT INTO orders (user_id, status, note, subtotal, discount, total)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, created_at, updated_at`,
		o.UserID, o.Status, o.Note, o.Subtotal, o.Discount, o.Total,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return fmt.Errorf("insert order: unknown user %d: %w", o.UserID, err)
		}
		return fmt.Errorf("insert order: %w", err)
	}
	o.Number = r.gen.Encode(o.ID)

	for i := range d.Items {
		it := &d.Items[i]
		it.OrderID = o.ID
		if err := r.q.QueryRow(ctx, `
INSERT INTO order_items (order_id, product_id, quantity, unit_price)
VALUES ($1, $2, $3, $4)
RETURNING id`,
			o.ID, it.ProductID, it.Quantity, it.UnitPrice,
		).Scan(&it.ID); err != nil {
			return fmt.Errorf("insert order item %d: %w", it.ProductID, err)
		}
	}
	return nil
}

// List returns one page of orders, newest first, and the total count.
func (r *Repository) List(ctx context.Context, f ListFilter, limit, offset int) ([]Order, int, error) {
	if limit <= 0 || limit > 100 {
		limit = PageSize
	}
	if offset < 0 {
		offset = 0
	}
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := r.q.Query(ctx, `
SELECT o.id, o.user_id, u.username, o.status, o.note, o.internal_note,
       o.subtotal, o.discount, o.total, o.created_at, o.updated_at,
       COUNT(*) OVER() AS total_count
FROM orders o
JOIN users u ON u.id = o.user_id
WHERE ($1 = 0 OR o.user_id = $1)
  AND ($2 = '' OR o.status = $2)
ORDER BY o.created_at DESC, o.id DESC
LIMIT $3 OFFSET $4`,
		f.UserID, string(f.Status), limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var (
		out   []Order
		total int
	)
	for rows.Next() {
		var o Order
		if err := rows.Scan(
			&o.ID, &o.UserID, &o.Username, &o.Status, &o.Note, &o.InternalNote,
			&o.Subtotal, &o.Discount, &o.Total, &o.CreatedAt, &o.UpdatedAt,
			&total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan order: %w", err)
		}
		o.Number = r.gen.Encode(o.ID)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *Repository) GetDetail(ctx context.Context, id int64) (*Detail, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var d Detail
	o := &d.Order
	err := r.q.QueryRow(ctx, `
SELECT o.id, o.user_id, u.username, o.status, o.note, o.internal_note,
       o.subtotal, o.discount, o.total, o.created_at, o.updated_at
FROM orders o
JOIN users u ON u.id = o.user_id
WHERE o.id = $1`, id).Scan(
		&o.ID, &o.UserID, &o.Username, &o.Status, &o.Note, &o.InternalNote,
		&o.Subtotal, &o.Discount, &o.Total, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	o.Number = r.gen.Encode(o.ID)

	items, err := r.loadItems(ctx, id)
	if err != nil {
		return nil, err
	}
	d.Items = items
	return &d, nil
}

func (r *Repository) loadItems(ctx context.Context, orderID int64) ([]Item, error) {
	rows, err := r.q.Query(ctx, `
SELECT oi.id, oi.order_id, oi.product_id, p.sku, p.name, oi.quantity, oi.unit_price
FROM order_items oi
JOIN products p ON p.id = oi.product_id
WHERE oi.order_id = $1
ORDER BY oi.id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Item, error) {
		var it Item
		err := row.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.SKU, &it.Name, &it.Quantity, &it.UnitPrice)
		return it, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan order items: %w", err)
	}
	return items, nil
}

// UpdateStatus sets the status and, when internalNote is not nil, replaces
// the staff note.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status Status, internalNote *string) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := r.q.Exec(ctx, `
UPDATE orders
SET status = $2,
    internal_note = COALESCE($3, internal_note),
    updated_at = now()
WHERE id = $1`, id, status, internalNote)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}
