package orders

import (
	"context"
	"errors"
	"slices"
	"time"

	"paginaflex/internal/domain/carts"

	"github.com/shopspring/decimal"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrEmptyCart         = errors.New("the cart is empty")
	ErrInvalidStatus     = errors.New("invalid order status")
	QueryTimeoutDuration = time.Second * 5
)

// PageSize is the number of orders per listing page.
const PageSize = 10

type Status string

const (
	StatusPending    Status = "pendiente"
	StatusConfirmed  Status = "confirmado"
	StatusProcessing Status = "en_proceso"
	StatusShipped    Status = "enviado"
	StatusDelivered  Status = "entregado"
	StatusCancelled  Status = "cancelado"
)

var statuses = []Status{
	StatusPending, StatusConfirmed, StatusProcessing,
	StatusShipped, StatusDelivered, StatusCancelled,
}

func (s Status) Valid() bool {
	return slices.Contains(statuses, s)
}

type Order struct {
	ID           int64     `json:"id"`
	Number       string    `json:"number"`
	UserID       int64     `json:"user_id"`
	Username     string    `json:"username,omitempty"`
	Status       Status    `json:"status"`
	Note         string    `json:"note"`
	InternalNote string    `json:"internal_note,omitempty"`
	// Subtotal is before the client discount, Total after it.
	Subtotal  decimal.Decimal `json:"subtotal"`
	Discount  decimal.Decimal `json:"discount"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Item stores the unit price actually charged, discount included.
type Item struct {
	ID        int64           `json:"id"`
	OrderID   int64           `json:"order_id"`
	ProductID int64           `json:"product_id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

func (i Item) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Detail struct {
	Order Order  `json:"order"`
	Items []Item `json:"items"`
}

// ListFilter scopes a listing. A zero UserID lists every order.
type ListFilter struct {
	UserID int64
	Status Status
}

type Store interface {
	Create(ctx context.Context, d *Detail) error
	List(ctx context.Context, f ListFilter, limit, offset int) ([]Order, int, error)
	GetDetail(ctx context.Context, id int64) (*Detail, error)
	UpdateStatus(ctx context.Context, id int64, status Status, internalNote *string) error
}

// FromCart snapshots a cart priced for the client's discount into a new
// pending order.
func FromCart(userID int64, c *carts.Cart, discount decimal.Decimal, note string) (*Detail, error) {
	if c == nil || c.Empty() {
		return nil, ErrEmptyCart
	}
	v := c.View(discount)

	d := &Detail{
		Order: Order{
			UserID:   userID,
			Status:   StatusPending,
			Note:     note,
			Subtotal: v.Subtotal,
			Discount: discount,
			Total:    v.Total,
		},
		Items: make([]Item, 0, len(v.Items)),
	}
	for _, l := range v.Items {
		d.Items = append(d.Items, Item{
			ProductID: l.ProductID,
			SKU:       l.SKU,
			Name:      l.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.DiscountedPrice,
		})
	}
	return d, nil
}
