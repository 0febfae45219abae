package carts

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrItemNotFound    = errors.New("item not in cart")
	ErrInvalidQuantity = errors.New("quantity must be greater than zero")
)

// Item is one product line. UnitPrice is the list price captured when the
// product was first added.
type Item struct {
	ProductID int64           `json:"product_id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	AddedAt   time.Time       `json:"added_at"`
}

type Cart struct {
	UserID    int64     `json:"user_id"`
	Items     []Item    `json:"items"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Line is an item priced for a given client discount.
type Line struct {
	Item
	DiscountedPrice decimal.Decimal `json:"discounted_price"`
	Subtotal        decimal.Decimal `json:"subtotal"`
}

type View struct {
	Items    []Line          `json:"items"`
	Count    int             `json:"count"`
	Discount decimal.Decimal `json:"discount"`
	// Subtotal is the sum at list price, Total applies Discount.
	Subtotal decimal.Decimal `json:"subtotal"`
	Total    decimal.Decimal `json:"total"`
}

type Store interface {
	Get(ctx context.Context, userID int64) (*Cart, error)
	Save(ctx context.Context, c *Cart) error
	Clear(ctx context.Context, userID int64) error
}

func (c *Cart) Empty() bool {
	return len(c.Items) == 0
}

func (c *Cart) index(productID int64) int {
	return slices.IndexFunc(c.Items, func(it Item) bool { return it.ProductID == productID })
}

// Add puts qty units of item in the cart. Adding a product that is already
// present accumulates the quantity and keeps the original unit price.
func (c *Cart) Add(item Item, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if i := c.index(item.ProductID); i >= 0 {
		c.Items[i].Quantity += qty
		return nil
	}
	item.Quantity = qty
	if item.AddedAt.IsZero() {
		item.AddedAt = time.Now()
	}
	c.Items = append(c.Items, item)
	return nil
}

func (c *Cart) Remove(productID int64) error {
	i := c.index(productID)
	if i < 0 {
		return ErrItemNotFound
	}
	c.Items = slices.Delete(c.Items, i, i+1)
	return nil
}

// SetQuantity replaces the quantity of a line; zero or less removes it.
func (c *Cart) SetQuantity(productID int64, qty int) error {
	if qty <= 0 {
		return c.Remove(productID)
	}
	i := c.index(productID)
	if i < 0 {
		return ErrItemNotFound
	}
	c.Items[i].Quantity = qty
	return nil
}

func (c *Cart) Count() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

var hundred = decimal.NewFromInt(100)

func discounted(price, pct decimal.Decimal) decimal.Decimal {
	if !pct.IsPositive() {
		return price
	}
	return price.Sub(price.Mul(pct).Div(hundred)).Round(2)
}

// View prices every line with the client's discount percentage.
func (c *Cart) View(discount decimal.Decimal) View {
	v := View{
		Items:    make([]Line, 0, len(c.Items)),
		Count:    c.Count(),
		Discount: discount,
		Subtotal: decimal.Zero,
		Total:    decimal.Zero,
	}
	for _, it := range c.Items {
		qty := decimal.NewFromInt(int64(it.Quantity))
		price := discounted(it.UnitPrice, discount)
		line := Line{Item: it, DiscountedPrice: price, Subtotal: price.Mul(qty)}
		v.Items = append(v.Items, line)
		v.Subtotal = v.Subtotal.Add(it.UnitPrice.Mul(qty))
		v.Total = v.Total.Add(line.Subtotal)
	}
	return v
}
