package catalog

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// AttributeKind is the data type of a dynamic attribute.
type AttributeKind string

const (
	KindText   AttributeKind = "texto"
	KindList   AttributeKind = "lista"
	KindNumber AttributeKind = "numero"
)

// LegacyFilterSlots is the number of flat filter_N columns on a product.
const LegacyFilterSlots = 5

type Category struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	ParentID  *int64 `json:"parent_id,omitempty"`
	SortOrder int    `json:"sort_order"`
	IsActive  bool   `json:"is_active"`
}

// CategoryWithChildren is one sidebar entry: a top-level category and its
// active subcategories.
type CategoryWithChildren struct {
	Category
	Children []Category `json:"children"`
}

// AttributeDefinition describes one dynamic attribute of a category.
// SortOrder doubles as the attribute's level for progressive disclosure.
type AttributeDefinition struct {
	ID            int64         `json:"id"`
	CategoryID    int64         `json:"category_id"`
	Name          string        `json:"name"`
	Label         string        `json:"label"`
	Kind          AttributeKind `json:"kind"`
	Options       []string      `json:"options"`
	SortOrder     int           `json:"sort_order"`
	ShowInFilters bool          `json:"show_in_filters"`
	IsActive      bool          `json:"is_active"`
}

func (d AttributeDefinition) HasOption(value string) bool {
	return slices.Contains(d.Options, value)
}

type AttributeValue struct {
	DefinitionID int64         `json:"definition_id"`
	Name         string        `json:"name"`
	Label        string        `json:"label"`
	Kind         AttributeKind `json:"kind"`
	SortOrder    int           `json:"sort_order"`
	Value        string        `json:"value"`
}

type Product struct {
	ID          int64                     `json:"id"`
	SKU         string                    `json:"sku"`
	Name        string                    `json:"name"`
	Description string                    `json:"description"`
	Price       decimal.Decimal           `json:"price"`
	Stock       int                       `json:"stock"`
	Filters     [LegacyFilterSlots]string `json:"filters"`
	ImageURL    *string                   `json:"image_url,omitempty"`
	IsActive    bool                      `json:"is_active"`
	CreatedAt   time.Time                 `json:"created_at"`
	UpdatedAt   time.Time                 `json:"updated_at"`
}

// ProductDetail is a product with its attribute values ordered by
// definition order.
type ProductDetail struct {
	Product
	CategoryIDs []int64          `json:"category_ids"`
	Attributes  []AttributeValue `json:"attributes"`
}

// ProductInput is the payload of an upsert keyed by SKU. Nil pointers keep
// the stored value on update and fall back to the column default on insert.
type ProductInput struct {
	SKU     string
	Name    string
	Price   *decimal.Decimal
	Stock   *int
	Filters *[LegacyFilterSlots]string
}

var hundred = decimal.NewFromInt(100)

// DiscountedPrice applies a client discount percentage to price.
func DiscountedPrice(price, discountPct decimal.Decimal) decimal.Decimal {
	if !discountPct.IsPositive() {
		return price
	}
	return price.Sub(price.Mul(discountPct).Div(hundred)).Round(2)
}
