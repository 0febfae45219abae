package importer

import (
	"context"
	"fmt"

	"paginaflex/internal/domain/catalog"
	"paginaflex/internal/domain/imports"
)

type ProductStore interface {
	ProductExistsBySKU(ctx context.Context, sku string) (bool, error)
	UpsertProductBySKU(ctx context.Context, in catalog.ProductInput) (*catalog.Product, bool, error)
}

// ProductImporter upserts products by SKU, including the five flat filter
// columns.
type ProductImporter struct {
	store ProductStore
}

func NewProductImporter(store ProductStore) *ProductImporter {
	return &ProductImporter{store: store}
}

func (*ProductImporter) Kind() imports.Kind { return imports.KindProducts }

func (*ProductImporter) RequiredColumns() []string {
	return []string{"SKU", "Nombre", "Precio"}
}

func (pi *ProductImporter) ProcessRow(ctx context.Context, row Row, dryRun bool) (Action, error) {
	sku := row.Value("SKU", "")
	if sku == "" {
		return "", required("SKU")
	}
	name := row.Value("Nombre", "")
	if name == "" {
		return "", required("Nombre")
	}

	rawPrice := row.Value("Precio", "")
	if rawPrice == "" {
		return "", required("Precio")
	}
	price, err := ParsePrice(rawPrice)
	if err != nil {
		return "", rowErrorf("Precio", rawPrice, "invalid price: %s", rawPrice)
	}
	if price.IsNegative() {
		return "", rowErrorf("Precio", rawPrice, "price must be zero or greater")
	}

	stock, err := row.Int("Stock", 0)
	if err != nil {
		return "", err
	}
	stock = max(stock, 0)

	var filters [catalog.LegacyFilterSlots]string
	for i := range filters {
		filters[i] = row.Value(fmt.Sprintf("filtro_%d", i+1), "")
	}

	if dryRun {
		exists, err := pi.store.ProductExistsBySKU(ctx, sku)
		if err != nil {
			return "", err
		}
		return upsertAction(!exists), nil
	}

	_, created, err := pi.store.UpsertProductBySKU(ctx, catalog.ProductInput{
		SKU:     sku,
		Name:    name,
		Price:   &price,
		Stock:   &stock,
		Filters: &filters,
	})
	if err != nil {
		return "", err
	}
	return upsertAction(created), nil
}

func upsertAction(created bool) Action {
	if created {
		return ActionCreate
	}
	return ActionUpdate
}
