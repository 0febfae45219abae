package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"paginaflex/internal/domain/catalog"
	"paginaflex/internal/domain/imports"
	"paginaflex/internal/importer/abrazadera"

	"github.com/shopspring/decimal"
)

// AbrazaderaCategory is the category every imported clamp is filed under.
const AbrazaderaCategory = "Abrazaderas"

type AbrazaderaStore interface {
	FindCategoryByName(ctx context.Context, name string) (*catalog.Category, error)
	CreateCategory(ctx context.Context, c *catalog.Category) (*catalog.Category, error)
	EnsureDefinition(ctx context.Context, d *catalog.AttributeDefinition) (*catalog.AttributeDefinition, error)
	AppendDefinitionOption(ctx context.Context, definitionID int64, value string) (bool, error)

	ProductExistsBySKU(ctx context.Context, sku string) (bool, error)
	UpsertProductBySKU(ctx context.Context, in catalog.ProductInput) (*catalog.Product, bool, error)
	AddProductCategory(ctx context.Context, productID, categoryID int64) error
	UpsertAttributeValue(ctx context.Context, productID, definitionID int64, value string) error
}

// abrazaderaDefinitions is the fixed attribute catalogue of the clamp
// category. Sort order is the filter level.
var abrazaderaDefinitions = []catalog.AttributeDefinition{
	{Name: abrazadera.AttrManufacture, Label: "Tipo de Fabricación", Kind: catalog.KindList, Options: []string{"TREFILADA", "LAMINADA"}, SortOrder: 1},
	{Name: abrazadera.AttrSize, Label: "Medida (pulgadas)", Kind: catalog.KindList, Options: []string{}, SortOrder: 2},
	{Name: abrazadera.AttrMaterial, Label: "Material", Kind: catalog.KindList, Options: []string{"ACERO", "INOX", "GALVANIZADO"}, SortOrder: 3},
	{Name: abrazadera.AttrWidth, Label: "Ancho (mm)", Kind: catalog.KindNumber, Options: []string{}, SortOrder: 4},
	{Name: abrazadera.AttrLength, Label: "Largo (mm)", Kind: catalog.KindNumber, Options: []string{}, SortOrder: 5},
	{Name: abrazadera.AttrShape, Label: "Forma", Kind: catalog.KindList, Options: []string{"CURVA", "PLANA", "SEMICURVA", "/S/CURVA"}, SortOrder: 6},
}

// AbrazaderaImporter upserts pipe clamps by code and derives their
// attributes from the free-text description. Enumerated attributes learn
// every new value they see.
type AbrazaderaImporter struct {
	store  AbrazaderaStore
	parser *abrazadera.Parser

	mu          sync.Mutex
	category    *catalog.Category
	definitions map[string]*catalog.AttributeDefinition
}

func NewAbrazaderaImporter(store AbrazaderaStore) *AbrazaderaImporter {
	return &AbrazaderaImporter{store: store, parser: abrazadera.DefaultParser}
}

func (*AbrazaderaImporter) Kind() imports.Kind { return imports.KindAbrazaderas }

func (*AbrazaderaImporter) RequiredColumns() []string {
	return []string{"codigo", "descripcion"}
}

// Prepare makes sure the clamp category and its attribute definitions
// exist. Definitions already present are left as they are.
func (ai *AbrazaderaImporter) Prepare(ctx context.Context) error {
	ai.mu.Lock()
	defer ai.mu.Unlock()
	if ai.category != nil {
		return nil
	}

	cat, err := ai.store.FindCategoryByName(ctx, AbrazaderaCategory)
	if errors.Is(err, catalog.ErrCategoryNotFound) {
		cat, err = ai.store.CreateCategory(ctx, &catalog.Category{Name: AbrazaderaCategory, IsActive: true})
	}
	if err != nil {
		return fmt.Errorf("clamp category: %w", err)
	}

	defs := make(map[string]*catalog.AttributeDefinition, len(abrazaderaDefinitions))
	for _, base := range abrazaderaDefinitions {
		d := base
		d.CategoryID = cat.ID
		d.Options = append([]string{}, base.Options...)
		d.ShowInFilters = true
		d.IsActive = true
		got, err := ai.store.EnsureDefinition(ctx, &d)
		if err != nil {
			return err
		}
		defs[got.Name] = got
	}

	ai.category = cat
	ai.definitions = defs
	return nil
}

func (ai *AbrazaderaImporter) ProcessRow(ctx context.Context, row Row, dryRun bool) (Action, error) {
	sku := row.FirstValue("codigo", "SKU", "código")
	if sku == "" {
		return "", required("codigo")
	}
	description := row.FirstValue("descripcion", "descripción", "nombre")
	if description == "" {
		return "", required("descripcion")
	}

	in := catalog.ProductInput{SKU: sku, Name: description}
	if raw := row.FirstValue("precio"); raw != "" {
		if price, err := ParsePrice(raw); err == nil {
			in.Price = &price
		}
	}
	if raw := row.FirstValue("stock"); raw != "" {
		if d, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", ".")); err == nil {
			stock := max(int(d.IntPart()), 0)
			in.Stock = &stock
		}
	}

	parsed := ai.parser.Parse(description)

	if dryRun {
		exists, err := ai.store.ProductExistsBySKU(ctx, sku)
		if err != nil {
			return "", err
		}
		return upsertAction(!exists), nil
	}

	if err := ai.Prepare(ctx); err != nil {
		return "", err
	}

	p, created, err := ai.store.UpsertProductBySKU(ctx, in)
	if err != nil {
		return "", err
	}
	if err := ai.store.AddProductCategory(ctx, p.ID, ai.category.ID); err != nil {
		return "", err
	}

	for _, base := range abrazaderaDefinitions {
		value := strings.TrimSpace(parsed.Attributes[base.Name])
		if value == "" {
			continue
		}
		if err := ai.storeAttribute(ctx, p.ID, base.Name, value); err != nil {
			return "", err
		}
	}
	return upsertAction(created), nil
}

func (ai *AbrazaderaImporter) storeAttribute(ctx context.Context, productID int64, name, value string) error {
	ai.mu.Lock()
	defer ai.mu.Unlock()

	def, ok := ai.definitions[name]
	if !ok {
		return nil
	}
	if err := ai.store.UpsertAttributeValue(ctx, productID, def.ID, value); err != nil {
		return err
	}
	if def.Kind != catalog.KindList || def.HasOption(value) {
		return nil
	}
	if _, err := ai.store.AppendDefinitionOption(ctx, def.ID, value); err != nil {
		return err
	}
	def.Options = append(def.Options, value)
	return nil
}
