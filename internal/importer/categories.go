package importer

import (
	"context"
	"errors"

	"paginaflex/internal/domain/catalog"
	"paginaflex/internal/domain/imports"
)

type CategoryStore interface {
	FindTopLevelCategory(ctx context.Context, name string) (*catalog.Category, error)
	CreateCategory(ctx context.Context, c *catalog.Category) (*catalog.Category, error)
}

// CategoryImporter creates missing top-level categories. Existing ones are
// skipped, never updated.
type CategoryImporter struct {
	store CategoryStore
}

func NewCategoryImporter(store CategoryStore) *CategoryImporter {
	return &CategoryImporter{store: store}
}

func (*CategoryImporter) Kind() imports.Kind { return imports.KindCategories }

func (*CategoryImporter) RequiredColumns() []string {
	return []string{"Nombre"}
}

func (ci *CategoryImporter) ProcessRow(ctx context.Context, row Row, dryRun bool) (Action, error) {
	name := row.Value("Nombre", "")
	if name == "" {
		return "", required("Nombre")
	}

	_, err := ci.store.FindTopLevelCategory(ctx, name)
	switch {
	case err == nil:
		return ActionSkip, nil
	case !errors.Is(err, catalog.ErrCategoryNotFound):
		return "", err
	}

	if dryRun {
		return ActionCreate, nil
	}
	if _, err := ci.store.CreateCategory(ctx, &catalog.Category{Name: name, IsActive: true}); err != nil {
		return "", err
	}
	return ActionCreate, nil
}
