package importer

import (
	"errors"

	"paginaflex/internal/domain/accounts"
	"paginaflex/internal/domain/catalog"
	"paginaflex/internal/domain/imports"

	"go.uber.org/zap"
)

var ErrUnknownKind = errors.New("unknown import kind")

// Definition describes an import kind to operators.
type Definition struct {
	Kind        imports.Kind `json:"kind"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Required    []string     `json:"required_columns"`
	Optional    []string     `json:"optional_columns"`
}

var definitions = []Definition{
	{
		Kind:        imports.KindProducts,
		Title:       "Productos",
		Description: "Products from Excel or CSV, upserted by SKU.",
		Required:    (*ProductImporter)(nil).RequiredColumns(),
		Optional:    []string{"Stock", "filtro_1", "filtro_2", "filtro_3", "filtro_4", "filtro_5"},
	},
	{
		Kind:        imports.KindClients,
		Title:       "Clientes",
		Description: "Client accounts and profiles, upserted by username.",
		Required:    (*ClientImporter)(nil).RequiredColumns(),
		Optional: []string{"Contraseña", "Email", "Contacto", "Tipo de cliente", "Provincia",
			"Domicilio", "Telefonos", "CUIT/DNI", "Descuento", "Cond.IVA"},
	},
	{
		Kind:        imports.KindCategories,
		Title:       "Categorías",
		Description: "Top-level categories. Existing names are skipped.",
		Required:    (*CategoryImporter)(nil).RequiredColumns(),
		Optional:    []string{},
	},
	{
		Kind:        imports.KindAbrazaderas,
		Title:       "Abrazaderas",
		Description: "Pipe clamps upserted by code, attributes read from the description.",
		Required:    (*AbrazaderaImporter)(nil).RequiredColumns(),
		Optional:    []string{"precio", "stock"},
	},
}

// Options tune a single run.
type Options struct {
	// UpdatePasswords lets the client import overwrite existing passwords.
	UpdatePasswords bool
}

// Registry builds pipelines for every import kind over the same stores.
type Registry struct {
	catalog  catalog.Store
	accounts accounts.Store
	logs     imports.Store
	logger   *zap.SugaredLogger
}

func NewRegistry(catalogStore catalog.Store, accountsStore accounts.Store, logs imports.Store, logger *zap.SugaredLogger) *Registry {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Registry{catalog: catalogStore, accounts: accountsStore, logs: logs, logger: logger}
}

func (r *Registry) Definitions() []Definition {
	return definitions
}

func (r *Registry) Lookup(kind string) (Definition, error) {
	for _, d := range definitions {
		if string(d.Kind) == kind {
			return d, nil
		}
	}
	return Definition{}, ErrUnknownKind
}

func (r *Registry) Pipeline(kind imports.Kind, opts Options) (*Pipeline, error) {
	var proc Processor
	switch kind {
	case imports.KindProducts:
		proc = NewProductImporter(r.catalog)
	case imports.KindClients:
		proc = NewClientImporter(r.accounts, opts.UpdatePasswords)
	case imports.KindCategories:
		proc = NewCategoryImporter(r.catalog)
	case imports.KindAbrazaderas:
		proc = NewAbrazaderaImporter(r.catalog)
	default:
		return nil, ErrUnknownKind
	}
	return New(proc, r.logs, r.logger.With("kind", kind)), nil
}
