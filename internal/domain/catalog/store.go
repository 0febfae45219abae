package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"paginaflex/internal/infra/dbx"

	"github.com/jackc/pgx/v5"
)

var (
	ErrCategoryNotFound   = errors.New("category not found")
	ErrProductNotFound    = errors.New("product not found")
	ErrDefinitionNotFound = errors.New("attribute definition not found")

	QueryTimeoutDuration = 5 * time.Second
)

// Store is the data access abstraction for the catalog domain.
type Store interface {
	// Categories
	GetCategoryByID(ctx context.Context, id int64) (*Category, error)
	CategoryScope(ctx context.Context, id int64) ([]int64, error)
	FindTopLevelCategory(ctx context.Context, name string) (*Category, error)
	FindCategoryByName(ctx context.Context, name string) (*Category, error)
	CreateCategory(ctx context.Context, c *Category) (*Category, error)
	ListCategoryTree(ctx context.Context) ([]CategoryWithChildren, error)

	// Attribute definitions
	ListFilterDefinitions(ctx context.Context, categoryID int64) ([]AttributeDefinition, error)
	EnsureDefinition(ctx context.Context, d *AttributeDefinition) (*AttributeDefinition, error)
	AppendDefinitionOption(ctx context.Context, definitionID int64, value string) (bool, error)

	// Products
	CountProducts(ctx context.Context) (int, error)
	ProductExistsBySKU(ctx context.Context, sku string) (bool, error)
	UpsertProductBySKU(ctx context.Context, in ProductInput) (*Product, bool, error)
	AddProductCategory(ctx context.Context, productID, categoryID int64) error
	UpsertAttributeValue(ctx context.Context, productID, definitionID int64, value string) error
	GetProductDetail(ctx context.Context, id int64) (*ProductDetail, error)
	GetProductsByIDs(ctx context.Context, ids []int64) ([]Product, error)
	SetProductImage(ctx context.Context, id int64, url string) error

	// Filtering
	ListProducts(ctx context.Context, c Criteria, limit, offset int) ([]Product, int, error)
	DistinctAttributeValues(ctx context.Context, definitionID int64, c Criteria) ([]string, error)
}

type Repository struct {
	db dbx.Querier
}

var _ Store = (*Repository)(nil)

func NewRepository(db dbx.Querier) *Repository {
	return &Repository{db: db}
}

// ------------------------------------
// Categories
// ------------------------------------

const categoryColumns = `id, name, parent_id, sort_order, is_active`

func scanCategory(row pgx.Row) (*Category, error) {
	c := &Category{}
	if err := row.Scan(&c.ID, &c.Name, &c.ParentID, &c.SortOrder, &c.IsActive); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *Repository) GetCategoryByID(ctx context.Context, id int64) (*Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE id = $1`
	c, err := scanCategory(r.db.QueryRow(ctx, query, id))
	if err != nil && !errors.Is(err, ErrCategoryNotFound) {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return c, err
}

// CategoryScope returns the category id followed by the ids of its active
// direct subcategories. Deeper levels are not included.
func (r *Repository) CategoryScope(ctx context.Context, id int64) ([]int64, error) {
	query := `
SELECT c.id
FROM categories c
WHERE c.id = $1 OR (c.parent_id = $1 AND c.is_active)
ORDER BY (c.id <> $1), c.id`
	rows, err := r.db.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("category scope: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("category scope: %w", err)
	}
	if len(ids) == 0 || ids[0] != id {
		return nil, ErrCategoryNotFound
	}
	return ids, nil
}

func (r *Repository) FindTopLevelCategory(ctx context.Context, name string) (*Category, error) {
	query := `
SELECT ` + categoryColumns + `
FROM categories
WHERE LOWER(name) = LOWER($1) AND parent_id IS NULL
ORDER BY id
LIMIT 1`
	c, err := scanCategory(r.db.QueryRow(ctx, query, name))
	if err != nil && !errors.Is(err, ErrCategoryNotFound) {
		return nil, fmt.Errorf("find top level category: %w", err)
	}
	return c, err
}

func (r *Repository) FindCategoryByName(ctx context.Context, name string) (*Category, error) {
	query := `
SELECT ` + categoryColumns + `
FROM categories
WHERE LOWER(name) = LOWER($1)
ORDER BY parent_id NULLS FIRST, id
LIMIT 1`
	c, err := scanCategory(r.db.QueryRow(ctx, query, name))
	if err != nil && !errors.Is(err, ErrCategoryNotFound) {
		return nil, fmt.Errorf("find category: %w", err)
	}
	return c, err
}

func (r *Repository) CreateCategory(ctx context.Context, c *Category) (*Category, error) {
	query := `
INSERT INTO categories (name, parent_id, sort_order, is_active)
VALUES ($1, $2, $3, $4)
RETURNING ` + categoryColumns
	created, err := scanCategory(r.db.QueryRow(ctx, query, c.Name, c.ParentID, c.SortOrder, c.IsActive))
	if err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("create category: %w", err)
	}
	return created, nil
}

// ListCategoryTree returns active top-level categories with their active
// children, both ordered by sort order then name.
func (r *Repository) ListCategoryTree(ctx context.Context) ([]CategoryWithChildren, error) {
	query := `
SELECT ` + categoryColumns + `
FROM categories
WHERE is_active
  AND (parent_id IS NULL OR parent_id IN (SELECT id FROM categories WHERE parent_id IS NULL AND is_active))
ORDER BY sort_order, name`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list category tree: %w", err)
	}
	defer rows.Close()

	var flat []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.ParentID, &c.SortOrder, &c.IsActive); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		flat = append(flat, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return buildCategoryTree(flat), nil
}

func buildCategoryTree(flat []Category) []CategoryWithChildren {
	tree := []CategoryWithChildren{}
	index := make(map[int64]int)
	for _, c := range flat {
		if c.ParentID == nil {
			index[c.ID] = len(tree)
			tree = append(tree, CategoryWithChildren{Category: c, Children: []Category{}})
		}
	}
	for _, c := range flat {
		if c.ParentID == nil {
			continue
		}
		if i, ok := index[*c.ParentID]; ok {
			tree[i].Children = append(tree[i].Children, c)
		}
	}
	return tree
}

// ------------------------------------
// Attribute definitions
// ------------------------------------

const definitionColumns = `id, category_id, name, label, kind, options, sort_order, show_in_filters, is_active`

func scanDefinition(row pgx.Row) (*AttributeDefinition, error) {
	d := &AttributeDefinition{}
	err := row.Scan(&d.ID, &d.CategoryID, &d.Name, &d.Label, &d.Kind, &d.Options,
		&d.SortOrder, &d.ShowInFilters, &d.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDefinitionNotFound
		}
		return nil, err
	}
	if d.Options == nil {
		d.Options = []string{}
	}
	return d, nil
}

func (r *Repository) ListFilterDefinitions(ctx context.Context, categoryID int64) ([]AttributeDefinition, error) {
	query := `
SELECT ` + definitionColumns + `
FROM attribute_definitions
WHERE category_id = $1 AND is_active AND show_in_filters
ORDER BY sort_order, id`

	rows, err := r.db.Query(ctx, query, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list filter definitions: %w", err)
	}
	defer rows.Close()

	var defs []AttributeDefinition
	for rows.Next() {
		d, err := scanDefinition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan definition: %w", err)
		}
		defs = append(defs, *d)
	}
	return defs, rows.Err()
}

// EnsureDefinition returns the definition named d.Name in d.CategoryID,
// creating it from d when it does not exist yet. An existing definition is
// never modified.
func (r *Repository) EnsureDefinition(ctx context.Context, d *AttributeDefinition) (*AttributeDefinition, error) {
	options := d.Options
	if options == nil {
		options = []string{}
	}

	insert := `
INSERT INTO attribute_definitions (category_id, name, label, kind, options, sort_order, show_in_filters, is_active)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (category_id, name) DO NOTHING`
	_, err := r.db.Exec(ctx, insert, d.CategoryID, d.Name, d.Label, d.Kind, options,
		d.SortOrder, d.ShowInFilters, d.IsActive)
	if err != nil {
		return nil, fmt.Errorf("ensure definition %q: %w", d.Name, err)
	}

	query := `SELECT ` + definitionColumns + ` FROM attribute_definitions WHERE category_id = $1 AND name = $2`
	got, err := scanDefinition(r.db.QueryRow(ctx, query, d.CategoryID, d.Name))
	if err != nil {
		return nil, fmt.Errorf("load definition %q: %w", d.Name, err)
	}
	return got, nil
}

// AppendDefinitionOption adds value to the definition's option list unless
// it is already there. The row is locked for the read-modify-write so two
// concurrent imports cannot drop each other's additions. It reports whether
// the list changed.
func (r *Repository) AppendDefinitionOption(ctx context.Context, definitionID int64, value string) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var options []string
	err = tx.QueryRow(ctx,
		`SELECT options FROM attribute_definitions WHERE id = $1 FOR UPDATE`, definitionID).
		Scan(&options)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, ErrDefinitionNotFound
		}
		return false, fmt.Errorf("lock definition: %w", err)
	}

	for _, o := range options {
		if o == value {
			return false, nil
		}
	}
	options = append(options, value)

	if _, err := tx.Exec(ctx, `UPDATE attribute_definitions SET options = $2 WHERE id = $1`, definitionID, options); err != nil {
		return false, fmt.Errorf("update options: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return true, nil
}

// ------------------------------------
// Products
// ------------------------------------

const productColumns = `p.id, p.sku, p.name, p.description, p.price, p.stock,
	p.filter_1, p.filter_2, p.filter_3, p.filter_4, p.filter_5,
	p.image_url, p.is_active, p.created_at, p.updated_at`

func scanProduct(row pgx.Row, extra ...any) (*Product, error) {
	p := &Product{}
	dest := []any{&p.ID, &p.SKU, &p.Name, &p.Description, &p.Price, &p.Stock,
		&p.Filters[0], &p.Filters[1], &p.Filters[2], &p.Filters[3], &p.Filters[4],
		&p.ImageURL, &p.IsActive, &p.CreatedAt, &p.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *Repository) CountProducts(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

func (r *Repository) ProductExistsBySKU(ctx context.Context, sku string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM products WHERE sku = $1)`, sku).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("product exists: %w", err)
	}
	return exists, nil
}

// UpsertProductBySKU inserts or updates the product identified by in.SKU and
// reports whether a new row was created.
func (r *Repository) UpsertProductBySKU(ctx context.Context, in ProductInput) (*Product, bool, error) {
	var filters [LegacyFilterSlots]string
	setFilters := in.Filters != nil
	if setFilters {
		filters = *in.Filters
	}

	query := `
INSERT INTO products AS p (sku, name, price, stock, filter_1, filter_2, filter_3, filter_4, filter_5)
VALUES ($1, $2, COALESCE($3::numeric, 0), COALESCE($4::integer, 0), $5, $6, $7, $8, $9)
ON CONFLICT (sku) DO UPDATE SET
	name       = EXCLUDED.name,
	price      = COALESCE($3::numeric, p.price),
	stock      = COALESCE($4::integer, p.stock),
	filter_1   = CASE WHEN $10 THEN EXCLUDED.filter_1 ELSE p.filter_1 END,
	filter_2   = CASE WHEN $10 THEN EXCLUDED.filter_2 ELSE p.filter_2 END,
	filter_3   = CASE WHEN $10 THEN EXCLUDED.filter_3 ELSE p.filter_3 END,
	filter_4   = CASE WHEN $10 THEN EXCLUDED.filter_4 ELSE p.filter_4 END,
	filter_5   = CASE WHEN $10 THEN EXCLUDED.filter_5 ELSE p.filter_5 END,
	updated_at = now()
RETURNING ` + productColumns + `, (xmax = 0) AS inserted`

	var inserted bool
	p, err := scanProduct(r.db.QueryRow(ctx, query,
		in.SKU, in.Name, in.Price, in.Stock,
		filters[0], filters[1], filters[2], filters[3], filters[4],
		setFilters,
	), &inserted)
	if err != nil {
		return nil, false, fmt.Errorf("upsert product %q: %w", in.SKU, err)
	}
	return p, inserted, nil
}

func (r *Repository) AddProductCategory(ctx context.Context, productID, categoryID int64) error {
	_, err := r.db.Exec(ctx, `
INSERT INTO product_categories (product_id, category_id)
VALUES ($1, $2)
ON CONFLICT DO NOTHING`, productID, categoryID)
	if err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("add product category: %w", err)
	}
	return nil
}

func (r *Repository) UpsertAttributeValue(ctx context.Context, productID, definitionID int64, value string) error {
	_, err := r.db.Exec(ctx, `
INSERT INTO attribute_values (product_id, definition_id, value)
VALUES ($1, $2, $3)
ON CONFLICT (product_id, definition_id) DO UPDATE SET value = EXCLUDED.value`,
		productID, definitionID, value)
	if err != nil {
		return fmt.Errorf("upsert attribute value: %w", err)
	}
	return nil
}

func (r *Repository) GetProductDetail(ctx context.Context, id int64) (*ProductDetail, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := `SELECT ` + productColumns + ` FROM products p WHERE p.id = $1`
	p, err := scanProduct(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	detail := &ProductDetail{Product: *p, CategoryIDs: []int64{}, Attributes: []AttributeValue{}}

	rows, err := r.db.Query(ctx, `SELECT category_id FROM product_categories WHERE product_id = $1 ORDER BY category_id`, id)
	if err != nil {
		return nil, fmt.Errorf("product categories: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("product categories: %w", err)
	}
	detail.CategoryIDs = append(detail.CategoryIDs, ids...)

	rows, err = r.db.Query(ctx, `
SELECT ad.id, ad.name, ad.label, ad.kind, ad.sort_order, av.value
FROM attribute_values av
JOIN attribute_definitions ad ON ad.id = av.definition_id
WHERE av.product_id = $1
ORDER BY ad.sort_order, ad.id`, id)
	if err != nil {
		return nil, fmt.Errorf("product attributes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var v AttributeValue
		if err := rows.Scan(&v.DefinitionID, &v.Name, &v.Label, &v.Kind, &v.SortOrder, &v.Value); err != nil {
			return nil, fmt.Errorf("scan attribute: %w", err)
		}
		detail.Attributes = append(detail.Attributes, v)
	}
	return detail, rows.Err()
}

func (r *Repository) GetProductsByIDs(ctx context.Context, ids []int64) ([]Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + productColumns + ` FROM products p WHERE p.id = ANY($1) ORDER BY p.id`
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *Repository) SetProductImage(ctx context.Context, id int64, url string) error {
	tag, err := r.db.Exec(ctx, `UPDATE products SET image_url = $2, updated_at = now() WHERE id = $1`, id, url)
	if err != nil {
		return fmt.Errorf("set product image: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

// ------------------------------------
// Filtering
// ------------------------------------

// ListProducts returns one page of products matching c, ordered by name,
// along with the total number of matches.
func (r *Repository) ListProducts(ctx context.Context, c Criteria, limit, offset int) ([]Product, int, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	where, args := c.where(1)

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products p WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}
	if total == 0 {
		return []Product{}, 0, nil
	}

	query := fmt.Sprintf(`
SELECT %s
FROM products p
WHERE %s
ORDER BY p.name, p.id
LIMIT $%d OFFSET $%d`, productColumns, where, len(args)+1, len(args)+2)

	rows, err := r.db.Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows error: %w", err)
	}
	return products, total, nil
}

// DistinctAttributeValues returns the distinct non-empty values that the
// products matching c hold for the given definition.
func (r *Repository) DistinctAttributeValues(ctx context.Context, definitionID int64, c Criteria) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	where, args := c.where(2)
	query := `
SELECT DISTINCT v.value
FROM attribute_values v
WHERE v.definition_id = $1
  AND v.value <> ''
  AND v.product_id IN (SELECT p.id FROM products p WHERE ` + where + `)
ORDER BY v.value`

	rows, err := r.db.Query(ctx, query, append([]any{definitionID}, args...)...)
	if err != nil {
		return nil, fmt.Errorf("distinct attribute values: %w", err)
	}
	values, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("distinct attribute values: %w", err)
	}
	return values, nil
}
