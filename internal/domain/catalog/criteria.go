package catalog

import (
	"fmt"
	"strings"
)

// AttributeFilter restricts products to those whose value for the named
// attribute is one of Values.
type AttributeFilter struct {
	Name   string
	Values []string
}

// Criteria is a resolved product filter. The zero value matches every
// active product.
type Criteria struct {
	Search string
	// CategoryIDs is the category scope; nil means no scope.
	CategoryIDs []int64
	Filters     [LegacyFilterSlots]string
	Attributes  []AttributeFilter
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// where renders the criteria as a SQL condition over products aliased p.
// Placeholders start at $argIndex. Attribute and category conditions are
// EXISTS subqueries so a product is never returned twice.
func (c Criteria) where(argIndex int) (string, []any) {
	conds := []string{"p.is_active"}
	var args []any

	next := func(v any) string {
		args = append(args, v)
		ph := fmt.Sprintf("$%d", argIndex)
		argIndex++
		return ph
	}

	if s := strings.TrimSpace(c.Search); s != "" {
		ph := next("%" + likeEscaper.Replace(s) + "%")
		conds = append(conds, fmt.Sprintf(
			"(p.name ILIKE %[1]s OR p.sku ILIKE %[1]s OR p.description ILIKE %[1]s)", ph))
	}

	if c.CategoryIDs != nil {
		conds = append(conds, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM product_categories pc WHERE pc.product_id = p.id AND pc.category_id = ANY(%s))",
			next(c.CategoryIDs)))
	}

	for i, v := range c.Filters {
		if v == "" {
			continue
		}
		conds = append(conds, fmt.Sprintf("p.filter_%d = %s", i+1, next(v)))
	}

	for _, af := range c.Attributes {
		if len(af.Values) == 0 {
			continue
		}
		// a name no definition carries constrains nothing
		name := next(af.Name)
		values := next(af.Values)
		conds = append(conds, fmt.Sprintf(`(NOT EXISTS (SELECT 1 FROM attribute_definitions d WHERE d.name = %[1]s)
	OR EXISTS (
	SELECT 1 FROM attribute_values av
	JOIN attribute_definitions ad ON ad.id = av.definition_id
	WHERE av.product_id = p.id AND ad.name = %[1]s AND av.value = ANY(%[2]s)))`, name, values))
	}

	return strings.Join(conds, "\n  AND "), args
}
