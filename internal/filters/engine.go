// Package filters narrows the catalog by search text, category, legacy
// filter slots and dynamic attributes, and decides which attribute filters
// a shopper can see next.
package filters

import (
	"context"
	"errors"
	"slices"

	"paginaflex/internal/domain/catalog"
)

type Store interface {
	CategoryScope(ctx context.Context, id int64) ([]int64, error)
	ListFilterDefinitions(ctx context.Context, categoryID int64) ([]catalog.AttributeDefinition, error)
	ListProducts(ctx context.Context, c catalog.Criteria, limit, offset int) ([]catalog.Product, int, error)
	DistinctAttributeValues(ctx context.Context, definitionID int64, c catalog.Criteria) ([]string, error)
}

// Filter is one attribute filter ready to be rendered.
type Filter struct {
	Name     string                `json:"name"`
	Label    string                `json:"label"`
	Kind     catalog.AttributeKind `json:"kind"`
	Options  []string              `json:"options"`
	Selected []string              `json:"selected"`
	Level    int                   `json:"order"`
}

type Engine struct {
	store Store
}

func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

// scope resolves the category and its active subcategories. An unknown
// category yields ok == false and no error.
func (e *Engine) scope(ctx context.Context, sel Selection) (ids []int64, ok bool, err error) {
	if sel.CategoryID == 0 {
		return nil, false, nil
	}
	ids, err = e.store.CategoryScope(ctx, sel.CategoryID)
	if errors.Is(err, catalog.ErrCategoryNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return ids, true, nil
}

// criteria builds the product filter for sel within scope. The attribute
// named exclude, if any, is left out.
func criteria(sel Selection, scope []int64, exclude string) catalog.Criteria {
	c := catalog.Criteria{
		Search:      sel.Search,
		CategoryIDs: scope,
		Filters:     sel.Filters,
	}
	names := make([]string, 0, len(sel.Attributes))
	for name := range sel.Attributes {
		if name != exclude && sel.HasSelection(name) {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	for _, name := range names {
		c.Attributes = append(c.Attributes, catalog.AttributeFilter{Name: name, Values: sel.Attributes[name]})
	}
	return c
}

// ApplyFilters turns sel into product criteria. exclude names one attribute
// whose selection must not be applied; pass "" to apply all of them.
func (e *Engine) ApplyFilters(ctx context.Context, sel Selection, exclude string) (catalog.Criteria, error) {
	ids, _, err := e.scope(ctx, sel)
	if err != nil {
		return catalog.Criteria{}, err
	}
	return criteria(sel, ids, exclude), nil
}

// Products returns one page of the products matching sel and the total.
func (e *Engine) Products(ctx context.Context, sel Selection, limit, offset int) ([]catalog.Product, int, error) {
	c, err := e.ApplyFilters(ctx, sel, "")
	if err != nil {
		return nil, 0, err
	}
	return e.store.ListProducts(ctx, c, limit, offset)
}

// VisibleFilters returns the attribute filters of the selected category that
// are unlocked by sel, each with the options still reachable. Without a
// known category there are none.
func (e *Engine) VisibleFilters(ctx context.Context, sel Selection) ([]Filter, error) {
	out := []Filter{}

	ids, ok, err := e.scope(ctx, sel)
	if err != nil || !ok {
		return out, err
	}

	defs, err := e.store.ListFilterDefinitions(ctx, sel.CategoryID)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(defs, func(a, b catalog.AttributeDefinition) int {
		return a.SortOrder - b.SortOrder
	})

	maxLevel := MaxVisibleLevel(defs, sel)
	for _, def := range defs {
		if def.SortOrder > maxLevel {
			break
		}

		// options ignore the attribute's own selection
		values, err := e.store.DistinctAttributeValues(ctx, def.ID, criteria(sel, ids, def.Name))
		if err != nil {
			return nil, err
		}
		options := availableOptions(def, values)
		if len(options) == 0 {
			continue
		}

		out = append(out, Filter{
			Name:     def.Name,
			Label:    def.Label,
			Kind:     def.Kind,
			Options:  options,
			Selected: sel.Selected(def.Name),
			Level:    def.SortOrder,
		})
	}
	return out, nil
}

// MaxVisibleLevel scans levels upward from 1. A level with any selection
// unlocks the next one; the scan stops at the first level still locked.
func MaxVisibleLevel(defs []catalog.AttributeDefinition, sel Selection) int {
	selected := map[int]bool{}
	var levels []int
	for _, d := range defs {
		if !slices.Contains(levels, d.SortOrder) {
			levels = append(levels, d.SortOrder)
		}
		if sel.HasSelection(d.Name) {
			selected[d.SortOrder] = true
		}
	}
	slices.Sort(levels)

	maxLevel := 1
	for _, level := range levels {
		if level > maxLevel {
			break
		}
		if selected[level] {
			maxLevel = max(maxLevel, level+1)
		}
	}
	return maxLevel
}

// availableOptions keeps the configured options of a list attribute that
// products still carry. Lists without configured options, and other kinds,
// use the stored values as is. The result is sorted.
func availableOptions(def catalog.AttributeDefinition, values []string) []string {
	var options []string
	if def.Kind == catalog.KindList && len(def.Options) > 0 {
		for _, o := range def.Options {
			if o != "" && slices.Contains(values, o) && !slices.Contains(options, o) {
				options = append(options, o)
			}
		}
	} else {
		for _, v := range values {
			if v != "" && !slices.Contains(options, v) {
				options = append(options, v)
			}
		}
	}
	slices.Sort(options)
	return options
}
