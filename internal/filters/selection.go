package filters

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"paginaflex/internal/domain/catalog"
)

// Query parameter names understood by ParseSelection.
const (
	SearchParam   = "q"
	CategoryParam = "category"
	AttrPrefix    = "attr_"

	// Positional filters are read as filter_N, with filtro_N as an alias.
	filterParam      = "filter_%d"
	filterParamAlias = "filtro_%d"
)

// Selection is what a shopper has picked so far.
type Selection struct {
	Search string
	// CategoryID is 0 when no category was asked for.
	CategoryID int64
	Filters    [catalog.LegacyFilterSlots]string
	// Attributes maps an attribute name to its non-empty selected values.
	Attributes map[string][]string
}

// ParseSelection reads a selection from query parameters. Unparsable
// categories and blank values are dropped rather than rejected.
func ParseSelection(q url.Values) Selection {
	sel := Selection{
		Search:     strings.TrimSpace(q.Get(SearchParam)),
		Attributes: map[string][]string{},
	}
	if id, err := strconv.ParseInt(strings.TrimSpace(q.Get(CategoryParam)), 10, 64); err == nil && id > 0 {
		sel.CategoryID = id
	}
	for i := range sel.Filters {
		v := strings.TrimSpace(q.Get(fmt.Sprintf(filterParam, i+1)))
		if v == "" {
			v = strings.TrimSpace(q.Get(fmt.Sprintf(filterParamAlias, i+1)))
		}
		sel.Filters[i] = v
	}
	for key, values := range q {
		name, ok := strings.CutPrefix(key, AttrPrefix)
		if !ok || name == "" {
			continue
		}
		for _, v := range values {
			if v = strings.TrimSpace(v); v != "" {
				sel.Attributes[name] = append(sel.Attributes[name], v)
			}
		}
	}
	return sel
}

// Selected returns the values picked for an attribute, never nil.
func (s Selection) Selected(name string) []string {
	if v := s.Attributes[name]; len(v) > 0 {
		return v
	}
	return []string{}
}

// HasSelection reports whether at least one value is picked for name.
func (s Selection) HasSelection(name string) bool {
	return len(s.Attributes[name]) > 0
}
