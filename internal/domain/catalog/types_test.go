package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCategoryTree(t *testing.T) {
	parent := func(id int64) *int64 { return &id }
	flat := []Category{
		{ID: 1, Name: "Abrazaderas", IsActive: true},
		{ID: 3, Name: "Trefiladas", ParentID: parent(1), IsActive: true},
		{ID: 2, Name: "Bulones", IsActive: true},
		{ID: 4, Name: "Laminadas", ParentID: parent(1), IsActive: true},
		// parent not in the list, e.g. inactive
		{ID: 5, Name: "Huérfana", ParentID: parent(99), IsActive: true},
	}

	tree := buildCategoryTree(flat)

	require.Len(t, tree, 2)
	assert.Equal(t, "Abrazaderas", tree[0].Name)
	require.Len(t, tree[0].Children, 2)
	assert.Equal(t, "Trefiladas", tree[0].Children[0].Name)
	assert.Equal(t, "Laminadas", tree[0].Children[1].Name)
	assert.Equal(t, "Bulones", tree[1].Name)
	assert.NotNil(t, tree[1].Children)
	assert.Empty(t, tree[1].Children)
}

func TestDiscountedPrice(t *testing.T) {
	tests := []struct {
		price, pct, want string
	}{
		{"100", "0", "100"},
		{"100", "-5", "100"},
		{"100", "15", "85"},
		{"9.99", "15", "8.49"},
		{"1234.56", "12.5", "1080.24"},
		{"50", "100", "0"},
	}
	for _, tt := range tests {
		got := DiscountedPrice(decimal.RequireFromString(tt.price), decimal.RequireFromString(tt.pct))
		assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "%s at %s%%: got %s", tt.price, tt.pct, got)
	}
}

func TestAttributeDefinitionHasOption(t *testing.T) {
	d := AttributeDefinition{Kind: KindList, Options: []string{"TREFILADA", "LAMINADA"}}
	assert.True(t, d.HasOption("LAMINADA"))
	assert.False(t, d.HasOption("laminada"))
}
