package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCriteriaWhere(t *testing.T) {
	t.Run("zero value only keeps active products", func(t *testing.T) {
		where, args := Criteria{}.where(1)
		assert.Equal(t, "p.is_active", where)
		assert.Empty(t, args)
	})

	t.Run("placeholders follow the starting index", func(t *testing.T) {
		c := Criteria{
			Search:      "50%_off",
			CategoryIDs: []int64{3, 4},
			Filters:     [LegacyFilterSlots]string{"", "ROJO"},
			Attributes: []AttributeFilter{
				{Name: "material", Values: []string{"INOX"}},
				{Name: "forma", Values: nil},
			},
		}
		where, args := c.where(2)

		require.Len(t, args, 5)
		assert.Equal(t, `%50\%\_off%`, args[0])
		assert.Equal(t, []int64{3, 4}, args[1])
		assert.Equal(t, "ROJO", args[2])
		assert.Equal(t, "material", args[3])
		assert.Equal(t, []string{"INOX"}, args[4])

		assert.Contains(t, where, "p.name ILIKE $2 OR p.sku ILIKE $2 OR p.description ILIKE $2")
		assert.Contains(t, where, "pc.category_id = ANY($3)")
		assert.Contains(t, where, "p.filter_2 = $4")
		assert.Contains(t, where, "ad.name = $5 AND av.value = ANY($6)")
		assert.Contains(t, where, "NOT EXISTS (SELECT 1 FROM attribute_definitions d WHERE d.name = $5)")
		assert.NotContains(t, where, "forma")
	})

	t.Run("empty category scope still filters", func(t *testing.T) {
		where, args := Criteria{CategoryIDs: []int64{}}.where(1)
		assert.Contains(t, where, "ANY($1)")
		assert.Len(t, args, 1)
	})
}
