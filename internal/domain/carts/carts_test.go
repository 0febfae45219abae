package carts

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(id int64, price string) Item {
	return Item{ProductID: id, SKU: "SKU", Name: "Producto", UnitPrice: decimal.RequireFromString(price)}
}

func TestCartAddAccumulates(t *testing.T) {
	c := &Cart{UserID: 1}

	require.NoError(t, c.Add(item(10, "100"), 2))
	// price changed in the catalog since the first add
	require.NoError(t, c.Add(item(10, "150"), 3))
	require.NoError(t, c.Add(item(11, "5.50"), 1))

	require.Len(t, c.Items, 2)
	assert.Equal(t, 5, c.Items[0].Quantity)
	assert.True(t, c.Items[0].UnitPrice.Equal(decimal.NewFromInt(100)))
	assert.False(t, c.Items[0].AddedAt.IsZero())
	assert.Equal(t, 6, c.Count())

	assert.ErrorIs(t, c.Add(item(12, "1"), 0), ErrInvalidQuantity)
}

func TestCartSetQuantityAndRemove(t *testing.T) {
	c := &Cart{UserID: 1}
	require.NoError(t, c.Add(item(10, "100"), 2))
	require.NoError(t, c.Add(item(11, "10"), 1))

	require.NoError(t, c.SetQuantity(10, 7))
	assert.Equal(t, 7, c.Items[0].Quantity)

	require.NoError(t, c.SetQuantity(10, 0))
	require.Len(t, c.Items, 1)
	assert.Equal(t, int64(11), c.Items[0].ProductID)

	assert.ErrorIs(t, c.SetQuantity(99, 2), ErrItemNotFound)
	assert.ErrorIs(t, c.Remove(99), ErrItemNotFound)

	require.NoError(t, c.Remove(11))
	assert.True(t, c.Empty())
}

func TestCartView(t *testing.T) {
	c := &Cart{UserID: 1}
	require.NoError(t, c.Add(item(10, "100"), 2))
	require.NoError(t, c.Add(item(11, "9.99"), 3))

	v := c.View(decimal.NewFromInt(15))

	require.Len(t, v.Items, 2)
	assert.Equal(t, 5, v.Count)
	assert.Equal(t, "85", v.Items[0].DiscountedPrice.String())
	assert.Equal(t, "170", v.Items[0].Subtotal.String())
	assert.Equal(t, "8.49", v.Items[1].DiscountedPrice.String())
	assert.Equal(t, "25.47", v.Items[1].Subtotal.String())
	assert.Equal(t, "229.97", v.Subtotal.String())
	assert.Equal(t, "195.47", v.Total.String())

	plain := c.View(decimal.Zero)
	assert.True(t, plain.Total.Equal(plain.Subtotal))
}

func TestKey(t *testing.T) {
	assert.Equal(t, "cart:user:42", key(42))
}
