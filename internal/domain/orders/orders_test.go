package orders

import (
	"testing"

	"paginaflex/internal/domain/carts"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromCart(t *testing.T) {
	c := &carts.Cart{UserID: 7}
	require.NoError(t, c.Add(carts.Item{ProductID: 1, SKU: "A1", Name: "Abrazadera", UnitPrice: decimal.NewFromInt(200)}, 3))
	require.NoError(t, c.Add(carts.Item{ProductID: 2, SKU: "T1", Name: "Tornillo", UnitPrice: decimal.RequireFromString("12.50")}, 4))

	d, err := FromCart(7, c, decimal.NewFromInt(10), "entregar por la tarde")
	require.NoError(t, err)

	assert.Equal(t, StatusPending, d.Order.Status)
	assert.Equal(t, "entregar por la tarde", d.Order.Note)
	assert.Equal(t, "650", d.Order.Subtotal.String())
	assert.Equal(t, "585", d.Order.Total.String())
	assert.Equal(t, "10", d.Order.Discount.String())

	require.Len(t, d.Items, 2)
	assert.Equal(t, "180", d.Items[0].UnitPrice.String())
	assert.Equal(t, "11.25", d.Items[1].UnitPrice.String())
	assert.Equal(t, "45", d.Items[1].Subtotal().String())
}

func TestFromCartEmpty(t *testing.T) {
	_, err := FromCart(7, &carts.Cart{UserID: 7}, decimal.Zero, "")
	assert.ErrorIs(t, err, ErrEmptyCart)

	_, err = FromCart(7, nil, decimal.Zero, "")
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{"pendiente", "confirmado", "en_proceso", "enviado", "entregado", "cancelado"} {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, Status("shipped").Valid())
	assert.False(t, Status("").Valid())
}

func TestNumberGenerator(t *testing.T) {
	g, err := NewNumberGenerator("paginaflex")
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, id := range []int64{1, 2, 3, 99, 123456} {
		n := g.Encode(id)
		assert.Regexp(t, `^PF-[A-Z2-9]{6,}$`, n)
		assert.False(t, seen[n], "duplicate number %s", n)
		seen[n] = true

		back, err := g.Decode(n)
		require.NoError(t, err)
		assert.Equal(t, id, back)
	}

	// other salts produce other numbers
	other, err := NewNumberGenerator("otro")
	require.NoError(t, err)
	assert.NotEqual(t, g.Encode(1), other.Encode(1))

	_, err = g.Decode("PF-")
	assert.ErrorIs(t, err, ErrInvalidNumber)
	_, err = g.Decode("nope!")
	assert.ErrorIs(t, err, ErrInvalidNumber)
}
