package importer

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"1.234,56", "1234.56"},
		{"1234,56", "1234.56"},
		{"1234.56", "1234.56"},
		{"$ 10", "10"},
		{"$ 1.234.567,8", "1234567.8"},
		{" 99.999 ", "100"},
		{"0", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParsePrice(tt.raw)
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}

	ten, err := ParsePrice("$ 10")
	require.NoError(t, err)
	assert.Equal(t, "10.00", ten.StringFixed(2))

	_, err = ParsePrice("abc")
	assert.Error(t, err)

	neg, err := ParsePrice("-5,50")
	require.NoError(t, err)
	assert.True(t, neg.IsNegative())
}

func TestNormalizeDiscount(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{"0.10", 10},
		{"0,25", 25},
		{"10%", 10},
		{"10", 10},
		{"150", 100},
		{"-5", 0},
		{"", 0},
		{"mucho", 0},
		{"1", 1},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := NormalizeDiscount(tt.raw)
			assert.True(t, decimal.NewFromFloat(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestRowLookups(t *testing.T) {
	row := NewRow(2, []string{"SKU", " Nombre ", "Stock", "Descuento", ""},
		[]Cell{TextCell("A-1"), TextCell("Tornillo"), NumberCell("12.9"), TextCell("7,5%"), TextCell("ignored")})

	assert.Equal(t, "A-1", row.Value("SKU", ""))
	assert.Equal(t, "A-1", row.Value("sku", ""))
	assert.Equal(t, "Tornillo", row.Value("NOMBRE", ""))
	assert.Equal(t, "fallback", row.Value("Precio", "fallback"))
	assert.Equal(t, "Tornillo", row.FirstValue("descripcion", "nombre"))
	assert.Equal(t, []string{"SKU", " Nombre ", "Stock", "Descuento"}, row.Headers())

	stock, err := row.Int("stock", 0)
	require.NoError(t, err)
	assert.Equal(t, 12, stock)

	disc, err := row.Decimal("Descuento", decimal.Zero)
	require.NoError(t, err)
	assert.Equal(t, "7.5", disc.String())

	missing, err := row.Int("Cantidad", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, missing)
}

func TestRowNumericErrors(t *testing.T) {
	row := NewRow(7, []string{"Stock", "Descuento"}, []Cell{TextCell("doce"), TextCell("x%")})

	_, err := row.Int("Stock", 0)
	var re *RowError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "Stock", re.Column)
	assert.Equal(t, "doce", re.Value)
	assert.Contains(t, re.Message, "not a valid integer")

	_, err = row.Decimal("Descuento", decimal.Zero)
	require.ErrorAs(t, err, &re)
	assert.Contains(t, re.Message, "not a valid number")
}
