package importer

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Value returns the trimmed text of column, or def when the column is
// missing or empty.
func (r Row) Value(column, def string) string {
	c, ok := r.Cell(column)
	if !ok || c.Kind == CellEmpty {
		return def
	}
	return c.Text
}

// FirstValue returns the first non-empty value among several header
// variants of the same column.
func (r Row) FirstValue(columns ...string) string {
	for _, col := range columns {
		if v := r.Value(col, ""); v != "" {
			return v
		}
	}
	return ""
}

// Decimal reads a number that may use a comma as decimal mark or carry a
// trailing percent sign. Empty cells yield def.
func (r Row) Decimal(column string, def decimal.Decimal) (decimal.Decimal, error) {
	c, ok := r.Cell(column)
	if !ok || c.Kind == CellEmpty {
		return def, nil
	}
	if c.Kind == CellNumber {
		return decimal.NewFromFloat(c.Number), nil
	}
	s := strings.NewReplacer("%", "", ",", ".").Replace(c.Text)
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return def, rowErrorf(column, c.Text, "'%s' is not a valid number in column %s", c.Text, column)
	}
	return d, nil
}

// Int reads a whole number, truncating any fractional part.
func (r Row) Int(column string, def int) (int, error) {
	c, ok := r.Cell(column)
	if !ok || c.Kind == CellEmpty {
		return def, nil
	}
	if c.Kind == CellNumber {
		return int(c.Number), nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(strings.ReplaceAll(c.Text, ",", ".")))
	if err != nil {
		return def, rowErrorf(column, c.Text, "'%s' is not a valid integer in column %s", c.Text, column)
	}
	return int(d.IntPart()), nil
}

// ParsePrice reads prices such as "1234.56", "1234,56", "$ 1.234,56".
// When both a comma and a dot appear the comma is the decimal mark and dots
// group thousands; a lone comma is also a decimal mark. The result is
// rounded to cents.
func ParsePrice(raw string) (decimal.Decimal, error) {
	s := strings.NewReplacer("$", "", " ", "").Replace(strings.TrimSpace(raw))
	switch {
	case strings.Contains(s, ",") && strings.Contains(s, "."):
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	case strings.Contains(s, ","):
		s = strings.ReplaceAll(s, ",", ".")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	return d.Round(2), nil
}

// NormalizeDiscount turns "10", "0.10" or "10%" into a percentage in
// [0, 100]. Values strictly between 0 and 1 are read as fractions.
// Unparsable input is 0.
func NormalizeDiscount(raw string) decimal.Decimal {
	s := strings.TrimSpace(strings.NewReplacer("%", "", ",", ".").Replace(raw))
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	if d.IsPositive() && d.LessThan(decimal.NewFromInt(1)) {
		d = d.Mul(decimal.NewFromInt(100))
	}
	return decimal.Max(decimal.Zero, decimal.Min(d, decimal.NewFromInt(100)))
}
