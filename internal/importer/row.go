package importer

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

type CellKind int

const (
	CellEmpty CellKind = iota
	CellText
	CellNumber
)

// Cell is one raw spreadsheet value. Text always holds the literal content,
// Number is set only for numeric cells.
type Cell struct {
	Kind   CellKind
	Text   string
	Number float64
}

func TextCell(s string) Cell {
	s = strings.TrimSpace(s)
	if s == "" {
		return Cell{Kind: CellEmpty}
	}
	return Cell{Kind: CellText, Text: s}
}

func NumberCell(raw string) Cell {
	raw = strings.TrimSpace(raw)
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return TextCell(raw)
	}
	return Cell{Kind: CellNumber, Text: raw, Number: n}
}

func (c Cell) String() string {
	return c.Text
}

func (c Cell) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case CellEmpty:
		return []byte(`""`), nil
	case CellNumber:
		return []byte(strconv.FormatFloat(c.Number, 'f', -1, 64)), nil
	default:
		return json.Marshal(c.Text)
	}
}

// Row is one data row keyed by header, in file column order. Number is the
// 1-based line in the source file, so the first data row is 2.
type Row struct {
	Number  int
	headers []string
	cells   map[string]Cell
}

func NewRow(number int, headers []string, cells []Cell) Row {
	r := Row{Number: number, cells: make(map[string]Cell, len(headers))}
	for i, h := range headers {
		if h == "" {
			continue
		}
		if _, dup := r.cells[h]; dup {
			continue
		}
		c := Cell{Kind: CellEmpty}
		if i < len(cells) {
			c = cells[i]
		}
		r.headers = append(r.headers, h)
		r.cells[h] = c
	}
	return r
}

func (r Row) Headers() []string {
	return r.headers
}

// Blank reports whether every cell of the row is empty.
func (r Row) Blank() bool {
	for _, c := range r.cells {
		if c.Kind != CellEmpty {
			return false
		}
	}
	return true
}

// Cell looks a column up by exact header first, then ignoring case and
// surrounding whitespace.
func (r Row) Cell(column string) (Cell, bool) {
	if c, ok := r.cells[column]; ok {
		return c, true
	}
	fold := cases.Fold()
	want := fold.String(strings.TrimSpace(column))
	for _, h := range r.headers {
		if fold.String(strings.TrimSpace(h)) == want {
			return r.cells[h], true
		}
	}
	return Cell{}, false
}

// MarshalJSON writes the row as an object that keeps column order and
// carries the row number under "_row".
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"_row":`)
	buf.WriteString(strconv.Itoa(r.Number))
	for _, h := range r.headers {
		key, err := json.Marshal(h)
		if err != nil {
			return nil, err
		}
		val, err := r.cells[h].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.WriteByte(',')
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
