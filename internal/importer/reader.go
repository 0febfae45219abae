package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// File is a parsed upload ready to be previewed or executed.
type File struct {
	Name string
	Rows []Row
}

// ReadFile parses a spreadsheet (first sheet) or a UTF-8 CSV. The format is
// picked from the extension of name. Fully blank rows are dropped from both
// formats but still advance the row numbering.
func ReadFile(name string, r io.Reader) (*File, error) {
	var (
		rows []Row
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".xlsx":
		rows, err = readSpreadsheet(r)
	case ".csv":
		rows, err = readCSV(r)
	default:
		return nil, &FormatError{Ext: ext}
	}
	if err != nil {
		return nil, err
	}
	return &File{Name: filepath.Base(name), Rows: rows}, nil
}

func readSpreadsheet(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open spreadsheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}
	sheet := sheets[0]

	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(raw) == 0 {
		return nil, nil
	}

	headers := trimAll(raw[0])
	var rows []Row
	for i, values := range raw[1:] {
		number := i + 2
		cells := make([]Cell, len(values))
		for col, v := range values {
			cells[col] = spreadsheetCell(f, sheet, col+1, number, v)
		}
		row := NewRow(number, headers, cells)
		if row.Blank() {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func spreadsheetCell(f *excelize.File, sheet string, col, rowNum int, value string) Cell {
	if strings.TrimSpace(value) == "" {
		return Cell{Kind: CellEmpty}
	}
	axis, err := excelize.CoordinatesToCellName(col, rowNum)
	if err != nil {
		return TextCell(value)
	}
	typ, err := f.GetCellType(sheet, axis)
	if err != nil {
		return TextCell(value)
	}
	switch typ {
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		return NumberCell(value)
	default:
		return TextCell(value)
	}
}

func readCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(transform.NewReader(r, unicode.UTF8BOM.NewDecoder()))
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	headers := trimAll(header)

	var rows []Row
	for number := 2; ; number++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", number, err)
		}
		cells := make([]Cell, len(record))
		for i, v := range record {
			cells[i] = TextCell(v)
		}
		row := NewRow(number, headers, cells)
		if row.Blank() {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func trimAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.TrimSpace(v)
	}
	return out
}

// ValidateColumns checks that rows is not empty and that the first row
// carries every required column, ignoring case and surrounding whitespace.
func ValidateColumns(rows []Row, required []string) error {
	if len(rows) == 0 {
		return ErrEmptyFile
	}
	var missing []string
	for _, col := range required {
		if _, ok := rows[0].Cell(col); !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return &MissingColumnsError{Columns: missing}
	}
	return nil
}
