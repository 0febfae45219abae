package importer

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyFile is returned when a file has a header but no data rows.
var ErrEmptyFile = errors.New("the file is empty")

// FormatError reports a file extension no reader handles.
type FormatError struct {
	Ext string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("unsupported format %q: use .xlsx or .csv", e.Ext)
}

// MissingColumnsError names every required column absent from the header.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return "missing columns: " + strings.Join(e.Columns, ", ")
}

// RowError is a business-rule violation on a single row. It is recorded
// against the row and never aborts a run.
type RowError struct {
	Column  string
	Value   string
	Message string
}

func (e *RowError) Error() string {
	return e.Message
}

func rowErrorf(column, value, format string, args ...any) *RowError {
	return &RowError{Column: column, Value: value, Message: fmt.Sprintf(format, args...)}
}

func required(column string) *RowError {
	return rowErrorf(column, "", "%s is required", column)
}
