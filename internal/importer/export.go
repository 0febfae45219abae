package importer

import (
	"encoding/csv"
	"io"
	"strconv"

	"paginaflex/internal/domain/imports"
)

// WriteErrorsCSV writes the row errors of a run as CSV with a
// "Row,Column,Value,Error" header.
func WriteErrorsCSV(w io.Writer, errs []imports.RowError) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Row", "Column", "Value", "Error"}); err != nil {
		return err
	}
	for _, e := range errs {
		if err := cw.Write([]string{strconv.Itoa(e.Row), e.Column, e.Value, e.Message}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
