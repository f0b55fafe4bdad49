package export

import (
	"io"

	"github.com/xuri/excelize/v2"

	"findash/internal/core"
)

const sheetName = "Transactions"

// WriteXLSX writes a single-sheet workbook: a header row, then one row per
// transaction. Ids and amounts are numeric cells; other fields are text.
func WriteXLSX(w io.Writer, columns []string, txs []core.Transaction) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return serializationError(err)
	}

	header := make([]any, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := setRow(f, 1, header); err != nil {
		return err
	}

	for r, t := range txs {
		row := make([]any, len(columns))
		for i, c := range columns {
			row[i] = cellValue(t, c)
		}
		if err := setRow(f, r+2, row); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return serializationError(err)
	}
	return nil
}

func setRow(f *excelize.File, row int, values []any) error {
	if len(values) == 0 {
		return nil
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return serializationError(err)
	}
	if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
		return serializationError(err)
	}
	return nil
}

func cellValue(t core.Transaction, column string) any {
	switch column {
	case core.FieldID:
		return t.ID
	case core.FieldAmount:
		return t.Amount
	}
	return Value(t, column)
}
