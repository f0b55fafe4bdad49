package export

import (
	"encoding/csv"
	"io"

	"findash/internal/core"
)

// WriteCSV writes a header row of column names followed by one row per
// transaction. Fields are quoted only when they need to be.
func WriteCSV(w io.Writer, columns []string, txs []core.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return serializationError(err)
	}
	row := make([]string, len(columns))
	for _, t := range txs {
		for i, c := range columns {
			row[i] = Value(t, c)
		}
		if err := cw.Write(row); err != nil {
			return serializationError(err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return serializationError(err)
	}
	return nil
}
