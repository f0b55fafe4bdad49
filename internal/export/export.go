// Package export renders transactions as downloadable documents.
//
// Columns are always drawn from a fixed allow-list, in allow-list order; a
// caller can narrow the set but never widen or reorder it.
package export

import (
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"findash/internal/core"
)

// DateLayout renders dates as UTC with millisecond precision.
const DateLayout = "2006-01-02T15:04:05.000Z"

// Format selects the output document type.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat maps the format query parameter; empty means CSV.
func ParseFormat(v string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(v))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	}
	return "", &core.ValidationError{Field: "format", Reason: "must be csv or xlsx"}
}

func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}

func (f Format) Filename() string {
	if f == FormatXLSX {
		return "transactions.xlsx"
	}
	return "transactions.csv"
}

// Write renders txs in format f.
func (f Format) Write(w io.Writer, columns []string, txs []core.Transaction) error {
	if f == FormatXLSX {
		return WriteXLSX(w, columns, txs)
	}
	return WriteCSV(w, columns, txs)
}

// AllowedColumns is the full export allow-list.
func AllowedColumns() []string {
	return append([]string(nil), core.TransactionFields...)
}

// ParseColumns reads the columns parameter, a comma separated list that may
// also be repeated. A missing or blank parameter selects every allowed
// column; otherwise only the allowed columns it names are kept. Unknown names
// are dropped, so a list of only unknown names selects nothing.
func ParseColumns(q url.Values) []string {
	raw, ok := q["columns"]
	if !ok {
		return AllowedColumns()
	}
	requested := make(map[string]struct{})
	for _, v := range raw {
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				requested[name] = struct{}{}
			}
		}
	}
	if len(requested) == 0 {
		return AllowedColumns()
	}
	cols := make([]string, 0, len(requested))
	for _, c := range core.TransactionFields {
		if _, ok := requested[c]; ok {
			cols = append(cols, c)
		}
	}
	return cols
}

// Value renders one field of t as export text.
func Value(t core.Transaction, column string) string {
	switch column {
	case core.FieldID:
		return strconv.FormatInt(t.ID, 10)
	case core.FieldDate:
		return t.Date.UTC().Format(DateLayout)
	case core.FieldAmount:
		return core.FormatAmount(t.Amount)
	case core.FieldCategory:
		return t.Category
	case core.FieldStatus:
		return t.Status
	case core.FieldUserID:
		return t.UserID
	case core.FieldUserProfile:
		return t.UserProfile
	}
	return ""
}

func serializationError(err error) error {
	return fmt.Errorf("%w: %v", core.ErrSerialization, err)
}
