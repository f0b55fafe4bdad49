// Package jsonfile reads transactions from a JSON array file, the format
// the dashboard's seed data ships in.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"findash/internal/core"
	"findash/internal/sources"
)

var _ sources.TransactionSource = (*Source)(nil)

type Source struct {
	path string
}

func New(path string) *Source {
	return &Source{path: path}
}

// record mirrors one element of the file. Dates are kept as strings so
// zone-less timestamps and plain dates are accepted.
type record struct {
	ID          int64   `json:"id"`
	Date        string  `json:"date"`
	Amount      float64 `json:"amount"`
	Category    string  `json:"category"`
	Status      string  `json:"status"`
	UserID      string  `json:"user_id"`
	UserProfile string  `json:"user_profile"`
}

func (s *Source) ReadTransactions(ctx context.Context) ([]core.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.path, err)
	}
	defer f.Close()

	txs, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	return txs, nil
}

// Decode parses a JSON array of transactions. Records are converted as-is;
// field validation is left to the importer.
func Decode(r io.Reader) ([]core.Transaction, error) {
	var records []record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode transactions: %w", err)
	}

	out := make([]core.Transaction, 0, len(records))
	for i, rec := range records {
		t := core.Transaction{
			ID:          rec.ID,
			Amount:      rec.Amount,
			Category:    rec.Category,
			Status:      rec.Status,
			UserID:      rec.UserID,
			UserProfile: rec.UserProfile,
		}
		if rec.Date != "" {
			d, err := core.ParseDate(rec.Date)
			if err != nil {
				return nil, fmt.Errorf("record %d (id=%d): invalid date %q", i, rec.ID, rec.Date)
			}
			t.Date = d
		}
		out = append(out, t)
	}
	return out, nil
}
