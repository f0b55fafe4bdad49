package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"findash/internal/core"
	"findash/internal/export"
	"findash/internal/store"
)

// Page is one slice of a filtered, sorted listing.
type Page struct {
	Data  []core.Transaction `json:"data"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Pages int                `json:"pages"`
}

// TransactionService serves the dashboard read paths: listing, summary and export.
type TransactionService struct {
	store  store.TransactionReader
	logger *slog.Logger
}

func NewTransactionService(s store.TransactionReader, logger *slog.Logger) *TransactionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TransactionService{store: s, logger: logger}
}

// List runs the page query and the count query concurrently. Both read
// whatever the store holds at the time, so a concurrent import can make
// Total disagree with Data.
func (s *TransactionService) List(ctx context.Context, f core.Filter, srt core.Sort, p core.PageRequest) (Page, error) {
	var (
		data  []core.Transaction
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		data, err = s.store.Find(gctx, f, srt, p.Skip(), p.Limit)
		if err != nil {
			return storeError("find transactions", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		total, err = s.store.Count(gctx, f)
		if err != nil {
			return storeError("count transactions", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Page{}, err
	}

	if data == nil {
		data = []core.Transaction{}
	}
	return Page{
		Data:  data,
		Total: total,
		Page:  p.Page,
		Pages: p.Pages(total),
	}, nil
}

// Summary aggregates every stored transaction, ignoring any filter.
func (s *TransactionService) Summary(ctx context.Context) (core.Summary, error) {
	txs, err := s.store.All(ctx)
	if err != nil {
		return core.Summary{}, storeError("load transactions", err)
	}
	return core.Summarize(txs), nil
}

// Export renders every transaction matching f, in srt order, restricted to
// columns. The whole document is built in memory before it is returned.
func (s *TransactionService) Export(ctx context.Context, f core.Filter, srt core.Sort, columns []string, format export.Format) ([]byte, error) {
	txs, err := s.store.Find(ctx, f, srt, 0, 0)
	if err != nil {
		return nil, storeError("find transactions", err)
	}
	var buf bytes.Buffer
	if err := format.Write(&buf, columns, txs); err != nil {
		return nil, fmt.Errorf("render %s export: %w", format, err)
	}
	s.logger.InfoContext(ctx, "Transactions exported",
		"format", string(format),
		"rows", len(txs),
		"columns", len(columns),
		"bytes", buf.Len())
	return buf.Bytes(), nil
}

func storeError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, core.ErrStoreUnavailable, err)
}
