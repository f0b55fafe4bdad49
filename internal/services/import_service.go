package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"findash/internal/amqp"
	"findash/internal/core"
	"findash/internal/sources"
	"findash/internal/store"
)

// DefaultImportBatchSize is used when ImportOptions.BatchSize is not positive.
const DefaultImportBatchSize = 500

// ErrInvalidBatch marks import input that fails validation. Retrying it cannot succeed.
var ErrInvalidBatch = errors.New("invalid import batch")

// BatchPublisher hands import batches to the queue.
type BatchPublisher interface {
	PublishImportBatch(ctx context.Context, msg *amqp.ImportBatchMessage) error
}

type ImportOptions struct {
	// Reset clears the store before anything is written.
	Reset bool
	// Queue publishes batches for the import worker instead of inserting them.
	Queue     bool
	BatchSize int
}

type ImportResult struct {
	Read      int `json:"read"`
	Inserted  int `json:"inserted"`
	Published int `json:"published"`
	Batches   int `json:"batches"`
}

// ImportService loads transactions from a source into the store, directly or
// through the queue. Batches are written one by one, so a failure part way
// leaves the earlier batches in place.
type ImportService struct {
	store     store.TransactionWriter
	publisher BatchPublisher
	logger    *slog.Logger
}

func NewImportService(w store.TransactionWriter, publisher BatchPublisher, logger *slog.Logger) *ImportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImportService{store: w, publisher: publisher, logger: logger}
}

func (s *ImportService) Import(ctx context.Context, src sources.TransactionSource, opts ImportOptions) (ImportResult, error) {
	var res ImportResult
	if opts.Queue && s.publisher == nil {
		return res, errors.New("queue import requires an AMQP publisher")
	}

	txs, err := src.ReadTransactions(ctx)
	if err != nil {
		return res, fmt.Errorf("read source: %w", err)
	}
	res.Read = len(txs)
	if err := core.ValidateBatch(txs); err != nil {
		return res, fmt.Errorf("%w: %w", ErrInvalidBatch, err)
	}

	if opts.Reset {
		if err := s.store.DeleteAll(ctx); err != nil {
			return res, storeError("reset transactions", err)
		}
		s.logger.InfoContext(ctx, "Cleared existing transactions")
	}

	for _, batch := range chunk(txs, opts.BatchSize) {
		if opts.Queue {
			msg := amqp.NewImportBatchMessage(batch)
			if err := s.publisher.PublishImportBatch(ctx, msg); err != nil {
				return res, fmt.Errorf("publish batch %d: %w", res.Batches+1, err)
			}
			res.Published += len(batch)
		} else {
			if err := s.insert(ctx, batch); err != nil {
				return res, fmt.Errorf("insert batch %d: %w", res.Batches+1, err)
			}
			res.Inserted += len(batch)
		}
		res.Batches++
	}

	s.logger.InfoContext(ctx, "Import finished",
		"read", res.Read,
		"inserted", res.Inserted,
		"published", res.Published,
		"batches", res.Batches,
		"queue", opts.Queue)
	return res, nil
}

// InsertBatch validates and stores one batch. Invalid input is reported as
// ErrInvalidBatch; ids already stored as core.ErrDuplicateTransaction.
func (s *ImportService) InsertBatch(ctx context.Context, txs []core.Transaction) error {
	if err := core.ValidateBatch(txs); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidBatch, err)
	}
	return s.insert(ctx, txs)
}

func (s *ImportService) insert(ctx context.Context, txs []core.Transaction) error {
	err := s.store.InsertMany(ctx, txs)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, core.ErrDuplicateTransaction):
		return err
	default:
		return storeError("insert transactions", err)
	}
}

func chunk(txs []core.Transaction, size int) [][]core.Transaction {
	if size <= 0 {
		size = DefaultImportBatchSize
	}
	var out [][]core.Transaction
	for start := 0; start < len(txs); start += size {
		end := min(start+size, len(txs))
		out = append(out, txs[start:end])
	}
	return out
}
