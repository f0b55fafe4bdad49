package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"findash/internal/amqp"
	"findash/internal/core"
	"findash/internal/services"
)

// BatchInserter stores one validated batch.
type BatchInserter interface {
	InsertBatch(ctx context.Context, txs []core.Transaction) error
}

// ImportWorker writes queued import batches to the transaction store.
type ImportWorker struct {
	importer BatchInserter
	logger   *slog.Logger
}

func NewImportWorker(importer BatchInserter, logger *slog.Logger) *ImportWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImportWorker{importer: importer, logger: logger}
}

// HandleImportBatch processes a single import batch message from AMQP.
// Invalid batches are rejected, batches whose ids are already stored are
// dropped, and any other failure is returned so the message is redelivered.
func (w *ImportWorker) HandleImportBatch(ctx context.Context, msg *amqp.ImportBatchMessage) error {
	err := w.importer.InsertBatch(ctx, msg.Transactions)
	switch {
	case err == nil:
		w.logger.InfoContext(ctx, "Import batch stored",
			"batch_id", msg.BatchID,
			"count", len(msg.Transactions))
		return nil
	case errors.Is(err, services.ErrInvalidBatch):
		return fmt.Errorf("%w: batch %s: %w", amqp.ErrReject, msg.BatchID, err)
	case errors.Is(err, core.ErrDuplicateTransaction):
		// redelivery of an already applied batch
		w.logger.WarnContext(ctx, "Import batch already stored, skipping",
			"batch_id", msg.BatchID,
			"error", err)
		return nil
	default:
		return fmt.Errorf("store batch %s: %w", msg.BatchID, err)
	}
}
