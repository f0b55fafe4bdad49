package sources

import (
	"context"

	"findash/internal/core"
)

// Ports for inbound import adapters.
type (
	// TransactionSource yields the full set of transactions to import.
	TransactionSource interface {
		ReadTransactions(ctx context.Context) ([]core.Transaction, error)
	}
)
