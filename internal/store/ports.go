// Package store declares the persistence ports implemented by the memory,
// SQLite and MongoDB adapters.
package store

import (
	"context"

	"findash/internal/core"
)

type (
	// TransactionReader serves the dashboard read paths.
	TransactionReader interface {
		// Find returns up to limit matching transactions after skipping skip of
		// them, in s order. A limit <= 0 means no limit.
		Find(ctx context.Context, f core.Filter, s core.Sort, skip, limit int) ([]core.Transaction, error)
		// Count returns the number of transactions matching f.
		Count(ctx context.Context, f core.Filter) (int64, error)
		// All returns every stored transaction in insertion order.
		All(ctx context.Context) ([]core.Transaction, error)
	}

	// TransactionWriter is used by the import pipeline only.
	TransactionWriter interface {
		// InsertMany stores txs atomically. A duplicate id fails the whole
		// batch with core.ErrDuplicateTransaction.
		InsertMany(ctx context.Context, txs []core.Transaction) error
		DeleteAll(ctx context.Context) error
	}

	TransactionStore interface {
		TransactionReader
		TransactionWriter
	}

	UserStore interface {
		// CreateUser fails with core.ErrUserExists when the email is taken.
		CreateUser(ctx context.Context, u core.User) error
		// GetUserByEmail and GetUserByID fail with core.ErrUserNotFound.
		GetUserByEmail(ctx context.Context, email string) (core.User, error)
		GetUserByID(ctx context.Context, id string) (core.User, error)
	}

	// Pinger reports whether the underlying database is reachable.
	Pinger interface {
		Ping(ctx context.Context) error
	}

	// Store is the full set of capabilities a backend provides.
	Store interface {
		TransactionStore
		UserStore
		Pinger
		Close() error
	}
)
