package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"findash/internal/core"
)

// insertChunk keeps multi-row inserts below SQLite's bound-parameter limit.
const insertChunk = 500

type SQLiteRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewSQLiteRepository(dbPath string, logger *slog.Logger) (*SQLiteRepository, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, logger: logger}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Find implements store.TransactionReader
func (r *SQLiteRepository) Find(ctx context.Context, f core.Filter, s core.Sort, skip, limit int) ([]core.Transaction, error) {
	query, args := selectTransactions(f, s, skip, limit)
	return r.queryTransactions(ctx, query, args...)
}

// Count implements store.TransactionReader
func (r *SQLiteRepository) Count(ctx context.Context, f core.Filter) (int64, error) {
	query, args := countTransactions(f)
	var n int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

// All implements store.TransactionReader
func (r *SQLiteRepository) All(ctx context.Context) ([]core.Transaction, error) {
	query, args := selectTransactions(core.Filter{}, core.Sort{}, 0, 0)
	return r.queryTransactions(ctx, query, args...)
}

// InsertMany implements store.TransactionWriter. The batch is written in a
// single database transaction.
func (r *SQLiteRepository) InsertMany(ctx context.Context, txs []core.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	if err := core.ValidateBatch(txs); err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert: %w", err)
	}
	defer tx.Rollback()

	for start := 0; start < len(txs); start += insertChunk {
		end := min(start+insertChunk, len(txs))
		query, args := insertTransactions(txs[start:end])
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			if isConstraintViolation(err) {
				return fmt.Errorf("insert transactions: %w", core.ErrDuplicateTransaction)
			}
			return fmt.Errorf("insert transactions: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert: %w", err)
	}

	r.logger.InfoContext(ctx, "Transactions saved to SQLite", "count", len(txs))
	return nil
}

// DeleteAll implements store.TransactionWriter
func (r *SQLiteRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM "+transactionsTable); err != nil {
		return fmt.Errorf("delete transactions: %w", err)
	}
	return nil
}

// CreateUser implements store.UserStore
func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) error {
	if err := u.Validate(); err != nil {
		return err
	}
	u.Email = core.NormalizeEmail(u.Email)
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	query, args := insertUser(u)
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isConstraintViolation(err) {
			return core.ErrUserExists
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetUserByEmail implements store.UserStore
func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	query, args := selectUserBy("email", core.NormalizeEmail(email))
	return r.queryUser(ctx, query, args...)
}

// GetUserByID implements store.UserStore
func (r *SQLiteRepository) GetUserByID(ctx context.Context, id string) (core.User, error) {
	query, args := selectUserBy("id", id)
	return r.queryUser(ctx, query, args...)
}

func (r *SQLiteRepository) queryTransactions(ctx context.Context, query string, args ...any) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	out := []core.Transaction{}
	for rows.Next() {
		var (
			t    core.Transaction
			date int64
		)
		if err := rows.Scan(&t.ID, &date, &t.Amount, &t.Category, &t.Status, &t.UserID, &t.UserProfile); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Date = time.UnixMilli(date).UTC()
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) queryUser(ctx context.Context, query string, args ...any) (core.User, error) {
	var (
		u         core.User
		createdAt int64
	)
	err := r.db.QueryRowContext(ctx, query, args...).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrUserNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	u.CreatedAt = time.UnixMilli(createdAt).UTC()
	return u, nil
}

func isConstraintViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return false
}
