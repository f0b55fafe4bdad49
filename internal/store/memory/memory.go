// Package memory is an in-process store used for development and tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"findash/internal/core"
)

type Store struct {
	mu      sync.RWMutex
	txs     []core.Transaction
	ids     map[int64]struct{}
	users   map[string]core.User
	byEmail map[string]string
}

func New() *Store {
	return &Store{
		ids:     make(map[int64]struct{}),
		users:   make(map[string]core.User),
		byEmail: make(map[string]string),
	}
}

// Find filters, sorts and slices a snapshot of the stored transactions.
func (s *Store) Find(ctx context.Context, f core.Filter, srt core.Sort, skip, limit int) ([]core.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	matched := s.match(f)
	core.SortTransactions(matched, srt)

	if skip >= len(matched) {
		return []core.Transaction{}, nil
	}
	matched = matched[skip:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}

func (s *Store) Count(ctx context.Context, f core.Filter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, t := range s.txs {
		if f.Match(t) {
			n++
		}
	}
	return n, nil
}

func (s *Store) All(ctx context.Context) ([]core.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Transaction(nil), s.txs...), nil
}

// InsertMany appends txs, rejecting the whole batch if any id is already stored.
func (s *Store) InsertMany(ctx context.Context, txs []core.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := core.ValidateBatch(txs); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range txs {
		if _, dup := s.ids[t.ID]; dup {
			return fmt.Errorf("insert transaction %d: %w", t.ID, core.ErrDuplicateTransaction)
		}
	}
	for _, t := range txs {
		s.ids[t.ID] = struct{}{}
		s.txs = append(s.txs, t)
	}
	return nil
}

func (s *Store) DeleteAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs = nil
	s.ids = make(map[int64]struct{})
	return nil
}

func (s *Store) CreateUser(_ context.Context, u core.User) error {
	if err := u.Validate(); err != nil {
		return err
	}
	email := core.NormalizeEmail(u.Email)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[email]; ok {
		return core.ErrUserExists
	}
	u.Email = email
	s.users[u.ID] = u
	s.byEmail[email] = u.ID
	return nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[core.NormalizeEmail(email)]
	if !ok {
		return core.User{}, core.ErrUserNotFound
	}
	return s.users[id], nil
}

func (s *Store) GetUserByID(_ context.Context, id string) (core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return core.User{}, core.ErrUserNotFound
	}
	return u, nil
}

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

func (s *Store) Close() error { return nil }

func (s *Store) match(f core.Filter) []core.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Transaction, 0, len(s.txs))
	for _, t := range s.txs {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}
