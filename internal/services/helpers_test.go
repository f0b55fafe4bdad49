package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"findash/internal/core"
	"findash/internal/store/memory"
)

var errBackend = errors.New("connection refused")

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// scenarioTxs is the three-transaction data set used throughout the dashboard docs.
func scenarioTxs() []core.Transaction {
	return []core.Transaction{
		{ID: 1, Date: day("2024-01-05"), Amount: 100, Category: "Revenue", Status: "Paid", UserID: "user_001", UserProfile: "Alice"},
		{ID: 2, Date: day("2024-01-20"), Amount: 40, Category: "Expense", Status: "Pending", UserID: "user_002", UserProfile: "Bob"},
		{ID: 3, Date: day("2024-02-01"), Amount: 60, Category: "Revenue", Status: "Paid", UserID: "user_003", UserProfile: "Carol"},
	}
}

func seededStore(t *testing.T) *memory.Store {
	t.Helper()
	s := memory.New()
	if err := s.InsertMany(context.Background(), scenarioTxs()); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	return s
}

// failingStore fails every call with err.
type failingStore struct{ err error }

func (f failingStore) Find(context.Context, core.Filter, core.Sort, int, int) ([]core.Transaction, error) {
	return nil, f.err
}
func (f failingStore) Count(context.Context, core.Filter) (int64, error) { return 0, f.err }
func (f failingStore) All(context.Context) ([]core.Transaction, error)  { return nil, f.err }
func (f failingStore) InsertMany(context.Context, []core.Transaction) error {
	return f.err
}
func (f failingStore) DeleteAll(context.Context) error { return f.err }
func (f failingStore) CreateUser(context.Context, core.User) error {
	return f.err
}
func (f failingStore) GetUserByEmail(context.Context, string) (core.User, error) {
	return core.User{}, f.err
}
func (f failingStore) GetUserByID(context.Context, string) (core.User, error) {
	return core.User{}, f.err
}

func ids(txs []core.Transaction) []int64 {
	out := make([]int64, len(txs))
	for i, t := range txs {
		out[i] = t.ID
	}
	return out
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
