package core

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// Conventional category and status labels. The fields accept any string;
// only the two categories below feed the summary totals.
const (
	CategoryRevenue = "Revenue"
	CategoryExpense = "Expense"

	StatusPaid    = "Paid"
	StatusPending = "Pending"
	StatusFailed  = "Failed"

	RoleUser  = "user"
	RoleAdmin = "admin"
)

type (
	// Transaction is the single record type served by the dashboard.
	Transaction struct {
		ID          int64     `json:"id"`
		Date        time.Time `json:"date"`
		Amount      float64   `json:"amount"`
		Category    string    `json:"category"`
		Status      string    `json:"status"`
		UserID      string    `json:"user_id"`
		UserProfile string    `json:"user_profile"`
	}

	// User is an account allowed to read the dashboard.
	User struct {
		ID           string    `json:"id"`
		Email        string    `json:"email"`
		PasswordHash string    `json:"-"`
		Name         string    `json:"name"`
		Role         string    `json:"role"`
		CreatedAt    time.Time `json:"created_at"`
	}
)

var (
	ErrInvalidID         = errors.New("invalid id")
	ErrEmptyDate         = errors.New("empty date")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrEmptyCategory     = errors.New("empty category")
	ErrEmptyStatus       = errors.New("empty status")
	ErrEmptyUserID       = errors.New("empty user_id")
	ErrEmptyUserProfile  = errors.New("empty user_profile")
	ErrEmptyEmail        = errors.New("empty email")
	ErrEmptyPasswordHash = errors.New("empty password hash")
)

// Validate checks the fields required for a transaction to be imported.
func (t Transaction) Validate() error {
	if t.ID <= 0 {
		return ErrInvalidID
	}
	if t.Date.IsZero() {
		return ErrEmptyDate
	}
	if math.IsNaN(t.Amount) || math.IsInf(t.Amount, 0) {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if strings.TrimSpace(t.Status) == "" {
		return ErrEmptyStatus
	}
	if strings.TrimSpace(t.UserID) == "" {
		return ErrEmptyUserID
	}
	if strings.TrimSpace(t.UserProfile) == "" {
		return ErrEmptyUserProfile
	}
	return nil
}

// ValidateBatch validates every transaction and rejects ids repeated inside the batch.
func ValidateBatch(txs []Transaction) error {
	seen := make(map[int64]struct{}, len(txs))
	for i, t := range txs {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("transaction %d (id=%d): %w", i, t.ID, err)
		}
		if _, dup := seen[t.ID]; dup {
			return fmt.Errorf("transaction %d (id=%d): %w", i, t.ID, ErrDuplicateTransaction)
		}
		seen[t.ID] = struct{}{}
	}
	return nil
}

func (u User) Validate() error {
	if strings.TrimSpace(u.Email) == "" {
		return ErrEmptyEmail
	}
	if u.PasswordHash == "" {
		return ErrEmptyPasswordHash
	}
	return nil
}

// NormalizeEmail lower-cases and trims an email so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
