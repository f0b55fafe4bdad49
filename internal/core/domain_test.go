package core

import (
	"errors"
	"math"
	"testing"
	"time"
)

func validTx(id int64) Transaction {
	return Transaction{
		ID:          id,
		Date:        time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		Amount:      100,
		Category:    CategoryRevenue,
		Status:      StatusPaid,
		UserID:      "u1",
		UserProfile: "Alice",
	}
}

func TestTransactionValidate(t *testing.T) {
	if err := validTx(1).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Transaction)
		want   error
	}{
		{"zero id", func(tx *Transaction) { tx.ID = 0 }, ErrInvalidID},
		{"zero date", func(tx *Transaction) { tx.Date = time.Time{} }, ErrEmptyDate},
		{"nan amount", func(tx *Transaction) { tx.Amount = math.NaN() }, ErrInvalidAmount},
		{"inf amount", func(tx *Transaction) { tx.Amount = math.Inf(-1) }, ErrInvalidAmount},
		{"blank category", func(tx *Transaction) { tx.Category = "  " }, ErrEmptyCategory},
		{"blank status", func(tx *Transaction) { tx.Status = "" }, ErrEmptyStatus},
		{"blank user id", func(tx *Transaction) { tx.UserID = "" }, ErrEmptyUserID},
		{"blank profile", func(tx *Transaction) { tx.UserProfile = "" }, ErrEmptyUserProfile},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tx := validTx(1)
			tc.mutate(&tx)
			if err := tx.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestTransactionValidateAllowsNegativeAndZeroAmounts(t *testing.T) {
	for _, amt := range []float64{0, -40.5} {
		tx := validTx(1)
		tx.Amount = amt
		if err := tx.Validate(); err != nil {
			t.Fatalf("amount %v: expected ok, got %v", amt, err)
		}
	}
}

func TestValidateBatch(t *testing.T) {
	if err := ValidateBatch([]Transaction{validTx(1), validTx(2)}); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	err := ValidateBatch([]Transaction{validTx(1), validTx(2), validTx(1)})
	if !errors.Is(err, ErrDuplicateTransaction) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	bad := validTx(3)
	bad.Status = ""
	if err := ValidateBatch([]Transaction{validTx(1), bad}); !errors.Is(err, ErrEmptyStatus) {
		t.Fatalf("expected empty status error, got %v", err)
	}
}

func TestUserValidate(t *testing.T) {
	if err := (User{Email: "a@b.c", PasswordHash: "x"}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (User{PasswordHash: "x"}).Validate(); !errors.Is(err, ErrEmptyEmail) {
		t.Fatalf("expected empty email, got %v", err)
	}
	if err := (User{Email: "a@b.c"}).Validate(); !errors.Is(err, ErrEmptyPasswordHash) {
		t.Fatalf("expected empty hash, got %v", err)
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Alice@Example.COM "); got != "alice@example.com" {
		t.Fatalf("got %q", got)
	}
}

func TestValidationError(t *testing.T) {
	err := invalid("dateFrom", "unrecognized date")
	if err.Error() != "dateFrom: unrecognized date" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if !IsValidation(err) {
		t.Fatalf("expected validation error")
	}
	if IsValidation(ErrStoreUnavailable) {
		t.Fatalf("store error is not a validation error")
	}
}
