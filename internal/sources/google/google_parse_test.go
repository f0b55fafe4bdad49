package google

import (
	"strings"
	"testing"
	"time"
)

func TestParseTransactions(t *testing.T) {
	values := [][]interface{}{
		{"ID", "Date", "Amount", "Category", "Status", "User_ID", "User_Profile", "Notes"},
		{"1", "2024-01-15T08:34:12Z", "1500.50", "Revenue", "Paid", "user_001", "Alice", "first"},
		{},
		{"", "", "", ""},
		{2.0, "2024-02-03", "-60,25", "Expense", "Pending", "user_002", "Bob"},
		{"3", "2024-03-01T10:00:00", "1,250.75", "Expense", "Failed", "user_003", "Carol"},
	}

	txs, err := parseTransactions(values)
	if err != nil {
		t.Fatalf("parse err: %v", err)
	}
	if len(txs) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(txs))
	}
	if txs[0].ID != 1 || txs[0].Amount != 1500.5 || txs[0].UserProfile != "Alice" {
		t.Errorf("unexpected first row %+v", txs[0])
	}
	if txs[1].ID != 2 || txs[1].Amount != -60.25 {
		t.Errorf("unexpected second row %+v", txs[1])
	}
	if !txs[2].Date.Equal(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)) || txs[2].Amount != 1250.75 {
		t.Errorf("unexpected third row %+v", txs[2])
	}
}

func TestParseTransactions_ColumnOrder(t *testing.T) {
	values := [][]interface{}{
		{"user_profile", "amount", "id", "status", "category", "date", "user_id"},
		{"Dana", "42", "9", "Paid", "Revenue", "2024-05-05", "user_009"},
	}
	txs, err := parseTransactions(values)
	if err != nil {
		t.Fatalf("parse err: %v", err)
	}
	if len(txs) != 1 || txs[0].ID != 9 || txs[0].UserProfile != "Dana" || txs[0].Amount != 42 {
		t.Fatalf("unexpected result %+v", txs)
	}
}

func TestParseTransactions_Errors(t *testing.T) {
	header := []interface{}{"id", "date", "amount", "category", "status", "user_id", "user_profile"}
	tests := []struct {
		name   string
		values [][]interface{}
		want   string
	}{
		{
			name:   "missing columns",
			values: [][]interface{}{{"id", "date", "amount"}},
			want:   "missing category,status,user_id,user_profile",
		},
		{
			name:   "bad id",
			values: [][]interface{}{header, {"x", "2024-01-01", "1", "Revenue", "Paid", "u", "p"}},
			want:   "row 2: invalid id",
		},
		{
			name:   "bad date",
			values: [][]interface{}{header, {"1", "01/02/2024", "1", "Revenue", "Paid", "u", "p"}},
			want:   "row 2: invalid date",
		},
		{
			name:   "bad amount",
			values: [][]interface{}{header, {"1", "2024-01-01", "ten", "Revenue", "Paid", "u", "p"}},
			want:   "row 2: invalid amount",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseTransactions(tt.values)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestParseTransactions_Empty(t *testing.T) {
	txs, err := parseTransactions(nil)
	if err != nil {
		t.Fatalf("parse err: %v", err)
	}
	if txs == nil || len(txs) != 0 {
		t.Fatalf("expected empty slice, got %#v", txs)
	}
}

func TestNormalizeAmount(t *testing.T) {
	tests := map[string]string{
		"12.5":     "12.5",
		"12,5":     "12.5",
		"1,234.50": "1234.50",
		" -40 ":    "-40",
		"1 000,25": "1000.25",
	}
	for in, want := range tests {
		if got := normalizeAmount(in); got != want {
			t.Errorf("normalizeAmount(%q) = %q, want %q", in, got, want)
		}
	}
}
