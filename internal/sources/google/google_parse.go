package google

import (
	"fmt"
	"strconv"
	"strings"

	"findash/internal/core"
)

// parseTransactions converts a values matrix (as returned by the Sheets API)
// into transactions. The first row must name the columns; their order is free.
// Rows with every cell blank are skipped.
func parseTransactions(values [][]interface{}) ([]core.Transaction, error) {
	if len(values) == 0 {
		return []core.Transaction{}, nil
	}
	headers := toStrings(values[0])
	cols := make(map[string]int, len(core.TransactionFields))
	var missing []string
	for _, field := range core.TransactionFields {
		idx := indexOf(headers, field)
		if idx == -1 {
			missing = append(missing, field)
			continue
		}
		cols[field] = idx
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("unexpected header: missing %s; got headers=%v", strings.Join(missing, ","), headers)
	}

	out := make([]core.Transaction, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		row := toStrings(values[i])
		if blank(row) {
			continue
		}
		t, err := parseRow(row, cols)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		out = append(out, t)
	}
	return out, nil
}

func parseRow(row []string, cols map[string]int) (core.Transaction, error) {
	get := func(field string) string { return safeGet(row, cols[field]) }

	id, err := strconv.ParseInt(get(core.FieldID), 10, 64)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("invalid id %q", get(core.FieldID))
	}
	date, err := core.ParseDate(get(core.FieldDate))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("invalid date %q", get(core.FieldDate))
	}
	amount, err := core.ParseAmount(normalizeAmount(get(core.FieldAmount)))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("invalid amount %q", get(core.FieldAmount))
	}
	return core.Transaction{
		ID:          id,
		Date:        date,
		Amount:      amount,
		Category:    get(core.FieldCategory),
		Status:      get(core.FieldStatus),
		UserID:      get(core.FieldUserID),
		UserProfile: get(core.FieldUserProfile),
	}, nil
}

// normalizeAmount accepts a decimal comma when no dot is present and drops
// comma thousands separators otherwise.
func normalizeAmount(s string) string {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	if strings.Contains(s, ".") {
		return strings.ReplaceAll(s, ",", "")
	}
	return strings.ReplaceAll(s, ",", ".")
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(target)) {
			return i
		}
	}
	return -1
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}

func blank(row []string) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}
	return true
}
