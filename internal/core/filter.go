package core

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Field names shared by the query parameters, the stores and the export allow-list.
const (
	FieldID          = "id"
	FieldDate        = "date"
	FieldAmount      = "amount"
	FieldCategory    = "category"
	FieldStatus      = "status"
	FieldUserID      = "user_id"
	FieldUserProfile = "user_profile"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	maxSkip      = 1 << 31
)

// TransactionFields lists every stored field in canonical order.
var TransactionFields = []string{
	FieldID, FieldDate, FieldAmount, FieldCategory, FieldStatus, FieldUserID, FieldUserProfile,
}

// dateLayouts are tried in order when parsing dateFrom/dateTo.
var dateLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Filter is the predicate built from request parameters. It is built once per
// request by ParseFilter and passed by value; unset bounds are nil.
type Filter struct {
	Status      string
	Category    string
	UserProfile string
	DateFrom    *time.Time
	DateTo      *time.Time
	AmountMin   *float64
	AmountMax   *float64
	Search      Search
}

// Search is the free-text clause: a case-insensitive substring over
// user_profile, status and category, OR'd with an exact amount match when the
// term is numeric.
type Search struct {
	Term      string
	Amount    float64
	IsNumeric bool
}

// Active reports whether a search term was supplied.
func (s Search) Active() bool { return s.Term != "" }

// Sort is the ordering directive. An empty Field means no ordering.
type Sort struct {
	Field string
	Desc  bool
}

// PageRequest carries 1-based offset/limit pagination.
type PageRequest struct {
	Page  int
	Limit int
}

// Skip returns the number of matching records before the requested page.
func (p PageRequest) Skip() int {
	return (p.Page - 1) * p.Limit
}

// Pages returns ceil(total/limit).
func (p PageRequest) Pages(total int64) int {
	if p.Limit <= 0 {
		return 0
	}
	return int((total + int64(p.Limit) - 1) / int64(p.Limit))
}

// IsSortable reports whether field can be used as a sort key.
func IsSortable(field string) bool {
	for _, f := range TransactionFields {
		if f == field {
			return true
		}
	}
	return false
}

// ParseFilter builds the filter and sort directive from query parameters.
// Empty parameters count as not supplied. Malformed dates, amounts or sort
// directions are rejected with a *ValidationError. An unknown sortBy is
// accepted and produces no ordering.
func ParseFilter(q url.Values) (Filter, Sort, error) {
	var f Filter
	f.Status = strings.TrimSpace(q.Get("status"))
	f.Category = strings.TrimSpace(q.Get("category"))
	f.UserProfile = strings.TrimSpace(q.Get("user"))

	var err error
	if f.DateFrom, err = parseOptionalDate(q, "dateFrom"); err != nil {
		return Filter{}, Sort{}, err
	}
	if f.DateTo, err = parseOptionalDate(q, "dateTo"); err != nil {
		return Filter{}, Sort{}, err
	}
	if f.AmountMin, err = parseOptionalAmount(q, "amountMin"); err != nil {
		return Filter{}, Sort{}, err
	}
	if f.AmountMax, err = parseOptionalAmount(q, "amountMax"); err != nil {
		return Filter{}, Sort{}, err
	}

	if term := q.Get("search"); strings.TrimSpace(term) != "" {
		f.Search.Term = term
		if n, err := ParseAmount(term); err == nil {
			f.Search.Amount = n
			f.Search.IsNumeric = true
		}
	}

	s, err := parseSort(q)
	if err != nil {
		return Filter{}, Sort{}, err
	}
	return f, s, nil
}

// ParsePage reads page and limit, defaulting to 1 and 20.
func ParsePage(q url.Values) (PageRequest, error) {
	p := PageRequest{Page: DefaultPage, Limit: DefaultLimit}
	if v := strings.TrimSpace(q.Get("page")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return PageRequest{}, invalid("page", "must be an integer")
		}
		if n < 1 {
			return PageRequest{}, invalid("page", "must be at least 1")
		}
		p.Page = n
	}
	if v := strings.TrimSpace(q.Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return PageRequest{}, invalid("limit", "must be an integer")
		}
		if n < 1 {
			return PageRequest{}, invalid("limit", "must be at least 1")
		}
		p.Limit = n
	}
	if int64(p.Page-1)*int64(p.Limit) >= maxSkip {
		return PageRequest{}, invalid("page", "out of range")
	}
	return p, nil
}

func parseSort(q url.Values) (Sort, error) {
	s := Sort{Field: FieldDate, Desc: true}
	if v := strings.TrimSpace(q.Get("sortBy")); v != "" {
		s.Field = v
	}
	if !IsSortable(s.Field) {
		s.Field = ""
	}
	switch dir := strings.ToLower(strings.TrimSpace(q.Get("sortDir"))); dir {
	case "", "desc":
		s.Desc = true
	case "asc":
		s.Desc = false
	default:
		return Sort{}, invalid("sortDir", "must be asc or desc")
	}
	return s, nil
}

func parseOptionalDate(q url.Values, key string) (*time.Time, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return nil, nil
	}
	t, err := ParseDate(v)
	if err != nil {
		return nil, invalid(key, "unrecognized date "+strconv.Quote(v))
	}
	return &t, nil
}

func parseOptionalAmount(q url.Values, key string) (*float64, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return nil, nil
	}
	n, err := ParseAmount(v)
	if err != nil {
		return nil, invalid(key, "must be a number")
	}
	return &n, nil
}

// ParseDate parses RFC3339 timestamps, zone-less timestamps and plain dates.
// Values without a zone are taken as UTC.
func ParseDate(v string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, v)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// Match evaluates the filter against a single transaction.
func (f Filter) Match(t Transaction) bool {
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Category != "" && t.Category != f.Category {
		return false
	}
	if f.UserProfile != "" && t.UserProfile != f.UserProfile {
		return false
	}
	if f.DateFrom != nil && t.Date.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && t.Date.After(*f.DateTo) {
		return false
	}
	if f.AmountMin != nil && t.Amount < *f.AmountMin {
		return false
	}
	if f.AmountMax != nil && t.Amount > *f.AmountMax {
		return false
	}
	if f.Search.Active() && !f.Search.match(t) {
		return false
	}
	return true
}

func (s Search) match(t Transaction) bool {
	term := strings.ToLower(s.Term)
	for _, v := range []string{t.UserProfile, t.Status, t.Category} {
		if strings.Contains(strings.ToLower(v), term) {
			return true
		}
	}
	return s.IsNumeric && t.Amount == s.Amount
}

// SortTransactions orders txs in place. The sort is stable so records with
// equal keys keep their store order; an empty Field leaves txs untouched.
func SortTransactions(txs []Transaction, s Sort) {
	less := lessFunc(s.Field)
	if less == nil {
		return
	}
	sort.SliceStable(txs, func(i, j int) bool {
		if s.Desc {
			return less(txs[j], txs[i])
		}
		return less(txs[i], txs[j])
	})
}

func lessFunc(field string) func(a, b Transaction) bool {
	switch field {
	case FieldID:
		return func(a, b Transaction) bool { return a.ID < b.ID }
	case FieldDate:
		return func(a, b Transaction) bool { return a.Date.Before(b.Date) }
	case FieldAmount:
		return func(a, b Transaction) bool { return a.Amount < b.Amount }
	case FieldCategory:
		return func(a, b Transaction) bool { return a.Category < b.Category }
	case FieldStatus:
		return func(a, b Transaction) bool { return a.Status < b.Status }
	case FieldUserID:
		return func(a, b Transaction) bool { return a.UserID < b.UserID }
	case FieldUserProfile:
		return func(a, b Transaction) bool { return a.UserProfile < b.UserProfile }
	}
	return nil
}
