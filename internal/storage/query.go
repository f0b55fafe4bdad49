package storage

import (
	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql"

	"findash/internal/core"
)

const (
	transactionsTable = "transactions"
	usersTable        = "users"
	seqColumn         = "seq"
)

var transactionColumns = []string{
	core.FieldID, core.FieldDate, core.FieldAmount, core.FieldCategory,
	core.FieldStatus, core.FieldUserID, core.FieldUserProfile,
}

var userColumns = []string{"id", "email", "password_hash", "name", "role", "created_at"}

// predicate translates f into a WHERE clause. It returns nil for an empty filter.
func predicate(f core.Filter) *sql.Predicate {
	var preds []*sql.Predicate
	if f.Status != "" {
		preds = append(preds, sql.EQ(core.FieldStatus, f.Status))
	}
	if f.Category != "" {
		preds = append(preds, sql.EQ(core.FieldCategory, f.Category))
	}
	if f.UserProfile != "" {
		preds = append(preds, sql.EQ(core.FieldUserProfile, f.UserProfile))
	}
	if f.DateFrom != nil {
		preds = append(preds, sql.GTE(core.FieldDate, f.DateFrom.UnixMilli()))
	}
	if f.DateTo != nil {
		preds = append(preds, sql.LTE(core.FieldDate, f.DateTo.UnixMilli()))
	}
	if f.AmountMin != nil {
		preds = append(preds, sql.GTE(core.FieldAmount, *f.AmountMin))
	}
	if f.AmountMax != nil {
		preds = append(preds, sql.LTE(core.FieldAmount, *f.AmountMax))
	}
	if f.Search.Active() {
		or := []*sql.Predicate{
			containsFold(core.FieldUserProfile, f.Search.Term),
			containsFold(core.FieldStatus, f.Search.Term),
			containsFold(core.FieldCategory, f.Search.Term),
		}
		if f.Search.IsNumeric {
			or = append(or, sql.EQ(core.FieldAmount, f.Search.Amount))
		}
		preds = append(preds, sql.Or(or...))
	}

	switch len(preds) {
	case 0:
		return nil
	case 1:
		return preds[0]
	default:
		return sql.And(preds...)
	}
}

func selectTransactions(f core.Filter, s core.Sort, skip, limit int) (string, []any) {
	sel := sql.Dialect(dialect.SQLite).
		Select(transactionColumns...).
		From(sql.Table(transactionsTable))
	if p := predicate(f); p != nil {
		sel.Where(p)
	}
	if core.IsSortable(s.Field) {
		if s.Desc {
			sel.OrderBy(sql.Desc(s.Field))
		} else {
			sel.OrderBy(sql.Asc(s.Field))
		}
	}
	// insertion order breaks ties and stands in when there is no sort key
	sel.OrderBy(sql.Asc(seqColumn))
	if limit > 0 {
		sel.Limit(limit)
	}
	if skip > 0 {
		if limit <= 0 {
			// SQLite requires LIMIT before OFFSET
			sel.Limit(-1)
		}
		sel.Offset(skip)
	}
	return sel.Query()
}

func countTransactions(f core.Filter) (string, []any) {
	sel := sql.Dialect(dialect.SQLite).
		Select(sql.Count("*")).
		From(sql.Table(transactionsTable))
	if p := predicate(f); p != nil {
		sel.Where(p)
	}
	return sel.Query()
}

func insertTransactions(txs []core.Transaction) (string, []any) {
	ins := sql.Dialect(dialect.SQLite).
		Insert(transactionsTable).
		Columns(transactionColumns...)
	for _, t := range txs {
		ins.Values(t.ID, t.Date.UnixMilli(), t.Amount, t.Category, t.Status, t.UserID, t.UserProfile)
	}
	return ins.Query()
}

func selectUserBy(column string, value any) (string, []any) {
	return sql.Dialect(dialect.SQLite).
		Select(userColumns...).
		From(sql.Table(usersTable)).
		Where(sql.EQ(column, value)).
		Limit(1).
		Query()
}

func insertUser(u core.User) (string, []any) {
	return sql.Dialect(dialect.SQLite).
		Insert(usersTable).
		Columns(userColumns...).
		Values(u.ID, u.Email, u.PasswordHash, u.Name, u.Role, u.CreatedAt.UnixMilli()).
		Query()
}
