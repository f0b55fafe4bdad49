package core

import (
	"github.com/shopspring/decimal"
)

// MonthLayout labels monthly trend buckets, e.g. "Jan 2024".
const MonthLayout = "Jan 2006"

// MonthTrend holds revenue and expense totals for one calendar month.
type MonthTrend struct {
	Month   string  `json:"month"`
	Revenue float64 `json:"revenue"`
	Expense float64 `json:"expense"`
}

// Summary is the dashboard aggregate computed over every stored transaction.
type Summary struct {
	TotalRevenue      float64            `json:"totalRevenue"`
	TotalExpenses     float64            `json:"totalExpenses"`
	Net               float64            `json:"net"`
	NumTransactions   int                `json:"numTransactions"`
	MonthlyTrend      []MonthTrend       `json:"monthlyTrend"`
	CategoryBreakdown map[string]float64 `json:"categoryBreakdown"`
}

type monthBucket struct {
	label   string
	revenue decimal.Decimal
	expense decimal.Decimal
}

// Summarize aggregates txs. Months appear in the order they are first seen in
// txs, not chronologically.
func Summarize(txs []Transaction) Summary {
	revenue := decimal.Zero
	expenses := decimal.Zero
	byCategory := make(map[string]decimal.Decimal)
	var categoryOrder []string
	var months []*monthBucket
	monthIndex := make(map[string]*monthBucket)

	for _, t := range txs {
		amt := decimal.NewFromFloat(t.Amount)

		label := t.Date.UTC().Format(MonthLayout)
		b, ok := monthIndex[label]
		if !ok {
			b = &monthBucket{label: label}
			monthIndex[label] = b
			months = append(months, b)
		}

		switch t.Category {
		case CategoryRevenue:
			revenue = revenue.Add(amt)
			b.revenue = b.revenue.Add(amt)
		case CategoryExpense:
			expenses = expenses.Add(amt)
			b.expense = b.expense.Add(amt)
		}

		if _, ok := byCategory[t.Category]; !ok {
			categoryOrder = append(categoryOrder, t.Category)
		}
		byCategory[t.Category] = byCategory[t.Category].Add(amt)
	}

	s := Summary{
		TotalRevenue:      revenue.InexactFloat64(),
		TotalExpenses:     expenses.InexactFloat64(),
		Net:               revenue.Sub(expenses).InexactFloat64(),
		NumTransactions:   len(txs),
		MonthlyTrend:      make([]MonthTrend, 0, len(months)),
		CategoryBreakdown: make(map[string]float64, len(byCategory)),
	}
	for _, b := range months {
		s.MonthlyTrend = append(s.MonthlyTrend, MonthTrend{
			Month:   b.label,
			Revenue: b.revenue.InexactFloat64(),
			Expense: b.expense.InexactFloat64(),
		})
	}
	for _, c := range categoryOrder {
		s.CategoryBreakdown[c] = byCategory[c].InexactFloat64()
	}
	return s
}
