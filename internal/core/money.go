// Package core holds the transaction domain: records, filters, sorting and
// the dashboard summary.
//
// Amounts are float64 on the wire and in storage; sums are accumulated with
// shopspring/decimal.
package core

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

var errNotANumber = errors.New("not a finite number")

// ParseAmount parses a signed decimal string. Surrounding spaces are ignored;
// NaN and infinities are rejected.
//
// Examples:
//
//	ParseAmount("12.5")  -> 12.5, nil
//	ParseAmount(" -40 ") -> -40, nil
//	ParseAmount("abc")   -> 0, error
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errNotANumber
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errNotANumber
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errNotANumber
	}
	return f, nil
}

// FormatAmount renders an amount with the shortest representation that round-trips.
func FormatAmount(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
