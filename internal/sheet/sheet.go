// Package sheet defines the raw tabular representation shared by the
// parser, the classifiers and the normalizer: one RawSheet per parsed
// sheet, with typed cell values keyed by normalized header.
package sheet

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Value is one non-empty cell. Genuinely empty cells are absent from the
// row map entirely, never coerced to zero.
type Value struct {
	Raw      string
	Number   float64
	IsNumber bool
}

// Row maps normalized header names to cell values.
type Row map[string]Value

// RawSheet is one parsed sheet: original headers plus rows keyed by the
// normalized header. Immutable once built.
type RawSheet struct {
	Name    string
	Headers []string
	Rows    []Row
	Grid    [][]string
}

// NormalizeHeader lower-cases and trims a header for use as a row key.
// The original header text stays available in RawSheet.Headers.
func NormalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}

// Get returns the value for a normalized header name.
func (r Row) Get(header string) (Value, bool) {
	v, ok := r[header]
	return v, ok
}

// Coerce converts a raw cell to a Value. It returns false for empty cells.
// A cell becomes numeric if, after stripping currency symbols, percent
// signs, commas and surrounding spaces, it parses as a finite number;
// otherwise it stays text.
func Coerce(raw string) (Value, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Value{}, false
	}

	v := Value{Raw: trimmed}

	if d, err := decimal.NewFromString(stripNumericNoise(trimmed)); err == nil {
		v.Number = d.InexactFloat64()
		v.IsNumber = true
	}

	return v, true
}

func stripNumericNoise(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '$', '€', '£', '¥', '%', ',', ' ':
			return -1
		}

		return r
	}, s)
}

// dateLayouts are tried in order by ParseDate. ISO first, then the common
// slash and dash forms seen in real exports.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"01/02/2006",
	"02-01-2006",
	"2006/01/02",
	"Jan 2, 2006",
	"2 Jan 2006",
	"January 2, 2006",
	"2006-01",
}

// ParseDate tries to parse a cell as a calendar date.
// Returns false for empty cells or unparseable values.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}
