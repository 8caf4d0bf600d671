// Package dataset holds the immutable tabular model the locator scans.
package dataset

import (
	"strconv"
	"strings"
)

// Kind classifies cell content.
type Kind uint8

const (
	Empty Kind = iota
	Text
	Number
)

func (k Kind) String() string {
	switch k {
	case Text:
		return "text"
	case Number:
		return "number"
	default:
		return "empty"
	}
}

// Cell is a single scalar value of the table.
type Cell struct {
	Kind   Kind
	Text   string
	Number float64
}

// TextCell returns a text cell. Blank text yields an empty cell.
func TextCell(s string) Cell {
	if strings.TrimSpace(s) == "" {
		return Cell{}
	}
	return Cell{Kind: Text, Text: s}
}

// NumberCell returns a numeric cell.
func NumberCell(f float64) Cell {
	return Cell{Kind: Number, Number: f}
}

// ParseCell classifies raw loader output: blank is empty, anything
// strconv can read as a float is a number, the rest is text.
func ParseCell(raw string) Cell {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Cell{}
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return NumberCell(f)
	}
	return Cell{Kind: Text, Text: raw}
}

// IsEmpty reports whether the cell holds nothing.
func (c Cell) IsEmpty() bool { return c.Kind == Empty }

// String renders the raw content. Numbers use their shortest decimal form.
func (c Cell) String() string {
	switch c.Kind {
	case Text:
		return c.Text
	case Number:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	default:
		return ""
	}
}

// Float returns the numeric value of the cell, if it has one.
func (c Cell) Float() (float64, bool) {
	if c.Kind == Number {
		return c.Number, true
	}
	return 0, false
}

// Normalized is the label form used for matching.
func (c Cell) Normalized() string {
	return Normalize(c.String())
}

// Normalize trims, collapses inner whitespace and case-folds s.
func Normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
