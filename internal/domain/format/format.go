// Package format renders raw metric cells into the text shapes a deck
// expects. Every formatter is total: input that is not numeric falls back to
// its raw text and empty input renders as an empty string.
package format

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/okian/recapdeck/internal/domain/dataset"
)

// Formatter renders a cell.
type Formatter func(dataset.Cell) string

// Registered formatter names.
const (
	Raw          = "raw"
	Percent      = "percent"
	Truncate     = "truncate"
	RateTruncate = "rate_truncate"
	RateRound    = "rate_round"
	Compact      = "compact"
	Integer      = "integer"
)

var registry = map[string]Formatter{
	Raw:          FormatRaw,
	Percent:      FormatPercent,
	Truncate:     FormatTruncate,
	RateTruncate: FormatRateTruncate,
	RateRound:    FormatRateRound,
	Compact:      FormatCompact,
	Integer:      FormatInteger,
}

// Lookup returns the formatter registered under name. The empty name is raw.
func Lookup(name string) (Formatter, error) {
	if name == "" {
		return FormatRaw, nil
	}
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormatter, name)
	}
	return f, nil
}

// Names lists the registered formatter names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Apply formats c with the named formatter, falling back to raw for
// unknown names.
func Apply(name string, c dataset.Cell) string {
	f, err := Lookup(name)
	if err != nil {
		return FormatRaw(c)
	}
	return f(c)
}

// FormatRaw passes the value through. Numbers lose a trailing ".0".
func FormatRaw(c dataset.Cell) string {
	return c.String()
}

// FormatPercent multiplies by 100 and renders one decimal with a "%" suffix.
// A value that already ends in "%" is read back as a fraction, so formatting
// its own output is a no-op.
func FormatPercent(c dataset.Cell) string {
	f, ok := number(c)
	if !ok {
		return c.String()
	}
	return fmt.Sprintf("%.1f%%", f*100)
}

// FormatTruncate keeps two decimals without rounding and drops the leading
// zero of values below one (0.25678 -> ".25").
func FormatTruncate(c dataset.Cell) string {
	f, ok := number(c)
	if !ok {
		return c.String()
	}
	s := truncate2(f)
	if strings.HasPrefix(s, "0.") {
		s = s[1:]
	}
	return s
}

// FormatRateTruncate renders a fraction as a percentage number with two
// decimals, truncated (0.25678 -> "25.67").
func FormatRateTruncate(c dataset.Cell) string {
	f, ok := number(c)
	if !ok {
		return c.String()
	}
	return truncate2(f * 100)
}

// FormatRateRound renders a fraction as a percentage number with two
// decimals, rounded (0.25678 -> "25.68").
func FormatRateRound(c dataset.Cell) string {
	f, ok := number(c)
	if !ok {
		return c.String()
	}
	return fmt.Sprintf("%.2f", f*100)
}

// FormatCompact renders counts with MM and K suffixes.
func FormatCompact(c dataset.Cell) string {
	f, ok := number(c)
	if !ok {
		return c.String()
	}
	switch {
	case f >= 1_000_000:
		return fmt.Sprintf("%.1fMM", f/1_000_000)
	case f >= 1_000:
		return fmt.Sprintf("%.1fK", f/1_000)
	default:
		return integer(f)
	}
}

// FormatInteger drops the fractional part.
func FormatInteger(c dataset.Cell) string {
	f, ok := number(c)
	if !ok {
		return c.String()
	}
	return integer(f)
}

// number reads c as a float. Text may carry thousands separators or a
// trailing "%", which divides by 100.
func number(c dataset.Cell) (float64, bool) {
	switch c.Kind {
	case dataset.Number:
		return c.Number, !math.IsNaN(c.Number) && !math.IsInf(c.Number, 0)
	case dataset.Text:
		s := strings.ReplaceAll(strings.TrimSpace(c.Text), ",", "")
		scale := 1.0
		if strings.HasSuffix(s, "%") {
			s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
			scale = 100
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f / scale, true
	default:
		return 0, false
	}
}

// truncate2 cuts the decimal expansion after two digits. The expansion is
// taken at ten digits so binary noise such as 28.999999999999996 reads as
// 29.
func truncate2(f float64) string {
	s := strconv.FormatFloat(f, 'f', 10, 64)
	dot := strings.IndexByte(s, '.')
	if dot < 0 {
		return s + ".00"
	}
	s = s[:dot+3]
	if s == "-0.00" {
		return "0.00"
	}
	return s
}

func integer(f float64) string {
	t := math.Trunc(f)
	if t == 0 {
		return "0"
	}
	return strconv.FormatFloat(t, 'f', -1, 64)
}
