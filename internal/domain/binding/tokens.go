package binding

import (
	"regexp"
	"strings"
)

var sentinelK = regexp.MustCompile(`\b[0-9]+K\b`)

// Substitute rewrites one run according to tok. value is the rule's
// formatted value and main the formatted main value of increase rules. It
// reports whether the run held a placeholder.
func Substitute(tok Token, sentinel, text, value, main string) (string, bool) {
	switch tok {
	case TokenSentinelK:
		if sentinel != "" {
			lit := sentinel + "K"
			if !strings.Contains(text, lit) {
				return text, false
			}
			return strings.ReplaceAll(text, lit, value), true
		}
		if !sentinelK.MatchString(text) {
			return text, false
		}
		return sentinelK.ReplaceAllLiteralString(text, value), true
	case TokenIncrease:
		if strings.Contains(text, IncreaseMarker) {
			if !strings.Contains(text, "#") {
				return text, false
			}
			return fillIncrease(text, value, main), true
		}
		if !strings.Contains(text, "#") {
			return text, false
		}
		return strings.ReplaceAll(text, "#", main), true
	default:
		if !strings.Contains(text, "#") {
			return text, false
		}
		return strings.ReplaceAll(text, "#", value), true
	}
}

// fillIncrease walks text once: "#%" takes the percentage and every other
// "#" the main value. Substituted text is never rescanned. The template's
// "%" is consumed, so a percentage carries exactly one sign.
func fillIncrease(text, pct, main string) string {
	if pct != "" && !strings.HasSuffix(pct, "%") {
		pct += "%"
	}
	var b strings.Builder
	b.Grow(len(text) + len(pct) + len(main))
	for i := 0; i < len(text); i++ {
		if text[i] != '#' {
			b.WriteByte(text[i])
			continue
		}
		if i+1 < len(text) && text[i+1] == '%' {
			b.WriteString(pct)
			i++
			continue
		}
		b.WriteString(main)
	}
	return b.String()
}

// Matches reports whether a paragraph's text selects r. The text is
// trimmed before matching.
func (r Rule) Matches(text string) bool {
	text = strings.TrimSpace(text)
	if r.StartsWith {
		if !strings.HasPrefix(text, r.Phrase) {
			return false
		}
	} else if !strings.Contains(text, r.Phrase) {
		return false
	}
	for _, s := range r.Require {
		if !strings.Contains(text, s) {
			return false
		}
	}
	for _, s := range r.Exclude {
		if strings.Contains(text, s) {
			return false
		}
	}
	return true
}
