package templates

import (
	"strings"
	"text/template"
	"unicode"
)

func funcMap() template.FuncMap {
	return template.FuncMap{
		"join":     strings.Join,
		"upper":    strings.ToUpper,
		"bullets":  Bullets,
		"truncate": Truncate,
		"orNA":     OrNA,
	}
}

// CompactWhitespace collapses every run of whitespace into a single space.
func CompactWhitespace(text string) string {
	return strings.Join(strings.FieldsFunc(text, unicode.IsSpace), " ")
}

// Truncate cuts text to at most limit runes, appending "..." when it was cut.
// The ellipsis counts toward the limit.
func Truncate(limit int, text string) string {
	runes := []rune(text)
	if limit <= 0 || len(runes) <= limit {
		return text
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}

// Bullets renders items as a markdown bullet list; empty items are skipped.
func Bullets(items []string) string {
	var b strings.Builder
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- ")
		b.WriteString(item)
	}
	return b.String()
}

// OrNA returns "N/A" for blank values.
func OrNA(value string) string {
	if strings.TrimSpace(value) == "" {
		return "N/A"
	}
	return value
}
