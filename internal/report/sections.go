package report

import (
	"regexp"
	"strings"

	"equitydesk/pkg/templates"
)

// Recommendation fields, in report order
const (
	FieldDecision     = "Decision (Invest/Do Not Invest/Hold)"
	FieldConfidence   = "Confidence (0-100)"
	FieldTimeHorizon  = "Time Horizon View (30/90/365 days)"
	FieldBullCase     = "Bull Case"
	FieldBearCase     = "Bear Case"
	FieldKeyRisks     = "Key Risks"
	FieldRiskControls = "Risk Controls"
	FieldDataGaps     = "Data Gaps"
	FieldDisclaimer   = "Disclaimer"
)

// Fields lists every recommendation field in report order
var Fields = []string{
	FieldDecision,
	FieldConfidence,
	FieldTimeHorizon,
	FieldBullCase,
	FieldBearCase,
	FieldKeyRisks,
	FieldRiskControls,
	FieldDataGaps,
	FieldDisclaimer,
}

// Placeholder values
const (
	NotFound       = "Not found in report."
	PresentEmpty   = "Present but empty."
	RuntimeError   = "Not available due to runtime error."
	DisclaimerText = "This is informational analysis, not financial advice."

	maxErrorLength = 360
)

var aliases = map[string]string{
	"decision":          FieldDecision,
	"confidence":        FieldConfidence,
	"time horizon view": FieldTimeHorizon,
	"time horizon":      FieldTimeHorizon,
	"horizon view":      FieldTimeHorizon,
}

var (
	headingPrefix  = regexp.MustCompile(`^#+\s*`)
	numberedPrefix = regexp.MustCompile(`^\d+\.\s*`)
)

// Sections maps each field to its text
type Sections map[string]string

// Ordered returns the sections as field/value pairs in report order
func (s Sections) Ordered() [][2]string {
	out := make([][2]string, 0, len(Fields))
	for _, f := range Fields {
		out = append(out, [2]string{f, s[f]})
	}
	return out
}

// ParseSections extracts the recommendation fields from a markdown report.
// A line is a field title when, after dropping heading marks, list numbering
// and bold markers, its text (or the part before the first ':') names a field
// or alias. Text after the colon starts the section body.
// Lines before the first title are ignored.
func ParseSections(markdown string) Sections {
	sections := make(Sections, len(Fields))
	for _, f := range Fields {
		sections[f] = NotFound
	}
	if strings.TrimSpace(markdown) == "" {
		return sections
	}

	var (
		current string
		buffer  []string
	)
	flush := func() {
		if current == "" {
			return
		}
		content := strings.TrimSpace(strings.Join(buffer, "\n"))
		if content == "" {
			content = PresentEmpty
		}
		sections[current] = content
	}

	for _, line := range strings.Split(markdown, "\n") {
		line = strings.TrimRight(line, "\r")
		if field, inline, ok := lineToField(line); ok {
			flush()
			current = field
			buffer = buffer[:0]
			if inline != "" {
				buffer = append(buffer, inline)
			}
			continue
		}
		if current != "" {
			buffer = append(buffer, line)
		}
	}
	flush()

	return sections
}

func lineToField(line string) (field, inline string, ok bool) {
	text := cleanTitle(line)
	if text == "" {
		return "", "", false
	}

	candidate := text
	if left, right, found := strings.Cut(text, ":"); found {
		candidate = left
		// bold markers may wrap the title and colon: "**Confidence:** 62"
		inline = strings.TrimSpace(strings.TrimLeft(right, "* "))
	}

	normalized := strings.ToLower(strings.Trim(candidate, "*: "))
	if field, ok := lookupField(normalized); ok {
		return field, inline, true
	}
	return "", "", false
}

func cleanTitle(line string) string {
	text := strings.TrimSpace(line)
	text = headingPrefix.ReplaceAllString(text, "")
	text = numberedPrefix.ReplaceAllString(text, "")
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(text), "*"))
}

func lookupField(normalized string) (string, bool) {
	for _, f := range Fields {
		if strings.ToLower(f) == normalized {
			return f, true
		}
	}
	field, ok := aliases[normalized]
	return field, ok
}

// ErrorSections is reported when a run fails before a recommendation exists
func ErrorSections(message string) Sections {
	sections := make(Sections, len(Fields))
	for _, f := range Fields {
		sections[f] = RuntimeError
	}
	sections[FieldDataGaps] = "Run failed before recommendation generation. Error: " + CompactError(message)
	sections[FieldDisclaimer] = DisclaimerText
	return sections
}

// InProgressSections fills every field with a stage message
func InProgressSections(stage string) Sections {
	sections := make(Sections, len(Fields))
	for _, f := range Fields {
		sections[f] = stage
	}
	return sections
}

// CompactError collapses whitespace and caps the message at 360 characters
func CompactError(message string) string {
	return templates.Truncate(maxErrorLength, templates.CompactWhitespace(message))
}
