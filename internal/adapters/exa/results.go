package exa

import (
	"encoding/json"
	"fmt"
	"strings"

	"equitydesk/internal/domain/news"
	"equitydesk/pkg/errors"
)

const maxSummaryRunes = 500

// result is one Exa hit. Both the HTTP API and the MCP tool return this shape,
// with the date spelled either way.
type result struct {
	Title          *string `json:"title"`
	URL            *string `json:"url"`
	PublishedDate  *string `json:"publishedDate"`
	PublishedDate2 *string `json:"published_date"`
	Summary        *string `json:"summary"`
	Text           *string `json:"text"`
}

type searchResponse struct {
	Results []result `json:"results"`
}

// ParseResults decodes an Exa search response into normalised articles
func ParseResults(raw []byte) ([]news.Article, error) {
	var resp searchResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, errors.Wrapf(errors.ErrSearchUnavailable, "decode exa results: %v", err)
	}

	out := make([]news.Article, 0, len(resp.Results))
	for _, r := range resp.Results {
		out = append(out, r.article())
	}
	return out, nil
}

func (r result) article() news.Article {
	return news.Article{
		Title:         safe(r.Title),
		URL:           safe(r.URL),
		PublishedDate: safe(firstNonEmpty(r.PublishedDate2, r.PublishedDate)),
		Summary:       truncateRunes(safe(firstNonEmpty(r.Summary, r.Text)), maxSummaryRunes),
	}
}

func firstNonEmpty(values ...*string) *string {
	for _, v := range values {
		if v != nil && strings.TrimSpace(*v) != "" {
			return v
		}
	}
	return nil
}

func safe(v *string) string {
	if v == nil {
		return "N/A"
	}
	if s := strings.TrimSpace(*v); s != "" {
		return s
	}
	return "N/A"
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// ExtractJSON returns output from the first '{', skipping any banner a CLI prints first
func ExtractJSON(output string) ([]byte, error) {
	start := strings.IndexByte(output, '{')
	if start == -1 {
		return nil, errors.Wrap(errors.ErrSearchUnavailable, fmt.Sprintf("no JSON object in tool output %q", truncateRunes(output, 120)))
	}
	return []byte(output[start:]), nil
}
