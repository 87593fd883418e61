package news

import (
	"context"

	"equitydesk/internal/domain/news"
	"equitydesk/internal/metrics"
	"equitydesk/pkg/errors"
)

// DomainPriorityFetcher runs the domain-restricted search. It never retries.
type DomainPriorityFetcher struct {
	backend news.SearchBackend
}

func NewDomainPriorityFetcher(backend news.SearchBackend) *DomainPriorityFetcher {
	return &DomainPriorityFetcher{backend: backend}
}

// Fetch issues exactly one search restricted to q.Domains
func (f *DomainPriorityFetcher) Fetch(ctx context.Context, q news.NewsQuery) ([]news.Article, error) {
	if len(q.Domains) == 0 {
		return nil, errors.Wrap(errors.ErrInvalidInput, "priority fetch needs at least one domain")
	}
	return search(ctx, f.backend, q)
}

// FallbackBroadener decides whether priority coverage is enough and, if not,
// runs the single unrestricted search over the same window.
type FallbackBroadener struct {
	backend   news.SearchBackend
	threshold int
}

// NewFallbackBroadener clamps the threshold to at least one item
func NewFallbackBroadener(backend news.SearchBackend, threshold int) *FallbackBroadener {
	if threshold < 1 {
		threshold = 1
	}
	return &FallbackBroadener{backend: backend, threshold: threshold}
}

// Sufficient reports whether a priority result of n items skips broadening
func (b *FallbackBroadener) Sufficient(n int) bool {
	return n >= b.threshold
}

// Threshold returns the minimum number of priority items
func (b *FallbackBroadener) Threshold() int {
	return b.threshold
}

// Broaden drops the domain restriction from q and searches once
func (b *FallbackBroadener) Broaden(ctx context.Context, q news.NewsQuery) ([]news.Article, error) {
	q.Domains = nil
	return search(ctx, b.backend, q)
}

func search(ctx context.Context, backend news.SearchBackend, q news.NewsQuery) ([]news.Article, error) {
	items, err := backend.Search(ctx, q)
	metrics.RecordNewsSearch(backend.Name(), string(q.Scope()), err)
	if err != nil {
		if !errors.Is(err, errors.ErrSearchUnavailable) {
			err = errors.Join(errors.ErrSearchUnavailable, err)
		}
		return nil, errors.Wrapf(err, "%s search via %s", q.Scope(), backend.Name())
	}
	return items, nil
}

// Merge appends broadened items after priority items, drops repeated URLs
// (first occurrence wins) and caps the list at limit. Items without a URL are
// never treated as duplicates.
func Merge(priority, broadened []news.Article, limit int) []news.Article {
	out := make([]news.Article, 0, len(priority)+len(broadened))
	seen := make(map[string]bool, cap(out))
	for _, group := range [][]news.Article{priority, broadened} {
		for _, a := range group {
			if a.URL != "" && a.URL != notAvailable {
				if seen[a.URL] {
					continue
				}
				seen[a.URL] = true
			}
			out = append(out, a)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

const (
	notAvailable = "N/A"

	noteFallbackUsed    = "Priority-domain coverage was limited; broad web fallback was used."
	noteNoArticles      = "No recent news articles were returned by the news backend."
	notePriorityFailed  = "Priority-domain search failed; results come from the broad web search only."
	noteBroadenFailed   = "Broad web fallback search failed; only priority-domain results are available."
	noteSearchDataGap   = "News search was unavailable for both priority and broad queries; recent news is a data gap for this report."
	noteLowConfidenceFB = "Treat fallback news as lower reliability than priority-domain sources."
)

// Annotate labels the provenance of r and attaches data-quality notes.
// It returns a new value; item contents are left as they are.
func Annotate(r news.NewsResult) news.NewsResult {
	out := r
	out.Notes = append([]string(nil), r.Notes...)

	if r.Broadened {
		out.SourceConfidence = news.ConfidenceFallback
		out.Notes = append(out.Notes, noteFallbackUsed, noteLowConfidenceFB)
	} else {
		out.SourceConfidence = news.ConfidencePriority
	}
	if r.PriorityErr != nil {
		out.Notes = append(out.Notes, notePriorityFailed)
	}
	if len(r.Items) == 0 {
		out.Notes = append(out.Notes, noteNoArticles)
	}
	return out
}
