package news

import (
	"context"
	"strings"

	"equitydesk/internal/domain/news"
	"equitydesk/pkg/errors"
)

// Payload is the JSON document handed to the news explorer agent
type Payload struct {
	Ticker               string                `json:"ticker"`
	CompanyName          string                `json:"company_name"`
	Market               news.Market           `json:"market"`
	LookbackDays         int                   `json:"lookback_days"`
	Query                string                `json:"query"`
	PriorityDomains      []string              `json:"priority_domains"`
	PriorityResultsCount int                   `json:"priority_results_count"`
	TotalResultsCount    int                   `json:"total_results_count"`
	FallbackUsed         bool                  `json:"fallback_used"`
	NewsBackend          string                `json:"news_backend"`
	SourceConfidence     news.SourceConfidence `json:"source_confidence"`
	Articles             []news.Article        `json:"articles"`
	DataQualityNotes     []string              `json:"data_quality_notes"`
}

// Search resolves news for the request and always returns a payload for
// search failures: when both searches fail the payload carries zero articles
// and a data-gap note instead of an error. Invalid tickers still fail.
func (r *Resolver) Search(ctx context.Context, req Request) (*Payload, error) {
	res, err := r.Resolve(ctx, req)
	switch {
	case err == nil:
	case errors.Is(err, errors.ErrSearchUnavailable) && res != nil:
		r.log.WithRun(ctx).Warnw("news search unavailable, reporting data gap", "symbol", res.Symbol, "error", err)
		res.Result = DataGap(err)
	default:
		return nil, err
	}

	result := res.Result
	notes := result.Notes
	if notes == nil {
		notes = []string{}
	}
	articles := result.Items
	if articles == nil {
		articles = []news.Article{}
	}

	return &Payload{
		Ticker:               res.Symbol,
		CompanyName:          strings.TrimSpace(req.CompanyName),
		Market:               res.Market,
		LookbackDays:         res.Lookback,
		Query:                res.Query,
		PriorityDomains:      res.Domains,
		PriorityResultsCount: result.PriorityCount,
		TotalResultsCount:    len(articles),
		FallbackUsed:         result.Broadened,
		NewsBackend:          res.Backend,
		SourceConfidence:     result.SourceConfidence,
		Articles:             articles,
		DataQualityNotes:     notes,
	}, nil
}
