package news

import (
	"context"
	"strings"

	"equitydesk/internal/domain/news"
	"equitydesk/internal/metrics"
	"equitydesk/pkg/errors"
	"equitydesk/pkg/logger"
)

// state is a step of one resolution run
type state int

const (
	stateStart state = iota
	statePriorityFetch
	stateSufficient
	stateInsufficient
	stateBroaden
	stateDone
	stateFailed
)

func (s state) String() string {
	switch s {
	case stateStart:
		return "start"
	case statePriorityFetch:
		return "priority_fetch"
	case stateSufficient:
		return "sufficient"
	case stateInsufficient:
		return "insufficient"
	case stateBroaden:
		return "broaden"
	case stateDone:
		return "done"
	case stateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Request is one news resolution input
type Request struct {
	Ticker       news.TickerSpec
	CompanyName  string
	LookbackDays int
}

// Resolution is the outcome of Resolve, including what was asked
type Resolution struct {
	Symbol   string
	Market   news.Market
	Query    string
	Domains  news.DomainPriorityList
	Lookback int
	Backend  string
	Result   news.NewsResult
}

// Resolver runs the priority-then-fallback news search for a ticker
type Resolver struct {
	fetcher     *DomainPriorityFetcher
	broadener   *FallbackBroadener
	backendName string
	maxArticles int
	log         *logger.Logger
}

// Config tunes the resolver
type Config struct {
	MinPriorityResults int
	MaxArticles        int
}

// NewResolver builds a resolver over one search backend
func NewResolver(backend news.SearchBackend, cfg Config) *Resolver {
	if cfg.MaxArticles < 1 {
		cfg.MaxArticles = 15
	}
	return &Resolver{
		fetcher:     NewDomainPriorityFetcher(backend),
		broadener:   NewFallbackBroadener(backend, cfg.MinPriorityResults),
		backendName: backend.Name(),
		maxArticles: cfg.MaxArticles,
		log:         logger.Get().Named("news_resolver"),
	}
}

// run is the mutable state of a single Resolve call; it is never shared
type run struct {
	query       news.NewsQuery
	priority    []news.Article
	broadened   []news.Article
	priorityErr error
	broadenErr  error
	didBroaden  bool
	notes       []string
}

// Resolve localises the ticker and walks
// Start → PriorityFetch → Sufficient → Done(priority), or
// Start → PriorityFetch → Insufficient → Broaden → Done(fallback) | Failed.
// An invalid ticker fails before any search. Failed wraps ErrSearchUnavailable.
func (r *Resolver) Resolve(ctx context.Context, req Request) (*Resolution, error) {
	symbol, domains, err := news.Localize(req.Ticker)
	if err != nil {
		return nil, err
	}
	lookback := req.LookbackDays
	if lookback < 1 {
		lookback = 1
	}
	market := news.EffectiveMarket(req.Ticker.Market, symbol)

	res := &Resolution{
		Symbol:   symbol,
		Market:   market,
		Query:    QueryText(strings.TrimSpace(req.CompanyName), symbol, market),
		Domains:  domains,
		Lookback: lookback,
		Backend:  r.backendName,
	}
	log := r.log.WithRun(ctx).With("symbol", symbol)

	st := stateStart
	cur := &run{query: news.NewsQuery{
		Text:         res.Query,
		Symbol:       symbol,
		Domains:      domains,
		LookbackDays: lookback,
	}}

	for {
		log.Debugw("news resolution step", "state", st.String())

		switch st {
		case stateStart:
			st = statePriorityFetch

		case statePriorityFetch:
			items, err := r.fetcher.Fetch(ctx, cur.query)
			if err != nil {
				if ctx.Err() != nil {
					return nil, errors.Wrap(ctx.Err(), "news resolution cancelled")
				}
				log.Warnw("priority news search failed, broadening", "error", err)
				cur.priorityErr = err
				st = stateInsufficient
				continue
			}
			cur.priority = items
			if r.broadener.Sufficient(len(items)) {
				st = stateSufficient
			} else {
				st = stateInsufficient
			}

		case stateSufficient:
			st = stateDone

		case stateInsufficient:
			log.Infow("priority coverage insufficient",
				"priority_results", len(cur.priority),
				"threshold", r.broadener.Threshold(),
			)
			st = stateBroaden

		case stateBroaden:
			// Attempting the broad query already makes this a fallback result.
			cur.didBroaden = true
			items, err := r.broadener.Broaden(ctx, cur.query)
			if err != nil {
				if ctx.Err() != nil {
					return nil, errors.Wrap(ctx.Err(), "news resolution cancelled")
				}
				cur.broadenErr = err
				if len(cur.priority) == 0 {
					st = stateFailed
					continue
				}
				// Keep the few priority hits rather than failing the run.
				log.Warnw("broad news search failed, keeping priority results", "error", err)
				cur.notes = append(cur.notes, noteBroadenFailed)
				st = stateDone
				continue
			}
			cur.broadened = items
			st = stateDone

		case stateDone:
			res.Result = Annotate(news.NewsResult{
				Items:         Merge(cur.priority, cur.broadened, r.maxArticles),
				PriorityCount: len(cur.priority),
				Broadened:     cur.didBroaden,
				PriorityErr:   cur.priorityErr,
				Notes:         cur.notes,
			})
			metrics.RecordNewsResolution(string(res.Result.SourceConfidence))
			log.Infow("news resolved",
				"confidence", res.Result.SourceConfidence,
				"priority_results", len(cur.priority),
				"total_results", len(res.Result.Items),
			)
			return res, nil

		case stateFailed:
			metrics.RecordNewsResolution("failed")
			var multi errors.MultiError
			multi.Add(cur.priorityErr)
			multi.Add(cur.broadenErr)
			return res, errors.Wrap(multi.ToError(), "news resolution failed")
		}
	}
}

// DataGap builds the result reported when both searches failed
func DataGap(err error) news.NewsResult {
	return news.NewsResult{
		Items:            []news.Article{},
		SourceConfidence: news.ConfidenceFallback,
		Broadened:        true,
		Notes:            []string{noteSearchDataGap, "Search error: " + compact(err)},
	}
}

func compact(err error) string {
	if err == nil {
		return "unknown error"
	}
	msg := []rune(err.Error())
	if len(msg) > 300 {
		return string(msg[:297]) + "..."
	}
	return string(msg)
}
