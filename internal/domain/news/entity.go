package news

import (
	"strings"
	"time"
)

// Market selects the news domains and ticker localisation rules
type Market string

const (
	MarketGlobal Market = "global"
	MarketIndia  Market = "india"
)

// ParseMarket maps free-form input onto a Market; unknown values are global
func ParseMarket(raw string) Market {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "india", "indian", "in", "nse", "bse":
		return MarketIndia
	default:
		return MarketGlobal
	}
}

// Exchange is the preferred Indian exchange for suffixing bare tickers
type Exchange string

const (
	ExchangeNSE Exchange = "NSE"
	ExchangeBSE Exchange = "BSE"
)

// ParseExchange maps free-form input onto an Exchange; unknown values are NSE
func ParseExchange(raw string) Exchange {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "BSE", "BO", ".BO":
		return ExchangeBSE
	default:
		return ExchangeNSE
	}
}

// Suffix returns the Yahoo-style symbol suffix for the exchange
func (e Exchange) Suffix() string {
	if e == ExchangeBSE {
		return ".BO"
	}
	return ".NS"
}

// Other returns the alternate Indian exchange
func (e Exchange) Other() Exchange {
	if e == ExchangeBSE {
		return ExchangeNSE
	}
	return ExchangeBSE
}

// TickerSpec is the raw ticker input for one run
type TickerSpec struct {
	RawSymbol          string
	Market             Market
	ExchangePreference Exchange
}

// DomainPriorityList is an ordered, never-empty list of authoritative news domains
type DomainPriorityList []string

// SiteFilter renders the list as "(site:a OR site:b)" for backends without a domain filter
func (d DomainPriorityList) SiteFilter() string {
	parts := make([]string, len(d))
	for i, domain := range d {
		parts[i] = "site:" + domain
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

// Scope tells whether a query was restricted to priority domains
type Scope string

const (
	ScopePriority Scope = "priority"
	ScopeBroad    Scope = "broad"
)

// NewsQuery is a single search request. Domains is nil for a broadened search.
type NewsQuery struct {
	Text         string
	Symbol       string
	Domains      DomainPriorityList
	LookbackDays int
}

// Scope reports whether the query is domain-restricted
func (q NewsQuery) Scope() Scope {
	if len(q.Domains) > 0 {
		return ScopePriority
	}
	return ScopeBroad
}

// StartDate is the first UTC calendar day of the lookback window, as YYYY-MM-DD
func (q NewsQuery) StartDate(now time.Time) string {
	days := q.LookbackDays
	if days < 1 {
		days = 1
	}
	return now.UTC().AddDate(0, 0, -days).Format("2006-01-02")
}

// Article is one normalised search hit. Missing fields hold "N/A".
type Article struct {
	Title         string `json:"title"`
	URL           string `json:"url"`
	PublishedDate string `json:"published_date"`
	Summary       string `json:"summary"`
}

// SourceConfidence labels the provenance of a NewsResult
type SourceConfidence string

const (
	ConfidencePriority SourceConfidence = "priority"
	ConfidenceFallback SourceConfidence = "fallback"
)

// NewsResult is the merged outcome of one resolution run
type NewsResult struct {
	Items            []Article
	SourceConfidence SourceConfidence

	// PriorityCount is how many items the priority fetch returned before merging
	PriorityCount int
	// Broadened is true when the unrestricted query was issued
	Broadened bool
	// PriorityErr is the priority fetch failure, if the run recovered from one
	PriorityErr error
	Notes       []string
}
