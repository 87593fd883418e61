package shared

import (
	"context"

	"equitydesk/internal/domain/news"
	fundsvc "equitydesk/internal/services/fundamentals"
	newssvc "equitydesk/internal/services/news"
	"equitydesk/pkg/logger"
)

// NewsSearcher resolves news for a ticker; implemented by the news resolver
type NewsSearcher interface {
	Search(ctx context.Context, req newssvc.Request) (*newssvc.Payload, error)
}

// FundamentalsReader builds the fundamentals payloads; implemented by the fundamentals service
type FundamentalsReader interface {
	CompanyInfo(ctx context.Context, spec news.TickerSpec) (*fundsvc.CompanyInfo, error)
	FinancialStatements(ctx context.Context, spec news.TickerSpec) (*fundsvc.Statements, error)
	CurrentPrice(ctx context.Context, spec news.TickerSpec) (*fundsvc.PriceSnapshot, error)
}

// Defaults fill tool arguments the caller left out
type Defaults struct {
	Market       news.Market
	Exchange     news.Exchange
	LookbackDays int
}

// Deps bundles dependencies required by concrete tool implementations
type Deps struct {
	News         NewsSearcher
	Fundamentals FundamentalsReader
	Defaults     Defaults
	Log          *logger.Logger
}

// HasNews reports whether a news searcher is wired
func (d Deps) HasNews() bool {
	return d.News != nil
}

// HasFundamentals reports whether a fundamentals reader is wired
func (d Deps) HasFundamentals() bool {
	return d.Fundamentals != nil
}
