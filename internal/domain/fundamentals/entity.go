package fundamentals

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
)

// Profile is the company snapshot from the fundamentals provider
type Profile struct {
	Symbol        string `json:"symbol"`
	LongName      string `json:"long_name"`
	ShortName     string `json:"short_name"`
	Sector        string `json:"sector"`
	Industry      string `json:"industry"`
	Currency      string `json:"currency"`
	MarketCap     Metric `json:"market_cap"`
	Beta          Metric `json:"beta"`
	TrailingPE    Metric `json:"trailing_pe"`
	ForwardPE     Metric `json:"forward_pe"`
	RevenueGrowth Metric `json:"revenue_growth"`
	ProfitMargins Metric `json:"profit_margins"`
	CurrentPrice  Metric `json:"current_price"`
	MarketPrice   Metric `json:"regular_market_price"`
	High52Week    Metric `json:"fifty_two_week_high"`
	Low52Week     Metric `json:"fifty_two_week_low"`
	AverageVolume Metric `json:"average_volume"`
}

// Usable reports whether the provider recognised the symbol
func (p *Profile) Usable() bool {
	if p == nil {
		return false
	}
	for _, s := range []string{p.Symbol, p.ShortName, p.LongName} {
		if strings.TrimSpace(s) != "" {
			return true
		}
	}
	return p.MarketCap.Valid || p.CurrentPrice.Valid || p.MarketPrice.Valid
}

// Period is one reporting period of a statement, line item -> value
type Period map[string]Metric

// Statement holds periods ordered latest first
type Statement []Period

// Latest returns the most recent value of a line item, skipping periods where it is missing
func (s Statement) Latest(item string) Metric {
	latest, _ := s.LatestAndPrevious(item)
	return latest
}

// LatestAndPrevious returns the two most recent present values of a line item
func (s Statement) LatestAndPrevious(item string) (Metric, Metric) {
	var found []Metric
	for _, period := range s {
		if m, ok := period[item]; ok && m.Valid {
			found = append(found, m)
			if len(found) == 2 {
				break
			}
		}
	}
	switch len(found) {
	case 0:
		return Missing(), Missing()
	case 1:
		return found[0], Missing()
	default:
		return found[0], found[1]
	}
}

// Line items the statement tools report
const (
	TotalRevenue      = "total_revenue"
	NetIncome         = "net_income"
	OperatingIncome   = "operating_income"
	TotalAssets       = "total_assets"
	TotalLiabilities  = "total_liabilities"
	CashAndEquivalent = "cash_and_equivalents"
	OperatingCashFlow = "operating_cash_flow"
	FreeCashFlow      = "free_cash_flow"
)

// Statements bundles annual and quarterly statements
type Statements struct {
	AnnualIncome      Statement `json:"annual_income"`
	QuarterlyIncome   Statement `json:"quarterly_income"`
	AnnualBalance     Statement `json:"annual_balance"`
	QuarterlyBalance  Statement `json:"quarterly_balance"`
	AnnualCashFlow    Statement `json:"annual_cash_flow"`
	QuarterlyCashFlow Statement `json:"quarterly_cash_flow"`
}

// Summary is everything one provider lookup returns for a symbol
type Summary struct {
	Profile    Profile    `json:"profile"`
	Statements Statements `json:"statements"`
}

// PriceHistory holds daily bars, oldest first. Bars with no close are dropped.
type PriceHistory struct {
	Closes  []decimal.Decimal `json:"closes"`
	Volumes []decimal.Decimal `json:"volumes"`
	// Meta values reported alongside the chart
	MarketPrice Metric `json:"regular_market_price"`
	High52Week  Metric `json:"fifty_two_week_high"`
	Low52Week   Metric `json:"fifty_two_week_low"`
}

// Empty reports whether there are no bars
func (h *PriceHistory) Empty() bool {
	return h == nil || len(h.Closes) == 0
}

// Backend is the fundamentals data provider
type Backend interface {
	Summary(ctx context.Context, symbol string) (*Summary, error)
	// History returns daily bars for range ("5d", "1y")
	History(ctx context.Context, symbol, rng string) (*PriceHistory, error)
	Name() string
}
