package fundamentals

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"equitydesk/internal/domain/fundamentals"
	"equitydesk/internal/domain/news"
	"equitydesk/pkg/errors"
)

// CompanyInfo is the get_company_info payload
type CompanyInfo struct {
	RequestedTicker  string              `json:"requested_ticker"`
	Ticker           string              `json:"ticker"`
	CompanyName      string              `json:"company_name"`
	Sector           string              `json:"sector"`
	Industry         string              `json:"industry"`
	MarketCap        fundamentals.Metric `json:"market_cap"`
	Beta             fundamentals.Metric `json:"beta"`
	TrailingPE       fundamentals.Metric `json:"trailing_pe"`
	ForwardPE        fundamentals.Metric `json:"forward_pe"`
	RevenueGrowth    fundamentals.Metric `json:"revenue_growth"`
	ProfitMargins    fundamentals.Metric `json:"profit_margins"`
	DataQualityNotes []string            `json:"data_quality_notes"`
}

// CompanyInfo builds the company profile payload
func (s *Service) CompanyInfo(ctx context.Context, spec news.TickerSpec) (*CompanyInfo, error) {
	r, err := s.Resolve(ctx, spec)
	if err != nil {
		return nil, err
	}

	p := r.Summary.Profile
	info := &CompanyInfo{
		RequestedTicker: r.Requested,
		Ticker:          r.Symbol,
		CompanyName:     orNA(p.LongName),
		Sector:          orNA(p.Sector),
		Industry:        orNA(p.Industry),
		MarketCap:       p.MarketCap,
		Beta:            p.Beta,
		TrailingPE:      p.TrailingPE,
		ForwardPE:       p.ForwardPE,
		RevenueGrowth:   p.RevenueGrowth,
		ProfitMargins:   p.ProfitMargins,
	}

	notes := r.Notes
	// beta is frequently absent for recent listings and is not flagged
	for _, f := range []struct {
		key     string
		missing bool
	}{
		{"company_name", info.CompanyName == notAvailable},
		{"sector", info.Sector == notAvailable},
		{"industry", info.Industry == notAvailable},
		{"market_cap", !info.MarketCap.Valid},
		{"trailing_pe", !info.TrailingPE.Valid},
		{"forward_pe", !info.ForwardPE.Valid},
		{"revenue_growth", !info.RevenueGrowth.Valid},
		{"profit_margins", !info.ProfitMargins.Valid},
	} {
		if f.missing {
			notes = append(notes, fmt.Sprintf("Missing value for '%s'.", f.key))
		}
	}
	info.DataQualityNotes = notes
	return info, nil
}

// Statements is the get_financial_statements payload
type Statements struct {
	RequestedTicker string `json:"requested_ticker"`
	Ticker          string `json:"ticker"`
	Annual          struct {
		IncomeStatement struct {
			TotalRevenue    fundamentals.Metric `json:"total_revenue"`
			NetIncome       fundamentals.Metric `json:"net_income"`
			OperatingIncome fundamentals.Metric `json:"operating_income"`
		} `json:"income_statement"`
		BalanceSheet struct {
			TotalAssets        fundamentals.Metric `json:"total_assets"`
			TotalLiabilities   fundamentals.Metric `json:"total_liabilities"`
			CashAndEquivalents fundamentals.Metric `json:"cash_and_equivalents"`
		} `json:"balance_sheet"`
		CashFlow struct {
			OperatingCashFlow fundamentals.Metric `json:"operating_cash_flow"`
			FreeCashFlow      fundamentals.Metric `json:"free_cash_flow"`
		} `json:"cash_flow"`
	} `json:"annual"`
	Quarterly struct {
		IncomeStatement struct {
			TotalRevenue fundamentals.Metric `json:"total_revenue"`
			NetIncome    fundamentals.Metric `json:"net_income"`
		} `json:"income_statement"`
		BalanceSheet struct {
			TotalAssets      fundamentals.Metric `json:"total_assets"`
			TotalLiabilities fundamentals.Metric `json:"total_liabilities"`
		} `json:"balance_sheet"`
		CashFlow struct {
			OperatingCashFlow fundamentals.Metric `json:"operating_cash_flow"`
		} `json:"cash_flow"`
	} `json:"quarterly"`
	Deltas struct {
		AnnualRevenueGrowthPct   fundamentals.Metric `json:"annual_revenue_growth_pct"`
		AnnualNetIncomeGrowthPct fundamentals.Metric `json:"annual_net_income_growth_pct"`
	} `json:"deltas"`
	DataQualityNotes []string `json:"data_quality_notes"`
}

// NoteAnnualMissing is added when every critical annual field is absent
const NoteAnnualMissing = "Annual statement fields were not available from the fundamentals provider for this ticker."

// FinancialStatements builds the statement highlights payload
func (s *Service) FinancialStatements(ctx context.Context, spec news.TickerSpec) (*Statements, error) {
	r, err := s.Resolve(ctx, spec)
	if err != nil {
		return nil, err
	}
	st := r.Summary.Statements

	out := &Statements{RequestedTicker: r.Requested, Ticker: r.Symbol}

	revenue, prevRevenue := st.AnnualIncome.LatestAndPrevious(fundamentals.TotalRevenue)
	netIncome, prevNetIncome := st.AnnualIncome.LatestAndPrevious(fundamentals.NetIncome)

	a := &out.Annual
	a.IncomeStatement.TotalRevenue = revenue
	a.IncomeStatement.NetIncome = netIncome
	a.IncomeStatement.OperatingIncome = st.AnnualIncome.Latest(fundamentals.OperatingIncome)
	a.BalanceSheet.TotalAssets = st.AnnualBalance.Latest(fundamentals.TotalAssets)
	a.BalanceSheet.TotalLiabilities = st.AnnualBalance.Latest(fundamentals.TotalLiabilities)
	a.BalanceSheet.CashAndEquivalents = st.AnnualBalance.Latest(fundamentals.CashAndEquivalent)
	a.CashFlow.OperatingCashFlow = st.AnnualCashFlow.Latest(fundamentals.OperatingCashFlow)
	a.CashFlow.FreeCashFlow = st.AnnualCashFlow.Latest(fundamentals.FreeCashFlow)

	q := &out.Quarterly
	q.IncomeStatement.TotalRevenue = st.QuarterlyIncome.Latest(fundamentals.TotalRevenue)
	q.IncomeStatement.NetIncome = st.QuarterlyIncome.Latest(fundamentals.NetIncome)
	q.BalanceSheet.TotalAssets = st.QuarterlyBalance.Latest(fundamentals.TotalAssets)
	q.BalanceSheet.TotalLiabilities = st.QuarterlyBalance.Latest(fundamentals.TotalLiabilities)
	q.CashFlow.OperatingCashFlow = st.QuarterlyCashFlow.Latest(fundamentals.OperatingCashFlow)

	out.Deltas.AnnualRevenueGrowthPct = fundamentals.PctChange(revenue, prevRevenue)
	out.Deltas.AnnualNetIncomeGrowthPct = fundamentals.PctChange(netIncome, prevNetIncome)

	notes := r.Notes
	critical := []fundamentals.Metric{
		a.IncomeStatement.TotalRevenue,
		a.IncomeStatement.NetIncome,
		a.BalanceSheet.TotalAssets,
		a.CashFlow.OperatingCashFlow,
	}
	allMissing := true
	for _, m := range critical {
		if m.Valid {
			allMissing = false
			break
		}
	}
	if allMissing {
		notes = append(notes, NoteAnnualMissing)
	}
	out.DataQualityNotes = notes
	return out, nil
}

// PriceChanges are close-to-close changes over trading-day windows
type PriceChanges struct {
	OneMonth   fundamentals.Metric `json:"1m"`
	ThreeMonth fundamentals.Metric `json:"3m"`
	OneYear    fundamentals.Metric `json:"1y"`
}

// PriceSnapshot is the get_current_stock_price payload
type PriceSnapshot struct {
	RequestedTicker string              `json:"requested_ticker"`
	Ticker          string              `json:"ticker"`
	CurrentPrice    fundamentals.Metric `json:"current_price"`
	Range52Week     struct {
		Low  fundamentals.Metric `json:"low"`
		High fundamentals.Metric `json:"high"`
	} `json:"range_52_week"`
	AverageVolume    fundamentals.Metric `json:"average_volume"`
	PriceChangePct   PriceChanges        `json:"price_change_pct"`
	DataQualityNotes []string            `json:"data_quality_notes"`
}

// Trading-day windows for the change percentages
const (
	barsOneMonth   = 21
	barsThreeMonth = 63
	barsOneYear    = 252

	volumeSample = 30
)

// Notes attached to price snapshots
const (
	NotePriceUnavailable  = "Current price was unavailable from the fundamentals provider."
	NoteShortPriceHistory = "Insufficient price history for full 1-year change."
)

// CurrentPrice builds the live price snapshot from the profile and one year of daily bars
func (s *Service) CurrentPrice(ctx context.Context, spec news.TickerSpec) (*PriceSnapshot, error) {
	r, err := s.Resolve(ctx, spec)
	if err != nil {
		return nil, err
	}

	history, err := s.backend.History(ctx, r.Symbol, "1y")
	switch {
	case err == nil:
	case errors.Is(err, errors.ErrNotFound):
		history = &fundamentals.PriceHistory{}
	default:
		return nil, errors.Wrapf(err, "price history %s", r.Symbol)
	}

	p := r.Summary.Profile
	closes := history.Closes

	snap := &PriceSnapshot{RequestedTicker: r.Requested, Ticker: r.Symbol}
	snap.CurrentPrice = firstValid(p.CurrentPrice, p.MarketPrice, history.MarketPrice, last(closes))
	snap.Range52Week.High = firstValid(p.High52Week, history.High52Week, extreme(closes, true))
	snap.Range52Week.Low = firstValid(p.Low52Week, history.Low52Week, extreme(closes, false))
	snap.AverageVolume = firstValid(p.AverageVolume, mean(tail(history.Volumes, volumeSample)))
	snap.PriceChangePct = PriceChanges{
		OneMonth:   changeOver(closes, barsOneMonth),
		ThreeMonth: changeOver(closes, barsThreeMonth),
		OneYear:    changeOver(closes, barsOneYear),
	}

	notes := r.Notes
	if !snap.CurrentPrice.Valid {
		notes = append(notes, NotePriceUnavailable)
	}
	if !snap.PriceChangePct.OneYear.Valid {
		notes = append(notes, NoteShortPriceHistory)
	}
	snap.DataQualityNotes = notes
	return snap, nil
}

const notAvailable = "N/A"

func orNA(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return notAvailable
	}
	return s
}

func firstValid(ms ...fundamentals.Metric) fundamentals.Metric {
	for _, m := range ms {
		if m.Valid {
			return m
		}
	}
	return fundamentals.Missing()
}

func last(values []decimal.Decimal) fundamentals.Metric {
	if len(values) == 0 {
		return fundamentals.Missing()
	}
	return fundamentals.Some(values[len(values)-1])
}

func extreme(values []decimal.Decimal, highest bool) fundamentals.Metric {
	if len(values) == 0 {
		return fundamentals.Missing()
	}
	if highest {
		return fundamentals.Some(decimal.Max(values[0], values[1:]...))
	}
	return fundamentals.Some(decimal.Min(values[0], values[1:]...))
}

func tail(values []decimal.Decimal, n int) []decimal.Decimal {
	if len(values) > n {
		return values[len(values)-n:]
	}
	return values
}

func mean(values []decimal.Decimal) fundamentals.Metric {
	if len(values) == 0 {
		return fundamentals.Missing()
	}
	return fundamentals.Some(decimal.Avg(values[0], values[1:]...))
}

// changeOver compares the latest close with the close bars trading days earlier
func changeOver(closes []decimal.Decimal, bars int) fundamentals.Metric {
	if len(closes) <= bars {
		return fundamentals.Missing().WithPlaces(2)
	}
	current := fundamentals.Some(closes[len(closes)-1])
	previous := fundamentals.Some(closes[len(closes)-1-bars])
	return fundamentals.PctChange(current, previous)
}
