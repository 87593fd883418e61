package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"equitydesk/internal/domain/fundamentals"
	"equitydesk/pkg/errors"
	"equitydesk/pkg/logger"
)

// Compile-time check
var _ fundamentals.Backend = (*Client)(nil)

const summaryModules = "price,summaryProfile,summaryDetail,defaultKeyStatistics,financialData," +
	"incomeStatementHistory,incomeStatementHistoryQuarterly," +
	"balanceSheetHistory,balanceSheetHistoryQuarterly," +
	"cashflowStatementHistory,cashflowStatementHistoryQuarterly"

// Client reads quote summaries and daily charts from the Yahoo Finance JSON API
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
}

// NewClient creates a Yahoo Finance client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: logger.Get().Named("yahoo"),
	}
}

func (c *Client) Name() string { return "yahoo_finance" }

// Summary implements fundamentals.Backend
func (c *Client) Summary(ctx context.Context, symbol string) (*fundamentals.Summary, error) {
	endpoint := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=%s",
		c.baseURL, url.PathEscape(symbol), url.QueryEscape(summaryModules))

	var resp quoteSummaryResponse
	if err := c.get(ctx, endpoint, &resp); err != nil {
		return nil, err
	}
	if resp.QuoteSummary.Error != nil {
		return nil, errors.Wrapf(errors.ErrFundamentalsUnavailable, "quoteSummary %s: %s", symbol, resp.QuoteSummary.Error.Description)
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return nil, errors.Wrapf(errors.ErrNotFound, "quoteSummary %s: no result", symbol)
	}
	return resp.QuoteSummary.Result[0].toSummary(), nil
}

// History implements fundamentals.Backend
func (c *Client) History(ctx context.Context, symbol, rng string) (*fundamentals.PriceHistory, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?range=%s&interval=1d",
		c.baseURL, url.PathEscape(symbol), url.QueryEscape(rng))

	var resp chartResponse
	if err := c.get(ctx, endpoint, &resp); err != nil {
		return nil, err
	}
	if resp.Chart.Error != nil {
		return nil, errors.Wrapf(errors.ErrFundamentalsUnavailable, "chart %s: %s", symbol, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, errors.Wrapf(errors.ErrNotFound, "chart %s: no result", symbol)
	}
	return resp.Chart.Result[0].toHistory(), nil
}

func (c *Client) get(ctx context.Context, endpoint string, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; equitydesk/1.0)")
	req.Header.Set("Accept", "application/json")

	c.log.Debugw("yahoo request", "url", endpoint)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(errors.ErrFundamentalsUnavailable, "yahoo request: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return errors.Wrapf(errors.ErrFundamentalsUnavailable, "read yahoo response: %v", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		// Unknown symbols come back as 404 with the usual error envelope.
		if json.Unmarshal(body, dest) == nil {
			return nil
		}
		return errors.Wrap(errors.ErrNotFound, "yahoo returned 404")
	case resp.StatusCode != http.StatusOK:
		snippet := string(body)
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		return errors.Wrapf(errors.ErrFundamentalsUnavailable, "yahoo returned status %d: %s", resp.StatusCode, snippet)
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return errors.Wrapf(errors.ErrFundamentalsUnavailable, "decode yahoo response: %v", err)
	}
	return nil
}

// Yahoo wraps numbers as {"raw": 1.2, "fmt": "1.20"}; empty objects mean missing.
type rawValue struct {
	Raw *float64 `json:"raw"`
}

func (v rawValue) metric() fundamentals.Metric {
	return fundamentals.FromFloatPtr(v.Raw)
}

type apiError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []quoteSummaryResult `json:"result"`
		Error  *apiError            `json:"error"`
	} `json:"quoteSummary"`
}

type quoteSummaryResult struct {
	Price struct {
		Symbol             string   `json:"symbol"`
		ShortName          string   `json:"shortName"`
		LongName           string   `json:"longName"`
		Currency           string   `json:"currency"`
		RegularMarketPrice rawValue `json:"regularMarketPrice"`
		MarketCap          rawValue `json:"marketCap"`
	} `json:"price"`
	SummaryProfile struct {
		Sector   string `json:"sector"`
		Industry string `json:"industry"`
	} `json:"summaryProfile"`
	SummaryDetail struct {
		Beta             rawValue `json:"beta"`
		TrailingPE       rawValue `json:"trailingPE"`
		ForwardPE        rawValue `json:"forwardPE"`
		MarketCap        rawValue `json:"marketCap"`
		FiftyTwoWeekHigh rawValue `json:"fiftyTwoWeekHigh"`
		FiftyTwoWeekLow  rawValue `json:"fiftyTwoWeekLow"`
		AverageVolume    rawValue `json:"averageVolume"`
	} `json:"summaryDetail"`
	DefaultKeyStatistics struct {
		Beta      rawValue `json:"beta"`
		ForwardPE rawValue `json:"forwardPE"`
	} `json:"defaultKeyStatistics"`
	FinancialData struct {
		CurrentPrice  rawValue `json:"currentPrice"`
		RevenueGrowth rawValue `json:"revenueGrowth"`
		ProfitMargins rawValue `json:"profitMargins"`
	} `json:"financialData"`

	IncomeStatementHistory struct {
		Statements []incomeStatement `json:"incomeStatementHistory"`
	} `json:"incomeStatementHistory"`
	IncomeStatementHistoryQuarterly struct {
		Statements []incomeStatement `json:"incomeStatementHistory"`
	} `json:"incomeStatementHistoryQuarterly"`
	BalanceSheetHistory struct {
		Statements []balanceSheet `json:"balanceSheetStatements"`
	} `json:"balanceSheetHistory"`
	BalanceSheetHistoryQuarterly struct {
		Statements []balanceSheet `json:"balanceSheetStatements"`
	} `json:"balanceSheetHistoryQuarterly"`
	CashflowStatementHistory struct {
		Statements []cashflowStatement `json:"cashflowStatements"`
	} `json:"cashflowStatementHistory"`
	CashflowStatementHistoryQuarterly struct {
		Statements []cashflowStatement `json:"cashflowStatements"`
	} `json:"cashflowStatementHistoryQuarterly"`
}

type incomeStatement struct {
	TotalRevenue    rawValue `json:"totalRevenue"`
	NetIncome       rawValue `json:"netIncome"`
	OperatingIncome rawValue `json:"operatingIncome"`
}

type balanceSheet struct {
	TotalAssets rawValue `json:"totalAssets"`
	TotalLiab   rawValue `json:"totalLiab"`
	Cash        rawValue `json:"cash"`
}

type cashflowStatement struct {
	OperatingCashFlow   rawValue `json:"totalCashFromOperatingActivities"`
	CapitalExpenditures rawValue `json:"capitalExpenditures"`
}

func orMetric(first, second rawValue) fundamentals.Metric {
	if m := first.metric(); m.Valid {
		return m
	}
	return second.metric()
}

func (r quoteSummaryResult) toSummary() *fundamentals.Summary {
	profile := fundamentals.Profile{
		Symbol:        r.Price.Symbol,
		LongName:      r.Price.LongName,
		ShortName:     r.Price.ShortName,
		Sector:        r.SummaryProfile.Sector,
		Industry:      r.SummaryProfile.Industry,
		Currency:      r.Price.Currency,
		MarketCap:     orMetric(r.Price.MarketCap, r.SummaryDetail.MarketCap),
		Beta:          orMetric(r.SummaryDetail.Beta, r.DefaultKeyStatistics.Beta),
		TrailingPE:    r.SummaryDetail.TrailingPE.metric(),
		ForwardPE:     orMetric(r.SummaryDetail.ForwardPE, r.DefaultKeyStatistics.ForwardPE),
		RevenueGrowth: r.FinancialData.RevenueGrowth.metric(),
		ProfitMargins: r.FinancialData.ProfitMargins.metric(),
		CurrentPrice:  r.FinancialData.CurrentPrice.metric(),
		MarketPrice:   r.Price.RegularMarketPrice.metric(),
		High52Week:    r.SummaryDetail.FiftyTwoWeekHigh.metric(),
		Low52Week:     r.SummaryDetail.FiftyTwoWeekLow.metric(),
		AverageVolume: r.SummaryDetail.AverageVolume.metric(),
	}

	return &fundamentals.Summary{
		Profile: profile,
		Statements: fundamentals.Statements{
			AnnualIncome:      incomePeriods(r.IncomeStatementHistory.Statements),
			QuarterlyIncome:   incomePeriods(r.IncomeStatementHistoryQuarterly.Statements),
			AnnualBalance:     balancePeriods(r.BalanceSheetHistory.Statements),
			QuarterlyBalance:  balancePeriods(r.BalanceSheetHistoryQuarterly.Statements),
			AnnualCashFlow:    cashflowPeriods(r.CashflowStatementHistory.Statements),
			QuarterlyCashFlow: cashflowPeriods(r.CashflowStatementHistoryQuarterly.Statements),
		},
	}
}

func incomePeriods(in []incomeStatement) fundamentals.Statement {
	out := make(fundamentals.Statement, 0, len(in))
	for _, s := range in {
		out = append(out, fundamentals.Period{
			fundamentals.TotalRevenue:    s.TotalRevenue.metric(),
			fundamentals.NetIncome:       s.NetIncome.metric(),
			fundamentals.OperatingIncome: s.OperatingIncome.metric(),
		})
	}
	return out
}

func balancePeriods(in []balanceSheet) fundamentals.Statement {
	out := make(fundamentals.Statement, 0, len(in))
	for _, s := range in {
		out = append(out, fundamentals.Period{
			fundamentals.TotalAssets:       s.TotalAssets.metric(),
			fundamentals.TotalLiabilities:  s.TotalLiab.metric(),
			fundamentals.CashAndEquivalent: s.Cash.metric(),
		})
	}
	return out
}

// Free cash flow is operating cash flow plus (negative) capital expenditures
func cashflowPeriods(in []cashflowStatement) fundamentals.Statement {
	out := make(fundamentals.Statement, 0, len(in))
	for _, s := range in {
		ocf := s.OperatingCashFlow.metric()
		fcf := fundamentals.Missing()
		if capex := s.CapitalExpenditures.metric(); ocf.Valid && capex.Valid {
			fcf = fundamentals.Some(ocf.Value.Add(capex.Value))
		}
		out = append(out, fundamentals.Period{
			fundamentals.OperatingCashFlow: ocf,
			fundamentals.FreeCashFlow:      fcf,
		})
	}
	return out
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *apiError     `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		RegularMarketPrice *float64 `json:"regularMarketPrice"`
		FiftyTwoWeekHigh   *float64 `json:"fiftyTwoWeekHigh"`
		FiftyTwoWeekLow    *float64 `json:"fiftyTwoWeekLow"`
	} `json:"meta"`
	Indicators struct {
		Quote []struct {
			Close  []*float64 `json:"close"`
			Volume []*float64 `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

func (r chartResult) toHistory() *fundamentals.PriceHistory {
	h := &fundamentals.PriceHistory{
		MarketPrice: fundamentals.FromFloatPtr(r.Meta.RegularMarketPrice),
		High52Week:  fundamentals.FromFloatPtr(r.Meta.FiftyTwoWeekHigh),
		Low52Week:   fundamentals.FromFloatPtr(r.Meta.FiftyTwoWeekLow),
	}
	if len(r.Indicators.Quote) == 0 {
		return h
	}
	q := r.Indicators.Quote[0]
	for i, c := range q.Close {
		if c == nil {
			continue
		}
		h.Closes = append(h.Closes, decimal.NewFromFloat(*c))
		if i < len(q.Volume) && q.Volume[i] != nil {
			h.Volumes = append(h.Volumes, decimal.NewFromFloat(*q.Volume[i]))
		}
	}
	return h
}
