package fundamentals

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"equitydesk/internal/domain/fundamentals"
	"equitydesk/internal/domain/news"
	"equitydesk/pkg/errors"
)

type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) Name() string { return "yahoo_finance" }

func (m *MockBackend) Summary(ctx context.Context, symbol string) (*fundamentals.Summary, error) {
	args := m.Called(ctx, symbol)
	if s := args.Get(0); s != nil {
		return s.(*fundamentals.Summary), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBackend) History(ctx context.Context, symbol, rng string) (*fundamentals.PriceHistory, error) {
	args := m.Called(ctx, symbol, rng)
	if h := args.Get(0); h != nil {
		return h.(*fundamentals.PriceHistory), args.Error(1)
	}
	return nil, args.Error(1)
}

func indiaSpec(symbol string) news.TickerSpec {
	return news.TickerSpec{RawSymbol: symbol, Market: news.MarketIndia, ExchangePreference: news.ExchangeNSE}
}

func relianceSummary() *fundamentals.Summary {
	return &fundamentals.Summary{
		Profile: fundamentals.Profile{
			Symbol:        "RELIANCE.NS",
			LongName:      "Reliance Industries Limited",
			Sector:        "Energy",
			Industry:      "Oil & Gas Refining & Marketing",
			MarketCap:     fundamentals.FromFloat(19830000000000),
			TrailingPE:    fundamentals.FromFloat(28.41),
			ForwardPE:     fundamentals.FromFloat(24.1),
			RevenueGrowth: fundamentals.FromFloat(0.052),
			ProfitMargins: fundamentals.FromFloat(0.0811),
		},
		Statements: fundamentals.Statements{
			AnnualIncome: fundamentals.Statement{
				{fundamentals.TotalRevenue: fundamentals.FromFloat(1250), fundamentals.NetIncome: fundamentals.FromFloat(90)},
				{fundamentals.TotalRevenue: fundamentals.FromFloat(1000), fundamentals.NetIncome: fundamentals.FromFloat(100)},
			},
			AnnualBalance: fundamentals.Statement{
				{fundamentals.TotalAssets: fundamentals.FromFloat(5000)},
			},
		},
	}
}

func closes(n int, start float64) []decimal.Decimal {
	out := make([]decimal.Decimal, n)
	for i := range out {
		out[i] = decimal.NewFromFloat(start + float64(i))
	}
	return out
}

func TestResolvePrefersFirstRecognisedCandidate(t *testing.T) {
	backend := new(MockBackend)
	backend.On("Summary", mock.Anything, "RELIANCE.NS").Return(relianceSummary(), nil).Once()

	r, err := NewService(backend).Resolve(context.Background(), indiaSpec("reliance"))
	require.NoError(t, err)

	assert.Equal(t, "RELIANCE", r.Requested)
	assert.Equal(t, "RELIANCE.NS", r.Symbol)
	assert.Equal(t, []string{"Resolved ticker 'RELIANCE' to 'RELIANCE.NS' for Yahoo Finance lookup."}, r.Notes)
	backend.AssertExpectations(t)
}

func TestResolveFallsThroughToHistory(t *testing.T) {
	backend := new(MockBackend)
	backend.On("Summary", mock.Anything, "TATAMOTORS.NS").Return(nil, errors.ErrNotFound).Once()
	backend.On("History", mock.Anything, "TATAMOTORS.NS", "5d").Return(&fundamentals.PriceHistory{}, nil).Once()
	backend.On("Summary", mock.Anything, "TATAMOTORS.BO").Return(&fundamentals.Summary{}, nil).Once()
	backend.On("History", mock.Anything, "TATAMOTORS.BO", "5d").
		Return(&fundamentals.PriceHistory{Closes: closes(5, 900)}, nil).Once()

	r, err := NewService(backend).Resolve(context.Background(), indiaSpec("TATAMOTORS"))
	require.NoError(t, err)
	assert.Equal(t, "TATAMOTORS.BO", r.Symbol)
	assert.NotNil(t, r.Summary)
	backend.AssertExpectations(t)
}

func TestResolveUsesLastCandidateWhenNothingMatches(t *testing.T) {
	backend := new(MockBackend)
	backend.On("Summary", mock.Anything, mock.Anything).Return(nil, errors.ErrNotFound)
	backend.On("History", mock.Anything, mock.Anything, "5d").Return(nil, errors.ErrNotFound)

	r, err := NewService(backend).Resolve(context.Background(), indiaSpec("ZZZ"))
	require.NoError(t, err)
	assert.Equal(t, "ZZZ", r.Symbol)
	assert.Empty(t, r.Notes)
	backend.AssertNumberOfCalls(t, "Summary", 3)
}

func TestResolveSurfacesProviderOutage(t *testing.T) {
	backend := new(MockBackend)
	backend.On("Summary", mock.Anything, "MSFT").Return(nil, errors.ErrFundamentalsUnavailable)
	backend.On("History", mock.Anything, "MSFT", "5d").Return(nil, errors.ErrFundamentalsUnavailable)

	_, err := NewService(backend).Resolve(context.Background(), news.TickerSpec{RawSymbol: "MSFT"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrFundamentalsUnavailable))
}

func TestResolveRejectsEmptyTicker(t *testing.T) {
	_, err := NewService(new(MockBackend)).Resolve(context.Background(), news.TickerSpec{RawSymbol: "  "})
	assert.True(t, errors.Is(err, errors.ErrInvalidTicker))
}

func TestCompanyInfoFlagsMissingFieldsExceptBeta(t *testing.T) {
	summary := relianceSummary()
	summary.Profile.Industry = ""
	summary.Profile.ForwardPE = fundamentals.Missing()

	backend := new(MockBackend)
	backend.On("Summary", mock.Anything, "RELIANCE.NS").Return(summary, nil)

	info, err := NewService(backend).CompanyInfo(context.Background(), indiaSpec("RELIANCE.NS"))
	require.NoError(t, err)

	assert.Equal(t, "N/A", info.Industry)
	assert.Equal(t, []string{
		"Missing value for 'industry'.",
		"Missing value for 'forward_pe'.",
	}, info.DataQualityNotes)

	raw, err := json.Marshal(info)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"beta":"N/A"`)
	assert.Contains(t, string(raw), `"trailing_pe":28.41`)
}

func TestFinancialStatementsDeltas(t *testing.T) {
	backend := new(MockBackend)
	backend.On("Summary", mock.Anything, "RELIANCE.NS").Return(relianceSummary(), nil)

	st, err := NewService(backend).FinancialStatements(context.Background(), indiaSpec("RELIANCE.NS"))
	require.NoError(t, err)

	assert.Equal(t, "25", st.Deltas.AnnualRevenueGrowthPct.String())
	assert.Equal(t, "-10", st.Deltas.AnnualNetIncomeGrowthPct.String())
	assert.False(t, st.Annual.CashFlow.FreeCashFlow.Valid)
	assert.Empty(t, st.DataQualityNotes)
}

func TestFinancialStatementsNotesMissingAnnualData(t *testing.T) {
	backend := new(MockBackend)
	backend.On("Summary", mock.Anything, "AAPL").Return(&fundamentals.Summary{Profile: fundamentals.Profile{Symbol: "AAPL"}}, nil)

	st, err := NewService(backend).FinancialStatements(context.Background(), news.TickerSpec{RawSymbol: "AAPL"})
	require.NoError(t, err)
	assert.Equal(t, []string{NoteAnnualMissing}, st.DataQualityNotes)
	assert.Equal(t, "N/A", st.Deltas.AnnualRevenueGrowthPct.String())
}

func TestCurrentPriceFallsBackToHistory(t *testing.T) {
	history := &fundamentals.PriceHistory{
		Closes:  closes(100, 100),
		Volumes: closes(100, 1),
	}

	backend := new(MockBackend)
	backend.On("Summary", mock.Anything, "AAPL").Return(&fundamentals.Summary{Profile: fundamentals.Profile{Symbol: "AAPL"}}, nil)
	backend.On("History", mock.Anything, "AAPL", "1y").Return(history, nil)

	snap, err := NewService(backend).CurrentPrice(context.Background(), news.TickerSpec{RawSymbol: "AAPL"})
	require.NoError(t, err)

	assert.Equal(t, "199", snap.CurrentPrice.String())
	assert.Equal(t, "100", snap.Range52Week.Low.String())
	assert.Equal(t, "199", snap.Range52Week.High.String())
	// mean of volumes 71..100
	assert.Equal(t, "85.5", snap.AverageVolume.String())
	// 199 vs 178
	assert.Equal(t, "11.8", snap.PriceChangePct.OneMonth.String())
	assert.True(t, snap.PriceChangePct.ThreeMonth.Valid)
	assert.False(t, snap.PriceChangePct.OneYear.Valid)
	assert.Equal(t, []string{NoteShortPriceHistory}, snap.DataQualityNotes)
}

func TestCurrentPriceFailsOnHistoryOutage(t *testing.T) {
	backend := new(MockBackend)
	backend.On("Summary", mock.Anything, "AAPL").Return(&fundamentals.Summary{Profile: fundamentals.Profile{Symbol: "AAPL"}}, nil)
	backend.On("History", mock.Anything, "AAPL", "1y").Return(nil, errors.ErrFundamentalsUnavailable)

	_, err := NewService(backend).CurrentPrice(context.Background(), news.TickerSpec{RawSymbol: "AAPL"})
	require.Error(t, err)

	failure := NewFailure("aapl", "Failed to fetch stock price data", err, NotePriceFailed)
	assert.Equal(t, "AAPL", failure.Ticker)
	assert.Contains(t, failure.Error, "Failed to fetch stock price data")
	assert.Equal(t, []string{NotePriceFailed}, failure.DataQualityNotes)
}
