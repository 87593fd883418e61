package research

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"equitydesk/internal/domain/news"
	fundsvc "equitydesk/internal/services/fundamentals"
	newssvc "equitydesk/internal/services/news"
	"equitydesk/internal/tools"
	"equitydesk/internal/tools/shared"
	"equitydesk/pkg/errors"
	"equitydesk/pkg/logger"
)

type MockNews struct {
	mock.Mock
}

func (m *MockNews) Search(ctx context.Context, req newssvc.Request) (*newssvc.Payload, error) {
	args := m.Called(ctx, req)
	if p := args.Get(0); p != nil {
		return p.(*newssvc.Payload), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockFundamentals struct {
	mock.Mock
}

func (m *MockFundamentals) CompanyInfo(ctx context.Context, spec news.TickerSpec) (*fundsvc.CompanyInfo, error) {
	args := m.Called(ctx, spec)
	if p := args.Get(0); p != nil {
		return p.(*fundsvc.CompanyInfo), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockFundamentals) FinancialStatements(ctx context.Context, spec news.TickerSpec) (*fundsvc.Statements, error) {
	args := m.Called(ctx, spec)
	if p := args.Get(0); p != nil {
		return p.(*fundsvc.Statements), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockFundamentals) CurrentPrice(ctx context.Context, spec news.TickerSpec) (*fundsvc.PriceSnapshot, error) {
	args := m.Called(ctx, spec)
	if p := args.Get(0); p != nil {
		return p.(*fundsvc.PriceSnapshot), args.Error(1)
	}
	return nil, args.Error(1)
}

func testDeps(n shared.NewsSearcher, f shared.FundamentalsReader) shared.Deps {
	return shared.Deps{
		News:         n,
		Fundamentals: f,
		Defaults: shared.Defaults{
			Market:       news.MarketIndia,
			Exchange:     news.ExchangeNSE,
			LookbackDays: 7,
		},
		Log: logger.NewNop(),
	}
}

func TestRegisterAll(t *testing.T) {
	t.Run("all backends", func(t *testing.T) {
		registry := tools.NewRegistry()
		RegisterAll(registry, testDeps(&MockNews{}, &MockFundamentals{}))

		assert.Equal(t, []string{
			tools.CompanyNewsSearch,
			tools.GetCompanyInfo,
			tools.GetCurrentStockPrice,
			tools.GetFinancialStatements,
		}, registry.List())
	})

	t.Run("news only", func(t *testing.T) {
		registry := tools.NewRegistry()
		RegisterAll(registry, testDeps(&MockNews{}, nil))
		assert.Equal(t, []string{tools.CompanyNewsSearch}, registry.List())
	})
}

func TestCompanyNewsSearchAppliesDefaults(t *testing.T) {
	newsMock := &MockNews{}
	payload := &newssvc.Payload{Ticker: "RELIANCE.NS", SourceConfidence: news.ConfidencePriority}
	newsMock.On("Search", mock.Anything, newssvc.Request{
		Ticker: news.TickerSpec{
			RawSymbol:          "RELIANCE",
			Market:             news.MarketIndia,
			ExchangePreference: news.ExchangeNSE,
		},
		CompanyName:  "Reliance Industries",
		LookbackDays: 7,
	}).Return(payload, nil)

	tool := NewCompanyNewsSearchTool(testDeps(newsMock, nil))
	result, err := tool.Execute(context.Background(), map[string]interface{}{
		"ticker":        " RELIANCE ",
		"company_name":  "Reliance Industries",
		"lookback_days": 0.0,
	})
	require.NoError(t, err)
	assert.Same(t, payload, result)
	newsMock.AssertExpectations(t)
}

func TestCompanyNewsSearchOverrides(t *testing.T) {
	newsMock := &MockNews{}
	newsMock.On("Search", mock.Anything, mock.MatchedBy(func(req newssvc.Request) bool {
		return req.Ticker.Market == news.MarketGlobal &&
			req.Ticker.ExchangePreference == news.ExchangeBSE &&
			req.LookbackDays == 30
	})).Return(&newssvc.Payload{}, nil)

	tool := NewCompanyNewsSearchTool(testDeps(newsMock, nil))
	_, err := tool.Execute(context.Background(), map[string]interface{}{
		"ticker":              "AAPL",
		"market":              "global",
		"exchange_preference": "BSE",
		"lookback_days":       "30",
	})
	require.NoError(t, err)
	newsMock.AssertExpectations(t)
}

func TestCompanyNewsSearchInvalidTicker(t *testing.T) {
	newsMock := &MockNews{}
	newsMock.On("Search", mock.Anything, mock.Anything).Return(nil, errors.Wrap(errors.ErrInvalidTicker, "ticker is required"))

	tool := NewCompanyNewsSearchTool(testDeps(newsMock, nil))
	result, err := tool.Execute(context.Background(), map[string]interface{}{})
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, errors.ErrInvalidTicker))
}

func TestFundamentalsToolsReportFailuresInPayload(t *testing.T) {
	outage := errors.Wrap(errors.ErrFundamentalsUnavailable, "yahoo: status 503")

	tests := []struct {
		name   string
		method string
		build  func(shared.Deps) tools.Tool
		prefix string
		note   string
	}{
		{"company info", "CompanyInfo", NewGetCompanyInfoTool, "Failed to fetch company info: ", fundsvc.NoteCompanyInfoFailed},
		{"statements", "FinancialStatements", NewGetFinancialStatementsTool, "Failed to fetch financial statements: ", fundsvc.NoteStatementsFailed},
		{"price", "CurrentPrice", NewGetCurrentStockPriceTool, "Failed to fetch stock price data: ", fundsvc.NotePriceFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fundMock := &MockFundamentals{}
			fundMock.On(tt.method, mock.Anything, mock.Anything).Return(nil, outage)

			result, err := tt.build(testDeps(nil, fundMock)).Execute(context.Background(), map[string]interface{}{"ticker": "reliance"})
			require.NoError(t, err)

			failure, ok := result.(*fundsvc.Failure)
			require.True(t, ok, "expected failure payload, got %T", result)
			assert.Equal(t, "RELIANCE", failure.Ticker)
			assert.Contains(t, failure.Error, tt.prefix)
			assert.Equal(t, []string{tt.note}, failure.DataQualityNotes)
		})
	}
}

func TestFundamentalsToolRejectsEmptyTicker(t *testing.T) {
	fundMock := &MockFundamentals{}
	fundMock.On("CompanyInfo", mock.Anything, mock.Anything).Return(nil, errors.Wrap(errors.ErrInvalidTicker, "ticker is required"))

	_, err := NewGetCompanyInfoTool(testDeps(nil, fundMock)).Execute(context.Background(), map[string]interface{}{})
	assert.True(t, errors.Is(err, errors.ErrInvalidTicker))
}

func TestFundamentalsToolPassesThroughPayload(t *testing.T) {
	fundMock := &MockFundamentals{}
	info := &fundsvc.CompanyInfo{Ticker: "RELIANCE.NS"}
	fundMock.On("CompanyInfo", mock.Anything, news.TickerSpec{
		RawSymbol:          "RELIANCE",
		Market:             news.MarketIndia,
		ExchangePreference: news.ExchangeNSE,
	}).Return(info, nil)

	result, err := NewGetCompanyInfoTool(testDeps(nil, fundMock)).Execute(context.Background(), map[string]interface{}{"ticker": "RELIANCE"})
	require.NoError(t, err)
	assert.Same(t, info, result)
}
