package yahoo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equitydesk/internal/domain/fundamentals"
	"equitydesk/pkg/errors"
)

const relianceSummary = `{"quoteSummary":{"result":[{
	"price":{"symbol":"RELIANCE.NS","shortName":"RELIANCE INDUSTRIES","longName":"Reliance Industries Limited","currency":"INR",
		"regularMarketPrice":{"raw":2931.45,"fmt":"2,931.45"},"marketCap":{"raw":19830000000000}},
	"summaryProfile":{"sector":"Energy","industry":"Oil & Gas Refining & Marketing"},
	"summaryDetail":{"beta":{},"trailingPE":{"raw":28.41},"fiftyTwoWeekHigh":{"raw":3217.9},"fiftyTwoWeekLow":{"raw":2220.3},"averageVolume":{"raw":9876543}},
	"defaultKeyStatistics":{"beta":{"raw":0.56},"forwardPE":{"raw":24.1}},
	"financialData":{"currentPrice":{"raw":2931.45},"revenueGrowth":{"raw":0.052},"profitMargins":{"raw":0.0811}},
	"incomeStatementHistory":{"incomeStatementHistory":[
		{"totalRevenue":{"raw":1000},"netIncome":{"raw":100},"operatingIncome":{"raw":150}},
		{"totalRevenue":{"raw":800},"netIncome":{"raw":120}}
	]},
	"balanceSheetHistory":{"balanceSheetStatements":[{"totalAssets":{"raw":5000},"totalLiab":{"raw":2500},"cash":{"raw":300}}]},
	"cashflowStatementHistory":{"cashflowStatements":[{"totalCashFromOperatingActivities":{"raw":400},"capitalExpenditures":{"raw":-150}}]}
}],"error":null}}`

const relianceChart = `{"chart":{"result":[{
	"meta":{"regularMarketPrice":2931.45,"fiftyTwoWeekHigh":3217.9},
	"indicators":{"quote":[{"close":[2900.5,null,2931.45],"volume":[1000,2000,3000]}]}
}],"error":null}}`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/v10/finance/quoteSummary/RELIANCE.NS":
			assert.Contains(t, r.URL.Query().Get("modules"), "incomeStatementHistory")
			_, _ = w.Write([]byte(relianceSummary))
		case r.URL.Path == "/v8/finance/chart/RELIANCE.NS":
			assert.Equal(t, "1y", r.URL.Query().Get("range"))
			assert.Equal(t, "1d", r.URL.Query().Get("interval"))
			_, _ = w.Write([]byte(relianceChart))
		case strings.HasPrefix(r.URL.Path, "/v10/finance/quoteSummary/"):
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"quoteSummary":{"result":null,"error":{"code":"Not Found","description":"Quote not found for symbol"}}}`))
		default:
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte("Too Many Requests"))
		}
	}))
}

func TestSummary(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	summary, err := NewClient(server.URL).Summary(context.Background(), "RELIANCE.NS")
	require.NoError(t, err)

	p := summary.Profile
	assert.Equal(t, "Reliance Industries Limited", p.LongName)
	assert.Equal(t, "Energy", p.Sector)
	assert.Equal(t, "19830000000000", p.MarketCap.String())
	assert.Equal(t, "0.56", p.Beta.String(), "beta falls back to key statistics")
	assert.Equal(t, "24.1", p.ForwardPE.String())
	assert.Equal(t, "0.052", p.RevenueGrowth.String())
	assert.True(t, p.Usable())

	latest, prev := summary.Statements.AnnualIncome.LatestAndPrevious(fundamentals.TotalRevenue)
	assert.Equal(t, "1000", latest.String())
	assert.Equal(t, "800", prev.String())
	assert.Equal(t, "250", summary.Statements.AnnualCashFlow.Latest(fundamentals.FreeCashFlow).String())
	assert.Empty(t, summary.Statements.QuarterlyIncome)
}

func TestSummaryUnknownSymbol(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	_, err := NewClient(server.URL).Summary(context.Background(), "NOPE.NS")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrFundamentalsUnavailable))
	assert.Contains(t, err.Error(), "Quote not found")
}

func TestHistorySkipsMissingCloses(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	h, err := NewClient(server.URL).History(context.Background(), "RELIANCE.NS", "1y")
	require.NoError(t, err)

	require.Len(t, h.Closes, 2)
	assert.Equal(t, "2931.45", h.Closes[1].String())
	assert.Len(t, h.Volumes, 2)
	assert.Equal(t, "3000", h.Volumes[1].String())
	assert.Equal(t, "3217.9", h.High52Week.String())
	assert.False(t, h.Low52Week.Valid)
}

func TestHistoryRateLimited(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	_, err := NewClient(server.URL).History(context.Background(), "TCS.NS", "5d")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrFundamentalsUnavailable))
	assert.Contains(t, err.Error(), "429")
}
