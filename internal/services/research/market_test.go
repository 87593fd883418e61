package research

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"equitydesk/internal/domain/news"
)

func TestSuggestMarket(t *testing.T) {
	tests := []struct {
		name        string
		ticker      string
		company     string
		current     string
		wantMarket  news.Market
		wantMessage string
	}{
		{"nse suffix", "tatamotors.ns", "Tata Motors", "global", news.MarketIndia, "Auto-suggestion: switched `Market` to `india` based on ticker/company pattern."},
		{"known large cap", "INFY", "", "", news.MarketIndia, "Auto-suggestion: switched `Market` to `india` based on ticker/company pattern."},
		{"company keyword", "XYZ", "Mahindra & Mahindra", "global", news.MarketIndia, "Auto-suggestion: switched `Market` to `india` based on ticker/company pattern."},
		{"already india", "RELIANCE", "Reliance Industries", "india", news.MarketIndia, "Market routing: `india`."},
		{"india kept for foreign ticker", "AAPL", "Apple", "India", news.MarketIndia, "Market routing: `india`."},
		{"global", "AAPL", "Apple Inc.", "global", news.MarketGlobal, "Market routing: `global`."},
		{"london listing stays global", "HSBA.L", "HSBC Holdings", "", news.MarketGlobal, "Market routing: `global`."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SuggestMarket(tt.ticker, tt.company, tt.current)
			assert.Equal(t, tt.wantMarket, got.Market)
			assert.Equal(t, tt.wantMessage, got.Message)
		})
	}
}
