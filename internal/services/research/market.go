package research

import (
	"strings"

	"equitydesk/internal/domain/news"
)

// Large caps that are almost always meant as Indian listings
var indiaTickerHints = map[string]bool{
	"RELIANCE":   true,
	"HDFC":       true,
	"HDFCBANK":   true,
	"ICICIBANK":  true,
	"SBIN":       true,
	"TCS":        true,
	"INFY":       true,
	"WIPRO":      true,
	"LT":         true,
	"LTIM":       true,
	"AXISBANK":   true,
	"KOTAKBANK":  true,
	"BAJFINANCE": true,
	"HINDUNILVR": true,
	"ITC":        true,
	"MARUTI":     true,
	"SUNPHARMA":  true,
	"TITAN":      true,
	"ADANIENT":   true,
	"ADANIPORTS": true,
	"POWERGRID":  true,
	"ULTRACEMCO": true,
	"ONGC":       true,
	"NTPC":       true,
}

var indiaCompanyKeywords = []string{
	"reliance",
	"hdfc",
	"icici",
	"infosys",
	"adani",
	"mahindra",
	"kotak",
	"bajaj",
	"maruti",
	"sun pharma",
	"hindustan unilever",
	"nifty",
	"sensex",
}

// MarketSuggestion is the market to use for a ticker/company pair
type MarketSuggestion struct {
	Market  news.Market `json:"market"`
	Message string      `json:"message"`
}

// SuggestMarket routes Indian-looking inputs to the india market. A market
// already set to india is never switched back to global.
func SuggestMarket(ticker, companyName, current string) MarketSuggestion {
	market := news.ParseMarket(current)

	if likelyIndian(ticker, companyName) && market != news.MarketIndia {
		return MarketSuggestion{
			Market:  news.MarketIndia,
			Message: "Auto-suggestion: switched `Market` to `india` based on ticker/company pattern.",
		}
	}
	if market == news.MarketIndia {
		return MarketSuggestion{Market: news.MarketIndia, Message: "Market routing: `india`."}
	}
	return MarketSuggestion{Market: news.MarketGlobal, Message: "Market routing: `global`."}
}

func likelyIndian(ticker, companyName string) bool {
	symbol := strings.ToUpper(strings.TrimSpace(ticker))
	if strings.HasSuffix(symbol, ".NS") || strings.HasSuffix(symbol, ".BO") {
		return true
	}

	root, _, _ := strings.Cut(symbol, ".")
	if indiaTickerHints[root] {
		return true
	}

	company := strings.ToLower(strings.TrimSpace(companyName))
	for _, keyword := range indiaCompanyKeywords {
		if strings.Contains(company, keyword) {
			return true
		}
	}
	return false
}
