package news

import (
	"fmt"

	"equitydesk/internal/domain/news"
)

// QueryText builds the free-text search for a company. The Indian variant adds
// venue, currency and regulator keywords so local coverage ranks higher.
func QueryText(company, ticker string, market news.Market) string {
	if market == news.MarketIndia {
		return fmt.Sprintf(
			"%s (%s) latest earnings guidance outlook NSE BSE India INR rupee regulation SEBI RBI risks capital allocation",
			company, ticker,
		)
	}
	return fmt.Sprintf(
		"%s (%s) latest earnings guidance outlook regulatory risks capital allocation",
		company, ticker,
	)
}
