package shared

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"equitydesk/internal/domain/news"
)

// ArgString returns a trimmed string argument, or "" when absent
func ArgString(args map[string]interface{}, key string) string {
	switch v := args[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// ArgInt returns a positive integer argument, or def when absent, invalid or not positive
func ArgInt(args map[string]interface{}, key string, def int) int {
	var n int
	switch v := args[key].(type) {
	case int:
		n = v
	case int64:
		n = int(v)
	case float64:
		n = int(v)
	case json.Number:
		i, err := v.Int64()
		if err != nil {
			return def
		}
		n = int(i)
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return def
		}
		n = i
	default:
		return def
	}
	if n <= 0 {
		return def
	}
	return n
}

// TickerSpec reads ticker, market and exchange_preference, falling back to defaults
func (d Defaults) TickerSpec(args map[string]interface{}) news.TickerSpec {
	market := d.Market
	if raw := ArgString(args, "market"); raw != "" {
		market = news.ParseMarket(raw)
	}
	exchange := d.Exchange
	if raw := ArgString(args, "exchange_preference"); raw != "" {
		exchange = news.ParseExchange(raw)
	}
	if exchange == "" {
		exchange = news.ExchangeNSE
	}
	if market == "" {
		market = news.MarketGlobal
	}
	return news.TickerSpec{
		RawSymbol:          ArgString(args, "ticker"),
		Market:             market,
		ExchangePreference: exchange,
	}
}
