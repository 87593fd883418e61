package news

import (
	"strings"

	"equitydesk/pkg/errors"
)

var (
	globalPriorityDomains = DomainPriorityList{"reuters.com", "bloomberg.com", "wsj.com"}
	indiaPriorityDomains  = DomainPriorityList{
		"economictimes.indiatimes.com",
		"moneycontrol.com",
		"livemint.com",
		"business-standard.com",
		"reuters.com",
	}
)

// PriorityDomains returns a copy of the domain list for the market
func PriorityDomains(m Market) DomainPriorityList {
	src := globalPriorityDomains
	if m == MarketIndia {
		src = indiaPriorityDomains
	}
	out := make(DomainPriorityList, len(src))
	copy(out, src)
	return out
}

// HasExchangeSuffix reports whether the symbol already names a venue ("RELIANCE.NS", "BRK.B")
func HasExchangeSuffix(symbol string) bool {
	return strings.Contains(symbol, ".")
}

// IsIndianListing reports whether the symbol carries an NSE or BSE suffix
func IsIndianListing(symbol string) bool {
	s := strings.ToUpper(symbol)
	return strings.HasSuffix(s, ".NS") || strings.HasSuffix(s, ".BO")
}

// LocalizeSymbol upper-cases the raw symbol and, for the Indian market, appends
// the preferred exchange suffix when none is present.
func LocalizeSymbol(spec TickerSpec) (string, error) {
	symbol := strings.ToUpper(strings.TrimSpace(spec.RawSymbol))
	if symbol == "" {
		return "", errors.Wrapf(errors.ErrInvalidTicker, "ticker %q is empty", spec.RawSymbol)
	}
	if spec.Market == MarketIndia && !HasExchangeSuffix(symbol) {
		return symbol + spec.ExchangePreference.Suffix(), nil
	}
	return symbol, nil
}

// Localize resolves the symbol and the priority domains for it.
// An NSE/BSE listing always gets the Indian domains, whatever the configured market.
func Localize(spec TickerSpec) (string, DomainPriorityList, error) {
	symbol, err := LocalizeSymbol(spec)
	if err != nil {
		return "", nil, err
	}
	return symbol, PriorityDomains(EffectiveMarket(spec.Market, symbol)), nil
}

// EffectiveMarket promotes a resolved NSE/BSE symbol to the Indian market
func EffectiveMarket(m Market, symbol string) Market {
	if IsIndianListing(symbol) {
		return MarketIndia
	}
	return m
}

// CandidateSymbols lists the symbols a fundamentals lookup should try, best first.
// Indian tickers try the preferred (or given) exchange, then the other one, then
// the bare root. Anything else is looked up as is.
func CandidateSymbols(spec TickerSpec) []string {
	base := strings.ToUpper(strings.TrimSpace(spec.RawSymbol))
	switch {
	case base == "":
		return []string{base}
	case IsIndianListing(base):
		root := base[:len(base)-3]
		given := ExchangeNSE
		if strings.HasSuffix(base, ".BO") {
			given = ExchangeBSE
		}
		return []string{base, root + given.Other().Suffix(), root}
	case HasExchangeSuffix(base) || spec.Market != MarketIndia:
		return []string{base}
	}
	pref := spec.ExchangePreference
	return []string{base + pref.Suffix(), base + pref.Other().Suffix(), base}
}
