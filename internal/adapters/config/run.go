package config

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"equitydesk/internal/domain/news"
	"equitydesk/pkg/errors"
)

const (
	defaultInvestorProfile = "moderate"
	defaultHorizonDays     = 365
	defaultLookbackDays    = 30
)

// RunConfig is the normalised, immutable input of one research run.
// Build it with NewRunConfig or WithTrigger; fields are never edited in place.
type RunConfig struct {
	Ticker             string        `json:"ticker"`
	CompanyName        string        `json:"company_name"`
	Market             news.Market   `json:"market"`
	ExchangePreference news.Exchange `json:"exchange_preference"`
	InvestorProfile    string        `json:"investor_profile"`
	HorizonDays        int           `json:"analysis_horizon_days"`
	LookbackDays       int           `json:"news_lookback_days"`
	CurrentYear        int           `json:"current_year"`

	// RequestedTicker is the ticker before localisation
	RequestedTicker string `json:"requested_ticker"`
}

// RunInput carries raw, unnormalised run values (env, trigger payload, API request)
type RunInput struct {
	Ticker             string
	CompanyName        string
	Market             string
	ExchangePreference string
	InvestorProfile    string
	HorizonDays        string
	LookbackDays       string
}

// NewRunConfig normalises raw input. An empty ticker is kept empty so Validate
// can report it alongside the other missing items.
func NewRunConfig(in RunInput) RunConfig {
	market := news.ParseMarket(in.Market)
	exchange := news.ParseExchange(in.ExchangePreference)

	requested := strings.ToUpper(strings.TrimSpace(in.Ticker))
	ticker, err := news.LocalizeSymbol(news.TickerSpec{
		RawSymbol:          requested,
		Market:             market,
		ExchangePreference: exchange,
	})
	if err != nil {
		ticker = ""
	}

	profile := strings.TrimSpace(in.InvestorProfile)
	if profile == "" {
		profile = defaultInvestorProfile
	}

	return RunConfig{
		Ticker:             ticker,
		CompanyName:        strings.TrimSpace(in.CompanyName),
		Market:             market,
		ExchangePreference: exchange,
		InvestorProfile:    profile,
		HorizonDays:        positiveInt(in.HorizonDays, defaultHorizonDays),
		LookbackDays:       positiveInt(in.LookbackDays, defaultLookbackDays),
		CurrentYear:        time.Now().Year(),
		RequestedTicker:    requested,
	}
}

// RunInput returns the company section as raw run input
func (c CompanyConfig) RunInput() RunInput {
	return RunInput{
		Ticker:             c.Ticker,
		CompanyName:        c.Name,
		Market:             c.Market,
		ExchangePreference: c.ExchangePreference,
		InvestorProfile:    c.InvestorProfile,
		HorizonDays:        c.HorizonDays,
		LookbackDays:       c.LookbackDays,
	}
}

// DefaultRun is the run described by the environment alone
func (c *Config) DefaultRun() RunConfig {
	return NewRunConfig(c.Company.RunInput())
}

// TickerSpec returns the localiser input for this run
func (r RunConfig) TickerSpec() news.TickerSpec {
	return news.TickerSpec{
		RawSymbol:          r.Ticker,
		Market:             r.Market,
		ExchangePreference: r.ExchangePreference,
	}
}

// Trigger is a JSON payload overriding parts of the environment run.
// Day counts accept numbers or numeric strings.
type Trigger struct {
	Ticker             *string          `json:"ticker"`
	CompanyName        *string          `json:"company_name"`
	Market             *string          `json:"market"`
	ExchangePreference *string          `json:"exchange_preference"`
	InvestorProfile    *string          `json:"investor_profile"`
	HorizonDays        *json.RawMessage `json:"analysis_horizon_days"`
	LookbackDays       *json.RawMessage `json:"news_lookback_days"`
}

// ParseTrigger decodes a trigger payload
func ParseTrigger(payload []byte) (Trigger, error) {
	var t Trigger
	if len(strings.TrimSpace(string(payload))) == 0 {
		return t, errors.Wrap(errors.ErrInvalidInput, "no trigger payload provided")
	}
	if err := json.Unmarshal(payload, &t); err != nil {
		return t, errors.Wrapf(errors.ErrInvalidInput, "invalid JSON trigger payload: %v", err)
	}
	return t, nil
}

// WithTrigger applies the non-null trigger overrides on top of base and
// re-normalises the result.
func WithTrigger(base RunInput, t Trigger) RunInput {
	out := base
	override := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	override(&out.Ticker, t.Ticker)
	override(&out.CompanyName, t.CompanyName)
	override(&out.Market, t.Market)
	override(&out.ExchangePreference, t.ExchangePreference)
	override(&out.InvestorProfile, t.InvestorProfile)
	if v, ok := rawNumber(t.HorizonDays); ok {
		out.HorizonDays = v
	}
	if v, ok := rawNumber(t.LookbackDays); ok {
		out.LookbackDays = v
	}
	return out
}

func rawNumber(raw *json.RawMessage) (string, bool) {
	if raw == nil {
		return "", false
	}
	text := strings.TrimSpace(string(*raw))
	if text == "null" || text == "" {
		return "", false
	}
	return strings.Trim(text, `"`), true
}

func positiveInt(raw string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		// Accept "30.0" style values from loosely typed payloads.
		f, ferr := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if ferr != nil {
			return def
		}
		v = int(f)
	}
	if v <= 0 {
		return def
	}
	return v
}
