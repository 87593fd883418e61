package fundamentals

import (
	"context"
	"fmt"
	"strings"

	"equitydesk/internal/domain/fundamentals"
	"equitydesk/internal/domain/news"
	"equitydesk/pkg/errors"
	"equitydesk/pkg/logger"
)

// Data-quality notes attached to failure payloads
const (
	NoteCompanyInfoFailed = "Company info request failed."
	NoteStatementsFailed  = "Financial statement fetch failed."
	NotePriceFailed       = "Stock price request failed."
)

// Service resolves tickers against the fundamentals backend and shapes the
// explorer tool payloads
type Service struct {
	backend fundamentals.Backend
	log     *logger.Logger
}

// NewService creates a fundamentals service
func NewService(backend fundamentals.Backend) *Service {
	return &Service{
		backend: backend,
		log:     logger.Get().Named("fundamentals"),
	}
}

// Backend returns the underlying provider
func (s *Service) Backend() fundamentals.Backend {
	return s.backend
}

// Resolved is the provider symbol chosen for a requested ticker
type Resolved struct {
	Requested string
	Symbol    string
	// Summary is never nil; it is empty when the provider knows nothing about Symbol
	Summary *fundamentals.Summary
	Notes   []string
}

// Resolve walks the candidate symbols in order and picks the first one the
// provider recognises, either by profile or by a non-empty 5d history. When
// none is recognised the last candidate is used with whatever it returned.
func (s *Service) Resolve(ctx context.Context, spec news.TickerSpec) (*Resolved, error) {
	requested := strings.ToUpper(strings.TrimSpace(spec.RawSymbol))
	if requested == "" {
		return nil, errors.Wrap(errors.ErrInvalidTicker, "ticker is empty")
	}

	candidates := news.CandidateSymbols(spec)
	var (
		lastSummary *fundamentals.Summary
		lastErr     error
	)

	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		summary, err := s.backend.Summary(ctx, candidate)
		lastSummary, lastErr = summary, err
		if err == nil && summary.Profile.Usable() {
			return s.resolved(requested, candidate, summary), nil
		}
		if err != nil {
			s.log.Debugw("candidate summary failed", "symbol", candidate, "error", err)
		}

		history, herr := s.backend.History(ctx, candidate, "5d")
		if herr == nil && !history.Empty() {
			if summary == nil {
				summary = &fundamentals.Summary{}
			}
			return s.resolved(requested, candidate, summary), nil
		}
	}

	last := candidates[len(candidates)-1]
	if lastErr != nil && !errors.Is(lastErr, errors.ErrNotFound) {
		return nil, errors.Wrapf(lastErr, "resolve %s", requested)
	}
	if lastSummary == nil {
		lastSummary = &fundamentals.Summary{}
	}
	s.log.Infow("no candidate recognised, using last", "requested", requested, "symbol", last)
	return &Resolved{Requested: requested, Symbol: last, Summary: lastSummary, Notes: []string{}}, nil
}

func (s *Service) resolved(requested, symbol string, summary *fundamentals.Summary) *Resolved {
	notes := []string{}
	if symbol != requested {
		notes = append(notes, fmt.Sprintf("Resolved ticker '%s' to '%s' for %s lookup.", requested, symbol, s.providerLabel()))
	}
	return &Resolved{Requested: requested, Symbol: symbol, Summary: summary, Notes: notes}
}

func (s *Service) providerLabel() string {
	if s.backend.Name() == "yahoo_finance" {
		return "Yahoo Finance"
	}
	return s.backend.Name()
}

// Failure is the payload returned instead of an error when a lookup fails
type Failure struct {
	Ticker           string   `json:"ticker"`
	Error            string   `json:"error"`
	DataQualityNotes []string `json:"data_quality_notes"`
}

// NewFailure builds a failure payload for the requested ticker
func NewFailure(requested, what string, err error, note string) *Failure {
	return &Failure{
		Ticker:           strings.ToUpper(strings.TrimSpace(requested)),
		Error:            fmt.Sprintf("%s: %v", what, err),
		DataQualityNotes: []string{note},
	}
}
