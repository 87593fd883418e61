package runs

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"equitydesk/internal/adapters/config"
	"equitydesk/internal/agents/workflows"
	"equitydesk/internal/domain/run"
	"equitydesk/internal/services/research"
	"equitydesk/pkg/errors"
	"equitydesk/pkg/logger"
)

const (
	maxBodyBytes       = 64 << 10
	defaultRunTimeout  = 15 * time.Minute
	defaultRecentLimit = 20
)

// Service is the part of the research service the API uses
type Service interface {
	RunTrigger(ctx context.Context, base config.RunInput, payload []byte, trigger run.Trigger, sink workflows.ProgressSink) (*research.Outcome, error)
	Get(ctx context.Context, id uuid.UUID) (*run.Run, error)
	Recent(ctx context.Context, ticker string, limit int) ([]run.Run, error)
}

// Handler serves the research run endpoints. Run requests use the same JSON
// shape as trigger payloads; omitted fields fall back to the configured defaults.
type Handler struct {
	svc        Service
	defaults   func() config.RunInput
	runTimeout time.Duration
	log        *logger.Logger
}

// NewHandler creates the run handler. defaults is called per request so a
// reloaded .env is picked up.
func NewHandler(svc Service, defaults func() config.RunInput, runTimeout time.Duration) *Handler {
	if runTimeout <= 0 {
		runTimeout = defaultRunTimeout
	}
	return &Handler{
		svc:        svc,
		defaults:   defaults,
		runTimeout: runTimeout,
		log:        logger.Get().Named("api_runs"),
	}
}

// Register mounts the endpoints on mux
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/defaults", h.HandleDefaults)
	mux.HandleFunc("POST /api/market-suggestion", h.HandleMarketSuggestion)
	mux.HandleFunc("POST /api/runs", h.HandleRun)
	mux.HandleFunc("GET /api/runs", h.HandleRecent)
	mux.HandleFunc("GET /api/runs/stream", h.HandleStream)
	mux.HandleFunc("GET /api/runs/{id}", h.HandleGet)
}

// Defaults is the form-ready view of the configured run
type Defaults struct {
	Ticker             string `json:"ticker"`
	CompanyName        string `json:"company_name"`
	Market             string `json:"market"`
	ExchangePreference string `json:"exchange_preference"`
	InvestorProfile    string `json:"investor_profile"`
	HorizonDays        int    `json:"analysis_horizon_days"`
	LookbackDays       int    `json:"news_lookback_days"`
}

// HandleDefaults returns the normalised configured defaults
func (h *Handler) HandleDefaults(w http.ResponseWriter, r *http.Request) {
	rc := config.NewRunConfig(h.defaults())
	writeJSON(w, http.StatusOK, Defaults{
		Ticker:             rc.RequestedTicker,
		CompanyName:        rc.CompanyName,
		Market:             string(rc.Market),
		ExchangePreference: string(rc.ExchangePreference),
		InvestorProfile:    rc.InvestorProfile,
		HorizonDays:        rc.HorizonDays,
		LookbackDays:       rc.LookbackDays,
	})
}

type suggestionRequest struct {
	Ticker      string `json:"ticker"`
	CompanyName string `json:"company_name"`
	Market      string `json:"market"`
}

// HandleMarketSuggestion routes a ticker/company pair to a market
func (h *Handler) HandleMarketSuggestion(w http.ResponseWriter, r *http.Request) {
	var req suggestionRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.Wrapf(errors.ErrInvalidInput, "invalid JSON body: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, research.SuggestMarket(req.Ticker, req.CompanyName, req.Market))
}

// HandleRun executes a run synchronously and returns its outcome.
// Rejected input answers 400 with error sections; failed runs answer 500.
func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.Wrap(errors.ErrInvalidInput, "failed to read body"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.runTimeout)
	defer cancel()

	outcome, err := h.svc.RunTrigger(ctx, h.defaults(), requestPayload(payload), run.TriggerAPI, nil)
	writeJSON(w, statusFor(err), outcome)
}

// HandleGet returns one stored run
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.Wrap(errors.ErrInvalidInput, "run id must be a UUID"))
		return
	}

	stored, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

// RecentRun is one row of the run history listing
type RecentRun struct {
	ID          uuid.UUID  `json:"id"`
	Ticker      string     `json:"ticker"`
	CompanyName string     `json:"company_name"`
	Status      run.Status `json:"status"`
	Model       string     `json:"model"`
	Trigger     string     `json:"trigger"`
	Started     string     `json:"started"`
	Runtime     string     `json:"runtime,omitempty"`
}

// HandleRecent lists recent runs, optionally filtered by ?ticker=
func (h *Handler) HandleRecent(w http.ResponseWriter, r *http.Request) {
	limit := defaultRecentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, errors.Wrap(errors.ErrInvalidInput, "limit must be a positive integer"))
			return
		}
		limit = n
	}
	ticker := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("ticker")))

	stored, err := h.svc.Recent(r.Context(), ticker, limit)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	now := time.Now()
	out := make([]RecentRun, 0, len(stored))
	for i := range stored {
		rec := &stored[i]
		row := RecentRun{
			ID:          rec.ID,
			Ticker:      rec.Ticker,
			CompanyName: rec.CompanyName,
			Status:      rec.Status,
			Model:       rec.Model,
			Trigger:     string(rec.Trigger),
			Started:     humanize.RelTime(rec.StartedAt, now, "ago", "from now"),
		}
		if rec.FinishedAt != nil {
			row.Runtime = rec.Duration(now).Round(100 * time.Millisecond).String()
		}
		out = append(out, row)
	}
	writeJSON(w, http.StatusOK, out)
}

// requestPayload treats an empty body as "use the defaults"
func requestPayload(body []byte) []byte {
	if len(strings.TrimSpace(string(body))) == 0 {
		return []byte("{}")
	}
	return body
}

func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case research.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, errors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errors.ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
