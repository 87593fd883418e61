package research

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"equitydesk/internal/adapters/ai"
	"equitydesk/internal/adapters/config"
	"equitydesk/internal/domain/run"
	"equitydesk/internal/report"
	"equitydesk/pkg/errors"
)

// Outcome is what a caller sees of a finished run
type Outcome struct {
	RunID          uuid.UUID        `json:"run_id"`
	Status         run.Status       `json:"status"`
	Model          string           `json:"model,omitempty"`
	Run            config.RunConfig `json:"inputs"`
	Runtime        time.Duration    `json:"-"`
	RuntimeSeconds float64          `json:"runtime_seconds"`
	Sections       report.Sections  `json:"sections"`
	Report         string           `json:"report"`
	ReportPath     string           `json:"report_path,omitempty"`
	Summary        string           `json:"summary"`
	DataGaps       []string         `json:"data_gaps,omitempty"`
	ErrorType      string           `json:"error_type,omitempty"`
	Error          string           `json:"error,omitempty"`
}

func (o *Outcome) setRuntime(d time.Duration) {
	o.Runtime = d
	o.RuntimeSeconds = d.Round(100 * time.Millisecond).Seconds()
}

// ReportEvent is published when a run finishes
type ReportEvent struct {
	RunID          string     `json:"run_id"`
	Ticker         string     `json:"ticker"`
	CompanyName    string     `json:"company_name"`
	Market         string     `json:"market"`
	Trigger        string     `json:"trigger"`
	Status         run.Status `json:"status"`
	Model          string     `json:"model"`
	Decision       string     `json:"decision,omitempty"`
	Confidence     string     `json:"confidence,omitempty"`
	RuntimeSeconds float64    `json:"runtime_seconds"`
	Error          string     `json:"error,omitempty"`
	FinishedAt     time.Time  `json:"finished_at"`
}

func newReportEvent(record *run.Run, outcome *Outcome) ReportEvent {
	ev := ReportEvent{
		RunID:          record.ID.String(),
		Ticker:         record.Ticker,
		CompanyName:    record.CompanyName,
		Market:         record.Market,
		Trigger:        string(record.Trigger),
		Status:         outcome.Status,
		Model:          outcome.Model,
		RuntimeSeconds: outcome.RuntimeSeconds,
		Error:          outcome.Error,
	}
	if record.FinishedAt != nil {
		ev.FinishedAt = *record.FinishedAt
	}
	if outcome.Status == run.StatusCompleted {
		ev.Decision = outcome.Sections[report.FieldDecision]
		ev.Confidence = outcome.Sections[report.FieldConfidence]
	}
	return ev
}

func completedSummary(o *Outcome) string {
	var b strings.Builder
	b.WriteString("Analysis completed successfully.\n\n")
	fmt.Fprintf(&b, "- Company: `%s` (%s)\n", o.Run.CompanyName, o.Run.Ticker)
	fmt.Fprintf(&b, "- Market: `%s` (%s)\n", o.Run.Market, o.Run.ExchangePreference)
	fmt.Fprintf(&b, "- Profile: `%s`\n", o.Run.InvestorProfile)
	fmt.Fprintf(&b, "- Horizon: `%s` days\n", humanize.Comma(int64(o.Run.HorizonDays)))
	fmt.Fprintf(&b, "- Model: `%s`\n", o.Model)
	fmt.Fprintf(&b, "- Runtime: `%.1fs`", o.Runtime.Seconds())
	if o.ReportPath != "" {
		fmt.Fprintf(&b, "\n- Report: `%s` (%s)", o.ReportPath, humanize.Bytes(uint64(len(o.Report))))
	}
	if n := len(o.DataGaps); n > 0 {
		fmt.Fprintf(&b, "\n- Data gaps: %d %s", n, plural(n, "stage", "stages"))
	}
	return b.String()
}

func failedSummary(errorType, message string) string {
	return fmt.Sprintf("Analysis failed.\n\n- Error: `%s`\n- Message: `%s`", errorType, report.CompactError(message))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// errorType names a failure for status lines and failure reports
func errorType(err error) string {
	switch {
	case errors.Is(err, errors.ErrMissingConfig),
		errors.Is(err, errors.ErrInvalidInput),
		errors.Is(err, errors.ErrInvalidTicker):
		return "ValidationError"
	case errors.Is(err, errors.ErrModelsExhausted):
		return "ModelsExhaustedError"
	case errors.Is(err, errors.ErrModelPolicyRejected):
		return "PolicyRejectedError"
	case errors.Is(err, errors.ErrRateLimitExceeded):
		return "RateLimitError"
	case errors.Is(err, context.DeadlineExceeded):
		return "TimeoutError"
	case errors.Is(err, context.Canceled):
		return "CanceledError"
	case ai.IsCallError(err):
		return "ModelError"
	default:
		return "RuntimeError"
	}
}

// IsValidation reports whether a run was rejected before it started
func IsValidation(err error) bool {
	return errorType(err) == "ValidationError"
}
