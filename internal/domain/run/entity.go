package run

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Status of a research run
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Trigger names what started a run
type Trigger string

const (
	TriggerCLI       Trigger = "cli"
	TriggerPayload   Trigger = "trigger"
	TriggerAPI       Trigger = "api"
	TriggerScheduled Trigger = "scheduled"
)

// Run is one research workflow execution
type Run struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Ticker      string    `db:"ticker" json:"ticker"`
	CompanyName string    `db:"company_name" json:"company_name"`
	Market      string    `db:"market" json:"market"`
	Exchange    string    `db:"exchange_preference" json:"exchange_preference"`
	Profile     string    `db:"investor_profile" json:"investor_profile"`
	HorizonDays int       `db:"horizon_days" json:"analysis_horizon_days"`
	Trigger     Trigger   `db:"trigger" json:"trigger"`
	Status      Status    `db:"status" json:"status"`
	// Model is the model that produced the report, or the last one tried
	Model string `db:"model" json:"model"`

	// Sections is the parsed recommendation as a JSON object
	Sections json.RawMessage `db:"sections" json:"sections"`
	Report   string          `db:"report" json:"report"`
	Error    string          `db:"error" json:"error,omitempty"`

	StartedAt  time.Time  `db:"started_at" json:"started_at"`
	FinishedAt *time.Time `db:"finished_at" json:"finished_at,omitempty"`
}

// Duration returns the run time so far, or in total once finished
func (r *Run) Duration(now time.Time) time.Duration {
	if r.FinishedAt != nil {
		return r.FinishedAt.Sub(r.StartedAt)
	}
	return now.Sub(r.StartedAt)
}

// Finish marks the run as completed or failed
func (r *Run) Finish(status Status, at time.Time) {
	r.Status = status
	r.FinishedAt = &at
}
