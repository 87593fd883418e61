package research

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"equitydesk/internal/adapters/ai"
	"equitydesk/internal/adapters/config"
	"equitydesk/internal/agents/workflows"
	"equitydesk/internal/domain/run"
	"equitydesk/internal/metrics"
	"equitydesk/internal/report"
	"equitydesk/pkg/errors"
	"equitydesk/pkg/logger"
)

// Workflow runs the agent pipeline once with one model
type Workflow interface {
	Run(ctx context.Context, run config.RunConfig, model string, sink workflows.ProgressSink) (*workflows.Result, error)
}

// Publisher sends run events to the message bus
type Publisher interface {
	Publish(ctx context.Context, topic string, key string, event interface{}) error
}

// Options configures a Service
type Options struct {
	Workflow Workflow
	Cascade  *ai.ModelCascade
	Writer   *report.Writer
	// Runs defaults to run.NoopRepository
	Runs run.Repository
	// Publisher is optional; events are skipped without it
	Publisher   Publisher
	ReportTopic string
	// Validate checks a run before any work starts; optional
	Validate func(config.RunConfig) error
}

// Service executes research runs end to end: validation, the model cascade,
// report writing, run history and report events.
type Service struct {
	workflow    Workflow
	cascade     *ai.ModelCascade
	writer      *report.Writer
	runs        run.Repository
	publisher   Publisher
	reportTopic string
	validate    func(config.RunConfig) error
	now         func() time.Time
	log         *logger.Logger
}

// NewService creates a research service
func NewService(opts Options) *Service {
	runs := opts.Runs
	if runs == nil {
		runs = run.NoopRepository{}
	}
	writer := opts.Writer
	if writer == nil {
		writer = report.NewWriter("")
	}
	return &Service{
		workflow:    opts.Workflow,
		cascade:     opts.Cascade,
		writer:      writer,
		runs:        runs,
		publisher:   opts.Publisher,
		reportTopic: opts.ReportTopic,
		validate:    opts.Validate,
		now:         time.Now,
		log:         logger.Get().Named("research"),
	}
}

// Request is one research run to execute
type Request struct {
	Run     config.RunConfig
	Trigger run.Trigger
}

// Execute runs the research workflow. A failed run still returns an Outcome
// with error sections and a failure report alongside the error.
func (s *Service) Execute(ctx context.Context, req Request, sink workflows.ProgressSink) (*Outcome, error) {
	started := s.now()
	outcome := &Outcome{Run: req.Run, Status: run.StatusRunning}

	if s.validate != nil {
		if err := s.validate(req.Run); err != nil {
			s.log.Warnw("run rejected", "ticker", req.Run.Ticker, "error", err)
			s.fail(outcome, err, started)
			sink.Emit(workflows.StageFailed, outcome.Error, "")
			metrics.RecordWorkflowRun(string(req.Trigger), s.now().Sub(started), err)
			return outcome, err
		}
	}

	outcome.RunID = uuid.New()
	ctx = errors.WithRunID(ctx, outcome.RunID.String())
	log := s.log.WithRun(ctx).With("ticker", req.Run.Ticker, "trigger", req.Trigger)

	record := &run.Run{
		ID:          outcome.RunID,
		Ticker:      req.Run.Ticker,
		CompanyName: req.Run.CompanyName,
		Market:      string(req.Run.Market),
		Exchange:    string(req.Run.ExchangePreference),
		Profile:     req.Run.InvestorProfile,
		HorizonDays: req.Run.HorizonDays,
		Trigger:     req.Trigger,
		Status:      run.StatusRunning,
		Sections:    json.RawMessage("{}"),
		StartedAt:   started,
	}
	if err := s.runs.Create(ctx, record); err != nil {
		log.Warnw("failed to record run start", "error", err)
	}

	sink.Emit(workflows.StageStarted, "Analysis started. Validating inputs and preparing tools...", "")
	log.Infow("research run started", "company", req.Run.CompanyName, "market", req.Run.Market)

	var result *workflows.Result
	model, err := s.cascade.Run(ctx, func(ctx context.Context, model string) error {
		var runErr error
		result, runErr = s.workflow.Run(ctx, req.Run, model, sink)
		return runErr
	}, func(ev ai.SwitchEvent) {
		sink.Emit(workflows.StageModelSwitch, switchMessage(ev), ev.To)
	})
	outcome.Model = model

	if err == nil && result.Report() == "" {
		err = errors.Wrap(errors.ErrEmptyCompletion, "workflow produced no report")
	}

	if err != nil {
		s.fail(outcome, err, started)
		log.ErrorWithContext(ctx, err, map[string]string{"ticker": req.Run.Ticker, "model": model})
		sink.Emit(workflows.StageFailed, outcome.Error, model)
	} else {
		s.complete(ctx, outcome, result, started)
		sink.Emit(workflows.StageCompleted, "Analysis completed successfully.", model)
		log.Infow("research run completed",
			"model", model,
			"runtime", outcome.Runtime,
			"data_gaps", len(outcome.DataGaps),
		)
	}

	s.finish(ctx, record, outcome)
	metrics.RecordWorkflowRun(string(req.Trigger), outcome.Runtime, err)
	return outcome, err
}

// RunTrigger applies a JSON trigger payload on top of base and executes the run
func (s *Service) RunTrigger(ctx context.Context, base config.RunInput, payload []byte, trigger run.Trigger, sink workflows.ProgressSink) (*Outcome, error) {
	t, err := config.ParseTrigger(payload)
	if err != nil {
		outcome := &Outcome{Run: config.NewRunConfig(base)}
		s.fail(outcome, err, s.now())
		return outcome, err
	}
	return s.Execute(ctx, Request{
		Run:     config.NewRunConfig(config.WithTrigger(base, t)),
		Trigger: trigger,
	}, sink)
}

// Get returns a stored run
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*run.Run, error) {
	return s.runs.GetByID(ctx, id)
}

// Recent lists the latest runs, optionally for one ticker
func (s *Service) Recent(ctx context.Context, ticker string, limit int) ([]run.Run, error) {
	return s.runs.ListRecent(ctx, ticker, limit)
}

// ReportPath is where completed reports are written
func (s *Service) ReportPath() string {
	return s.writer.Path()
}

func (s *Service) complete(ctx context.Context, outcome *Outcome, result *workflows.Result, started time.Time) {
	markdown := result.Report()

	outcome.Status = run.StatusCompleted
	outcome.Report = markdown
	outcome.Sections = report.ParseSections(markdown)
	outcome.DataGaps = result.DataGaps

	if err := s.writer.Write(markdown); err != nil {
		s.log.WithRun(ctx).Errorw("failed to write report", "path", s.writer.Path(), "error", err)
	} else {
		outcome.ReportPath = s.writer.Path()
	}

	outcome.setRuntime(s.now().Sub(started))
	outcome.Summary = completedSummary(outcome)
}

func (s *Service) fail(outcome *Outcome, err error, started time.Time) {
	outcome.Status = run.StatusFailed
	outcome.ErrorType = errorType(err)
	outcome.Error = report.CompactError(err.Error())
	outcome.Sections = report.ErrorSections(err.Error())
	outcome.Report = report.FailureMarkdown(outcome.ErrorType, err.Error())
	outcome.setRuntime(s.now().Sub(started))
	outcome.Summary = failedSummary(outcome.ErrorType, err.Error())
}

// finish stores the final state and publishes the report event. Both are
// best effort: history and events never fail a run.
func (s *Service) finish(ctx context.Context, record *run.Run, outcome *Outcome) {
	log := s.log.WithRun(ctx)

	record.Model = outcome.Model
	record.Report = outcome.Report
	record.Error = outcome.Error
	if sections, err := json.Marshal(outcome.Sections); err == nil {
		record.Sections = sections
	}
	record.Finish(outcome.Status, record.StartedAt.Add(outcome.Runtime))

	if err := s.runs.Update(ctx, record); err != nil {
		log.Warnw("failed to record run result", "error", err)
	}

	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, s.reportTopic, record.Ticker, newReportEvent(record, outcome)); err != nil {
		log.Warnw("failed to publish report event", "topic", s.reportTopic, "error", err)
	}
}

func switchMessage(ev ai.SwitchEvent) string {
	if ev.Reason == ai.ReasonPolicy {
		return "Policy blocked free model. Trying fallback model..."
	}
	return "Rate-limited upstream. Trying fallback model..."
}
