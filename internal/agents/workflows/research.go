package workflows

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	adkagent "google.golang.org/adk/agent"
	"google.golang.org/adk/agent/workflowagents/parallelagent"
	"google.golang.org/adk/agent/workflowagents/sequentialagent"

	"equitydesk/internal/adapters/config"
	"equitydesk/internal/agents"
	"equitydesk/pkg/errors"
	"equitydesk/pkg/logger"
)

// Result is the output of one workflow run on one model
type Result struct {
	Model          string
	News           *agents.Response
	Financials     *agents.Response
	Analysis       *agents.Response
	Recommendation *agents.Response
	// DataGaps lists explorer stages replaced by a data-gap note
	DataGaps []string
	Duration time.Duration
}

// Report returns the final markdown report
func (r *Result) Report() string {
	if r == nil || r.Recommendation == nil {
		return ""
	}
	return r.Recommendation.Content
}

// ResearchWorkflow runs the research desk as an ADK agent tree:
//
//	sequential ┬ parallel ┬ news_info_explorer
//	           │          └ data_explorer
//	           ├ analyst
//	           └ fin_expert
//
// The explorers run concurrently and both finish before the analyst starts.
type ResearchWorkflow struct {
	newsExplorer agents.Agent
	dataExplorer agents.Agent
	analyst      agents.Agent
	finExpert    agents.Agent
	executor     *agents.Executor
	log          *logger.Logger
}

// NewResearchWorkflow wires the four agents into a workflow
func NewResearchWorkflow(newsExplorer, dataExplorer, analyst, finExpert agents.Agent) *ResearchWorkflow {
	return &ResearchWorkflow{
		newsExplorer: newsExplorer,
		dataExplorer: dataExplorer,
		analyst:      analyst,
		finExpert:    finExpert,
		executor:     agents.NewExecutor(),
		log:          logger.Get().Named("research_workflow"),
	}
}

// stage binds one desk agent to its progress stage and result slot
type stage struct {
	agent agents.Agent
	name  string
	label string
	brief *agents.Brief
	slot  **agents.Response
}

// Run executes the workflow with one model. Every agent's tools are called
// first; a data explorer whose tools all failed hands a data-gap note
// downstream instead of calling the model. Model call errors, cancellation
// and invalid tickers abort the run.
func (w *ResearchWorkflow) Run(ctx context.Context, run config.RunConfig, model string, sink ProgressSink) (*Result, error) {
	start := time.Now()
	log := w.log.WithRun(ctx).With("ticker", run.Ticker, "model", model)
	result := &Result{Model: model}

	sink.Emit(StageStarted, "Running 4-agent pipeline (news + financials in parallel)...", model)

	stages := []*stage{
		{agent: w.newsExplorer, name: StageNews, label: "company news", slot: &result.News},
		{agent: w.dataExplorer, name: StageFinancials, label: "financial data", slot: &result.Financials},
		{agent: w.analyst, name: StageAnalysis, label: "analysis", slot: &result.Analysis},
		{agent: w.finExpert, name: StageRecommendation, label: "recommendation", slot: &result.Recommendation},
	}
	if err := w.gather(ctx, run, model, stages[:2], stages[2:], sink); err != nil {
		return nil, err
	}

	book := newNotebook()
	byName := make(map[string]*stage, len(stages))
	for _, s := range stages {
		byName[s.agent.Config().Name] = s
	}

	build := func(s *stage, upstream ...*stage) (adkagent.Agent, error) {
		return s.agent.LLMAgent(agents.Request{
			Run:   run,
			Model: model,
			Brief: s.brief,
			Upstream: func() []agents.Note {
				return book.upstream(upstream...)
			},
		})
	}
	news, err := build(stages[0])
	if err != nil {
		return nil, err
	}
	financials, err := build(stages[1])
	if err != nil {
		return nil, err
	}
	analyst, err := build(stages[2], stages[0], stages[1])
	if err != nil {
		return nil, err
	}
	expert, err := build(stages[3], stages[2])
	if err != nil {
		return nil, err
	}

	explorers, err := parallelagent.New(parallelagent.Config{
		AgentConfig: adkagent.Config{
			Name:        "Explorers",
			Description: "Collects company news and financial data concurrently",
			SubAgents:   []adkagent.Agent{news, financials},
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "build explorer stage")
	}
	desk, err := sequentialagent.New(sequentialagent.Config{
		AgentConfig: adkagent.Config{
			Name:        "ResearchDesk",
			Description: "Explorers, then analyst, then financial expert",
			SubAgents:   []adkagent.Agent{explorers, analyst, expert},
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "build research desk")
	}

	prompt := fmt.Sprintf("Prepare the equity research for %s (%s).", run.CompanyName, run.Ticker)
	err = w.executor.Execute(ctx, desk, prompt, func(out agents.Output) {
		s, ok := byName[out.Author]
		if !ok {
			return
		}
		cfg := s.agent.Config()
		resp := &agents.Response{
			Agent:   cfg.Type,
			Title:   cfg.NoteTitle,
			Model:   model,
			Content: out.Text,
			Usage:   out.Usage,
			DataGap: cfg.GapOnEmptyBrief && s.brief.Empty(),
		}
		if s.brief != nil {
			resp.ToolResults = s.brief.ToolResults
			resp.ToolFailures = s.brief.ToolFailures
		}
		book.put(s, resp)
		if resp.DataGap {
			log.Warnw("explorer produced no data, continuing with data gap", "agent", cfg.Type)
		}
		w.announce(s, book, stages, model, sink)
	})
	if err != nil {
		return nil, err
	}

	for _, s := range stages {
		resp := book.get(s)
		if resp == nil {
			return nil, errors.Wrapf(errors.ErrEmptyCompletion, "%s produced no output", s.agent.Type())
		}
		*s.slot = resp
		if resp.DataGap {
			result.DataGaps = append(result.DataGaps, resp.Content)
		}
	}
	result.Duration = time.Since(start)

	log.Infow("research workflow finished",
		"data_gaps", len(result.DataGaps),
		"duration_ms", result.Duration.Milliseconds(),
	)
	return result, nil
}

// gather calls every agent's tools concurrently before any model runs
func (w *ResearchWorkflow) gather(ctx context.Context, run config.RunConfig, model string, explorers, writers []*stage, sink ProgressSink) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, s := range explorers {
		g.Go(func() error {
			sink.Emit(s.name, fmt.Sprintf("Gathering %s...", s.label), model)
			brief, err := s.agent.Gather(gctx, run)
			s.brief = brief
			return err
		})
	}
	for _, s := range writers {
		g.Go(func() error {
			brief, err := s.agent.Gather(gctx, run)
			s.brief = brief
			return err
		})
	}
	return g.Wait()
}

// announce reports a finished stage and the stage it unblocks. Outputs
// arrive one at a time from the runner, so the analysis starts exactly once.
func (w *ResearchWorkflow) announce(s *stage, book *notebook, stages []*stage, model string, sink ProgressSink) {
	switch s.name {
	case StageNews, StageFinancials:
		sink.Emit(s.name, fmt.Sprintf("Finished %s.", s.label), model)
		if book.get(stages[0]) != nil && book.get(stages[1]) != nil {
			sink.Emit(StageAnalysis, "Synthesizing news and financials...", model)
		}
	case StageAnalysis:
		sink.Emit(StageRecommendation, "Preparing the investment recommendation...", model)
	}
}

// notebook holds finished notes; the analyst and expert read it from their
// model callbacks while the runner is still producing events.
type notebook struct {
	mu    sync.Mutex
	notes map[*stage]*agents.Response
}

func newNotebook() *notebook {
	return &notebook{notes: make(map[*stage]*agents.Response)}
}

func (n *notebook) put(s *stage, resp *agents.Response) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notes[s] = resp
}

func (n *notebook) get(s *stage) *agents.Response {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.notes[s]
}

func (n *notebook) upstream(stages ...*stage) []agents.Note {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]agents.Note, 0, len(stages))
	for _, s := range stages {
		if resp, ok := n.notes[s]; ok {
			out = append(out, resp.Note())
		}
	}
	return out
}
