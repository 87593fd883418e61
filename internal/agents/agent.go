package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	adkagent "google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"

	"equitydesk/internal/adapters/adk"
	"equitydesk/internal/adapters/ai"
	"equitydesk/internal/adapters/config"
	"equitydesk/internal/tools"
	"equitydesk/internal/tools/shared"
	"equitydesk/pkg/errors"
	"equitydesk/pkg/logger"
	"equitydesk/pkg/templates"
)

// Agent is one research desk role. Its tools are called directly before the
// model runs; the model step is an ADK llmagent built per run and model.
type Agent interface {
	Type() AgentType
	Config() AgentConfig
	// Gather calls the agent's tools. Tool failures are recorded in the
	// brief; only cancellation and invalid tickers are returned as errors.
	Gather(ctx context.Context, run config.RunConfig) (*Brief, error)
	// LLMAgent builds the ADK agent that writes this role's note.
	LLMAgent(req Request) (adkagent.Agent, error)
}

// Request describes one model run of an agent.
type Request struct {
	Run   config.RunConfig
	Model string
	Brief *Brief
	// Upstream is read when the model is about to be called, after the
	// stages this agent depends on have finished.
	Upstream func() []Note
}

// Brief holds the tool payloads gathered for one run.
type Brief struct {
	Agent       AgentType
	ToolResults []ToolResult
	// ToolFailures lists tools that errored; their payload carries the error instead
	ToolFailures []string
}

// Empty reports whether every tool failed, leaving nothing to write about.
func (b *Brief) Empty() bool {
	return b != nil && len(b.ToolResults) > 0 && len(b.ToolFailures) == len(b.ToolResults)
}

// Response is one agent's research output.
type Response struct {
	Agent        AgentType
	Title        string
	Model        string
	Content      string
	ToolResults  []ToolResult
	ToolFailures []string
	Usage        ai.Usage
	// DataGap is set when the note stands in for output that could not be collected
	DataGap bool
}

// Note returns the response as downstream context
func (r *Response) Note() Note {
	return Note{Title: r.Title, Content: r.Content}
}

// DataGapNote is the note written in place of an explorer whose data could not be collected
func DataGapNote(cfg AgentConfig, reason string) string {
	return fmt.Sprintf("Data gap: %s could not be collected. Error: %s", cfg.NoteTitle, reason)
}

type llmAgent struct {
	config    AgentConfig
	provider  ai.ChatProvider
	tools     []tools.Tool
	templates *templates.Registry
	usage     *UsageTracker
	log       *logger.Logger
}

func (a *llmAgent) Type() AgentType     { return a.config.Type }
func (a *llmAgent) Config() AgentConfig { return a.config }

func (a *llmAgent) Gather(ctx context.Context, run config.RunConfig) (*Brief, error) {
	if a.config.TotalTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.config.TotalTimeout)
		defer cancel()
	}

	runID, _ := errors.RunIDFrom(ctx)
	ctx = shared.WithInvocationMetadata(ctx, shared.InvocationMetadata{
		RunID:  runID,
		Agent:  string(a.config.Type),
		Symbol: run.Ticker,
	})
	log := a.log.WithRun(ctx)

	brief := &Brief{Agent: a.config.Type}
	args := toolArgs(run)
	for _, t := range a.tools {
		payload, err := t.Execute(ctx, args)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, errors.ErrInvalidTicker) {
				return nil, errors.Wrapf(err, "%s tool %s", a.config.Type, t.Name())
			}
			log.Warnw("tool failed, continuing with data gap", "tool", t.Name(), "error", err)
			failure := fmt.Sprintf("%s failed: %v", t.Name(), err)
			brief.ToolFailures = append(brief.ToolFailures, failure)
			payload = map[string]interface{}{"error": failure}
		}

		encoded, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return nil, errors.Wrapf(err, "encode %s result", t.Name())
		}
		brief.ToolResults = append(brief.ToolResults, ToolResult{Name: t.Name(), JSON: string(encoded)})
	}

	log.Debugw("tools gathered", "tools", len(brief.ToolResults), "tool_failures", len(brief.ToolFailures))
	return brief, nil
}

func (a *llmAgent) LLMAgent(req Request) (adkagent.Agent, error) {
	system, err := a.templates.Render(a.config.SystemPromptTemplate, PromptData{Agent: a.config, Run: req.Run})
	if err != nil {
		return nil, errors.Wrapf(err, "render system prompt for %s", a.config.Name)
	}

	var before []adkagent.BeforeAgentCallback
	if a.config.GapOnEmptyBrief && req.Brief.Empty() {
		before = append(before, dataGapCallback(DataGapNote(a.config, strings.Join(req.Brief.ToolFailures, "; "))))
	}

	return llmagent.New(llmagent.Config{
		Name:        a.config.Name,
		Description: a.config.Goal,
		Model: adk.NewModelAdapter(a.provider, req.Model,
			adk.WithAgent(string(a.config.Type)),
			adk.WithMaxTokens(a.config.MaxTokens),
			adk.WithCallTimeout(a.config.TotalTimeout),
		),
		Instruction:          system,
		BeforeAgentCallbacks: before,
		BeforeModelCallbacks: []llmagent.BeforeModelCallback{a.taskPromptCallback(req)},
		AfterModelCallbacks:  []llmagent.AfterModelCallback{usageCallback(a.usage, req.Model)},
	})
}

// taskPrompt renders the user turn the model answers: tool payloads plus upstream notes
func (a *llmAgent) taskPrompt(req Request) (string, error) {
	data := PromptData{Agent: a.config, Run: req.Run}
	if req.Brief != nil {
		data.ToolResults = req.Brief.ToolResults
	}
	if req.Upstream != nil {
		data.Upstream = req.Upstream()
	}
	task, err := a.templates.Render(a.config.TaskPromptTemplate, data)
	if err != nil {
		return "", errors.Wrapf(err, "render task prompt for %s", a.config.Name)
	}
	return task, nil
}

func toolArgs(run config.RunConfig) map[string]interface{} {
	return map[string]interface{}{
		"ticker":              run.Ticker,
		"company_name":        run.CompanyName,
		"market":              string(run.Market),
		"exchange_preference": string(run.ExchangePreference),
		"lookback_days":       run.LookbackDays,
	}
}
