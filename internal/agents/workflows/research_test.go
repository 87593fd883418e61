package workflows

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equitydesk/internal/adapters/ai"
	"equitydesk/internal/adapters/config"
	"equitydesk/internal/agents"
	"equitydesk/internal/tools"
	"equitydesk/pkg/errors"
)

// scriptedProvider answers per agent and records every prompt it saw
type scriptedProvider struct {
	replies map[agents.AgentType]string
	errs    map[agents.AgentType]error

	mu    sync.Mutex
	calls map[agents.AgentType][]ai.ChatRequest
}

func newScriptedProvider() *scriptedProvider {
	return &scriptedProvider{
		replies: map[agents.AgentType]string{
			agents.AgentNewsExplorer: "news note",
			agents.AgentDataExplorer: "financial note",
			agents.AgentAnalyst:      "analysis",
			agents.AgentFinExpert:    "## Decision\nHold",
		},
		errs:  map[agents.AgentType]error{},
		calls: map[agents.AgentType][]ai.ChatRequest{},
	}
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Chat(_ context.Context, req ai.ChatRequest) (*ai.ChatResponse, error) {
	role := agents.AgentType(req.Agent)
	p.mu.Lock()
	p.calls[role] = append(p.calls[role], req)
	p.mu.Unlock()
	if err := p.errs[role]; err != nil {
		return nil, err
	}
	return &ai.ChatResponse{
		Model:   req.Model,
		Content: p.replies[role],
		Usage:   ai.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}, nil
}

func (p *scriptedProvider) prompts(role agents.AgentType) []ai.ChatRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ai.ChatRequest(nil), p.calls[role]...)
}

type eventLog struct {
	mu     sync.Mutex
	events []ProgressEvent
}

func (l *eventLog) sink() ProgressSink {
	return func(e ProgressEvent) {
		l.mu.Lock()
		l.events = append(l.events, e)
		l.mu.Unlock()
	}
}

func (l *eventLog) stages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.events))
	for _, e := range l.events {
		out = append(out, e.Stage)
	}
	return out
}

var testRun = config.NewRunConfig(config.RunInput{Ticker: "AAPL", CompanyName: "Apple Inc."})

func staticTool(name string, err error) tools.Tool {
	return tools.New(name, name, func(context.Context, map[string]interface{}) (interface{}, error) {
		if err != nil {
			return nil, err
		}
		return map[string]string{"tool": name}, nil
	})
}

func newWorkflow(t *testing.T, provider ai.ChatProvider, newsErr error) *ResearchWorkflow {
	t.Helper()
	registry := tools.NewRegistry()
	registry.Register(staticTool(tools.CompanyNewsSearch, newsErr))
	registry.Register(staticTool(tools.GetCompanyInfo, nil))
	registry.Register(staticTool(tools.GetFinancialStatements, nil))
	registry.Register(staticTool(tools.GetCurrentStockPrice, nil))

	base, err := agents.NewFactory(agents.FactoryDeps{Provider: provider, ToolRegistry: registry})
	require.NoError(t, err)
	wf, err := NewFactory(base).CreateResearchWorkflow()
	require.NoError(t, err)
	return wf
}

func lastUserMessage(req ai.ChatRequest) string {
	return req.Messages[len(req.Messages)-1].Content
}

func TestResearchWorkflowJoinsExplorersBeforeAnalyst(t *testing.T) {
	provider := newScriptedProvider()
	events := &eventLog{}

	result, err := newWorkflow(t, provider, nil).Run(context.Background(), testRun, "m/1", events.sink())
	require.NoError(t, err)

	assert.Equal(t, "## Decision\nHold", result.Report())
	assert.Empty(t, result.DataGaps)
	assert.Equal(t, "news note", result.News.Content)
	assert.Equal(t, "Financial Research", result.Financials.Title)
	assert.Equal(t, 15, result.Analysis.Usage.TotalTokens)

	analystCalls := provider.prompts(agents.AgentAnalyst)
	require.Len(t, analystCalls, 1)
	prompt := lastUserMessage(analystCalls[0])
	assert.Contains(t, prompt, "## News Research\nnews note")
	assert.Contains(t, prompt, "## Financial Research\nfinancial note")

	expertCalls := provider.prompts(agents.AgentFinExpert)
	require.Len(t, expertCalls, 1)
	assert.Contains(t, lastUserMessage(expertCalls[0]), "analysis")
	assert.NotContains(t, lastUserMessage(expertCalls[0]), "news note")
	assert.Equal(t, "m/1", expertCalls[0].Model)

	stages := events.stages()
	assert.Equal(t, StageStarted, stages[0])
	assert.Equal(t, []string{StageAnalysis, StageRecommendation}, stages[len(stages)-2:])
	assert.Contains(t, stages, StageNews)
	assert.Contains(t, stages, StageFinancials)
}

func TestResearchWorkflowExplorerFailureBecomesDataGap(t *testing.T) {
	provider := newScriptedProvider()

	result, err := newWorkflow(t, provider, errors.Wrap(errors.ErrSearchUnavailable, "exa down")).
		Run(context.Background(), testRun, "m/1", nil)
	require.NoError(t, err)

	require.Len(t, result.DataGaps, 1)
	assert.Contains(t, result.DataGaps[0], "Data gap: News Research could not be collected")
	assert.True(t, result.News.DataGap)
	assert.Empty(t, provider.prompts(agents.AgentNewsExplorer))

	analystCalls := provider.prompts(agents.AgentAnalyst)
	require.Len(t, analystCalls, 1)
	assert.Contains(t, lastUserMessage(analystCalls[0]), "exa down")
}

func TestResearchWorkflowModelErrorAbortsRun(t *testing.T) {
	provider := newScriptedProvider()
	provider.errs[agents.AgentDataExplorer] = errors.ErrRateLimitExceeded

	_, err := newWorkflow(t, provider, nil).Run(context.Background(), testRun, "m/1", nil)
	require.Error(t, err)
	assert.True(t, ai.IsCallError(err))
	assert.True(t, ai.IsRateLimit(err))
	assert.Empty(t, provider.prompts(agents.AgentAnalyst))
}

func TestResearchWorkflowAnalystFailureAborts(t *testing.T) {
	provider := newScriptedProvider()
	provider.errs[agents.AgentAnalyst] = errors.ErrEmptyCompletion

	_, err := newWorkflow(t, provider, nil).Run(context.Background(), testRun, "m/1", nil)
	assert.True(t, errors.Is(err, errors.ErrEmptyCompletion))
	assert.Empty(t, provider.prompts(agents.AgentFinExpert))
}

func TestResearchWorkflowInvalidTickerSkipsModels(t *testing.T) {
	provider := newScriptedProvider()

	_, err := newWorkflow(t, provider, errors.Wrap(errors.ErrInvalidTicker, "unknown symbol")).
		Run(context.Background(), testRun, "m/1", nil)
	assert.True(t, errors.Is(err, errors.ErrInvalidTicker))
	for _, role := range []agents.AgentType{agents.AgentNewsExplorer, agents.AgentDataExplorer, agents.AgentAnalyst, agents.AgentFinExpert} {
		assert.Empty(t, provider.prompts(role), strings.ToLower(string(role)))
	}
}
