package agents

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"equitydesk/internal/adapters/ai"
	"equitydesk/internal/adapters/config"
	"equitydesk/internal/tools"
	"equitydesk/pkg/errors"
)

type MockChatProvider struct {
	mock.Mock
}

func (m *MockChatProvider) Name() string { return "mock" }

func (m *MockChatProvider) Chat(ctx context.Context, req ai.ChatRequest) (*ai.ChatResponse, error) {
	args := m.Called(ctx, req)
	if r := args.Get(0); r != nil {
		return r.(*ai.ChatResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func testRun() config.RunConfig {
	return config.NewRunConfig(config.RunInput{
		Ticker:      "reliance",
		CompanyName: "Reliance Industries",
		Market:      "india",
	})
}

func staticTool(name string, payload interface{}, err error) tools.Tool {
	return tools.New(name, name, func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		return payload, err
	})
}

func newTestFactory(t *testing.T, provider ai.ChatProvider, registered ...tools.Tool) *Factory {
	t.Helper()
	registry := tools.NewRegistry()
	for _, tool := range registered {
		registry.Register(tool)
	}
	f, err := NewFactory(FactoryDeps{Provider: provider, ToolRegistry: registry})
	require.NoError(t, err)
	return f
}

// runAgent gathers the agent's tools and runs its ADK agent on its own
func runAgent(t *testing.T, ag Agent, model string, upstream ...Note) (*Brief, []Output, error) {
	t.Helper()
	ctx := context.Background()
	brief, err := ag.Gather(ctx, testRun())
	if err != nil {
		return nil, nil, err
	}
	llm, err := ag.LLMAgent(Request{
		Run:      testRun(),
		Model:    model,
		Brief:    brief,
		Upstream: func() []Note { return upstream },
	})
	require.NoError(t, err)

	var outputs []Output
	err = NewExecutor().Execute(ctx, llm, "Prepare the equity research", func(o Output) {
		outputs = append(outputs, o)
	})
	return brief, outputs, err
}

func TestAgentRendersToolResultsIntoPrompt(t *testing.T) {
	provider := &MockChatProvider{}
	provider.On("Chat", mock.Anything, mock.MatchedBy(func(req ai.ChatRequest) bool {
		return req.Model == "x/model" &&
			req.Agent == string(AgentDataExplorer) &&
			req.MaxTokens == 1500 &&
			len(req.Messages) == 2 &&
			req.Messages[0].Role == ai.RoleSystem &&
			strings.Contains(req.Messages[0].Content, "Financial Data Explorer") &&
			strings.Contains(req.Messages[1].Content, `"sector": "Energy"`) &&
			strings.Contains(req.Messages[1].Content, "Reliance Industries (RELIANCE.NS)")
	})).Return(&ai.ChatResponse{Content: "Profile note", Usage: ai.Usage{PromptTokens: 100, CompletionTokens: 20, TotalTokens: 120}}, nil)

	f := newTestFactory(t, provider,
		staticTool(tools.GetCompanyInfo, map[string]string{"sector": "Energy"}, nil),
		staticTool(tools.GetFinancialStatements, map[string]string{"annual": "ok"}, nil),
	)
	ag, err := f.CreateAgent(DefaultAgentConfigs[AgentDataExplorer])
	require.NoError(t, err)

	brief, outputs, err := runAgent(t, ag, "x/model")
	require.NoError(t, err)

	require.Len(t, brief.ToolResults, 2)
	assert.Equal(t, tools.GetCompanyInfo, brief.ToolResults[0].Name)
	assert.Empty(t, brief.ToolFailures)

	require.Len(t, outputs, 1)
	assert.Equal(t, "DataExplorer", outputs[0].Author)
	assert.Equal(t, "Profile note", outputs[0].Text)
	assert.Equal(t, 120, outputs[0].Usage.TotalTokens)

	usage, ok := f.Usage().Get("x/model")
	require.True(t, ok)
	assert.Equal(t, int64(100), usage.InputTokens)
	assert.Equal(t, int64(120), f.Usage().TotalTokens())
	provider.AssertExpectations(t)
}

func TestAgentUpstreamNotesReachPrompt(t *testing.T) {
	provider := &MockChatProvider{}
	provider.On("Chat", mock.Anything, mock.MatchedBy(func(req ai.ChatRequest) bool {
		return strings.Contains(req.Messages[1].Content, "Refinery margins widened") &&
			strings.Contains(req.Messages[1].Content, "Revenue grew 9%")
	})).Return(&ai.ChatResponse{Content: "Balanced analysis"}, nil)

	f := newTestFactory(t, provider)
	ag, err := f.CreateAgent(DefaultAgentConfigs[AgentAnalyst])
	require.NoError(t, err)

	_, outputs, err := runAgent(t, ag, "x/model",
		Note{Title: "News Research", Content: "Refinery margins widened"},
		Note{Title: "Financial Research", Content: "Revenue grew 9%"},
	)
	require.NoError(t, err)
	require.Len(t, outputs, 1)
	assert.Equal(t, "Balanced analysis", outputs[0].Text)
	provider.AssertExpectations(t)
}

func TestAgentPartialToolFailureStillCallsModel(t *testing.T) {
	provider := &MockChatProvider{}
	provider.On("Chat", mock.Anything, mock.MatchedBy(func(req ai.ChatRequest) bool {
		return strings.Contains(req.Messages[1].Content, "get_financial_statements failed: yahoo down")
	})).Return(&ai.ChatResponse{Content: "Profile only"}, nil)

	f := newTestFactory(t, provider,
		staticTool(tools.GetCompanyInfo, map[string]string{"sector": "Energy"}, nil),
		staticTool(tools.GetFinancialStatements, nil, errors.New("yahoo down")),
	)
	ag, err := f.CreateAgent(DefaultAgentConfigs[AgentDataExplorer])
	require.NoError(t, err)

	brief, outputs, err := runAgent(t, ag, "x/model")
	require.NoError(t, err)
	assert.Equal(t, []string{"get_financial_statements failed: yahoo down"}, brief.ToolFailures)
	assert.False(t, brief.Empty())
	require.Len(t, outputs, 1)
	assert.Equal(t, "Profile only", outputs[0].Text)
}

func TestAgentToolFailureBecomesDataGap(t *testing.T) {
	provider := &MockChatProvider{}
	f := newTestFactory(t, provider, staticTool(tools.CompanyNewsSearch, nil, errors.New("backend down")))
	ag, err := f.CreateAgent(DefaultAgentConfigs[AgentNewsExplorer])
	require.NoError(t, err)

	brief, outputs, err := runAgent(t, ag, "x/model")
	require.NoError(t, err)
	assert.Equal(t, []string{"company_news_search failed: backend down"}, brief.ToolFailures)
	assert.True(t, brief.Empty())

	require.Len(t, outputs, 1)
	assert.Equal(t, "NewsInfoExplorer", outputs[0].Author)
	assert.Equal(t, "Data gap: News Research could not be collected. Error: company_news_search failed: backend down", outputs[0].Text)
	provider.AssertNotCalled(t, "Chat", mock.Anything, mock.Anything)
}

func TestAgentInvalidTickerIsFatal(t *testing.T) {
	provider := &MockChatProvider{}
	f := newTestFactory(t, provider, staticTool(tools.CompanyNewsSearch, nil, errors.Wrap(errors.ErrInvalidTicker, "empty")))
	ag, err := f.CreateAgent(DefaultAgentConfigs[AgentNewsExplorer])
	require.NoError(t, err)

	_, _, err = runAgent(t, ag, "x/model")
	assert.True(t, errors.Is(err, errors.ErrInvalidTicker))
	assert.False(t, ai.IsCallError(err))
	provider.AssertNotCalled(t, "Chat", mock.Anything, mock.Anything)
}

func TestAgentModelFailureIsCallError(t *testing.T) {
	provider := &MockChatProvider{}
	provider.On("Chat", mock.Anything, mock.Anything).Return(nil, errors.ErrRateLimitExceeded)

	f := newTestFactory(t, provider)
	ag, err := f.CreateAgent(DefaultAgentConfigs[AgentAnalyst])
	require.NoError(t, err)

	_, _, err = runAgent(t, ag, "x/model", Note{Title: "News Research", Content: "n"})
	require.Error(t, err)
	assert.True(t, ai.IsCallError(err))
	assert.True(t, ai.IsSwitchable(err))
}

func TestFactoryRequiresRegisteredTools(t *testing.T) {
	f := newTestFactory(t, &MockChatProvider{})
	_, err := f.CreateAgent(DefaultAgentConfigs[AgentFinExpert])
	assert.Error(t, err)

	_, err = NewFactory(FactoryDeps{ToolRegistry: tools.NewRegistry()})
	assert.Error(t, err)
}

func TestBuildDesk(t *testing.T) {
	f := newTestFactory(t, &MockChatProvider{},
		staticTool(tools.CompanyNewsSearch, nil, nil),
		staticTool(tools.GetCompanyInfo, nil, nil),
		staticTool(tools.GetFinancialStatements, nil, nil),
		staticTool(tools.GetCurrentStockPrice, nil, nil),
	)
	desk, err := f.BuildDesk(AgentNewsExplorer, AgentDataExplorer, AgentAnalyst, AgentFinExpert)
	require.NoError(t, err)
	assert.Equal(t, []AgentType{AgentAnalyst, AgentDataExplorer, AgentFinExpert, AgentNewsExplorer}, desk.Roles())

	analyst, err := desk.Member(AgentAnalyst)
	require.NoError(t, err)
	assert.Equal(t, AgentAnalyst, analyst.Type())

	_, err = f.BuildDesk(AgentType("auditor"))
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}
