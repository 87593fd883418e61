package adk

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/adk/model"
	"google.golang.org/genai"

	"equitydesk/internal/adapters/ai"
	"equitydesk/pkg/errors"
)

type recordingProvider struct {
	resp *ai.ChatResponse
	err  error
	got  []ai.ChatRequest
}

func (p *recordingProvider) Name() string { return "recording" }

func (p *recordingProvider) Chat(_ context.Context, req ai.ChatRequest) (*ai.ChatResponse, error) {
	p.got = append(p.got, req)
	return p.resp, p.err
}

func collect(t *testing.T, m *ModelAdapter, req *model.LLMRequest) ([]*model.LLMResponse, error) {
	t.Helper()
	var out []*model.LLMResponse
	for resp, err := range m.GenerateContent(context.Background(), req, false) {
		if err != nil {
			return out, err
		}
		out = append(out, resp)
	}
	return out, nil
}

func TestGenerateContentConvertsRequestAndResponse(t *testing.T) {
	provider := &recordingProvider{resp: &ai.ChatResponse{
		Content:      "## Decision\nHold",
		FinishReason: ai.FinishReasonLength,
		Usage:        ai.Usage{PromptTokens: 120, CompletionTokens: 30, TotalTokens: 150},
	}}
	m := NewModelAdapter(provider, "meta/llama:free", WithAgent("fin_expert"), WithMaxTokens(3000))

	responses, err := collect(t, m, &model.LLMRequest{
		Config: &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText("You are the Financial Expert.", genai.RoleUser),
		},
		Contents: []*genai.Content{
			genai.NewContentFromText("Prepare the report", genai.RoleUser),
			genai.NewContentFromText("Draft", genai.RoleModel),
			{Role: genai.RoleUser, Parts: []*genai.Part{{Text: "hidden", Thought: true}}},
		},
	})
	require.NoError(t, err)

	require.Len(t, provider.got, 1)
	req := provider.got[0]
	assert.Equal(t, "meta/llama:free", req.Model)
	assert.Equal(t, "fin_expert", req.Agent)
	assert.Equal(t, 3000, req.MaxTokens)
	assert.Equal(t, []ai.Message{
		ai.System("You are the Financial Expert."),
		ai.User("Prepare the report"),
		ai.Assistant("Draft"),
	}, req.Messages)

	require.Len(t, responses, 1)
	resp := responses[0]
	assert.True(t, resp.TurnComplete)
	assert.Equal(t, genai.FinishReasonMaxTokens, resp.FinishReason)
	require.NotNil(t, resp.Content)
	assert.Equal(t, "model", resp.Content.Role)
	assert.Equal(t, "## Decision\nHold", resp.Content.Parts[0].Text)
	assert.Equal(t, int32(150), resp.UsageMetadata.TotalTokenCount)
	assert.Equal(t, int32(30), resp.UsageMetadata.CandidatesTokenCount)
}

func TestGenerateContentWrapsProviderFailure(t *testing.T) {
	provider := &recordingProvider{err: errors.Join(errors.ErrRateLimitExceeded, errors.New("429"))}
	m := NewModelAdapter(provider, "a/model", WithAgent("analyst"))

	_, err := collect(t, m, &model.LLMRequest{Contents: []*genai.Content{genai.NewContentFromText("go", genai.RoleUser)}})
	require.Error(t, err)

	var callErr *ai.CallError
	require.True(t, errors.As(err, &callErr))
	assert.Equal(t, "analyst", callErr.Agent)
	assert.Equal(t, "a/model", callErr.Model)
	assert.True(t, ai.IsRateLimit(err))
}

func TestGenerateContentStreamingYieldsOneResponse(t *testing.T) {
	provider := &recordingProvider{resp: &ai.ChatResponse{Content: "ok"}}
	m := NewModelAdapter(provider, "a/model")

	var count int
	for resp, err := range m.GenerateContent(context.Background(), &model.LLMRequest{}, true) {
		require.NoError(t, err)
		assert.Equal(t, genai.FinishReasonStop, resp.FinishReason)
		count++
	}
	assert.Equal(t, 1, count)
	assert.Equal(t, "a/model", m.Name())
}
