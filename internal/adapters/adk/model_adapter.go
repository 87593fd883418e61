package adk

import (
	"context"
	"encoding/json"
	"iter"
	"strings"
	"time"

	"google.golang.org/adk/model"
	"google.golang.org/genai"

	"equitydesk/internal/adapters/ai"
	"equitydesk/internal/metrics"
	"equitydesk/pkg/logger"
)

// ModelAdapter adapts our AI ChatProvider to ADK's model.LLM interface.
// One adapter serves one agent on one model, so every call is labeled
// with the agent for metrics and error reporting.
type ModelAdapter struct {
	provider  ai.ChatProvider
	modelName string
	agent     string
	maxTokens int
	timeout   time.Duration
	log       *logger.Logger
}

// Option configures a ModelAdapter
type Option func(*ModelAdapter)

// WithAgent labels calls with the agent role
func WithAgent(agent string) Option {
	return func(m *ModelAdapter) { m.agent = agent }
}

// WithMaxTokens caps the completion length
func WithMaxTokens(n int) Option {
	return func(m *ModelAdapter) { m.maxTokens = n }
}

// WithCallTimeout bounds each provider call
func WithCallTimeout(d time.Duration) Option {
	return func(m *ModelAdapter) { m.timeout = d }
}

// NewModelAdapter creates a new ADK model adapter.
func NewModelAdapter(provider ai.ChatProvider, modelName string, opts ...Option) *ModelAdapter {
	m := &ModelAdapter{
		provider:  provider,
		modelName: modelName,
		agent:     "agent",
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = logger.Get().Named("model_adapter").With("model", modelName, "agent", m.agent)
	return m
}

// Name returns the model name.
func (m *ModelAdapter) Name() string {
	return m.modelName
}

// GenerateContent implements the ADK model.LLM interface. The provider has
// no streaming mode, so a streaming request still yields one complete response.
func (m *ModelAdapter) GenerateContent(ctx context.Context, req *model.LLMRequest, stream bool) iter.Seq2[*model.LLMResponse, error] {
	return func(yield func(*model.LLMResponse, error) bool) {
		if m.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, m.timeout)
			defer cancel()
		}

		chatReq := m.convertToChatRequest(req)
		m.log.Debugw("Calling LLM", "messages", len(chatReq.Messages), "stream", stream)

		start := time.Now()
		resp, err := m.provider.Chat(ctx, chatReq)
		latency := time.Since(start)
		if err != nil {
			metrics.RecordAgentCall(m.agent, m.modelName, latency, 0, 0, err)
			m.log.Warnw("LLM call failed", "error", err, "latency_ms", latency.Milliseconds())
			yield(nil, &ai.CallError{Agent: m.agent, Model: m.modelName, Err: err})
			return
		}
		metrics.RecordAgentCall(m.agent, m.modelName, latency, resp.Usage.PromptTokens, resp.Usage.CompletionTokens, nil)

		m.log.Debugw("LLM response received",
			"finish_reason", resp.FinishReason,
			"tokens", resp.Usage.TotalTokens,
		)
		yield(convertToADKResponse(resp), nil)
	}
}

// convertToChatRequest converts ADK request to our format. The system
// instruction leads; model turns become assistant messages.
func (m *ModelAdapter) convertToChatRequest(req *model.LLMRequest) ai.ChatRequest {
	chatReq := ai.ChatRequest{
		Model:     m.modelName,
		MaxTokens: m.maxTokens,
		Agent:     m.agent,
	}
	if req == nil {
		return chatReq
	}

	if req.Config != nil {
		if system := contentText(req.Config.SystemInstruction); system != "" {
			chatReq.Messages = append(chatReq.Messages, ai.System(system))
		}
	}

	for _, content := range req.Contents {
		text := contentText(content)
		if text == "" {
			continue
		}
		switch content.Role {
		case genai.RoleModel:
			chatReq.Messages = append(chatReq.Messages, ai.Assistant(text))
		default:
			chatReq.Messages = append(chatReq.Messages, ai.User(text))
		}
	}
	return chatReq
}

// contentText joins the visible text of a content. Function responses are
// rendered as JSON; thoughts are dropped.
func contentText(content *genai.Content) string {
	if content == nil {
		return ""
	}
	var parts []string
	for _, part := range content.Parts {
		switch {
		case part == nil || part.Thought:
		case part.Text != "":
			parts = append(parts, part.Text)
		case part.FunctionResponse != nil:
			if data, err := json.Marshal(part.FunctionResponse.Response); err == nil {
				parts = append(parts, part.FunctionResponse.Name+": "+string(data))
			}
		}
	}
	return strings.Join(parts, "\n")
}

// convertToADKResponse converts our response to ADK format.
func convertToADKResponse(resp *ai.ChatResponse) *model.LLMResponse {
	adkResp := &model.LLMResponse{
		Content:      genai.NewContentFromText(resp.Content, genai.RoleModel),
		TurnComplete: true,
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     int32(resp.Usage.PromptTokens),
			CandidatesTokenCount: int32(resp.Usage.CompletionTokens),
			TotalTokenCount:      int32(resp.Usage.TotalTokens),
		},
	}

	switch resp.FinishReason {
	case ai.FinishReasonLength:
		adkResp.FinishReason = genai.FinishReasonMaxTokens
	case ai.FinishReasonFilter:
		adkResp.FinishReason = genai.FinishReasonSafety
	default:
		adkResp.FinishReason = genai.FinishReasonStop
	}
	return adkResp
}

// Ensure ModelAdapter implements model.LLM
var _ model.LLM = (*ModelAdapter)(nil)
