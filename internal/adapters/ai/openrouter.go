package ai

import (
	"context"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"equitydesk/internal/adapters/config"
	"equitydesk/pkg/errors"
	"equitydesk/pkg/logger"
)

// ProviderNameOpenRouter identifies the OpenRouter provider
const ProviderNameOpenRouter = "openrouter"

// Ensure OpenRouterProvider implements ChatProvider
var _ ChatProvider = (*OpenRouterProvider)(nil)

// OpenRouterProvider talks to OpenRouter through its OpenAI-compatible API.
// SDK retries are disabled; a throttled model is handled by switching models.
type OpenRouterProvider struct {
	client      openai.Client
	limiter     RateLimiter
	temperature float64
	log         *logger.Logger
}

// NewOpenRouterProvider builds a provider from configuration. Extra options are
// appended after the configured ones, which lets tests point it elsewhere.
func NewOpenRouterProvider(cfg config.OpenRouterConfig, opts ...option.RequestOption) *OpenRouterProvider {
	base := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(120 * time.Second),
	}
	return &OpenRouterProvider{
		client:      openai.NewClient(append(base, opts...)...),
		limiter:     NewRateLimiter(ProviderNameOpenRouter, cfg.RequestsPerMin),
		temperature: cfg.Temperature,
		log:         logger.Get().Named("openrouter"),
	}
}

// Name returns provider name.
func (p *OpenRouterProvider) Name() string { return ProviderNameOpenRouter }

// Chat sends a chat completion request.
func (p *OpenRouterProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	model := NormalizeModelID(req.Model)
	if model == "" {
		return nil, errors.Wrap(errors.ErrMissingConfig, "model is empty")
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	temperature := p.temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(model),
		Messages:    make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)),
		Temperature: openai.Float(temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem:
			params.Messages = append(params.Messages, openai.SystemMessage(msg.Content))
		case RoleAssistant:
			params.Messages = append(params.Messages, openai.AssistantMessage(msg.Content))
		default:
			params.Messages = append(params.Messages, openai.UserMessage(msg.Content))
		}
	}

	p.log.WithRun(ctx).Debugw("chat completion", "model", model, "agent", req.Agent, "messages", len(req.Messages))

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, errors.Wrapf(classify(err), "openrouter %s", model)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.Wrapf(errors.ErrEmptyCompletion, "openrouter %s returned no choices", model)
	}

	choice := resp.Choices[0]
	content := strings.TrimSpace(choice.Message.Content)
	if content == "" {
		return nil, errors.Wrapf(errors.ErrEmptyCompletion, "openrouter %s returned empty content", model)
	}

	return &ChatResponse{
		ID:           resp.ID,
		Model:        resp.Model,
		Content:      content,
		FinishReason: FinishReason(choice.FinishReason),
		Usage: Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}, nil
}

// NormalizeModelID turns configured model ids into OpenRouter API ids.
// "openrouter/" is a routing prefix some clients expect; it is stripped when
// what follows is itself a vendor/model id, and kept for OpenRouter's own
// router models such as "openrouter/auto".
func NormalizeModelID(model string) string {
	model = strings.TrimSpace(model)
	if rest, ok := strings.CutPrefix(model, "openrouter/"); ok && strings.Contains(rest, "/") {
		return rest
	}
	return model
}
