package agents

import (
	adkagent "google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model"
	"google.golang.org/genai"

	"equitydesk/internal/adapters/ai"
	"equitydesk/pkg/logger"
)

// dataGapCallback skips the model and answers with the data-gap note
func dataGapCallback(note string) adkagent.BeforeAgentCallback {
	return func(ctx adkagent.CallbackContext) (*genai.Content, error) {
		logger.Get().Named("agent").Warnw("no tool data collected, skipping model", "agent", ctx.AgentName())
		return genai.NewContentFromText(note, genai.RoleModel), nil
	}
}

// taskPromptCallback replaces the session history with the rendered task
// prompt, so each model sees its own tool payloads and upstream notes only.
func (a *llmAgent) taskPromptCallback(req Request) llmagent.BeforeModelCallback {
	return func(_ adkagent.CallbackContext, llmReq *model.LLMRequest) (*model.LLMResponse, error) {
		task, err := a.taskPrompt(req)
		if err != nil {
			return nil, err
		}
		llmReq.Contents = []*genai.Content{genai.NewContentFromText(task, genai.RoleUser)}
		return nil, nil
	}
}

// usageCallback tracks token usage for the run's model
func usageCallback(tracker *UsageTracker, modelName string) llmagent.AfterModelCallback {
	return func(_ adkagent.CallbackContext, resp *model.LLMResponse, respErr error) (*model.LLMResponse, error) {
		if respErr != nil || resp == nil || resp.UsageMetadata == nil || tracker == nil {
			return resp, respErr
		}
		tracker.RecordUsage(modelName, UsageFrom(resp.UsageMetadata))
		return resp, nil
	}
}

// UsageFrom converts ADK usage metadata into provider usage
func UsageFrom(meta *genai.GenerateContentResponseUsageMetadata) ai.Usage {
	if meta == nil {
		return ai.Usage{}
	}
	return ai.Usage{
		PromptTokens:     int(meta.PromptTokenCount),
		CompletionTokens: int(meta.CandidatesTokenCount),
		TotalTokens:      int(meta.TotalTokenCount),
	}
}
