package agents

import (
	"context"
	"strings"

	adkagent "google.golang.org/adk/agent"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/genai"

	"equitydesk/internal/adapters/ai"
	"equitydesk/pkg/errors"
	"equitydesk/pkg/logger"
)

const (
	// AppName scopes ADK sessions
	AppName  = "equitydesk"
	deskUser = "research_desk"
)

// Output is one agent's final answer in a run
type Output struct {
	Author string
	Text   string
	Usage  ai.Usage
}

// Executor runs an ADK agent tree in a throwaway session.
type Executor struct {
	sessions session.Service
	log      *logger.Logger
}

// NewExecutor creates an executor over an in-memory session service
func NewExecutor() *Executor {
	return &Executor{
		sessions: session.InMemoryService(),
		log:      logger.Get().Named("executor"),
	}
}

// Execute runs root with prompt as the opening user turn and reports every
// agent's final response in the order the runner produces them.
func (e *Executor) Execute(ctx context.Context, root adkagent.Agent, prompt string, onOutput func(Output)) error {
	r, err := runner.New(runner.Config{
		AppName:        AppName,
		Agent:          root,
		SessionService: e.sessions,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create ADK runner")
	}

	created, err := e.sessions.Create(ctx, &session.CreateRequest{
		AppName: AppName,
		UserID:  deskUser,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create session")
	}
	sessionID := created.Session.ID()
	defer func() {
		req := &session.DeleteRequest{AppName: AppName, UserID: deskUser, SessionID: sessionID}
		if err := e.sessions.Delete(context.WithoutCancel(ctx), req); err != nil {
			e.log.Debugw("session cleanup failed", "session", sessionID, "error", err)
		}
	}()

	kickoff := genai.NewContentFromText(prompt, genai.RoleUser)
	runConfig := adkagent.RunConfig{StreamingMode: adkagent.StreamingModeNone}
	for event, err := range r.Run(ctx, deskUser, sessionID, kickoff, runConfig) {
		if err != nil {
			return err
		}
		if event == nil || event.LLMResponse.Partial || !event.IsFinalResponse() {
			continue
		}
		text := finalText(event.LLMResponse.Content)
		if text == "" {
			continue
		}
		e.log.Debugw("agent answered", "author", event.Author, "chars", len(text))
		if onOutput != nil {
			onOutput(Output{Author: event.Author, Text: text, Usage: UsageFrom(event.UsageMetadata)})
		}
	}
	return nil
}

func finalText(content *genai.Content) string {
	if content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range content.Parts {
		if part == nil || part.Thought {
			continue
		}
		b.WriteString(part.Text)
	}
	return strings.TrimSpace(b.String())
}
