package agents

import (
	"equitydesk/internal/adapters/ai"
	"equitydesk/internal/tools"
	"equitydesk/pkg/errors"
	"equitydesk/pkg/logger"
	"equitydesk/pkg/templates"
)

// FactoryDeps gathers external dependencies needed to instantiate agents.
type FactoryDeps struct {
	Provider     ai.ChatProvider
	ToolRegistry *tools.Registry
	Templates    *templates.Registry
	Usage        *UsageTracker
}

// Factory creates configured agents and registries.
type Factory struct {
	provider     ai.ChatProvider
	toolRegistry *tools.Registry
	templates    *templates.Registry
	usage        *UsageTracker
}

// NewFactory builds an agent factory with required dependencies.
func NewFactory(deps FactoryDeps) (*Factory, error) {
	if deps.ToolRegistry == nil {
		return nil, errors.Wrap(errors.ErrMissingConfig, "tool registry is required")
	}

	if deps.Provider == nil {
		return nil, errors.Wrap(errors.ErrMissingConfig, "chat provider is required")
	}

	if deps.Templates == nil {
		deps.Templates = templates.Get()
	}

	if deps.Usage == nil {
		deps.Usage = NewUsageTracker()
	}

	return &Factory{
		provider:     deps.Provider,
		toolRegistry: deps.ToolRegistry,
		templates:    deps.Templates,
		usage:        deps.Usage,
	}, nil
}

// CreateAgent constructs a single agent from a config.
// Every tool the config names must be registered.
func (f *Factory) CreateAgent(cfg AgentConfig) (Agent, error) {
	agentTools := make([]tools.Tool, 0, len(cfg.Tools))
	for _, name := range cfg.Tools {
		t, ok := f.toolRegistry.Get(name)
		if !ok {
			return nil, errors.Wrapf(errors.ErrNotFound, "tool %s for agent %s", name, cfg.Name)
		}
		agentTools = append(agentTools, t)
	}

	for _, id := range []string{cfg.SystemPromptTemplate, cfg.TaskPromptTemplate} {
		if _, err := f.templates.GetTemplate(id); err != nil {
			return nil, errors.Wrapf(err, "prompt for %s", cfg.Name)
		}
	}

	return &llmAgent{
		config:    cfg,
		provider:  f.provider,
		tools:     agentTools,
		templates: f.templates,
		usage:     f.usage,
		log:       logger.Get().Named("agent").With("agent", string(cfg.Type)),
	}, nil
}

// Usage returns the shared usage tracker
func (f *Factory) Usage() *UsageTracker {
	return f.usage
}
