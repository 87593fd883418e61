package workflows

import (
	"equitydesk/internal/agents"
	"equitydesk/pkg/logger"
)

// Factory creates research workflows from an agent factory
type Factory struct {
	baseFactory *agents.Factory
	log         *logger.Logger
}

// NewFactory creates a new workflow factory
func NewFactory(baseFactory *agents.Factory) *Factory {
	return &Factory{
		baseFactory: baseFactory,
		log:         logger.Get().Named("workflow_factory"),
	}
}

// CreateResearchWorkflow staffs the four-agent research desk
func (f *Factory) CreateResearchWorkflow() (*ResearchWorkflow, error) {
	desk, err := f.baseFactory.BuildDesk(
		agents.AgentNewsExplorer,
		agents.AgentDataExplorer,
		agents.AgentAnalyst,
		agents.AgentFinExpert,
	)
	if err != nil {
		return nil, err
	}
	f.log.Infow("Research desk staffed", "roles", desk.Roles())

	// BuildDesk succeeded for every role, so lookups cannot fail.
	newsExplorer, _ := desk.Member(agents.AgentNewsExplorer)
	dataExplorer, _ := desk.Member(agents.AgentDataExplorer)
	analyst, _ := desk.Member(agents.AgentAnalyst)
	finExpert, _ := desk.Member(agents.AgentFinExpert)

	return NewResearchWorkflow(newsExplorer, dataExplorer, analyst, finExpert), nil
}
