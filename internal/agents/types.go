package agents

import "equitydesk/internal/adapters/config"

// AgentType enumerates the research desk roles.
type AgentType string

const (
	AgentNewsExplorer AgentType = "news_info_explorer"
	AgentDataExplorer AgentType = "data_explorer"
	AgentAnalyst      AgentType = "analyst"
	AgentFinExpert    AgentType = "fin_expert"
)

// Note is one agent's research output as seen by downstream agents
type Note struct {
	Title   string
	Content string
}

// ToolResult is a tool payload rendered into a prompt
type ToolResult struct {
	Name string
	JSON string
}

// PromptData is the template input for system and task prompts
type PromptData struct {
	Agent       AgentConfig
	Run         config.RunConfig
	ToolResults []ToolResult
	Upstream    []Note
}
