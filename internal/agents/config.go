package agents

import "time"

// AgentConfig captures runtime settings for an agent instance.
type AgentConfig struct {
	Type  AgentType
	Name  string
	Role  string
	Goal  string
	Tools []string

	SystemPromptTemplate string
	TaskPromptTemplate   string
	// NoteTitle labels this agent's output when passed downstream
	NoteTitle string

	MaxTokens    int
	TotalTimeout time.Duration

	// GapOnEmptyBrief skips the model when every tool failed and passes a
	// data-gap note downstream instead
	GapOnEmptyBrief bool
}

// DefaultAgentConfigs describes the four desk agents.
var DefaultAgentConfigs = map[AgentType]AgentConfig{
	AgentNewsExplorer: {
		Type:                 AgentNewsExplorer,
		Name:                 "NewsInfoExplorer",
		Role:                 "News Information Explorer",
		Goal:                 "Find the most relevant and credible recent news about the company, preferring market-specific sources.",
		Tools:                AgentToolMap[AgentNewsExplorer],
		SystemPromptTemplate: "agents/system",
		TaskPromptTemplate:   "agents/news_info_explorer",
		NoteTitle:            "News Research",
		MaxTokens:            1500,
		TotalTimeout:         4 * time.Minute,
		GapOnEmptyBrief:      true,
	},
	AgentDataExplorer: {
		Type:                 AgentDataExplorer,
		Name:                 "DataExplorer",
		Role:                 "Financial Data Explorer",
		Goal:                 "Collect the company profile and financial statements and flag every missing data point.",
		Tools:                AgentToolMap[AgentDataExplorer],
		SystemPromptTemplate: "agents/system",
		TaskPromptTemplate:   "agents/data_explorer",
		NoteTitle:            "Financial Research",
		MaxTokens:            1500,
		TotalTimeout:         4 * time.Minute,
		GapOnEmptyBrief:      true,
	},
	AgentAnalyst: {
		Type:                 AgentAnalyst,
		Name:                 "Analyst",
		Role:                 "Equity Research Analyst",
		Goal:                 "Combine news and financial evidence into a balanced, evidence-backed investment analysis.",
		Tools:                AgentToolMap[AgentAnalyst],
		SystemPromptTemplate: "agents/system",
		TaskPromptTemplate:   "agents/analyst",
		NoteTitle:            "Investment Analysis",
		MaxTokens:            2500,
		TotalTimeout:         3 * time.Minute,
	},
	AgentFinExpert: {
		Type:                 AgentFinExpert,
		Name:                 "FinExpert",
		Role:                 "Senior Investment Advisor",
		Goal:                 "Turn the analysis into a clear recommendation suited to the investor profile and horizon.",
		Tools:                AgentToolMap[AgentFinExpert],
		SystemPromptTemplate: "agents/system",
		TaskPromptTemplate:   "agents/fin_expert",
		NoteTitle:            "Recommendation",
		MaxTokens:            3000,
		TotalTimeout:         3 * time.Minute,
	},
}
