package agents

import "equitydesk/internal/tools"

// AgentToolMap lists the tools each agent calls before prompting the model.
// Order matters: results are rendered into the prompt in this order.
var AgentToolMap = map[AgentType][]string{
	AgentNewsExplorer: {tools.CompanyNewsSearch},
	AgentDataExplorer: {tools.GetCompanyInfo, tools.GetFinancialStatements},
	AgentAnalyst:      {},
	AgentFinExpert:    {tools.GetCurrentStockPrice},
}
