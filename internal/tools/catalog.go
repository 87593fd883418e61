package tools

// Definition describes a tool's metadata for registration and documentation.
type Definition struct {
	Name        string
	Description string
	Category    string
}

// Tool names
const (
	CompanyNewsSearch      = "company_news_search"
	GetCompanyInfo         = "get_company_info"
	GetFinancialStatements = "get_financial_statements"
	GetCurrentStockPrice   = "get_current_stock_price"
)

var toolDefinitions = []Definition{
	{
		Name: CompanyNewsSearch,
		Description: "Search recent company news, preferring market-specific priority domains " +
			"and broadening to an unrestricted search when too few priority results are found.",
		Category: "news",
	},
	{
		Name:        GetCompanyInfo,
		Description: "Get company profile and key fundamental metrics for a ticker.",
		Category:    "fundamentals",
	},
	{
		Name: GetFinancialStatements,
		Description: "Get annual and quarterly income statement, balance sheet, and cash flow " +
			"highlights with simple growth deltas.",
		Category: "fundamentals",
	},
	{
		Name: GetCurrentStockPrice,
		Description: "Get current stock price snapshot, 52-week range, volume, and 1m/3m/1y " +
			"price change percentages.",
		Category: "market_data",
	},
}

// Definitions exposes a copy of all tool definitions.
func Definitions() []Definition {
	defs := make([]Definition, len(toolDefinitions))
	copy(defs, toolDefinitions)
	return defs
}

// Describe returns the definition for a tool name.
func Describe(name string) (Definition, bool) {
	for _, def := range toolDefinitions {
		if def.Name == name {
			return def, true
		}
	}
	return Definition{}, false
}
