package research

import (
	"equitydesk/internal/tools"
	"equitydesk/internal/tools/shared"
	"equitydesk/pkg/logger"
)

// RegisterAll registers the news and fundamentals tools
func RegisterAll(registry *tools.Registry, deps shared.Deps) {
	log := deps.Log
	if log == nil {
		log = logger.Get()
	}
	log = log.Named("tool_registration")

	if deps.HasNews() {
		registry.Register(NewCompanyNewsSearchTool(deps))
		log.Debug("Registered news tools")
	}

	if deps.HasFundamentals() {
		registry.Register(NewGetCompanyInfoTool(deps))
		registry.Register(NewGetFinancialStatementsTool(deps))
		registry.Register(NewGetCurrentStockPriceTool(deps))
		log.Debug("Registered fundamentals tools")
	}
}
