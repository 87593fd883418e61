package research

import (
	"context"
	"time"

	fundsvc "equitydesk/internal/services/fundamentals"
	"equitydesk/internal/tools"
	"equitydesk/internal/tools/shared"
	"equitydesk/pkg/errors"
)

const fundamentalsTimeout = 90 * time.Second

// NewGetCompanyInfoTool returns the company profile payload. Provider failures
// are reported inside the payload; an empty ticker is an error.
func NewGetCompanyInfoTool(deps shared.Deps) tools.Tool {
	return fundamentalsTool(deps, tools.GetCompanyInfo, "Failed to fetch company info", fundsvc.NoteCompanyInfoFailed,
		func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			return deps.Fundamentals.CompanyInfo(ctx, deps.Defaults.TickerSpec(args))
		})
}

// NewGetFinancialStatementsTool returns annual and quarterly statement highlights
func NewGetFinancialStatementsTool(deps shared.Deps) tools.Tool {
	return fundamentalsTool(deps, tools.GetFinancialStatements, "Failed to fetch financial statements", fundsvc.NoteStatementsFailed,
		func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			return deps.Fundamentals.FinancialStatements(ctx, deps.Defaults.TickerSpec(args))
		})
}

// NewGetCurrentStockPriceTool returns the live price snapshot
func NewGetCurrentStockPriceTool(deps shared.Deps) tools.Tool {
	return fundamentalsTool(deps, tools.GetCurrentStockPrice, "Failed to fetch stock price data", fundsvc.NotePriceFailed,
		func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			return deps.Fundamentals.CurrentPrice(ctx, deps.Defaults.TickerSpec(args))
		})
}

func fundamentalsTool(deps shared.Deps, name, failure, note string, fn shared.ToolFunc) tools.Tool {
	def, _ := tools.Describe(name)
	return shared.NewToolBuilder(def.Name, def.Description,
		func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			if !deps.HasFundamentals() {
				return nil, errors.Wrap(errors.ErrUnavailable, "fundamentals not configured")
			}

			result, err := fn(ctx, args)
			switch {
			case err == nil:
				return result, nil
			case errors.Is(err, errors.ErrInvalidTicker), ctx.Err() != nil:
				return nil, err
			default:
				return fundsvc.NewFailure(shared.ArgString(args, "ticker"), failure, err, note), nil
			}
		}).
		WithTimeout(fundamentalsTimeout).
		WithStats().
		Build()
}
