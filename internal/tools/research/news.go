package research

import (
	"context"
	"time"

	newssvc "equitydesk/internal/services/news"
	"equitydesk/internal/tools"
	"equitydesk/internal/tools/shared"
	"equitydesk/pkg/errors"
)

// NewCompanyNewsSearchTool searches company news with domain priority and fallback.
// Search outages come back as a data-gap payload; only invalid input is an error.
func NewCompanyNewsSearchTool(deps shared.Deps) tools.Tool {
	def, _ := tools.Describe(tools.CompanyNewsSearch)
	return shared.NewToolBuilder(def.Name, def.Description,
		func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			if !deps.HasNews() {
				return nil, errors.Wrap(errors.ErrUnavailable, "news search not configured")
			}

			req := newssvc.Request{
				Ticker:       deps.Defaults.TickerSpec(args),
				CompanyName:  shared.ArgString(args, "company_name"),
				LookbackDays: shared.ArgInt(args, "lookback_days", deps.Defaults.LookbackDays),
			}
			payload, err := deps.News.Search(ctx, req)
			if err != nil {
				return nil, err
			}
			return payload, nil
		}).
		WithTimeout(3 * time.Minute).
		WithStats().
		Build()
}
