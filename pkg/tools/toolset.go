package tools

import (
	"github.com/awb-bank/audit-agent/pkg/agent"
	"github.com/awb-bank/audit-agent/pkg/config"
)

// NewRegistry assembles the full audit toolset over the given database
// and mailer. Registration order fixes the catalog order shown to the
// model.
func NewRegistry(db Querier, mailer Mailer, cfg *config.Config) *agent.Registry {
	users := NewSQLUserIndex(db)
	return agent.NewRegistry(
		NewQueryTool(db),
		NewListTablesTool(db),
		NewTableSchemaTool(db),
		NewDistinctStatusesTool(db),
		NewAlertTool(users, cfg.Output.AlertsDir),
		NewEmailTool(mailer, users, cfg.SMTP.Sender, cfg.Output.EmailLogDir),
		NewReportTool(users, cfg.Output.ReportsDir),
		NewReviewTool(users, cfg.Output.ReviewsDir),
	)
}
