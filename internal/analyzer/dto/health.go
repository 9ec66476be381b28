package dto

// HealthReport summarizes recent collection-pipeline health for the health
// check endpoint and operator alerts.
type HealthReport struct {
	Healthy                 bool     `json:"healthy"`
	RunsExamined            int      `json:"runs_examined"`
	SuccessRate             float64  `json:"success_rate"`
	HoursSinceLastRun       *float64 `json:"hours_since_last_run"`
	UnresolvedParseFailures int      `json:"unresolved_parse_failures"`
	Issues                  []string `json:"issues,omitempty"`
}
