package dto

// ErrorResponse is the uniform error payload returned by the API.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ReconciliationRunResponse reports the outcome of an on-demand
// reconciliation sweep.
type ReconciliationRunResponse struct {
	EventsProcessed int `json:"events_processed"`
	EventsUpdated   int `json:"events_updated"`
}
