package scraper

import "errors"

// Failure taxonomy for calendar fetches. Callers categorize with errors.Is;
// the category only drives observability counters, never control flow.
var (
	ErrNetwork = errors.New("calendar network failure")
	ErrParse   = errors.New("calendar parse failure")
)
