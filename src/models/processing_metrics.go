package models

// Fetch cycle outcomes.
const (
	OutcomeSuccess   = "success"
	OutcomeFailure   = "failure"
	OutcomeCancelled = "cancelled"
	OutcomeStale     = "stale"
	OutcomeCleared   = "cleared"
)

// MFetchMetrics records how one fetch cycle ended.
type MFetchMetrics struct {
	Epoch           uint64  `json:"epoch"`
	Outcome         string  `json:"outcome"`
	Series          int     `json:"series"`
	Dates           int     `json:"dates"`
	DurationSeconds float64 `json:"duration_seconds"`
	FinishedAt      int64   `json:"finished_at"`
}
