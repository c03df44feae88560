package models

// Phase is the orchestrator state a snapshot was taken in.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseScheduled Phase = "scheduled"
	PhaseInFlight  Phase = "in_flight"
	PhaseSettled   Phase = "settled"
)

// MPresentationState is an immutable snapshot of everything the renderer needs.
// A new value is produced for every transition; slices and maps inside a
// published snapshot are never modified afterwards.
type MPresentationState struct {
	Catalogue      []string         `json:"catalogue"`
	CatalogueError string           `json:"catalogue_error,omitempty"`
	Selection      []string         `json:"selection"`
	Filters        MFilters         `json:"filters"`
	Query          MQueryDescriptor `json:"query"`
	Table          MAlignedTable    `json:"table"`
	Loading        bool             `json:"loading"`
	Error          string           `json:"error,omitempty"`
	Epoch          uint64           `json:"epoch"`
	Phase          Phase            `json:"phase"`
	UpdatedAt      int64            `json:"updated_at"`
}

func NewPresentationState() MPresentationState {
	return MPresentationState{
		Catalogue: []string{},
		Selection: []string{},
		Table:     NewAlignedTable(),
		Phase:     PhaseIdle,
	}
}
