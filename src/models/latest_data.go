package models

// -----------------------------------------------------------------------------
// Messages pushed to websocket clients
// -----------------------------------------------------------------------------

const (
	MessageInitial = "INITIAL"
	MessageUpdate  = "UPDATE"
	MessageError   = "ERROR"
)

type MStateMessage struct {
	Type      string              `json:"type"`
	State     *MPresentationState `json:"state,omitempty"`
	Error     string              `json:"error,omitempty"`
	Timestamp int64               `json:"timestamp"`
}

// -----------------------------------------------------------------------------
// Commands received from websocket clients
// -----------------------------------------------------------------------------

const (
	CommandSubscribe = "subscribe"
	CommandToggle    = "toggle"
	CommandSelect    = "select"
	CommandFilters   = "filters"
	CommandRefresh   = "refresh"
)

type MClientCommand struct {
	Command string    `json:"command"`
	Series  string    `json:"series,omitempty"`
	Symbols []string  `json:"symbols,omitempty"`
	Filters *MFilters `json:"filters,omitempty"`
}
