package interfaces

import "series-explorer/src/models"

// -----------------------------------------------------------------------------
// IDataExchanger defines the push side towards the renderer.
// -----------------------------------------------------------------------------

type IDataExchanger interface {
	// -----------------------------------------------------------------------------
	// Publish hands a new presentation snapshot to connected clients.
	// Called while the orchestrator holds its lock, so it must not block.
	Publish(state models.MPresentationState)

	// -----------------------------------------------------------------------------
	// Start the server
	Start() error

	// -----------------------------------------------------------------------------
	// Stop the server gracefully
	Stop() error
}
