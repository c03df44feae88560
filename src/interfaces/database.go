package interfaces

import (
	"context"

	"series-explorer/src/models"
)

// -----------------------------------------------------------------------------
// ISeriesStore defines the contract for storage operations.
// -----------------------------------------------------------------------------

type ISeriesStore interface {

	// -----------------------------------------------------------------------------

	// Initialize sets up the database schema and tables.
	Initialize() error

	// -----------------------------------------------------------------------------

	// Ping checks that the database is reachable.
	Ping(ctx context.Context) error

	// -----------------------------------------------------------------------------

	// HasSeries reports whether the series is in the catalogue.
	HasSeries(name string) (bool, error)

	// -----------------------------------------------------------------------------

	// SaveSeries catalogues a series and stores its present observations.
	SaveSeries(name, fileName string, observations []models.MObservation) error

	// -----------------------------------------------------------------------------

	// ListSeries returns the catalogue sorted by name.
	ListSeries() ([]string, error)

	// -----------------------------------------------------------------------------

	// GetObservations returns observations of a series between start and end
	// (inclusive, "YYYY-MM-DD", empty for unbounded) in ascending date order.
	GetObservations(name, start, end string) ([]models.MObservation, error)

	// -----------------------------------------------------------------------------

	// Close the database connection
	Close() error
}
