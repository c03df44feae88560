package interfaces

import (
	"context"

	"series-explorer/src/models"
)

// -----------------------------------------------------------------------------
// ISeriesSource is the read side the explorer pulls from (the data service API).
// -----------------------------------------------------------------------------

type ISeriesSource interface {

	// Name returns the unique identifier of the source
	Name() string

	// -----------------------------------------------------------------------------

	// FetchCatalogue lists every series id the source can serve.
	FetchCatalogue(ctx context.Context) ([]string, error)

	// -----------------------------------------------------------------------------

	// FetchSeries retrieves the observations of one series for the given query.
	// Implementations must return promptly once ctx is cancelled.
	FetchSeries(ctx context.Context, seriesID string, query models.MQueryDescriptor) ([]models.MObservation, error)
}

// -----------------------------------------------------------------------------
// ISeriesFetcher fetches a whole selection in one all-or-nothing call.
// -----------------------------------------------------------------------------

type ISeriesFetcher interface {
	Fetch(ctx context.Context, ids []string, query models.MQueryDescriptor) (map[string][]models.MObservation, error)
}

// -----------------------------------------------------------------------------
// IIngestSource feeds the data service store at startup (CSV files, FRED).
// -----------------------------------------------------------------------------

type IIngestSource interface {
	Name() string

	// -----------------------------------------------------------------------------

	// ListSeries returns the ids this source can load.
	ListSeries(ctx context.Context) ([]string, error)

	// -----------------------------------------------------------------------------

	// LoadSeries returns the full history of one series.
	LoadSeries(ctx context.Context, seriesID string) ([]models.MObservation, error)
}
