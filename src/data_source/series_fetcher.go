package datasource

import (
	"context"
	"sync"

	"series-explorer/src/helpers"
	"series-explorer/src/interfaces"
	"series-explorer/src/logger"
	"series-explorer/src/models"
	"series-explorer/src/observability"

	"golang.org/x/sync/errgroup"
)

// SeriesFetcher requests every series of a selection concurrently and
// succeeds only if all of them do.
type SeriesFetcher struct {
	Source      interfaces.ISeriesSource
	Concurrency int
	Logger      *logger.Logger
}

// -----------------------------------------------------------------------------

func NewSeriesFetcher(source interfaces.ISeriesSource, concurrency int, log *logger.Logger) *SeriesFetcher {
	return &SeriesFetcher{
		Source:      source,
		Concurrency: concurrency,
		Logger:      log,
	}
}

// -----------------------------------------------------------------------------

// Fetch returns one result per distinct id. The first failing series aborts
// the others and comes back as a *helpers.FetchError. If ctx is cancelled the
// outcome is helpers.ErrCancelled, whatever the individual requests returned.
func (f *SeriesFetcher) Fetch(ctx context.Context, ids []string, query models.MQueryDescriptor) (map[string][]models.MObservation, error) {
	unique := models.NormalizeSelection(ids)
	results := make(map[string][]models.MObservation, len(unique))
	if len(unique) == 0 {
		return results, nil
	}
	if ctx.Err() != nil {
		return nil, helpers.ErrCancelled
	}

	g, gctx := errgroup.WithContext(ctx)
	if f.Concurrency > 0 {
		g.SetLimit(f.Concurrency)
	}

	var mu sync.Mutex
	for _, id := range unique {
		g.Go(func() error {
			observations, err := f.Source.FetchSeries(gctx, id, query)
			if err != nil {
				if gctx.Err() != nil {
					observability.SeriesRequests.WithLabelValues("aborted").Inc()
				} else {
					observability.SeriesRequests.WithLabelValues("error").Inc()
				}
				return helpers.NewFetchError(id, err)
			}
			observability.SeriesRequests.WithLabelValues("ok").Inc()

			mu.Lock()
			results[id] = observations
			mu.Unlock()
			return nil
		})
	}

	err := g.Wait()
	if ctx.Err() != nil {
		f.Logger.Debug("Fetch of %d series cancelled", len(unique))
		return nil, helpers.ErrCancelled
	}
	if err != nil {
		f.Logger.Warning("Fetch of %v failed: %v", unique, err)
		return nil, err
	}
	return results, nil
}
