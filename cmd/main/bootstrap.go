package main

import (
	"context"
	"time"

	datasource "series-explorer/src/data_source"
	"series-explorer/src/interfaces"
	"series-explorer/src/logger"
)

// performIngest loads every source series that is not yet catalogued into
// the store. Failures are logged per series; the service starts regardless.
func performIngest(ctx context.Context, sources *datasource.MultiSourceManager, db interfaces.ISeriesStore, appLogger *logger.Logger) {
	started := time.Now()
	appLogger.Info("Ingesting series...")

	known := func(id string) bool {
		ok, err := db.HasSeries(id)
		if err != nil {
			appLogger.Warning("Catalogue lookup for %s failed: %v", id, err)
			return false
		}
		return ok
	}

	loaded := sources.LoadAll(ctx, known)

	saved := 0
	for id, series := range loaded {
		if err := db.SaveSeries(id, series.FileName, series.Observations); err != nil {
			appLogger.Error("Failed to store %s from %s: %v", id, series.Source, err)
			continue
		}
		saved++
	}

	appLogger.Info("Ingest complete: %d new series in %s", saved, time.Since(started).Round(time.Millisecond))
}
