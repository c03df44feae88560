package main

import (
	"context"
	"time"

	"series-explorer/src/config"
	datasource "series-explorer/src/data_source"
	"series-explorer/src/data_source/explorer"
	"series-explorer/src/grpc_control"
	"series-explorer/src/logger"
	"series-explorer/src/models"
	"series-explorer/src/orchestrator"
	"series-explorer/src/server"
	"series-explorer/src/utils"
)

const catalogueTimeout = 30 * time.Second

// -----------------------------------------------------------------------------

// runExplorer wires the orchestrator to the data service API and serves it
// until ctx is done.
func runExplorer(ctx context.Context, conf *config.Config, appLogger *logger.Logger) error {
	netMgr := setupNetwork(conf)
	source := explorer.NewAPISource(conf.Explorer.APIBaseURL, netMgr, logger.NewLogger("ExplorerAPI"))
	fetcher := datasource.NewSeriesFetcher(source, conf.Network.ConcurrentRequests, logger.NewLogger("SeriesFetcher"))

	history := utils.NewRingBuffer[models.MFetchMetrics](conf.Explorer.MetricsHistory)
	orch := orchestrator.New(fetcher, conf.Explorer.Debounce, history, logger.NewLogger("Orchestrator"))
	srv := server.NewExplorerServer(&conf.Explorer, orch, source, history, logger.NewLogger("ExplorerServer"))

	// A missing catalogue is reported in the state; the explorer stays usable.
	go func() {
		loadCtx, cancel := context.WithTimeout(ctx, catalogueTimeout)
		defer cancel()
		if err := orch.LoadCatalogue(loadCtx, source); err != nil {
			appLogger.Warning("Catalogue unavailable at startup: %v", err)
		}
	}()

	errs := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errs <- err
		}
	}()

	return waitForShutdown(ctx, appLogger, errs,
		func(context.Context) error { return srv.Stop() },
		func(context.Context) error { orch.Close(); return nil },
	)
}

// -----------------------------------------------------------------------------

// runDataService ingests the configured sources into the store, then serves
// the REST API and the gRPC health service until ctx is done.
func runDataService(ctx context.Context, conf *config.Config, appLogger *logger.Logger) error {
	db, err := setupDatabase(conf, appLogger)
	if err != nil {
		return err
	}
	defer db.Close()

	netMgr := setupNetwork(conf)
	performIngest(ctx, setupIngestSources(conf, appLogger, netMgr), db, appLogger)

	dataServer := server.NewDataServer(&conf.DataService, db, setupAnalysis(), logger.NewLogger("DataServer"))
	control := grpc_control.NewControlService(db, logger.NewLogger("ControlService"))
	control.Refresh(ctx)
	go control.Watch(ctx, 30*time.Second)

	errs := make(chan error, 2)
	go func() {
		if err := dataServer.Start(); err != nil {
			errs <- err
		}
	}()
	go func() {
		if err := control.ListenAndServe(conf.DataService.Host, conf.DataService.GrpcPort); err != nil {
			errs <- err
		}
	}()

	return waitForShutdown(ctx, appLogger, errs,
		dataServer.Stop,
		func(context.Context) error { control.Stop(); return nil },
	)
}
