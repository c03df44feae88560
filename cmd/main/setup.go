package main

import (
	"series-explorer/src/analysis"
	"series-explorer/src/config"
	datasource "series-explorer/src/data_source"
	"series-explorer/src/data_source/csvfile"
	"series-explorer/src/data_source/fred"
	"series-explorer/src/interfaces"
	"series-explorer/src/logger"
	"series-explorer/src/network"
	"series-explorer/src/storage"
)

// -----------------------------------------------------------------------------

// setupDatabase opens the configured store and migrates its schema
func setupDatabase(conf *config.Config, appLogger *logger.Logger) (interfaces.ISeriesStore, error) {
	storeLogger := logger.NewLogger("SeriesStore").With("db_type", conf.DataService.Storage.DBType)

	db, err := storage.NewStore(conf.DataService.Storage, storeLogger)
	if err != nil {
		appLogger.Error("Failed to init db: %v", err)
		return nil, err
	}
	if err := db.Initialize(); err != nil {
		appLogger.Error("Failed to migrate db: %v", err)
		db.Close()
		return nil, err
	}
	return db, nil
}

// -----------------------------------------------------------------------------

// setupNetwork initializes the network manager
func setupNetwork(conf *config.Config) interfaces.INetworkManager {
	return network.NewAsyncNetworkManager(&conf.Network, logger.NewLogger("NetworkManager"))
}

// -----------------------------------------------------------------------------

// setupIngestSources builds the sources the data service loads at startup,
// CSV first so local files win over the FRED API for the same id.
func setupIngestSources(conf *config.Config, appLogger *logger.Logger, netMgr interfaces.INetworkManager) *datasource.MultiSourceManager {
	sources := []interfaces.IIngestSource{
		csvfile.NewCSVSource(conf.DataService.CSVDir, logger.NewLogger("CSVSource")),
	}

	fredCfg := conf.DataService.FRED
	switch {
	case !fredCfg.Enabled:
		appLogger.Info("FRED source disabled")
	case fredCfg.APIKey == "":
		appLogger.Warning("FRED source enabled but no API key set, skipping")
	default:
		sources = append(sources, fred.NewFREDSource(fredCfg, netMgr, logger.NewLogger("FREDSource")))
	}

	appLogger.Info("Initializing MultiSourceManager for %d sources.", len(sources))
	return datasource.NewMultiSourceManager(sources, conf.Network.ConcurrentRequests, logger.NewLogger("MultiSourceManager"))
}

// -----------------------------------------------------------------------------

// setupAnalysis initializes the analysis facade
func setupAnalysis() *analysis.AnalysisFacade {
	return analysis.NewAnalysisFacade(logger.NewLogger("Analysis"))
}
