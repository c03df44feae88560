package storage

import (
	"database/sql"

	"series-explorer/src/helpers"
	"series-explorer/src/logger"

	_ "modernc.org/sqlite"
)

const memoryDSN = ":memory:"

// -----------------------------------------------------------------------------

// NewSQLiteStore opens a sqlite database at path (":memory:" for a
// process-local database). Writes are serialised on one connection.
func NewSQLiteStore(path string, log *logger.Logger) (*SQLSeriesStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, helpers.NewDatabaseError("failed to open sqlite database", err)
	}
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, helpers.NewDatabaseError("failed to reach sqlite database", err)
	}

	if path != memoryDSN {
		if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
			log.Warning("Failed to set WAL mode: %v", err)
		}
		if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
			log.Warning("Failed to set synchronous mode: %v", err)
		}
	}

	return &SQLSeriesStore{DB: db, Logger: log, dialect: dialectSQLite}, nil
}
