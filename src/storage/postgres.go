package storage

import (
	"database/sql"
	"time"

	"series-explorer/src/helpers"
	"series-explorer/src/logger"

	_ "github.com/lib/pq"
)

// -----------------------------------------------------------------------------

// NewPostgresStore connects to postgres with a lib/pq connection string.
func NewPostgresStore(dsn string, log *logger.Logger) (*SQLSeriesStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, helpers.NewDatabaseError("failed to open postgres database", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, helpers.NewDatabaseError("failed to reach postgres database", err)
	}

	log.Info("Connected to postgres")
	return &SQLSeriesStore{DB: db, Logger: log, dialect: dialectPostgres}, nil
}
