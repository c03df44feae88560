package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"series-explorer/src/helpers"
	"series-explorer/src/interfaces"
	"series-explorer/src/logger"
	"series-explorer/src/models"
)

const (
	dialectSQLite   = "sqlite"
	dialectPostgres = "postgres"

	paramsPerRow = 4
	batchSize    = 32000 / paramsPerRow
)

// SQLSeriesStore keeps the catalogue and observations in two tables shared
// by the sqlite and postgres backends.
type SQLSeriesStore struct {
	DB      *sql.DB
	Logger  *logger.Logger
	dialect string
}

var _ interfaces.ISeriesStore = (*SQLSeriesStore)(nil)

// -----------------------------------------------------------------------------

// NewStore opens the backend selected by cfg.DBType.
func NewStore(cfg models.MStorageConfig, log *logger.Logger) (*SQLSeriesStore, error) {
	switch cfg.DBType {
	case dialectSQLite:
		return NewSQLiteStore(cfg.DBPath, log)
	case dialectPostgres:
		return NewPostgresStore(cfg.DBConnectionString, log)
	}
	return nil, helpers.NewConfigurationError(fmt.Sprintf("unsupported database type %q", cfg.DBType))
}

// -----------------------------------------------------------------------------

// rebind turns ? placeholders into $n for postgres.
func (s *SQLSeriesStore) rebind(query string) string {
	if s.dialect != dialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// -----------------------------------------------------------------------------

// Initialize creates the tables if they do not exist yet.
func (s *SQLSeriesStore) Initialize() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS series_catalog (
			name TEXT PRIMARY KEY,
			file_name TEXT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS time_series_data (
			id TEXT PRIMARY KEY,
			series_name TEXT NOT NULL,
			observation_date TEXT NOT NULL,
			value DOUBLE PRECISION NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_time_series_data_series_date
			ON time_series_data (series_name, observation_date)`,
	}
	for _, stmt := range statements {
		if _, err := s.DB.Exec(stmt); err != nil {
			return helpers.NewDatabaseError("failed to create schema", err)
		}
	}
	s.Logger.Info("Schema ready (%s)", s.dialect)
	return nil
}

// -----------------------------------------------------------------------------

func (s *SQLSeriesStore) Ping(ctx context.Context) error {
	if err := s.DB.PingContext(ctx); err != nil {
		return helpers.NewDatabaseError("database unreachable", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (s *SQLSeriesStore) HasSeries(name string) (bool, error) {
	var exists int
	err := s.DB.QueryRow(s.rebind(`SELECT 1 FROM series_catalog WHERE name = ?`), name).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, helpers.NewDatabaseError("catalogue lookup failed", err)
	}
	return true, nil
}

// -----------------------------------------------------------------------------

// SaveSeries catalogues the series and inserts its present observations in
// one transaction. Rows already stored (same series and date) are kept.
func (s *SQLSeriesStore) SaveSeries(name, fileName string, observations []models.MObservation) error {
	tx, err := s.DB.Begin()
	if err != nil {
		return helpers.NewDatabaseError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	file := sql.NullString{String: fileName, Valid: fileName != ""}
	if _, err := tx.Exec(s.rebind(`INSERT INTO series_catalog (name, file_name) VALUES (?, ?) ON CONFLICT (name) DO NOTHING`), name, file); err != nil {
		return helpers.NewDatabaseError("failed to catalogue "+name, err)
	}

	present := models.Present(observations)
	for start := 0; start < len(present); start += batchSize {
		end := start + batchSize
		if end > len(present) {
			end = len(present)
		}
		if err := s.insertBatch(tx, name, present[start:end]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return helpers.NewDatabaseError("failed to commit "+name, err)
	}
	s.Logger.Debug("Stored %d observations for %s", len(present), name)
	return nil
}

// -----------------------------------------------------------------------------

func (s *SQLSeriesStore) insertBatch(tx *sql.Tx, name string, batch []models.MObservation) error {
	var b strings.Builder
	b.WriteString(`INSERT INTO time_series_data (id, series_name, observation_date, value) VALUES `)
	args := make([]interface{}, 0, len(batch)*paramsPerRow)
	for i, o := range batch {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(?, ?, ?, ?)")
		date := o.Date.String()
		args = append(args, name+"_"+date, name, date, *o.Value)
	}
	b.WriteString(` ON CONFLICT (id) DO NOTHING`)

	if _, err := tx.Exec(s.rebind(b.String()), args...); err != nil {
		return helpers.NewDatabaseError("failed to insert observations for "+name, err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (s *SQLSeriesStore) ListSeries() ([]string, error) {
	rows, err := s.DB.Query(`SELECT name FROM series_catalog ORDER BY name`)
	if err != nil {
		return nil, helpers.NewDatabaseError("failed to list catalogue", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, helpers.NewDatabaseError("failed to read catalogue", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, helpers.NewDatabaseError("failed to read catalogue", err)
	}
	return names, nil
}

// -----------------------------------------------------------------------------

func (s *SQLSeriesStore) GetObservations(name, start, end string) ([]models.MObservation, error) {
	query := `SELECT observation_date, value FROM time_series_data WHERE series_name = ?`
	args := []interface{}{name}
	if start != "" {
		query += ` AND observation_date >= ?`
		args = append(args, start)
	}
	if end != "" {
		query += ` AND observation_date <= ?`
		args = append(args, end)
	}
	query += ` ORDER BY observation_date`

	rows, err := s.DB.Query(s.rebind(query), args...)
	if err != nil {
		return nil, helpers.NewDatabaseError("failed to query "+name, err)
	}
	defer rows.Close()

	observations := []models.MObservation{}
	for rows.Next() {
		var (
			dateStr string
			value   float64
		)
		if err := rows.Scan(&dateStr, &value); err != nil {
			return nil, helpers.NewDatabaseError("failed to read "+name, err)
		}
		date, err := models.ParseDate(dateStr)
		if err != nil {
			return nil, helpers.NewDatabaseError("corrupt date in "+name, err)
		}
		observations = append(observations, models.MObservation{Date: date, Value: models.Float(value)})
	}
	if err := rows.Err(); err != nil {
		return nil, helpers.NewDatabaseError("failed to read "+name, err)
	}
	return observations, nil
}

// -----------------------------------------------------------------------------

func (s *SQLSeriesStore) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}
