// Package csvfile ingests series from a directory of two-column CSV files
// (observation date, value) named after the series id.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"series-explorer/src/logger"
	"series-explorer/src/models"
)

// MissingMarker is the value used by FRED exports for a missing observation.
const MissingMarker = "."

type CSVSource struct {
	Dir    string
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewCSVSource(dir string, log *logger.Logger) *CSVSource {
	return &CSVSource{Dir: dir, Logger: log}
}

// -----------------------------------------------------------------------------

func (s *CSVSource) Name() string {
	return "csv"
}

func (s *CSVSource) FileName(seriesID string) string {
	return seriesID + ".csv"
}

// -----------------------------------------------------------------------------

// ListSeries returns the ids of every *.csv file in Dir. A missing directory
// yields an empty list.
func (s *CSVSource) ListSeries(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if errors.Is(err, fs.ErrNotExist) {
		s.Logger.Warning("Data directory %s not found, no CSV series loaded", s.Dir)
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory %s: %w", s.Dir, err)
	}

	ids := []string{}
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())))
	}
	sort.Strings(ids)
	return ids, nil
}

// -----------------------------------------------------------------------------

// LoadSeries reads <Dir>/<id>.csv. The header row is skipped; the file must
// have exactly one value column. Empty or non-numeric values are absent.
func (s *CSVSource) LoadSeries(ctx context.Context, seriesID string) ([]models.MObservation, error) {
	path := filepath.Join(s.Dir, s.FileName(seriesID))
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", path, err)
	}
	if len(header) != 2 {
		return nil, fmt.Errorf("%s has %d columns, expected a date and one value column", path, len(header))
	}

	observations := []models.MObservation{}
	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line, err)
		}

		date, err := models.ParseDate(record[0])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line, err)
		}
		observations = append(observations, models.MObservation{Date: date, Value: parseValue(record[1])})
	}

	s.Logger.Debug("Read %d rows from %s", len(observations), path)
	return observations, nil
}

// -----------------------------------------------------------------------------

func parseValue(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == MissingMarker {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return models.Float(v)
}
