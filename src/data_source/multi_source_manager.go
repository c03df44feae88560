package datasource

import (
	"context"
	"fmt"
	"sync"

	"series-explorer/src/interfaces"
	"series-explorer/src/logger"
	"series-explorer/src/models"
	"series-explorer/src/observability"
)

// fileNamer is implemented by sources backed by files, so the catalogue can
// record where a series came from.
type fileNamer interface {
	FileName(seriesID string) string
}

// IngestedSeries is one series loaded from a source.
type IngestedSeries struct {
	ID           string
	Source       string
	FileName     string
	Observations []models.MObservation
}

// MultiSourceManager fans ingest out over several IIngestSource instances.
// When two sources offer the same id, the source added first wins.
type MultiSourceManager struct {
	Sources     []interfaces.IIngestSource
	Concurrency int
	Logger      *logger.Logger
	mu          sync.RWMutex
}

// -----------------------------------------------------------------------------

func NewMultiSourceManager(sources []interfaces.IIngestSource, concurrency int, log *logger.Logger) *MultiSourceManager {
	m := &MultiSourceManager{
		Concurrency: concurrency,
		Logger:      log,
	}
	for _, s := range sources {
		if err := m.AddSource(s); err != nil {
			log.Warning("Skipping source: %v", err)
		}
	}
	return m
}

// -----------------------------------------------------------------------------

func (m *MultiSourceManager) AddSource(source interfaces.IIngestSource) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	name := source.Name()
	for _, existing := range m.Sources {
		if existing.Name() == name {
			return fmt.Errorf("source %s already exists", name)
		}
	}

	m.Sources = append(m.Sources, source)
	m.Logger.Info("Added source: %s", name)
	return nil
}

// -----------------------------------------------------------------------------

func (m *MultiSourceManager) RemoveSource(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, s := range m.Sources {
		if s.Name() == name {
			m.Sources = append(m.Sources[:i:i], m.Sources[i+1:]...)
			m.Logger.Info("Removed source: %s", name)
			return nil
		}
	}
	return fmt.Errorf("source %s not found", name)
}

// -----------------------------------------------------------------------------

// GetSource retrieves a source by name
func (m *MultiSourceManager) GetSource(name string) (interfaces.IIngestSource, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, s := range m.Sources {
		if s.Name() == name {
			return s, nil
		}
	}
	return nil, fmt.Errorf("source %s not found", name)
}

// -----------------------------------------------------------------------------

// GetAllSources returns a snapshot of the sources in priority order
func (m *MultiSourceManager) GetAllSources() []interfaces.IIngestSource {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]interfaces.IIngestSource, len(m.Sources))
	copy(list, m.Sources)
	return list
}

// -----------------------------------------------------------------------------

// LoadAll loads every series of every source that skip does not reject.
// Sources run concurrently. A source that cannot list its series, or a single
// series that fails to load, is logged and left out.
func (m *MultiSourceManager) LoadAll(ctx context.Context, skip func(seriesID string) bool) map[string]IngestedSeries {
	sources := m.GetAllSources()
	perSource := make([]map[string]IngestedSeries, len(sources))

	var wg sync.WaitGroup
	for i, src := range sources {
		wg.Add(1)
		go func() {
			defer wg.Done()
			perSource[i] = m.loadSource(ctx, src, skip)
		}()
	}
	wg.Wait()

	merged := make(map[string]IngestedSeries)
	for i := len(perSource) - 1; i >= 0; i-- {
		for id, series := range perSource[i] {
			merged[id] = series
		}
	}
	return merged
}

// -----------------------------------------------------------------------------

func (m *MultiSourceManager) loadSource(ctx context.Context, src interfaces.IIngestSource, skip func(string) bool) map[string]IngestedSeries {
	results := make(map[string]IngestedSeries)

	ids, err := src.ListSeries(ctx)
	if err != nil {
		m.Logger.Error("Source %s failed to list series: %v", src.Name(), err)
		return results
	}

	limit := m.Concurrency
	if limit <= 0 {
		limit = 1
	}
	sem := make(chan struct{}, limit)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, id := range ids {
		if skip != nil && skip(id) {
			m.Logger.Info("Series %s already catalogued, skipping", id)
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			observations, err := src.LoadSeries(ctx, id)
			if err != nil {
				m.Logger.Error("Source %s failed to load %s: %v", src.Name(), id, err)
				return
			}

			series := IngestedSeries{ID: id, Source: src.Name(), Observations: observations}
			if fn, ok := src.(fileNamer); ok {
				series.FileName = fn.FileName(id)
			}
			observability.IngestedSeries.WithLabelValues(src.Name()).Inc()

			mu.Lock()
			results[id] = series
			mu.Unlock()
		}()
	}
	wg.Wait()

	m.Logger.Info("Source %s loaded %d of %d series", src.Name(), len(results), len(ids))
	return results
}
