package datasource

import (
	"context"
	"errors"
	"testing"

	"series-explorer/src/interfaces"
	"series-explorer/src/logger"
	"series-explorer/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIngest struct {
	name    string
	series  map[string][]models.MObservation
	listErr error
	broken  map[string]bool
}

func (f *fakeIngest) Name() string { return f.name }

func (f *fakeIngest) ListSeries(ctx context.Context) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	ids := make([]string, 0, len(f.series))
	for id := range f.series {
		ids = append(ids, id)
	}
	return models.NormalizeSelection(ids), nil
}

func (f *fakeIngest) LoadSeries(ctx context.Context, id string) ([]models.MObservation, error) {
	if f.broken[id] {
		return nil, errors.New("corrupt")
	}
	return f.series[id], nil
}

func (f *fakeIngest) FileName(id string) string { return id + ".csv" }

func TestMultiSourceManager_LoadAll(t *testing.T) {
	csv := &fakeIngest{name: "csv", series: map[string][]models.MObservation{
		"UNRATE": {point("2021-01-01", 6.3)},
		"GDP":    {point("2021-01-01", 22000)},
		"BAD":    nil,
	}, broken: map[string]bool{"BAD": true}}
	remote := &fakeIngest{name: "remote", series: map[string][]models.MObservation{
		"UNRATE": {point("2021-01-01", 99)},
		"DGS10":  {point("2021-01-04", 0.93)},
	}}
	down := &fakeIngest{name: "down", listErr: errors.New("unreachable")}

	m := NewMultiSourceManager(nil, 2, logger.NewLogger("test"))
	require.NoError(t, m.AddSource(csv))
	require.NoError(t, m.AddSource(remote))
	require.NoError(t, m.AddSource(down))
	assert.Error(t, m.AddSource(&fakeIngest{name: "csv"}), "duplicate names are rejected")

	loaded := m.LoadAll(context.Background(), func(id string) bool { return id == "GDP" })

	require.Len(t, loaded, 2)
	assert.Equal(t, "csv", loaded["UNRATE"].Source, "first source wins on id clash")
	assert.Equal(t, "UNRATE.csv", loaded["UNRATE"].FileName)
	assert.Equal(t, 6.3, *loaded["UNRATE"].Observations[0].Value)
	assert.Equal(t, "remote", loaded["DGS10"].Source)
	assert.NotContains(t, loaded, "GDP", "skipped series are not loaded")
	assert.NotContains(t, loaded, "BAD")
}

func TestMultiSourceManager_RemoveSource(t *testing.T) {
	m := NewMultiSourceManager([]interfaces.IIngestSource{&fakeIngest{name: "a"}, &fakeIngest{name: "b"}}, 1, logger.NewLogger("test"))

	require.NoError(t, m.RemoveSource("a"))
	assert.Error(t, m.RemoveSource("a"))

	_, err := m.GetSource("b")
	assert.NoError(t, err)
	assert.Len(t, m.GetAllSources(), 1)
}
