package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate_AcceptsDatesAndTimestamps(t *testing.T) {
	want := Date{Year: 2021, Month: time.February, Day: 1}

	for _, in := range []string{
		"2021-02-01",
		" 2021-02-01 ",
		"2021-02-01T00:00:00",
		"2021-02-01 00:00:00",
		"2021-02-01T00:00:00Z",
		"2021-02-01T23:30:00-05:00",
	} {
		got, err := ParseDate(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestParseDate_Rejects(t *testing.T) {
	for _, in := range []string{"", "2021-13-01", "02/01/2021", "2021-02-30"} {
		_, err := ParseDate(in)
		assert.Error(t, err, in)
	}
}

func TestDate_OrderingByCalendarValue(t *testing.T) {
	a := Date{Year: 2020, Month: time.December, Day: 31}
	b := Date{Year: 2021, Month: time.January, Day: 1}
	c := Date{Year: 2021, Month: time.January, Day: 2}

	assert.True(t, a.Before(b))
	assert.True(t, b.Before(c))
	assert.False(t, c.Before(a))
	assert.False(t, b.Before(b))
	assert.Equal(t, b, a.AddDays(1))
}

func TestDate_JSON(t *testing.T) {
	obs := MObservation{Date: Date{Year: 2021, Month: time.January, Day: 5}}

	data, err := json.Marshal(obs)
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2021-01-05","value":null}`, string(data))

	var back MObservation
	require.NoError(t, json.Unmarshal([]byte(`{"date":"2021-01-05T00:00:00","value":4.5}`), &back))
	assert.Equal(t, obs.Date, back.Date)
	require.NotNil(t, back.Value)
	assert.Equal(t, 4.5, *back.Value)
}

func TestNewAlignedTable_MarshalsEmpty(t *testing.T) {
	data, err := json.Marshal(NewAlignedTable())
	require.NoError(t, err)
	assert.JSONEq(t, `{"dates":[],"series":{}}`, string(data))
}
