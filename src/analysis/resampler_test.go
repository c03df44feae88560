package analysis

import (
	"testing"

	"series-explorer/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeriodEnd(t *testing.T) {
	tests := []struct {
		date string
		freq models.Frequency
		want string
	}{
		{"2021-03-17", models.FrequencyDaily, "2021-03-17"},
		{"2021-03-17", models.FrequencyWeekly, "2021-03-21"}, // Wednesday -> Sunday
		{"2021-03-21", models.FrequencyWeekly, "2021-03-21"}, // Sunday ends its own week
		{"2020-02-10", models.FrequencyMonthly, "2020-02-29"},
		{"2021-05-02", models.FrequencyQuarterly, "2021-06-30"},
		{"2021-11-30", models.FrequencyQuarterly, "2021-12-31"},
		{"2021-07-04", models.FrequencyAnnual, "2021-12-31"},
	}

	for _, tt := range tests {
		got, err := PeriodEnd(day(tt.date), tt.freq)
		require.NoError(t, err)
		assert.Equal(t, day(tt.want), got, "%s %s", tt.date, tt.freq)
	}

	_, err := PeriodEnd(day("2021-01-01"), "hourly")
	assert.Error(t, err)
}

func TestResample_LastPresentValuePerPeriod(t *testing.T) {
	r := &TimeSeriesResampler{}
	in := []models.MObservation{
		ob("2021-02-03", 20),
		ob("2021-01-05", 10),
		ob("2021-01-29", 11),
		absent("2021-02-26"),
		absent("2021-03-10"),
		ob("2021-04-01", 40),
	}

	out, err := r.Resample(in, models.FrequencyMonthly)
	require.NoError(t, err)

	assert.Equal(t, []models.MObservation{
		ob("2021-01-31", 11),
		ob("2021-02-28", 20),
		ob("2021-04-30", 40),
	}, out, "March has no value and is dropped")
}

func TestResample_Quarterly(t *testing.T) {
	r := &TimeSeriesResampler{}
	out, err := r.Resample([]models.MObservation{
		ob("2021-01-01", 1), ob("2021-02-01", 2), ob("2021-03-01", 3), ob("2021-04-01", 4),
	}, models.FrequencyQuarterly)
	require.NoError(t, err)

	assert.Equal(t, []models.MObservation{ob("2021-03-31", 3), ob("2021-06-30", 4)}, out)
}
