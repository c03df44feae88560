package analysis

import (
	"fmt"
	"sort"
	"time"

	"series-explorer/src/models"
)

// TimeSeriesResampler handles calendar-period resampling of observations.
type TimeSeriesResampler struct{}

// PeriodGroup is the set of positions (into a date-sorted slice) falling in one period.
type PeriodGroup struct {
	Indices []int
	Label   models.Date
}

// -----------------------------------------------------------------------------

// PeriodEnd returns the label of the period containing d: the Sunday ending
// its week, or the last day of its month, quarter or year.
func PeriodEnd(d models.Date, freq models.Frequency) (models.Date, error) {
	switch freq {
	case models.FrequencyDaily:
		return d, nil
	case models.FrequencyWeekly:
		offset := (7 - int(d.Time().Weekday())) % 7
		return d.AddDays(offset), nil
	case models.FrequencyMonthly:
		return lastDayOfMonth(d.Year, d.Month), nil
	case models.FrequencyQuarterly:
		quarterEnd := time.Month(((int(d.Month)-1)/3 + 1) * 3)
		return lastDayOfMonth(d.Year, quarterEnd), nil
	case models.FrequencyAnnual:
		return models.Date{Year: d.Year, Month: time.December, Day: 31}, nil
	}
	return models.Date{}, fmt.Errorf("unsupported frequency %q", freq)
}

func lastDayOfMonth(year int, month time.Month) models.Date {
	return models.NewDate(time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC))
}

// -----------------------------------------------------------------------------

// ResampleIndices groups the positions of already sorted dates by period.
func (r *TimeSeriesResampler) ResampleIndices(dates []models.Date, freq models.Frequency) ([]PeriodGroup, error) {
	groups := []PeriodGroup{}
	for i, d := range dates {
		label, err := PeriodEnd(d, freq)
		if err != nil {
			return nil, err
		}
		if n := len(groups); n > 0 && groups[n-1].Label == label {
			groups[n-1].Indices = append(groups[n-1].Indices, i)
			continue
		}
		groups = append(groups, PeriodGroup{Indices: []int{i}, Label: label})
	}
	return groups, nil
}

// -----------------------------------------------------------------------------

// Resample keeps the last present value of each period, labelled by the
// period end. Periods without any present value are dropped.
func (r *TimeSeriesResampler) Resample(observations []models.MObservation, freq models.Frequency) ([]models.MObservation, error) {
	sorted := make([]models.MObservation, len(observations))
	copy(sorted, observations)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	dates := make([]models.Date, len(sorted))
	for i, o := range sorted {
		dates[i] = o.Date
	}

	groups, err := r.ResampleIndices(dates, freq)
	if err != nil {
		return nil, err
	}

	out := make([]models.MObservation, 0, len(groups))
	for _, g := range groups {
		var last *float64
		for _, idx := range g.Indices {
			if v := sorted[idx].Value; v != nil {
				last = v
			}
		}
		if last == nil {
			continue
		}
		value := *last
		out = append(out, models.MObservation{Date: g.Label, Value: &value})
	}
	return out, nil
}
