package analysis

import (
	"series-explorer/src/analysis/core"
	"series-explorer/src/models"
)

// RollingCorrelation computes the Pearson correlation of a and b over a
// trailing window of joined observations. Only dates where both series have
// a value take part. Windows with zero variance are skipped.
func RollingCorrelation(a, b []models.MObservation, window int) []models.MObservation {
	out := []models.MObservation{}
	if window < 2 {
		return out
	}

	joined := Align(map[string][]models.MObservation{"a": a, "b": b})
	dates := make([]models.Date, 0, len(joined.Dates))
	xs := make([]float64, 0, len(joined.Dates))
	ys := make([]float64, 0, len(joined.Dates))
	for i, d := range joined.Dates {
		x, y := joined.Series["a"][i], joined.Series["b"][i]
		if x == nil || y == nil {
			continue
		}
		dates = append(dates, d)
		xs = append(xs, *x)
		ys = append(ys, *y)
	}

	for end := window; end <= len(dates); end++ {
		r, ok := core.CalculatePearson(xs[end-window:end], ys[end-window:end])
		if !ok {
			continue
		}
		out = append(out, models.MObservation{Date: dates[end-1], Value: models.Float(r)})
	}
	return out
}
