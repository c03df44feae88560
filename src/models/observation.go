package models

import "math"

// MObservation is one dated value of a series. A nil Value is an absent
// observation and serialises as JSON null.
type MObservation struct {
	Date  Date     `json:"date"`
	Value *float64 `json:"value"`
}

// Float returns a pointer to v, or nil when v is not a finite number.
func Float(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Present keeps only the observations that carry a value.
func Present(obs []MObservation) []MObservation {
	out := make([]MObservation, 0, len(obs))
	for _, o := range obs {
		if o.Value != nil {
			out = append(out, o)
		}
	}
	return out
}
