package analysis

import (
	"series-explorer/src/analysis/core"
	"series-explorer/src/models"
)

// -----------------------------------------------------------------------------

// IndexTo100 rebases a series so that its first present value becomes 100.
// When that first value is zero the series is returned unchanged.
func IndexTo100(observations []models.MObservation) []models.MObservation {
	out := make([]models.MObservation, len(observations))
	copy(out, observations)

	var base *float64
	for _, o := range observations {
		if o.Value != nil {
			base = o.Value
			break
		}
	}
	if base == nil || *base == 0 {
		return out
	}

	for i, o := range out {
		if o.Value == nil {
			continue
		}
		out[i].Value = models.Float(core.CalculateIndexedValue(*o.Value, *base))
	}
	return out
}

// -----------------------------------------------------------------------------

// ApplyTransform applies t and reports whether t was recognised. An
// unrecognised transform returns the input unchanged.
func ApplyTransform(observations []models.MObservation, t models.Transform) ([]models.MObservation, bool) {
	switch t {
	case models.TransformNone:
		return observations, true
	case models.TransformIndex100:
		return IndexTo100(observations), true
	}
	return observations, false
}
