package analysis

import (
	"fmt"

	"series-explorer/src/helpers"
	"series-explorer/src/logger"
	"series-explorer/src/models"
)

// AnalysisFacade applies the server-side query options of the data service.
type AnalysisFacade struct {
	Resampler *TimeSeriesResampler
	Logger    *logger.Logger
}

// -----------------------------------------------------------------------------

func NewAnalysisFacade(log *logger.Logger) *AnalysisFacade {
	return &AnalysisFacade{
		Resampler: &TimeSeriesResampler{},
		Logger:    log,
	}
}

// -----------------------------------------------------------------------------

// Prepare resamples and transforms already date-filtered observations.
// An unknown frequency is a ValidationError; an unknown transform is logged
// and ignored.
func (a *AnalysisFacade) Prepare(seriesID string, observations []models.MObservation, q models.MQueryDescriptor) ([]models.MObservation, error) {
	out := models.Present(observations)

	if q.Frequency != models.FrequencyNone {
		freq, ok := models.ParseFrequency(string(q.Frequency))
		if !ok {
			return nil, helpers.NewValidationError(fmt.Sprintf("Invalid frequency %q", q.Frequency))
		}
		resampled, err := a.Resampler.Resample(out, freq)
		if err != nil {
			return nil, helpers.NewValidationError(err.Error())
		}
		out = resampled
	}

	transformed, ok := ApplyTransform(out, q.Transform)
	if !ok {
		a.Logger.Warning("Unknown transform %q requested for %s, returning data unchanged", q.Transform, seriesID)
	}
	return transformed, nil
}

// -----------------------------------------------------------------------------

// Correlate returns the rolling correlation of two series.
func (a *AnalysisFacade) Correlate(first, second []models.MObservation, window int) ([]models.MObservation, error) {
	if window < 2 {
		return nil, helpers.NewValidationError("window must be an integer greater than 1")
	}
	result := RollingCorrelation(first, second, window)
	a.Logger.Debug("Rolling correlation over %d points with window %d produced %d values", len(first), window, len(result))
	return result, nil
}
