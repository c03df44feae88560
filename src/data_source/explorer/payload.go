package explorer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"series-explorer/src/models"
)

// ParseSeriesPayload normalises a data endpoint response into observations.
// The value of a record may sit under "value" or under the series id itself.
// A null, missing or non-numeric value (such as the "." missing marker) is
// absent. A response that is not an array, or a record without a valid date,
// is an error.
func ParseSeriesPayload(seriesID string, body []byte) ([]models.MObservation, error) {
	var records []map[string]json.RawMessage
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("malformed payload for %s: expected an array of records: %w", seriesID, err)
	}

	observations := make([]models.MObservation, 0, len(records))
	for i, rec := range records {
		rawDate, ok := rec["date"]
		if !ok {
			return nil, fmt.Errorf("malformed payload for %s: record %d has no date", seriesID, i)
		}
		var dateStr string
		if err := json.Unmarshal(rawDate, &dateStr); err != nil {
			return nil, fmt.Errorf("malformed payload for %s: record %d date is not a string", seriesID, i)
		}
		date, err := models.ParseDate(dateStr)
		if err != nil {
			return nil, fmt.Errorf("malformed payload for %s: record %d: %w", seriesID, i, err)
		}

		rawValue, ok := rec["value"]
		if !ok {
			rawValue = rec[seriesID]
		}
		observations = append(observations, models.MObservation{Date: date, Value: parseValue(rawValue)})
	}
	return observations, nil
}

// -----------------------------------------------------------------------------

func parseValue(raw json.RawMessage) *float64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	var number float64
	if err := json.Unmarshal(raw, &number); err == nil {
		return models.Float(number)
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		if v, err := strconv.ParseFloat(strings.TrimSpace(text), 64); err == nil {
			return models.Float(v)
		}
	}
	return nil
}
