// Package query turns raw filter fields into the canonical request descriptor.
package query

import (
	"strings"

	"series-explorer/src/models"
)

// Build canonicalises filters. It never fails: values it does not recognise
// are passed through so the data service can reject them.
func Build(filters models.MFilters) models.MQueryDescriptor {
	q := models.MQueryDescriptor{
		Start: strings.TrimSpace(filters.Start),
		End:   strings.TrimSpace(filters.End),
	}

	if raw := strings.TrimSpace(filters.Frequency); raw != "" {
		if f, ok := models.ParseFrequency(raw); ok {
			q.Frequency = f
		} else {
			q.Frequency = models.Frequency(raw)
		}
	}

	if t, ok := models.ParseTransform(filters.Transform); ok {
		q.Transform = t
	} else {
		q.Transform = models.Transform(strings.TrimSpace(filters.Transform))
	}

	return q
}
