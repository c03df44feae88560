package analysis

import (
	"sort"

	"series-explorer/src/models"
)

// Align merges per-series observations into one table over the sorted union
// of their dates. A series missing a date gets nil at that position. When a
// series repeats a date the last occurrence wins. Series not present in
// results never appear in the table. The input is not modified.
func Align(results map[string][]models.MObservation) models.MAlignedTable {
	table := models.NewAlignedTable()
	if len(results) == 0 {
		return table
	}

	byDate := make(map[string]map[models.Date]*float64, len(results))
	union := make(map[models.Date]struct{})
	for id, observations := range results {
		values := make(map[models.Date]*float64, len(observations))
		for _, o := range observations {
			values[o.Date] = o.Value
			union[o.Date] = struct{}{}
		}
		byDate[id] = values
	}

	dates := make([]models.Date, 0, len(union))
	for d := range union {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	table.Dates = dates

	for id, values := range byDate {
		column := make([]*float64, len(dates))
		for i, d := range dates {
			if v := values[d]; v != nil {
				copied := *v
				column[i] = &copied
			}
		}
		table.Series[id] = column
	}

	return table
}
