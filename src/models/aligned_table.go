package models

// MAlignedTable is the chart-ready form of several series: one shared, ascending
// date axis and one value column per series with the same length as Dates.
type MAlignedTable struct {
	Dates  []Date                `json:"dates"`
	Series map[string][]*float64 `json:"series"`
}

// NewAlignedTable returns an empty table that serialises as {"dates":[],"series":{}}.
func NewAlignedTable() MAlignedTable {
	return MAlignedTable{
		Dates:  []Date{},
		Series: map[string][]*float64{},
	}
}

func (t MAlignedTable) IsEmpty() bool {
	return len(t.Dates) == 0 && len(t.Series) == 0
}
