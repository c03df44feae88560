package core

// -----------------------------------------------------------------------------

// CalculateIndexedValue rebases value so that base maps to 100.
// A zero base leaves the value unchanged.
func CalculateIndexedValue(value, base float64) float64 {
	if base == 0 {
		return value
	}
	return value / base * 100
}
