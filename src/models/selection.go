package models

import "sort"

// NormalizeSelection returns a sorted copy of ids without blanks or duplicates.
func NormalizeSelection(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// ToggleSelection adds id when absent and removes it when present. The input is not modified.
func ToggleSelection(selection []string, id string) []string {
	if id == "" {
		return NormalizeSelection(selection)
	}
	out := make([]string, 0, len(selection)+1)
	found := false
	for _, existing := range selection {
		if existing == id {
			found = true
			continue
		}
		out = append(out, existing)
	}
	if !found {
		out = append(out, id)
	}
	return NormalizeSelection(out)
}

func ContainsSeries(ids []string, id string) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}

func SameSelection(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
