package models

import "strings"

// Frequency is the resampling frequency requested from the data service.
type Frequency string

const (
	FrequencyNone      Frequency = ""
	FrequencyDaily     Frequency = "daily"
	FrequencyWeekly    Frequency = "weekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyAnnual    Frequency = "annual"
)

var frequencyAliases = map[string]Frequency{
	"d": FrequencyDaily, "day": FrequencyDaily, "daily": FrequencyDaily,
	"w": FrequencyWeekly, "week": FrequencyWeekly, "weekly": FrequencyWeekly,
	"m": FrequencyMonthly, "month": FrequencyMonthly, "monthly": FrequencyMonthly,
	"q": FrequencyQuarterly, "quarter": FrequencyQuarterly, "quarterly": FrequencyQuarterly,
	"a": FrequencyAnnual, "y": FrequencyAnnual, "year": FrequencyAnnual, "annual": FrequencyAnnual, "annually": FrequencyAnnual,
}

var frequencyCodes = map[Frequency]string{
	FrequencyDaily:     "d",
	FrequencyWeekly:    "w",
	FrequencyMonthly:   "m",
	FrequencyQuarterly: "q",
	FrequencyAnnual:    "a",
}

// ParseFrequency resolves a letter code or a word to a known Frequency.
func ParseFrequency(s string) (Frequency, bool) {
	f, ok := frequencyAliases[strings.ToLower(strings.TrimSpace(s))]
	return f, ok
}

// Code is the single-letter form sent on the wire. Unknown values are returned as-is.
func (f Frequency) Code() string {
	if code, ok := frequencyCodes[f]; ok {
		return code
	}
	return string(f)
}

// -----------------------------------------------------------------------------

// Transform is a server-side value transform.
type Transform string

const (
	TransformNone     Transform = ""
	TransformIndex100 Transform = "index100"
)

// ParseTransform resolves the accepted spellings of a transform. "none" and
// the empty string both mean no transform.
func ParseTransform(s string) (Transform, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return TransformNone, true
	case "index100", "index_100":
		return TransformIndex100, true
	}
	return Transform(s), false
}

func (t Transform) Code() string {
	if t == TransformIndex100 {
		return "index_100"
	}
	return string(t)
}

// -----------------------------------------------------------------------------

// MFilters holds the raw filter fields as the user entered them.
type MFilters struct {
	Start     string `json:"start"`
	End       string `json:"end"`
	Frequency string `json:"frequency"`
	Transform string `json:"transform"`
}

// MQueryDescriptor is the canonical, comparable form of MFilters. Two
// descriptors compare equal with == exactly when they describe the same request.
type MQueryDescriptor struct {
	Start     string    `json:"start,omitempty"`
	End       string    `json:"end,omitempty"`
	Frequency Frequency `json:"frequency,omitempty"`
	Transform Transform `json:"transform,omitempty"`
}

// Params returns the request parameters, leaving out every unset field.
func (q MQueryDescriptor) Params() map[string]string {
	params := make(map[string]string, 4)
	if q.Start != "" {
		params["start"] = q.Start
	}
	if q.End != "" {
		params["end"] = q.End
	}
	if q.Frequency != FrequencyNone {
		params["frequency"] = q.Frequency.Code()
	}
	if q.Transform != TransformNone {
		params["transform"] = q.Transform.Code()
	}
	return params
}
