package template

import "fmt"

// Report summarizes one completed fill run for user review. It is purely
// informational: nothing in it feeds back into matching or population.
type Report struct {
	TotalFields      int             `json:"total_fields"`
	Matched          int             `json:"matched"`
	Written          int             `json:"written"`
	UnmatchedLabels  []string        `json:"unmatched_labels,omitempty"`
	UnusedKeys       []string        `json:"unused_keys,omitempty"`
	Ambiguities      []Ambiguity     `json:"ambiguities,omitempty"`
	PopulationErrors []PopulateError `json:"population_errors,omitempty"`

	// NoFieldsDetected marks the structural warning case: the template
	// yielded zero candidate fields and the output equals the input.
	NoFieldsDetected bool `json:"no_fields_detected,omitempty"`
}

// buildReport assembles the report from the matcher and populator outputs.
func buildReport(match MatchResult, written int, popErrs []PopulateError) *Report {
	r := &Report{
		TotalFields:      len(match.Assignments),
		Written:          written,
		UnusedKeys:       match.UnusedKeys,
		Ambiguities:      match.Ambiguities,
		PopulationErrors: popErrs,
		NoFieldsDetected: len(match.Assignments) == 0,
	}
	for _, a := range match.Assignments {
		if a.Method == MatchUnmatched {
			r.UnmatchedLabels = append(r.UnmatchedLabels, a.Field.Label)
		} else {
			r.Matched++
		}
	}
	return r
}

// Summary renders the caller-facing one-liner.
func (r *Report) Summary() string {
	if r.NoFieldsDetected {
		return "no fillable fields detected; document returned unchanged"
	}
	s := fmt.Sprintf("%d of %d fields filled", r.Written, r.TotalFields)
	if n := len(r.PopulationErrors); n > 0 {
		s += fmt.Sprintf(" (%d population error(s))", n)
	}
	return s
}
