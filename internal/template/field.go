// Package template is the field-matching and population engine for GLR
// document templates. It detects candidate fillable fields in a parsed DOCX
// structural model, reconciles them with a flat mapping of extracted facts,
// writes matched values into a working copy without disturbing formatting,
// and reports the outcome for user review.
package template

import "fmt"

// Record is the flat fact-key to fact-value mapping produced by the
// extraction collaborator. It is treated as opaque and possibly incomplete:
// no field is guaranteed a corresponding key, and keys may be noisy.
type Record map[string]string

// MatchMethod tags how an assignment was resolved.
type MatchMethod string

const (
	MatchExact      MatchMethod = "exact"
	MatchNormalized MatchMethod = "normalized"
	MatchFuzzy      MatchMethod = "fuzzy"
	MatchUnmatched  MatchMethod = "unmatched"
)

// FieldKind hints at the field's template context.
type FieldKind string

const (
	FieldText       FieldKind = "text"  // paragraph or placeholder span
	FieldTableValue FieldKind = "table" // value cell paired with a label/header
)

// Anchor locates the run range a field's value replaces.
//
// When Insert is set the anchor carries no runs to replace and the value is
// appended as a new run at the end of the node's paragraph (used for empty
// cells and bare "Label:" paragraphs). Otherwise runs [RunStart,RunEnd) are
// the anchor: the first run's text is rewritten (keeping its formatting) and
// the remaining runs in the range are removed. Prefix and Suffix hold text
// that shares a run with the anchor span and must be retained around the
// inserted value.
type Anchor struct {
	Part      string `json:"part"`
	NodeIndex int    `json:"node_index"`
	RunStart  int    `json:"run_start"`
	RunEnd    int    `json:"run_end"`
	Insert    bool   `json:"insert,omitempty"`
	Prefix    string `json:"prefix,omitempty"`
	Suffix    string `json:"suffix,omitempty"`
}

// Field is one candidate fillable location in the template.
type Field struct {
	Label      string    `json:"label"`
	Normalized string    `json:"normalized"`
	Kind       FieldKind `json:"kind"`
	Anchor     Anchor    `json:"anchor"`
}

// Assignment pairs a field with at most one extracted entry.
type Assignment struct {
	Field      Field       `json:"field"`
	Key        string      `json:"key,omitempty"`
	Value      string      `json:"value,omitempty"`
	Confidence float64     `json:"confidence"`
	Method     MatchMethod `json:"method"`
}

// Ambiguity records a field that matched several keys with equal score.
// Resolution is deterministic; this exists purely for the validation report.
type Ambiguity struct {
	Label string   `json:"label"`
	Keys  []string `json:"keys"`
	Score float64  `json:"score"`
}

// MatchResult is the matcher's complete output: exactly one assignment per
// field, plus the extraction keys no field consumed.
type MatchResult struct {
	Assignments []Assignment `json:"assignments"`
	UnusedKeys  []string     `json:"unused_keys"`
	Ambiguities []Ambiguity  `json:"ambiguities,omitempty"`
}

// Options configures matching behavior.
type Options struct {
	// OneToOne removes a consumed key from the candidate pool for
	// subsequent fields (processed in document order). The default allows
	// fan-out: one value may populate several fields.
	OneToOne bool

	// FuzzyThreshold is the minimum token-overlap score for a fuzzy
	// match. Zero means the default of 0.5.
	FuzzyThreshold float64
}

// DefaultFuzzyThreshold is the Jaccard overlap a fuzzy match must reach.
const DefaultFuzzyThreshold = 0.5

func (o Options) threshold() float64 {
	if o.FuzzyThreshold <= 0 {
		return DefaultFuzzyThreshold
	}
	return o.FuzzyThreshold
}

// PopulateError records a field that could not be written. Population is
// partial-success: one bad anchor never aborts the document.
type PopulateError struct {
	Label     string `json:"label"`
	NodeIndex int    `json:"node_index"`
	Reason    string `json:"reason"`
}

func (e PopulateError) Error() string {
	return fmt.Sprintf("field %q (node %d): %s", e.Label, e.NodeIndex, e.Reason)
}
