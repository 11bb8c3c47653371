package template

import (
	"github.com/glrkit/mcp-template-filler/internal/docx"
)

// Populate writes matched assignments into a working copy of the structural
// model, returning the number of fields actually written and any per-field
// population errors. Unmatched fields are skipped entirely: placeholders
// stay as they are, blanks stay blank.
//
// The document must be a clone; the original parse result never accepts
// mutations, which is what makes concurrent fill jobs safe without locks.
func Populate(doc *docx.Document, assignments []Assignment) (int, []PopulateError) {
	written := 0
	var errs []PopulateError

	for _, a := range assignments {
		if a.Method == MatchUnmatched {
			continue
		}
		if err := populateOne(doc, a); err != nil {
			errs = append(errs, PopulateError{
				Label:     a.Field.Label,
				NodeIndex: a.Field.Anchor.NodeIndex,
				Reason:    err.Error(),
			})
			continue
		}
		written++
	}
	return written, errs
}

func populateOne(doc *docx.Document, a Assignment) error {
	anchor := a.Field.Anchor

	node, err := resolveAnchor(doc, anchor)
	if err != nil {
		return err
	}

	if anchor.Insert {
		return doc.AppendRun(node, anchor.Prefix+a.Value+anchor.Suffix)
	}

	if anchor.RunStart < 0 || anchor.RunEnd > len(node.Runs) || anchor.RunStart >= anchor.RunEnd {
		return errAnchorInvalid("run range out of bounds")
	}

	// First run keeps its formatting and receives the value; the rest of
	// the anchor range is removed so the inserted text carries one
	// consistent style even when the template was hand-edited into
	// fragmented runs.
	if err := doc.SetRunText(node, anchor.RunStart, anchor.Prefix+a.Value+anchor.Suffix); err != nil {
		return err
	}
	for i := anchor.RunStart + 1; i < anchor.RunEnd; i++ {
		if err := doc.RemoveRun(node, i); err != nil {
			return err
		}
	}
	return nil
}

func resolveAnchor(doc *docx.Document, anchor Anchor) (*docx.Node, error) {
	if anchor.NodeIndex < 0 || anchor.NodeIndex >= len(doc.Nodes) {
		return nil, errAnchorInvalid("node index out of range")
	}
	node := doc.Nodes[anchor.NodeIndex]
	if node.Part != anchor.Part {
		return nil, errAnchorInvalid("anchor part does not match node")
	}
	return node, nil
}

type anchorError string

func (e anchorError) Error() string { return "invalid anchor: " + string(e) }

func errAnchorInvalid(reason string) error { return anchorError(reason) }
