package template

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/glrkit/mcp-template-filler/internal/docx"
)

// Filler binds a parsed template to its detected field set. Detection runs
// once per template; every fill operates on a fresh clone, so a single
// Filler may serve concurrent jobs.
type Filler struct {
	doc    *docx.Document
	fields []Field
	opts   Options
}

// NewFiller analyzes the template and prepares it for fill runs.
func NewFiller(doc *docx.Document, opts Options) *Filler {
	return &Filler{
		doc:    doc,
		fields: DetectFields(doc),
		opts:   opts,
	}
}

// Fields returns the detected candidate fields in document order.
func (f *Filler) Fields() []Field {
	return f.fields
}

// Fill runs match and populate against one extracted record, returning the
// populated working copy and the validation report. The original template is
// never touched; with zero detected fields the copy is structurally
// identical to the input and the report carries the warning.
func (f *Filler) Fill(rec Record) (*docx.Document, *Report) {
	clone := f.doc.Clone()
	match := Match(f.fields, rec, f.opts)
	written, popErrs := Populate(clone, match.Assignments)
	return clone, buildReport(match, written, popErrs)
}

// BatchResult is the outcome of one (clone, record) job in a batch.
type BatchResult struct {
	Doc    *docx.Document
	Report *Report
}

// FillBatch processes several extracted records against the same template in
// parallel. Jobs are independent: each operates on its own clone, and a
// cancelled context abandons remaining jobs and discards their clones.
func (f *Filler) FillBatch(ctx context.Context, recs []Record) ([]BatchResult, error) {
	results := make([]BatchResult, len(recs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for i, rec := range recs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			doc, report := f.Fill(rec)
			results[i] = BatchResult{Doc: doc, Report: report}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Fill is the one-shot convenience for a single (template, record) pair.
func Fill(doc *docx.Document, rec Record, opts Options) (*docx.Document, *Report) {
	return NewFiller(doc, opts).Fill(rec)
}
