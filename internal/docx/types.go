// Package docx parses DOCX templates into an ordered structural model and
// serializes populated working copies back to document bytes.
//
// Parsing records raw byte offsets for every run so that population can
// splice edited XML parts without touching any other markup. Styles,
// numbering, images and relationships pass through verbatim, which is what
// preserves the template's visual formatting.
package docx

import (
	"errors"
	"fmt"
	"strings"
)

// NodeKind identifies the structural variant of a Node.
type NodeKind string

const (
	KindParagraph    NodeKind = "paragraph"
	KindTableCell    NodeKind = "table_cell"
	KindHeaderFooter NodeKind = "header_footer"
)

// Run is a contiguous text span with uniform formatting.
type Run struct {
	Text   string
	Font   string
	Size   float64 // points
	Bold   bool
	Italic bool

	// Raw byte offsets into the source XML part. elemStart/elemEnd cover
	// the whole <w:r> element; tagStart/textStart/textEnd locate the text
	// content inside <w:t>. hasText is false when the run carries no
	// addressable text element.
	elemStart, elemEnd int64
	tagStart           int64
	textStart, textEnd int64
	hasText            bool

	// Text may hold more than the rewritable element: tabs, breaks, and
	// earlier <w:t> elements all contribute. textLocalStart/textLocalEnd
	// bound the tracked element's share of Text, so edits can tell what is
	// rewritten in place from what stays as raw markup.
	textLocalStart, textLocalEnd int

	// synthetic marks runs appended by AppendRun; they have no backing
	// offsets and exist only so Text() reflects the working copy.
	synthetic bool
}

// Node is one addressable unit of document text: a body paragraph, a table
// cell, or a paragraph inside a header/footer region.
type Node struct {
	Kind  NodeKind
	Index int    // stable position within the parsed document
	Part  string // zip part name the node was parsed from
	Runs  []Run
	Role  string // optional semantic role, e.g. "table header cell"

	// Table coordinates; valid only for KindTableCell, otherwise -1.
	Table, Row, Col int

	// insertAt is the byte offset just before the node's paragraph close
	// tag, where a new run may be appended. -1 when insertion is not
	// possible (e.g. a self-closed empty paragraph).
	insertAt int64
}

// HasText reports whether the run carries an addressable text element that
// population can rewrite in place.
func (r Run) HasText() bool {
	return r.hasText && !r.synthetic
}

// TextSpan returns the bounds within Text of the rewritable text element.
// Content outside the span (tabs, breaks, other text elements in the same
// run) is not touched by SetRunText. Meaningful only when HasText is true.
func (r Run) TextSpan() (start, end int) {
	return r.textLocalStart, r.textLocalEnd
}

// Text returns the concatenated text of all runs.
func (n *Node) Text() string {
	var b strings.Builder
	for i := range n.Runs {
		b.WriteString(n.Runs[i].Text)
	}
	return b.String()
}

// CanInsert reports whether a run can be appended to this node.
func (n *Node) CanInsert() bool {
	return n.insertAt >= 0
}

// Table groups the cell nodes of one table by row and column.
type Table struct {
	Index int
	Part  string
	Rows  [][]*Node
}

// Cols returns the column count of the widest row.
func (t *Table) Cols() int {
	cols := 0
	for _, row := range t.Rows {
		if len(row) > cols {
			cols = len(row)
		}
	}
	return cols
}

// edit is a pending byte-range replacement in one XML part. A zero-width
// range is an insertion; an empty replacement is a deletion.
type edit struct {
	start, end  int64
	replacement []byte
	seq         int
}

// Document is the parsed structural model. The parse result is immutable;
// all population happens on working copies obtained via Clone, so one parsed
// template can serve any number of concurrent fill jobs without locking.
type Document struct {
	Nodes  []*Node
	Tables []*Table

	parts     map[string][]byte
	partOrder []string

	mutable bool
	edits   map[string][]edit
	editSeq int
}

// ErrImmutable is returned when a mutation is attempted on the original
// parse result instead of a working copy.
var ErrImmutable = errors.New("docx: document is not a working copy")

// Clone returns an independent working copy sharing the immutable raw parts.
// Only clones accept mutations.
func (d *Document) Clone() *Document {
	c := &Document{
		parts:     d.parts,
		partOrder: d.partOrder,
		mutable:   true,
		edits:     make(map[string][]edit),
	}

	c.Nodes = make([]*Node, len(d.Nodes))
	for i, n := range d.Nodes {
		nn := *n
		nn.Runs = append([]Run(nil), n.Runs...)
		c.Nodes[i] = &nn
	}

	for _, t := range d.Tables {
		nt := &Table{Index: t.Index, Part: t.Part}
		for _, row := range t.Rows {
			nr := make([]*Node, len(row))
			for j, cell := range row {
				nr[j] = c.Nodes[cell.Index]
			}
			nt.Rows = append(nt.Rows, nr)
		}
		c.Tables = append(c.Tables, nt)
	}

	return c
}

// SetRunText replaces the text content of one run, preserving the run's
// formatting properties. The new value is XML-escaped on serialization.
func (d *Document) SetRunText(n *Node, runIdx int, text string) error {
	if !d.mutable {
		return ErrImmutable
	}
	if runIdx < 0 || runIdx >= len(n.Runs) {
		return fmt.Errorf("docx: run index %d out of range for node %d", runIdx, n.Index)
	}
	r := &n.Runs[runIdx]
	if r.synthetic {
		return fmt.Errorf("docx: run %d of node %d has no backing element", runIdx, n.Index)
	}
	if !r.hasText {
		return fmt.Errorf("docx: run %d of node %d has no text element", runIdx, n.Index)
	}

	if needsPreserve(text) && !tagPreservesSpace(d.parts[n.Part][r.tagStart:r.textStart]) {
		tag := preservingTag(d.parts[n.Part][r.tagStart:r.textStart])
		if err := d.queue(n.Part, r.tagStart, r.textStart, tag); err != nil {
			return err
		}
	}
	if err := d.queue(n.Part, r.textStart, r.textEnd, escapeText(text)); err != nil {
		return err
	}
	// Only the tracked element changes; tabs, breaks and other text
	// elements in the run keep their share of Text.
	r.Text = r.Text[:r.textLocalStart] + text + r.Text[r.textLocalEnd:]
	r.textLocalEnd = r.textLocalStart + len(text)
	return nil
}

// RemoveRun deletes a run element entirely.
func (d *Document) RemoveRun(n *Node, runIdx int) error {
	if !d.mutable {
		return ErrImmutable
	}
	if runIdx < 0 || runIdx >= len(n.Runs) {
		return fmt.Errorf("docx: run index %d out of range for node %d", runIdx, n.Index)
	}
	r := &n.Runs[runIdx]
	if r.synthetic {
		return fmt.Errorf("docx: run %d of node %d has no backing element", runIdx, n.Index)
	}
	if err := d.queue(n.Part, r.elemStart, r.elemEnd, nil); err != nil {
		return err
	}
	r.Text = ""
	r.textLocalStart, r.textLocalEnd = 0, 0
	return nil
}

// AppendRun appends a plain text run at the end of the node's paragraph.
// Used for anchors that have no run to replace, such as an empty table cell.
func (d *Document) AppendRun(n *Node, text string) error {
	if !d.mutable {
		return ErrImmutable
	}
	if n.insertAt < 0 {
		return fmt.Errorf("docx: node %d does not accept run insertion", n.Index)
	}
	repl := append([]byte(`<w:r><w:t xml:space="preserve">`), escapeText(text)...)
	repl = append(repl, []byte(`</w:t></w:r>`)...)
	if err := d.queue(n.Part, n.insertAt, n.insertAt, repl); err != nil {
		return err
	}
	n.Runs = append(n.Runs, Run{Text: text, synthetic: true})
	return nil
}

// queue registers a pending edit, rejecting overlaps with already queued
// edits in the same part.
func (d *Document) queue(part string, start, end int64, replacement []byte) error {
	data, ok := d.parts[part]
	if !ok {
		return fmt.Errorf("docx: unknown part %q", part)
	}
	if start < 0 || end < start || end > int64(len(data)) {
		return fmt.Errorf("docx: edit range [%d,%d) out of bounds for part %q", start, end, part)
	}
	for _, e := range d.edits[part] {
		if start < e.end && e.start < end {
			return fmt.Errorf("docx: edit range [%d,%d) conflicts with pending edit [%d,%d) in part %q",
				start, end, e.start, e.end, part)
		}
	}
	d.editSeq++
	d.edits[part] = append(d.edits[part], edit{start: start, end: end, replacement: replacement, seq: d.editSeq})
	return nil
}

// PlainText renders the document as plain text: paragraph per line, table
// rows as cell texts joined with " | ". Suitable as LLM prompt context.
func (d *Document) PlainText() string {
	var parts []string
	for _, n := range d.Nodes {
		if n.Kind == KindTableCell {
			continue
		}
		if txt := strings.TrimSpace(n.Text()); txt != "" {
			parts = append(parts, n.Text())
		}
	}
	for _, t := range d.Tables {
		for _, row := range t.Rows {
			var cells []string
			for _, cell := range row {
				if txt := strings.TrimSpace(cell.Text()); txt != "" {
					cells = append(cells, txt)
				}
			}
			if len(cells) > 0 {
				parts = append(parts, strings.Join(cells, " | "))
			}
		}
	}
	return strings.Join(parts, "\n")
}

func needsPreserve(text string) bool {
	return text != strings.TrimSpace(text)
}

func tagPreservesSpace(rawTag []byte) bool {
	return strings.Contains(string(rawTag), `xml:space="preserve"`)
}

// preservingTag rebuilds a <w:t> start tag with xml:space="preserve",
// keeping whatever namespace prefix the source document uses.
func preservingTag(rawTag []byte) []byte {
	name := strings.TrimPrefix(string(rawTag), "<")
	for i, r := range name {
		if r == ' ' || r == '>' || r == '\t' || r == '\n' {
			name = name[:i]
			break
		}
	}
	return []byte("<" + name + ` xml:space="preserve">`)
}
