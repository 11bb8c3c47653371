package template

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/glrkit/mcp-template-filler/internal/docx"
)

// Field detection walks the structural model once per template. Rules are
// tried in priority order per node; the first rule that claims a node wins:
//
//  1. table pairing — value cells labeled by the column header or, in a
//     two-column table, by the left-hand label cell
//  2. colon-delimited paragraphs — "Label:" with an empty or placeholder tail
//  3. placeholder tokens — underscores, {{field}}, [FIELD], <field>, or long
//     whitespace runs, labeled by nearby text
//
// Nodes matching no rule are informational and left untouched.

var (
	// Full-string placeholder forms, for "is this cell/tail blank" checks.
	placeholderOnlyRe = regexp.MustCompile(`^(?:_{3,}|\{\{[^{}]+\}\}|\[[^\[\]]+\]|<[^<>]+>)$`)

	// Embedded placeholder tokens inside otherwise normal text.
	placeholderTokenRe = regexp.MustCompile(`_{3,}|\{\{[^{}\n]+\}\}|\[[A-Z][A-Z0-9 _/-]*\]|<[A-Za-z][A-Za-z0-9_/-]*>|[ \t]{4,}`)

	// "Label: tail" with a reasonably short label before the first colon.
	colonLabelRe = regexp.MustCompile(`^\s*([^:\n]{1,80}?)\s*:(.*)$`)
)

// DetectFields identifies candidate fillable fields in document order. The
// document is not mutated; the field set is derived once and may be reused
// for any number of fill runs against the same template.
func DetectFields(doc *docx.Document) []Field {
	var fields []Field
	taken := make(map[int]bool) // node index -> already anchored

	for _, t := range doc.Tables {
		fields = append(fields, detectTableFields(t, taken)...)
	}

	for _, n := range doc.Nodes {
		if taken[n.Index] || n.Kind == docx.KindTableCell {
			continue
		}
		if f, ok := detectColonField(n); ok {
			fields = append(fields, f)
			taken[n.Index] = true
		}
	}

	for _, n := range doc.Nodes {
		if taken[n.Index] {
			continue
		}
		fields = append(fields, detectPlaceholderFields(doc, n)...)
	}

	// Field order follows document order regardless of which rule fired.
	sortFieldsByPosition(fields)
	return fields
}

// detectTableFields applies the table pairing rule to one table.
func detectTableFields(t *docx.Table, taken map[int]bool) []Field {
	var fields []Field

	if t.Cols() == 2 {
		// Two-column tables read as label/value pairs row by row.
		for _, row := range t.Rows {
			if len(row) != 2 {
				continue
			}
			label := cleanLabel(row[0].Text())
			if label == "" || !blankOrPlaceholder(row[1].Text()) {
				continue
			}
			fields = append(fields, cellField(label, row[1]))
			taken[row[1].Index] = true
		}
		return fields
	}

	// Wider tables need a header row: every header cell carries label text.
	if len(t.Rows) < 2 {
		return nil
	}
	header := t.Rows[0]
	for _, h := range header {
		if cleanLabel(h.Text()) == "" || placeholderOnly(strings.TrimSpace(h.Text())) {
			return nil
		}
	}
	for _, row := range t.Rows[1:] {
		for col, cell := range row {
			if col >= len(header) || !blankOrPlaceholder(cell.Text()) {
				continue
			}
			label := cleanLabel(header[col].Text())
			fields = append(fields, cellField(label, cell))
			taken[cell.Index] = true
		}
	}
	return fields
}

// cellField anchors a field to a value cell: replace the cell's runs when it
// holds placeholder text, otherwise insert a fresh run.
func cellField(label string, cell *docx.Node) Field {
	anchor := Anchor{Part: cell.Part, NodeIndex: cell.Index, Insert: true}
	if strings.TrimSpace(cell.Text()) != "" {
		for i, r := range cell.Runs {
			if r.HasText() {
				anchor = Anchor{
					Part:      cell.Part,
					NodeIndex: cell.Index,
					RunStart:  i,
					RunEnd:    len(cell.Runs),
				}
				break
			}
		}
	}
	return Field{
		Label:      label,
		Normalized: normalize(label),
		Kind:       FieldTableValue,
		Anchor:     anchor,
	}
}

// detectColonField matches "Label:" paragraphs whose tail is empty or
// placeholder-only, anchoring the field to the post-colon span.
func detectColonField(n *docx.Node) (Field, bool) {
	full := n.Text()
	m := colonLabelRe.FindStringSubmatchIndex(full)
	if m == nil {
		return Field{}, false
	}
	label := full[m[2]:m[3]]
	tail := full[m[4]:m[5]]
	if !hasLetter(label) {
		return Field{}, false
	}

	trimmedTail := strings.TrimSpace(tail)
	switch {
	case trimmedTail == "":
		if !n.CanInsert() {
			return Field{}, false
		}
		prefix := " "
		if strings.HasSuffix(full, " ") || strings.HasSuffix(full, "\t") {
			prefix = ""
		}
		return Field{
			Label:      cleanLabel(label),
			Normalized: normalize(label),
			Kind:       FieldText,
			Anchor: Anchor{
				Part:      n.Part,
				NodeIndex: n.Index,
				Insert:    true,
				Prefix:    prefix,
			},
		}, true

	case placeholderOnly(trimmedTail):
		start := m[4] + (len(tail) - len(strings.TrimLeft(tail, " \t")))
		anchor, ok := spanAnchor(n, start, len(full))
		if !ok {
			return Field{}, false
		}
		return Field{
			Label:      cleanLabel(label),
			Normalized: normalize(label),
			Kind:       FieldText,
			Anchor:     anchor,
		}, true
	}
	return Field{}, false
}

// detectPlaceholderFields finds embedded placeholder tokens in a node that
// no higher-priority rule claimed.
func detectPlaceholderFields(doc *docx.Document, n *docx.Node) []Field {
	full := n.Text()
	locs := placeholderTokenRe.FindAllStringIndex(full, -1)
	if locs == nil {
		return nil
	}

	var fields []Field
	lastEnd := -1 // last claimed run index, to keep anchors disjoint
	for _, loc := range locs {
		token := full[loc[0]:loc[1]]
		label := tokenLabel(doc, n, full, loc[0], token)
		if label == "" {
			continue
		}
		anchor, ok := spanAnchor(n, loc[0], loc[1])
		if !ok || anchor.RunStart < lastEnd {
			continue
		}
		lastEnd = anchor.RunEnd
		fields = append(fields, Field{
			Label:      label,
			Normalized: normalize(label),
			Kind:       fieldKindFor(n),
			Anchor:     anchor,
		})
	}
	return fields
}

// tokenLabel derives a label for a placeholder token: bracketed tokens name
// themselves; blank tokens borrow the nearest preceding text on the line, or
// the row/column header when inside a table.
func tokenLabel(doc *docx.Document, n *docx.Node, full string, tokenStart int, token string) string {
	switch token[0] {
	case '{':
		return cleanLabel(strings.Trim(token, "{}"))
	case '[':
		return cleanLabel(strings.Trim(token, "[]"))
	case '<':
		return cleanLabel(strings.Trim(token, "<>"))
	}

	// Underscore or whitespace blank: nearest preceding text on the line.
	before := full[:tokenStart]
	if i := strings.LastIndexByte(before, '\n'); i >= 0 {
		before = before[i+1:]
	}
	if label := cleanLabel(before); label != "" {
		return label
	}
	if n.Kind == docx.KindTableCell {
		return tableLabel(doc, n)
	}
	return ""
}

// tableLabel looks up a cell's label from its row (left neighbor) or its
// column header.
func tableLabel(doc *docx.Document, cell *docx.Node) string {
	if cell.Table < 0 || cell.Table >= len(doc.Tables) {
		return ""
	}
	t := doc.Tables[cell.Table]
	if cell.Col > 0 && cell.Row < len(t.Rows) && cell.Col-1 < len(t.Rows[cell.Row]) {
		if label := cleanLabel(t.Rows[cell.Row][cell.Col-1].Text()); label != "" {
			return label
		}
	}
	if cell.Row > 0 && len(t.Rows) > 0 && cell.Col < len(t.Rows[0]) {
		if label := cleanLabel(t.Rows[0][cell.Col].Text()); label != "" {
			return label
		}
	}
	return ""
}

// spanAnchor maps a [start,end) byte range of the node's concatenated text
// onto a run range, capturing any shared-run prefix and suffix text.
//
// Population rewrites only the first run's text element in place. A run's
// Text may carry more than that element (tabs, breaks, earlier <w:t>
// elements), so the prefix covers only the element's own text before the
// span; spans that begin outside the element are rejected, never corrupted.
func spanAnchor(n *docx.Node, start, end int) (Anchor, bool) {
	if start >= end {
		return Anchor{}, false
	}
	first, last := -1, -1
	var prefix, suffix string

	offset := 0
	for i, r := range n.Runs {
		runStart, runEnd := offset, offset+len(r.Text)

		if first < 0 && start < runEnd {
			if !r.HasText() {
				// No rewritable text element (tabs, breaks only);
				// population cannot target this run in place.
				return Anchor{}, false
			}
			elemStart, elemEnd := r.TextSpan()
			local := start - runStart
			if local < elemStart {
				// The span begins before the rewritable element, in
				// content SetRunText leaves untouched; writing a prefix
				// that repeats it would duplicate the run's markup.
				return Anchor{}, false
			}
			first = i
			prefix = r.Text[elemStart:local]

			if end <= runEnd {
				// Single-run span: it must also end inside the element.
				localEnd := end - runStart
				if localEnd > elemEnd {
					return Anchor{}, false
				}
				last = i
				suffix = r.Text[localEnd:elemEnd]
				break
			}

			// The span continues into later runs, consuming the rest of
			// this one; that only works when the element is the run's
			// final content.
			if elemEnd != len(r.Text) {
				return Anchor{}, false
			}
		} else if first >= 0 && end <= runEnd {
			// Later runs in the span are removed whole, so everything
			// after the span belongs in the suffix.
			last = i
			suffix = r.Text[end-runStart:]
			break
		}
		offset = runEnd
	}
	if first < 0 || last < 0 {
		return Anchor{}, false
	}
	return Anchor{
		Part:      n.Part,
		NodeIndex: n.Index,
		RunStart:  first,
		RunEnd:    last + 1,
		Prefix:    prefix,
		Suffix:    suffix,
	}, true
}

func fieldKindFor(n *docx.Node) FieldKind {
	if n.Kind == docx.KindTableCell {
		return FieldTableValue
	}
	return FieldText
}

// cleanLabel trims surrounding whitespace, a trailing colon, and collapses
// internal whitespace.
func cleanLabel(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, ":")
	s = strings.TrimSpace(s)
	return strings.Join(strings.Fields(s), " ")
}

func blankOrPlaceholder(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || placeholderOnly(s)
}

func placeholderOnly(s string) bool {
	return placeholderOnlyRe.MatchString(s)
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// sortFieldsByPosition orders fields by node index, then run start, keeping
// detection output aligned with document order.
func sortFieldsByPosition(fields []Field) {
	sort.SliceStable(fields, func(i, j int) bool {
		if fields[i].Anchor.NodeIndex != fields[j].Anchor.NodeIndex {
			return fields[i].Anchor.NodeIndex < fields[j].Anchor.NodeIndex
		}
		return fields[i].Anchor.RunStart < fields[j].Anchor.RunStart
	})
}
