package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// wordprocessingML main namespace; w:p, w:r, w:t and friends live here.
const wmlNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

const documentPart = "word/document.xml"

var headerFooterPart = regexp.MustCompile(`^word/(header|footer)\d*\.xml$`)

// Parse decomposes DOCX bytes into a structural model. A failure here is
// fatal for the template: no partial model is returned.
func Parse(data []byte) (*Document, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open DOCX container: %w", err)
	}

	doc := &Document{
		parts: make(map[string][]byte),
		edits: make(map[string][]edit),
	}

	for _, f := range zr.File {
		if strings.HasSuffix(f.Name, "/") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open part %q: %w", f.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read part %q: %w", f.Name, err)
		}
		doc.parts[f.Name] = content
		doc.partOrder = append(doc.partOrder, f.Name)
	}

	body, ok := doc.parts[documentPart]
	if !ok {
		return nil, fmt.Errorf("not a DOCX document: missing %s", documentPart)
	}
	if err := doc.parsePart(documentPart, body, KindParagraph); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", documentPart, err)
	}

	// Header and footer regions, in deterministic part order.
	var hf []string
	for name := range doc.parts {
		if headerFooterPart.MatchString(name) {
			hf = append(hf, name)
		}
	}
	sort.Strings(hf)
	for _, name := range hf {
		if err := doc.parsePart(name, doc.parts[name], KindHeaderFooter); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
	}

	return doc, nil
}

// ParseFile reads and parses a DOCX template from disk.
func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template: %w", err)
	}
	return Parse(data)
}

// tableState tracks the row/column cursor of one open table.
type tableState struct {
	table *Table
	row   int
	col   int
}

// parsePart walks one XML part, collecting nodes with raw byte offsets so
// the serializer can splice edits into the original bytes.
func (d *Document) parsePart(part string, data []byte, paragraphKind NodeKind) error {
	dec := xml.NewDecoder(bytes.NewReader(data))

	var (
		tables    []*tableState
		cells     []*Node // open table cells, innermost last
		para      *Node   // open non-cell paragraph
		inCellP   bool    // inside a paragraph belonging to a cell
		run       *Run
		inRunPr   bool
		inText    bool
		tagStart  int64
		textStart int64
		textLocal int
	)

	current := func() *Node {
		if len(cells) > 0 {
			return cells[len(cells)-1]
		}
		return para
	}

	for {
		start := dec.InputOffset()
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("malformed XML at offset %d: %w", start, err)
		}
		end := dec.InputOffset()

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != wmlNS {
				continue
			}
			switch t.Name.Local {
			case "tbl":
				tbl := &Table{Index: len(d.Tables), Part: part}
				d.Tables = append(d.Tables, tbl)
				tables = append(tables, &tableState{table: tbl, row: -1, col: -1})
			case "tr":
				if len(tables) > 0 {
					ts := tables[len(tables)-1]
					ts.row++
					ts.col = -1
					ts.table.Rows = append(ts.table.Rows, nil)
				}
			case "tc":
				if len(tables) > 0 {
					ts := tables[len(tables)-1]
					ts.col++
					cell := &Node{
						Kind:     KindTableCell,
						Index:    len(d.Nodes),
						Part:     part,
						Table:    ts.table.Index,
						Row:      ts.row,
						Col:      ts.col,
						insertAt: -1,
					}
					d.Nodes = append(d.Nodes, cell)
					ts.table.Rows[ts.row] = append(ts.table.Rows[ts.row], cell)
					cells = append(cells, cell)
				}
			case "p":
				if len(cells) > 0 {
					inCellP = true
				} else {
					para = &Node{
						Kind:     paragraphKind,
						Index:    len(d.Nodes),
						Part:     part,
						Table:    -1,
						Row:      -1,
						Col:      -1,
						insertAt: -1,
					}
					d.Nodes = append(d.Nodes, para)
				}
			case "r":
				if node := current(); node != nil {
					node.Runs = append(node.Runs, Run{elemStart: start, textStart: -1, textEnd: -1})
					run = &node.Runs[len(node.Runs)-1]
				}
			case "rPr":
				if run != nil {
					inRunPr = true
				}
			case "rFonts":
				if inRunPr && run != nil {
					if v := attr(t, "ascii"); v != "" {
						run.Font = v
					} else if v := attr(t, "hAnsi"); v != "" {
						run.Font = v
					}
				}
			case "b":
				if inRunPr && run != nil {
					run.Bold = onOff(attr(t, "val"))
				}
			case "i":
				if inRunPr && run != nil {
					run.Italic = onOff(attr(t, "val"))
				}
			case "sz":
				if inRunPr && run != nil {
					if v, err := strconv.ParseFloat(attr(t, "val"), 64); err == nil {
						run.Size = v / 2 // stored in half-points
					}
				}
			case "t":
				if run != nil && !inRunPr {
					inText = true
					tagStart = start
					textStart = end
					textLocal = len(run.Text)
				}
			case "tab":
				if run != nil && !inRunPr && !inText {
					run.Text += "\t"
				}
			case "br":
				if run != nil && !inRunPr && !inText {
					run.Text += "\n"
				}
			}

		case xml.EndElement:
			if t.Name.Space != wmlNS {
				continue
			}
			switch t.Name.Local {
			case "tbl":
				if len(tables) > 0 {
					tables = tables[:len(tables)-1]
				}
			case "tc":
				if len(cells) > 0 {
					cells = cells[:len(cells)-1]
				}
			case "p":
				if len(cells) > 0 && inCellP {
					cell := cells[len(cells)-1]
					// First paragraph close marks the cell's insertion point.
					if cell.insertAt < 0 && start < end {
						cell.insertAt = start
					}
					inCellP = false
				} else if para != nil {
					if start < end { // self-closed paragraphs cannot take runs
						para.insertAt = start
					}
					para = nil
				}
			case "r":
				if run != nil {
					run.elemEnd = end
					run = nil
				}
			case "rPr":
				inRunPr = false
			case "t":
				if inText && run != nil {
					inText = false
					// A self-closed <w:t/> yields a synthetic end token
					// spanning zero bytes; it offers no text target. A run
					// with several text elements keeps the last as its
					// rewrite target; textLocal* remembers where that
					// element's text sits within the concatenated Text.
					if start < end {
						run.hasText = true
						run.tagStart = tagStart
						run.textStart = textStart
						run.textEnd = start
						run.textLocalStart = textLocal
						run.textLocalEnd = len(run.Text)
					}
				}
			}

		case xml.CharData:
			if inText && run != nil {
				run.Text += string(t)
			}
		}
	}

	return nil
}

func attr(se xml.StartElement, local string) string {
	for _, a := range se.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// onOff interprets OOXML boolean attribute values; absence means on.
func onOff(v string) bool {
	switch strings.ToLower(v) {
	case "false", "0", "none", "off":
		return false
	}
	return true
}
