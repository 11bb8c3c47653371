package template

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/glrkit/mcp-template-filler/internal/docx"
)

// Shared fixture helpers: build a minimal DOCX container in memory and parse
// it into a structural model.

const bodyOpen = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`

const bodyClose = `</w:body></w:document>`

func makeDocx(t *testing.T, body string, extraParts map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	write := func(name, content string) {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("failed to create part %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("failed to write part %s: %v", name, err)
		}
	}

	write("[Content_Types].xml", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`)
	write("word/document.xml", bodyOpen+body+bodyClose)
	for name, content := range extraParts {
		write(name, content)
	}

	if err := zw.Close(); err != nil {
		t.Fatalf("failed to close zip: %v", err)
	}
	return buf.Bytes()
}

func makeDoc(t *testing.T, body string) *docx.Document {
	t.Helper()
	doc, err := docx.Parse(makeDocx(t, body, nil))
	if err != nil {
		t.Fatalf("failed to parse fixture: %v", err)
	}
	return doc
}

func p(runs ...string) string {
	out := "<w:p>"
	for _, r := range runs {
		out += r
	}
	return out + "</w:p>"
}

func r(text string) string {
	return "<w:r><w:t>" + text + "</w:t></w:r>"
}

func tbl(rows ...string) string {
	out := "<w:tbl>"
	for _, row := range rows {
		out += row
	}
	return out + "</w:tbl>"
}

func tr(cells ...string) string {
	out := "<w:tr>"
	for _, c := range cells {
		out += "<w:tc>" + c + "</w:tc>"
	}
	return out + "</w:tr>"
}

// labelValueTable builds a two-column table of (label, value) rows.
func labelValueTable(rows ...[2]string) string {
	var trs []string
	for _, row := range rows {
		left := p(r(row[0]))
		right := p()
		if row[1] != "" {
			right = p(r(row[1]))
		}
		trs = append(trs, tr(left, right))
	}
	return tbl(trs...)
}
