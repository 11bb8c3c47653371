package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"sort"
)

// Serialize rebuilds the DOCX container, applying the working copy's pending
// edits to the affected XML parts and copying every other part verbatim.
func (d *Document) Serialize() ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, name := range d.partOrder {
		data := d.parts[name]
		if eds := d.edits[name]; len(eds) > 0 {
			data = applyEdits(data, eds)
		}
		w, err := zw.Create(name)
		if err != nil {
			return nil, fmt.Errorf("failed to create zip entry %q: %w", name, err)
		}
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("failed to write zip entry %q: %w", name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize DOCX container: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile serializes the document to a file.
func (d *Document) WriteFile(path string) error {
	data, err := d.Serialize()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	return nil
}

// applyEdits splices edits into a part. Edits are applied back to front so
// earlier offsets stay valid; co-located insertions keep queue order.
func applyEdits(data []byte, eds []edit) []byte {
	sorted := append([]edit(nil), eds...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].start != sorted[j].start {
			return sorted[i].start > sorted[j].start
		}
		return sorted[i].seq > sorted[j].seq
	})

	out := append([]byte(nil), data...)
	for _, e := range sorted {
		next := make([]byte, 0, len(out)-int(e.end-e.start)+len(e.replacement))
		next = append(next, out[:e.start]...)
		next = append(next, e.replacement...)
		next = append(next, out[e.end:]...)
		out = next
	}
	return out
}

func escapeText(s string) []byte {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.Bytes()
}
