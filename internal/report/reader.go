package report

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Reader extracts plain text from PDF loss reports.
type Reader struct {
	maxFileSize int64
	maxTextSize int
}

// NewReader creates a reader with the given per-file size limit.
func NewReader(maxFileSize int64) *Reader {
	return &Reader{
		maxFileSize: maxFileSize,
		maxTextSize: 10 * 1024 * 1024, // 10MB text limit
	}
}

// Extract reads one PDF report and returns its text with page markers. Page
// markers keep multi-page reports legible for both humans and the language
// model downstream.
func (r *Reader) Extract(req ExtractRequest) (*ExtractResult, error) {
	if req.Path == "" {
		return nil, fmt.Errorf("path cannot be empty")
	}

	fileInfo, err := os.Stat(req.Path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("file does not exist: %s", req.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot access file: %w", err)
	}

	if err := r.checkFile(req.Path, fileInfo); err != nil {
		return nil, err
	}

	f, pdfReader, err := pdf.Open(req.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	content, truncated := r.extractText(pdfReader)

	return &ExtractResult{
		Path:        req.Path,
		Content:     content,
		Pages:       pdfReader.NumPage(),
		Size:        fileInfo.Size(),
		ContentType: classifyContent(content),
		Truncated:   truncated,
	}, nil
}

func (r *Reader) checkFile(path string, fileInfo os.FileInfo) error {
	if fileInfo.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", path)
	}
	if !strings.HasSuffix(strings.ToLower(path), ".pdf") {
		return fmt.Errorf("file is not a PDF: %s", path)
	}
	if fileInfo.Size() > r.maxFileSize {
		return fmt.Errorf("file too large: %d bytes (max: %d bytes)",
			fileInfo.Size(), r.maxFileSize)
	}
	return nil
}

func (r *Reader) extractText(pdfReader *pdf.Reader) (string, bool) {
	var builder strings.Builder
	totalLength := 0
	truncated := false

	for pageNum := 1; pageNum <= pdfReader.NumPage(); pageNum++ {
		page := pdfReader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		content, err := page.GetPlainText(nil)
		if err != nil {
			// Continue with other pages even if one fails
			continue
		}

		marker := fmt.Sprintf("--- Page %d ---\n", pageNum)
		if pageNum > 1 {
			marker = "\n\n" + marker
		}

		if totalLength+len(marker)+len(content) > r.maxTextSize {
			truncated = true
			break
		}

		builder.WriteString(marker)
		builder.WriteString(content)
		totalLength += len(marker) + len(content)
	}

	return builder.String(), truncated
}

var pageMarkerRe = regexp.MustCompile(`--- Page \d+ ---`)

// classifyContent distinguishes text-bearing reports from scanned ones. A
// scanned report yields page markers but no usable text, which the caller
// should surface instead of sending an empty prompt to the extractor.
func classifyContent(content string) string {
	stripped := strings.TrimSpace(pageMarkerRe.ReplaceAllString(content, ""))

	const minMeaningfulTextLength = 50
	switch {
	case stripped == "":
		return ContentTypeEmpty
	case len(stripped) < minMeaningfulTextLength:
		return ContentTypeScanned
	default:
		return ContentTypeText
	}
}
