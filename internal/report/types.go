// Package report reads insurance loss reports in PDF form and turns them
// into plain text suitable for fact extraction. It wraps two PDF libraries:
// ledongthuc/pdf for text extraction and pdfcpu for structural validation.
package report

// ExtractRequest identifies one PDF report to read.
type ExtractRequest struct {
	Path string `json:"path"`
}

// ExtractResult carries the extracted text of a single report.
type ExtractResult struct {
	Path        string `json:"path"`
	Content     string `json:"content"`
	Pages       int    `json:"pages"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
	Truncated   bool   `json:"truncated,omitempty"`
}

// ValidateRequest identifies one PDF report to validate.
type ValidateRequest struct {
	Path string `json:"path"`
}

// ValidateResult reports whether a file is a readable PDF.
type ValidateResult struct {
	Path    string `json:"path"`
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

// Content type classifications for extracted reports.
const (
	ContentTypeText    = "text"
	ContentTypeScanned = "scanned_images"
	ContentTypeEmpty   = "no_content"
)
