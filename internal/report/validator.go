package report

import (
	"fmt"
	"os"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Validator checks that report files are structurally valid PDFs before they
// enter the extraction pipeline.
type Validator struct {
	maxFileSize int64
}

// NewValidator creates a validator with the given per-file size limit.
func NewValidator(maxFileSize int64) *Validator {
	return &Validator{
		maxFileSize: maxFileSize,
	}
}

// Validate runs all checks against one file. Validation failures come back
// inside the result, not as a processing error.
func (v *Validator) Validate(req ValidateRequest) (*ValidateResult, error) {
	result := &ValidateResult{
		Path:  req.Path,
		Valid: false,
	}

	if err := v.validateFile(req.Path); err != nil {
		result.Message = err.Error()
		return result, nil //nolint:nilerr // validation outcome, not a processing error
	}

	result.Valid = true
	return result, nil
}

func (v *Validator) validateFile(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}

	fileInfo, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("file does not exist: %s", path)
	}
	if err != nil {
		return fmt.Errorf("cannot access file: %w", err)
	}

	if fileInfo.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", path)
	}
	if !strings.HasSuffix(strings.ToLower(path), ".pdf") {
		return fmt.Errorf("file is not a PDF: %s", path)
	}
	if fileInfo.Size() == 0 {
		return fmt.Errorf("file is empty: %s", path)
	}
	if fileInfo.Size() > v.maxFileSize {
		return fmt.Errorf("file too large: %d bytes (max: %d bytes)",
			fileInfo.Size(), v.maxFileSize)
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if err := api.ValidateFile(path, conf); err != nil {
		return fmt.Errorf("invalid PDF file: %w", err)
	}

	return nil
}
