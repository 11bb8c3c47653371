package report

import (
	"fmt"
	"strings"

	"github.com/glrkit/mcp-template-filler/internal/security"
)

// Service orchestrates report reading and validation behind path security.
type Service struct {
	maxFileSize   int64
	reader        *Reader
	validator     *Validator
	pathValidator *security.PathValidator
}

// NewService creates a report service confined to the configured directory.
func NewService(maxFileSize int64, configuredDirectory string) (*Service, error) {
	pathValidator, err := security.NewPathValidator(configuredDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to create path validator: %w", err)
	}

	return &Service{
		maxFileSize:   maxFileSize,
		reader:        NewReader(maxFileSize),
		validator:     NewValidator(maxFileSize),
		pathValidator: pathValidator,
	}, nil
}

// ExtractFile extracts text from a single PDF report.
func (s *Service) ExtractFile(req ExtractRequest) (*ExtractResult, error) {
	if err := s.pathValidator.ValidatePath(req.Path); err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}
	return s.reader.Extract(req)
}

// ExtractFiles extracts text from several reports into one combined document.
// A report that fails to read is noted inline and skipped; the pipeline keeps
// whatever text the remaining reports produced. Per-file results and errors
// come back alongside the combined text.
func (s *Service) ExtractFiles(paths []string) (string, []*ExtractResult, []error) {
	if len(paths) == 0 {
		return "", nil, []error{fmt.Errorf("no report paths provided")}
	}

	var builder strings.Builder
	var results []*ExtractResult
	var errs []error

	for _, path := range paths {
		if builder.Len() > 0 {
			builder.WriteString("\n\n")
		}

		if err := s.pathValidator.ValidatePath(path); err != nil {
			errs = append(errs, fmt.Errorf("report %s: security validation failed: %w", path, err))
			fmt.Fprintf(&builder, "=== Document: %s (unreadable) ===\n", path)
			continue
		}

		result, err := s.reader.Extract(ExtractRequest{Path: path})
		if err != nil {
			errs = append(errs, fmt.Errorf("report %s: %w", path, err))
			fmt.Fprintf(&builder, "=== Document: %s (unreadable) ===\n", path)
			continue
		}

		results = append(results, result)
		fmt.Fprintf(&builder, "=== Document: %s ===\n\n", path)
		builder.WriteString(result.Content)
	}

	return builder.String(), results, errs
}

// ValidateFile validates a single PDF report.
func (s *Service) ValidateFile(req ValidateRequest) (*ValidateResult, error) {
	if err := s.pathValidator.ValidatePath(req.Path); err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}
	return s.validator.Validate(req)
}

// GetMaxFileSize returns the per-file size limit.
func (s *Service) GetMaxFileSize() int64 {
	return s.maxFileSize
}
