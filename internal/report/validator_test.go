package report

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidator_Validate(t *testing.T) {
	validator := NewValidator(1024 * 1024) // 1MB limit

	tmpDir := t.TempDir()

	emptyPDF := filepath.Join(tmpDir, "empty.pdf")
	if err := os.WriteFile(emptyPDF, nil, 0o644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	fakePDF := filepath.Join(tmpDir, "fake.pdf")
	if err := os.WriteFile(fakePDF, []byte("this is not a pdf"), 0o644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	tests := []struct {
		name        string
		req         ValidateRequest
		expectValid bool
	}{
		{
			name:        "empty path",
			req:         ValidateRequest{Path: ""},
			expectValid: false,
		},
		{
			name:        "non-existent file",
			req:         ValidateRequest{Path: "/non/existent/file.pdf"},
			expectValid: false,
		},
		{
			name:        "wrong extension",
			req:         ValidateRequest{Path: filepath.Join(tmpDir, "missing.txt")},
			expectValid: false,
		},
		{
			name:        "empty file",
			req:         ValidateRequest{Path: emptyPDF},
			expectValid: false,
		},
		{
			name:        "not actually a PDF",
			req:         ValidateRequest{Path: fakePDF},
			expectValid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := validator.Validate(tt.req)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result == nil {
				t.Fatalf("result should not be nil")
			}
			if result.Valid != tt.expectValid {
				t.Errorf("expected Valid=%v but got %v", tt.expectValid, result.Valid)
			}
			if result.Path != tt.req.Path {
				t.Errorf("expected Path=%s but got %s", tt.req.Path, result.Path)
			}
			if !tt.expectValid && result.Message == "" {
				t.Errorf("expected validation message for invalid file")
			}
		})
	}
}

func TestValidator_SizeLimit(t *testing.T) {
	validator := NewValidator(16) // tiny limit

	path := filepath.Join(t.TempDir(), "report.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4 ............"), 0o644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	result, err := validator.Validate(ValidateRequest{Path: path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Valid {
		t.Errorf("expected file over the size limit to be invalid")
	}
}
