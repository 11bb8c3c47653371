package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReader_Extract(t *testing.T) {
	reader := NewReader(1024 * 1024) // 1MB limit

	tmpDir := t.TempDir()

	notPDF := filepath.Join(tmpDir, "report.txt")
	if err := os.WriteFile(notPDF, []byte("plain text"), 0o644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	tooLarge := filepath.Join(tmpDir, "large.pdf")
	if err := os.WriteFile(tooLarge, make([]byte, 2*1024*1024), 0o644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	tests := []struct {
		name        string
		path        string
		expectError string
	}{
		{
			name:        "empty path",
			path:        "",
			expectError: "path cannot be empty",
		},
		{
			name:        "non-existent file",
			path:        "/non/existent/report.pdf",
			expectError: "file does not exist",
		},
		{
			name:        "wrong extension",
			path:        notPDF,
			expectError: "file is not a PDF",
		},
		{
			name:        "over size limit",
			path:        tooLarge,
			expectError: "file too large",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reader.Extract(ExtractRequest{Path: tt.path})
			if err == nil {
				t.Fatalf("expected error but got none")
			}
			if !strings.Contains(err.Error(), tt.expectError) {
				t.Errorf("expected error containing %q, got %q", tt.expectError, err.Error())
			}
		})
	}
}

func TestReader_ExtractDirectoryPath(t *testing.T) {
	reader := NewReader(1024 * 1024)

	dir := filepath.Join(t.TempDir(), "folder.pdf")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}

	_, err := reader.Extract(ExtractRequest{Path: dir})
	if err == nil {
		t.Fatalf("expected error but got none")
	}
	if !strings.Contains(err.Error(), "directory") {
		t.Errorf("expected directory error, got %q", err.Error())
	}
}

func TestClassifyContent(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected string
	}{
		{
			name:     "empty content",
			content:  "",
			expected: ContentTypeEmpty,
		},
		{
			name:     "markers only",
			content:  "--- Page 1 ---\n\n\n--- Page 2 ---\n",
			expected: ContentTypeEmpty,
		},
		{
			name:     "trace text suggests scan",
			content:  "--- Page 1 ---\nACME 4421",
			expected: ContentTypeScanned,
		},
		{
			name: "substantial text",
			content: "--- Page 1 ---\nGENERAL LOSS REPORT\nInsured: Jane Doe\n" +
				"Date of Loss: 2024-03-11\nCause: hail damage to roof and gutters",
			expected: ContentTypeText,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyContent(tt.content); got != tt.expected {
				t.Errorf("expected %s but got %s", tt.expected, got)
			}
		})
	}
}
