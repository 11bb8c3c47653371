package report

import (
	"strings"
	"testing"
)

func TestNewService(t *testing.T) {
	service, err := NewService(1024*1024, t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if service == nil {
		t.Fatal("service should not be nil")
	}
	if service.GetMaxFileSize() != 1024*1024 {
		t.Errorf("expected max file size 1048576, got %d", service.GetMaxFileSize())
	}
}

func TestNewService_EmptyDirectory(t *testing.T) {
	_, err := NewService(1024*1024, "")
	if err == nil {
		t.Fatal("expected error for empty configured directory")
	}
}

func TestService_ExtractFileOutsideDirectory(t *testing.T) {
	service, err := NewService(1024*1024, t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = service.ExtractFile(ExtractRequest{Path: "/etc/passwd.pdf"})
	if err == nil {
		t.Fatal("expected security error")
	}
	if !strings.Contains(err.Error(), "security validation failed") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestService_ExtractFilesCollectsErrors(t *testing.T) {
	tmpDir := t.TempDir()
	service, err := NewService(1024*1024, tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	missing := tmpDir + "/missing.pdf"
	combined, results, errs := service.ExtractFiles([]string{missing})

	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d", len(errs))
	}
	if !strings.Contains(errs[0].Error(), missing) {
		t.Errorf("error should name the failing report: %v", errs[0])
	}
	if !strings.Contains(combined, "(unreadable)") {
		t.Errorf("combined text should note the unreadable report: %q", combined)
	}
}

func TestService_ExtractFilesEmpty(t *testing.T) {
	service, err := NewService(1024*1024, t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, _, errs := service.ExtractFiles(nil)
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d", len(errs))
	}
	if !strings.Contains(errs[0].Error(), "no report paths") {
		t.Errorf("unexpected error: %v", errs[0])
	}
}

func TestService_ValidateFileOutsideDirectory(t *testing.T) {
	service, err := NewService(1024*1024, t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = service.ValidateFile(ValidateRequest{Path: "/tmp/other/file.pdf"})
	if err == nil {
		t.Fatal("expected security error")
	}
}
