package main

import (
	"bytes"
	"io"
	"log"
	"os"
	"strings"
	"testing"

	"github.com/glrkit/mcp-template-filler/internal/config"
)

const testVersion = "1.2.3"

func TestPrintVersion(t *testing.T) {
	// Save original stdout
	originalStdout := os.Stdout

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("Failed to create pipe: %v", err)
	}
	os.Stdout = w

	oldVersion := version
	oldBuildTime := buildTime
	oldGitCommit := gitCommit

	version = testVersion
	buildTime = "2026-08-01_10:30:00"
	gitCommit = "abc123"

	defer func() {
		version = oldVersion
		buildTime = oldBuildTime
		gitCommit = oldGitCommit
		os.Stdout = originalStdout
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		printVersion()
		w.Close()
	}()

	var buf bytes.Buffer
	io.Copy(&buf, r)
	<-done

	output := buf.String()
	expectedStrings := []string{
		"MCP Template Filler",
		"Version: " + testVersion,
		"Build Time: 2026-08-01_10:30:00",
		"Git Commit: abc123",
		"Built with:",
	}
	for _, expected := range expectedStrings {
		if !strings.Contains(output, expected) {
			t.Errorf("printVersion() output missing expected string: %s\nActual output:\n%s", expected, output)
		}
	}
}

func TestSetupLogging_StdioMode(t *testing.T) {
	originalOutput := log.Writer()
	originalFlags := log.Flags()
	defer func() {
		log.SetOutput(originalOutput)
		log.SetFlags(originalFlags)
	}()

	tests := []struct {
		name     string
		config   *config.Config
		wantType string
	}{
		{
			name:     "stdio mode - debug enabled",
			config:   &config.Config{Mode: "stdio", LogLevel: "debug"},
			wantType: "stderr",
		},
		{
			name:     "stdio mode - debug disabled",
			config:   &config.Config{Mode: "stdio", LogLevel: "info"},
			wantType: "devnull",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupLogging(tt.config)
			currentOutput := log.Writer()

			switch tt.wantType {
			case "stderr":
				if currentOutput != os.Stderr {
					t.Errorf("setupLogging() for stdio debug mode should set output to stderr")
				}
			case "devnull":
				if currentOutput == os.Stderr {
					t.Errorf("setupLogging() for stdio non-debug mode should not use stderr")
				}
			}
		})
	}
}

func TestSetupLogging_ServerMode(t *testing.T) {
	originalOutput := log.Writer()
	originalFlags := log.Flags()
	defer func() {
		log.SetOutput(originalOutput)
		log.SetFlags(originalFlags)
	}()

	setupLogging(&config.Config{Mode: "server", LogLevel: "info"})

	currentFlags := log.Flags()
	expectedFlags := log.LstdFlags | log.Lshortfile
	if currentFlags != expectedFlags {
		t.Errorf("setupLogging() for server mode: flags = %v, want %v", currentFlags, expectedFlags)
	}
}

func TestVersionFlagDetection(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		hasVersion bool
	}{
		{"no version flag", []string{"program"}, false},
		{"-version flag", []string{"program", "-version"}, true},
		{"--version flag", []string{"program", "--version"}, true},
		{"-v flag", []string{"program", "-v"}, true},
		{"version flag with other args", []string{"program", "-mode=server", "-version", "-port=8080"}, true},
		{"similar but not version flag", []string{"program", "-verbose", "-versions"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found := false
			for _, arg := range tt.args[1:] {
				if arg == "-version" || arg == "--version" || arg == "-v" {
					found = true
					break
				}
			}
			if found != tt.hasVersion {
				t.Errorf("Version flag detection for %v: got %v, want %v", tt.args, found, tt.hasVersion)
			}
		})
	}
}

func TestBuildExtractor(t *testing.T) {
	t.Run("no api key", func(t *testing.T) {
		cfg := &config.Config{}
		extractor, err := buildExtractor(cfg)
		if err != nil {
			t.Fatalf("buildExtractor() error = %v", err)
		}
		if extractor != nil {
			t.Error("extractor should be nil without an API key")
		}
	})

	t.Run("with api key", func(t *testing.T) {
		cfg := &config.Config{
			GroqAPIKey: "gsk_test",
			GroqModel:  config.DefaultGroqModel,
		}
		extractor, err := buildExtractor(cfg)
		if err != nil {
			t.Fatalf("buildExtractor() error = %v", err)
		}
		if extractor == nil {
			t.Error("extractor should be configured when an API key is set")
		}
	})
}
