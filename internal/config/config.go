package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// Default values
	DefaultPort           = 8080
	DefaultHost           = "127.0.0.1"
	DefaultLogLevel       = "info"
	DefaultMaxFileSize    = 100 * 1024 * 1024 // 100MB
	DefaultFuzzyThreshold = 0.5
	DefaultRetryAttempts  = 3
	DefaultRetryDelay     = 2 * time.Second
	DefaultGroqBaseURL    = "https://api.groq.com/openai/v1"
	DefaultGroqModel      = "llama-3.3-70b-versatile"

	// Directory permissions
	DefaultDirPerm = 0o750
)

// Config holds all configuration for the template filler MCP server
type Config struct {
	// Server configuration
	Mode string // "server" or "stdio"
	Host string
	Port int

	// Working directory containing templates, reports and outputs
	WorkDirectory string

	// Matching configuration
	OneToOne       bool
	FuzzyThreshold float64

	// Groq extraction configuration
	GroqAPIKey    string
	GroqModel     string
	GroqBaseURL   string
	RetryAttempts uint
	RetryDelay    time.Duration

	// Application configuration
	Version     string
	ServerName  string
	LogLevel    string
	MaxFileSize int64 // Maximum template/report file size in bytes
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		// Fallback to current directory if working directory cannot be determined
		currentDir = "."
	}

	return &Config{
		Mode:           ModeStdio, // Default to stdio mode for MCP compatibility
		Host:           DefaultHost,
		Port:           DefaultPort,
		WorkDirectory:  currentDir,
		OneToOne:       false,
		FuzzyThreshold: DefaultFuzzyThreshold,
		GroqModel:      DefaultGroqModel,
		GroqBaseURL:    DefaultGroqBaseURL,
		RetryAttempts:  DefaultRetryAttempts,
		RetryDelay:     DefaultRetryDelay,
		Version:        "1.0.0",
		ServerName:     "mcp-template-filler",
		LogLevel:       DefaultLogLevel,
		MaxFileSize:    DefaultMaxFileSize,
	}
}

// LoadFromFlags parses command line flags and returns a configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	// Check for version flag before parsing
	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	populateConfigFromViper(cfg)

	// Expand paths if needed
	if cfg.WorkDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.WorkDirectory); err == nil {
			cfg.WorkDirectory = expandedPath
		}
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	// Set environment variable prefix
	viper.SetEnvPrefix("GLR")
	viper.AutomaticEnv()

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("dir", cfg.WorkDirectory)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
	viper.SetDefault("onetoone", cfg.OneToOne)
	viper.SetDefault("fuzzythreshold", cfg.FuzzyThreshold)
	viper.SetDefault("groqapikey", cfg.GroqAPIKey)
	viper.SetDefault("groqmodel", cfg.GroqModel)
	viper.SetDefault("groqbaseurl", cfg.GroqBaseURL)
	viper.SetDefault("retryattempts", cfg.RetryAttempts)
	viper.SetDefault("retrydelay", cfg.RetryDelay)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Server mode: 'stdio' for MCP standard I/O, 'server' for HTTP server")
	pflag.String("host", cfg.Host, "Server host address (server mode only)")
	pflag.Int("port", cfg.Port, "Server port (server mode only)")
	pflag.String("dir", cfg.WorkDirectory, "Working directory containing templates and reports")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum template/report file size in bytes")
	pflag.Bool("onetoone", cfg.OneToOne, "Consume each extracted key at most once")
	pflag.Float64("fuzzythreshold", cfg.FuzzyThreshold, "Minimum token-overlap score for fuzzy matches")
	pflag.String("groqapikey", cfg.GroqAPIKey, "Groq API key for LLM field extraction")
	pflag.String("groqmodel", cfg.GroqModel, "Groq model for LLM field extraction")
	pflag.String("groqbaseurl", cfg.GroqBaseURL, "OpenAI-compatible base URL for LLM field extraction")
	pflag.Uint("retryattempts", cfg.RetryAttempts, "LLM request retry attempts")
	pflag.Duration("retrydelay", cfg.RetryDelay, "Base delay between LLM request retries")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	for _, name := range []string{
		"mode", "host", "port", "dir", "loglevel", "maxfilesize",
		"onetoone", "fuzzythreshold",
		"groqapikey", "groqmodel", "groqbaseurl", "retryattempts", "retrydelay",
	} {
		_ = viper.BindPFlag(name, pflag.Lookup(name))
	}
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nMCP Template Filler - A Model Context Protocol server for filling "+
			"DOCX insurance templates from photo reports\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                          "+
			"# stdio mode, current directory (default)\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --dir=/path/to/claims                    "+
			"# stdio mode with custom directory\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=server --dir=/path/to/claims      # server mode\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=server --host=0.0.0.0 --port=8081 # server on all interfaces\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  GLR_MODE            Server mode\n")
		fmt.Fprintf(os.Stderr, "  GLR_HOST            Server host\n")
		fmt.Fprintf(os.Stderr, "  GLR_PORT            Server port\n")
		fmt.Fprintf(os.Stderr, "  GLR_DIR             Working directory\n")
		fmt.Fprintf(os.Stderr, "  GLR_LOGLEVEL        Log level\n")
		fmt.Fprintf(os.Stderr, "  GLR_MAXFILESIZE     Maximum file size\n")
		fmt.Fprintf(os.Stderr, "  GLR_ONETOONE        One-to-one key consumption\n")
		fmt.Fprintf(os.Stderr, "  GLR_FUZZYTHRESHOLD  Fuzzy match threshold\n")
		fmt.Fprintf(os.Stderr, "  GLR_GROQAPIKEY      Groq API key\n")
		fmt.Fprintf(os.Stderr, "  GLR_GROQMODEL       Groq model\n")
		fmt.Fprintf(os.Stderr, "  GLR_GROQBASEURL     Extraction base URL\n")
		fmt.Fprintf(os.Stderr, "  GLR_RETRYATTEMPTS   LLM retry attempts\n")
		fmt.Fprintf(os.Stderr, "  GLR_RETRYDELAY      LLM retry delay\n")
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return fmt.Errorf("version requested")
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.Host = viper.GetString("host")
	cfg.Port = viper.GetInt("port")
	cfg.WorkDirectory = viper.GetString("dir")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
	cfg.OneToOne = viper.GetBool("onetoone")
	cfg.FuzzyThreshold = viper.GetFloat64("fuzzythreshold")
	cfg.GroqAPIKey = viper.GetString("groqapikey")
	cfg.GroqModel = viper.GetString("groqmodel")
	cfg.GroqBaseURL = viper.GetString("groqbaseurl")
	cfg.RetryAttempts = viper.GetUint("retryattempts")
	cfg.RetryDelay = viper.GetDuration("retrydelay")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate mode
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be either 'stdio' or 'server'")
	}

	// Validate port range (only for server mode)
	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	// Validate working directory
	if c.WorkDirectory == "" {
		return errors.New("working directory cannot be empty")
	}

	// Check if working directory exists, create if it doesn't
	if _, err := os.Stat(c.WorkDirectory); os.IsNotExist(err) {
		if err := os.MkdirAll(c.WorkDirectory, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create working directory %s: %w", c.WorkDirectory, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access working directory %s: %w", c.WorkDirectory, err)
	}

	// Validate max file size
	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	// Validate fuzzy threshold
	if c.FuzzyThreshold < 0 || c.FuzzyThreshold > 1 {
		return errors.New("fuzzy threshold must be between 0 and 1")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// HasExtraction reports whether LLM extraction is configured.
func (c *Config) HasExtraction() bool {
	return c.GroqAPIKey != ""
}

// String returns a string representation of the configuration. The API key
// is deliberately omitted.
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, WorkDirectory: %s, LogLevel: %s, "+
		"MaxFileSize: %d, GroqModel: %s, OneToOne: %t, FuzzyThreshold: %g}",
		c.Mode, c.Host, c.Port, c.WorkDirectory, c.LogLevel,
		c.MaxFileSize, c.GroqModel, c.OneToOne, c.FuzzyThreshold)
}

// IsServerMode returns true if the server is running in HTTP server mode
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the server is running in stdio mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
