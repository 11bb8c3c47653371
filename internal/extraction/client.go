// Package extraction turns report text into template fact values by calling
// an OpenAI-compatible chat completion endpoint. The default endpoint is
// Groq, which serves the supported Llama models with low latency.
package extraction

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/glrkit/mcp-template-filler/internal/template"
)

const (
	// GroqBaseURL is the OpenAI-compatible Groq endpoint.
	GroqBaseURL = "https://api.groq.com/openai/v1"

	// DefaultModel is used when the config names no model.
	DefaultModel = "llama-3.3-70b-versatile"

	defaultTimeout  = 120 * time.Second
	defaultAttempts = 3
	defaultDelay    = 2 * time.Second

	// Low temperature keeps value extraction close to verbatim.
	extractionTemperature = 0.1
	extractionMaxTokens   = 8000
)

// groqModels lists the chat models known to work for extraction.
var groqModels = []string{
	"llama-3.3-70b-versatile",
	"llama-3.1-8b-instant",
	"mixtral-8x7b-32768",
	"gemma2-9b-it",
}

// Models returns the known extraction model identifiers.
func Models() []string {
	out := make([]string, len(groqModels))
	copy(out, groqModels)
	return out
}

// Config holds the extraction client settings.
type Config struct {
	APIKey     string
	Model      string        // defaults to DefaultModel
	BaseURL    string        // defaults to GroqBaseURL
	Attempts   uint          // retry attempts, defaults to 3
	RetryDelay time.Duration // base retry delay, defaults to 2s
	Timeout    time.Duration // HTTP timeout, defaults to 120s
	HTTPClient *http.Client  // optional (tests)
}

// Client extracts field values from report text via chat completions.
type Client struct {
	client     openai.Client
	model      string
	attempts   uint
	retryDelay time.Duration
}

// NewClient creates an extraction client. The API key is required; everything
// else has working defaults.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key cannot be empty")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = GroqBaseURL
	}
	if cfg.Attempts == 0 {
		cfg.Attempts = defaultAttempts
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = defaultDelay
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	client := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
		option.WithHTTPClient(httpClient),
	)

	return &Client{
		client:     client,
		model:      cfg.Model,
		attempts:   cfg.Attempts,
		retryDelay: cfg.RetryDelay,
	}, nil
}

// Extract asks the model to map template field labels to values found in the
// report text, returning the decoded fact record. The mapping is advisory:
// callers must treat it as neither complete nor clean.
func (c *Client) Extract(ctx context.Context, templateText, reportText string) (template.Record, error) {
	content, err := c.complete(ctx, extractionSystemPrompt, buildExtractionPrompt(templateText, reportText))
	if err != nil {
		return nil, fmt.Errorf("extraction request failed: %w", err)
	}

	record, err := decodeRecord(content)
	if err != nil {
		return nil, fmt.Errorf("failed to decode extraction response: %w", err)
	}
	return record, nil
}

// complete performs one chat completion with retries on transport errors.
func (c *Client) complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	var content string

	err := retry.Do(
		func() error {
			resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
				Model: openai.ChatModel(c.model),
				Messages: []openai.ChatCompletionMessageParamUnion{
					openai.SystemMessage(systemPrompt),
					openai.UserMessage(userPrompt),
				},
				Temperature: openai.Float(extractionTemperature),
				MaxTokens:   openai.Int(extractionMaxTokens),
			})
			if err != nil {
				return err
			}
			if len(resp.Choices) == 0 {
				return fmt.Errorf("response contains no choices")
			}
			content = resp.Choices[0].Message.Content
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.retryDelay),
	)
	if err != nil {
		return "", err
	}
	return content, nil
}
