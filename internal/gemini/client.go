// Package gemini wraps the Gemini generateContent call used to turn a
// planning prompt into plan text.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-1.5-flash"

// DefaultTimeout bounds a single generate call.
const DefaultTimeout = 60 * time.Second

var (
	// ErrMissingAPIKey is returned before any network call when no
	// credential has been supplied.
	ErrMissingAPIKey = errors.New("gemini: API key is required")

	// ErrEmptyResponse is returned when the model answers without text.
	ErrEmptyResponse = errors.New("gemini: no response from AI")
)

// Generator turns a prompt into generated text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Config holds the settings for a Client.
type Config struct {
	APIKey string
	Model  string
	// BaseURL overrides the API endpoint. Empty uses the SDK default.
	BaseURL string
	Timeout time.Duration
}

// Client is a lazily connected Gemini client. The underlying SDK client
// is created on the first Generate call, so a missing key only fails the
// requests that need it.
type Client struct {
	cfg Config

	mu     sync.Mutex
	client *genai.Client
}

// New creates a Client. Empty fields fall back to defaults.
func New(cfg Config) *Client {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{cfg: cfg}
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.cfg.Model
}

// Generate sends prompt as a single user turn and returns the text of
// the first candidate.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	client, err := c.sdk(ctx)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	resp, err := client.Models.GenerateContent(ctx, c.cfg.Model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini generate (%s): %w", c.cfg.Model, err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func (c *Client) sdk(ctx context.Context) (*genai.Client, error) {
	if c.cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		return c.client, nil
	}

	cc := &genai.ClientConfig{
		APIKey:  c.cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if c.cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: c.cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	c.client = client
	return client, nil
}
