// Package enrich fetches descriptive text for a subject from a chat
// completions API.
package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/klytics/boatkit/internal/config"
	"github.com/klytics/boatkit/internal/logger"
)

// Client calls the completions endpoint once per subject. It never retries.
type Client struct {
	apiKey   string
	model    string
	endpoint string
	template string
	client   *http.Client
	log      *slog.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithLogger sets the logger used to report degraded results.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// NewClient creates a client from the loaded configuration.
func NewClient(cfg *config.Config, opts ...Option) *Client {
	c := &Client{
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		endpoint: cfg.Endpoint,
		template: cfg.QueryTemplate,
		client:   &http.Client{},
		log:      logger.Discard(),
	}
	if c.model == "" {
		c.model = config.DefaultModel
	}
	if c.endpoint == "" {
		c.endpoint = config.DefaultEndpoint
	}
	if c.template == "" {
		c.template = config.DefaultQueryTemplate
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model returns the model identifier sent with every request.
func (c *Client) Model() string {
	return c.model
}

// Prompt fills the query template with subject. Only the first placeholder is replaced.
func (c *Client) Prompt(subject string) string {
	return strings.Replace(c.template, config.SubjectPlaceholder, subject, 1)
}

// Describe returns a description of subject. Failures are logged and turned
// into a degraded Result; they are never returned to the caller.
func (c *Client) Describe(ctx context.Context, subject string) Result {
	text, err := c.Complete(ctx, c.Prompt(subject))
	if err != nil {
		c.log.Warn("could not fetch information", "subject", subject, "error", err)
		return Degrade(subject, err)
	}
	return OK(subject, text)
}

type completionRequest struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends prompt as a single user message and returns the first choice's content.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(completionRequest{
		Model:    c.model,
		Messages: []message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("could not marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("could not read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("API returned status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var apiResp completionResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("could not parse response: %w", err)
	}

	if apiResp.Error != nil {
		return "", fmt.Errorf("API error: %s", apiResp.Error.Message)
	}
	if len(apiResp.Choices) == 0 {
		return "", errors.New("API returned no choices")
	}
	content := apiResp.Choices[0].Message.Content
	if content == nil {
		return "", errors.New("first choice has no message content")
	}

	return *content, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
