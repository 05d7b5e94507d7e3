// Package llm provides the model backend used by the hypothesis generator.
// The provider is chosen once at construction from the configured
// credentials; callers only see role-tagged message turns in and plain text
// out.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrNoCredentials is returned when neither model provider credential is
// configured. Construction failure is fatal for the investigation pipeline.
var ErrNoCredentials = errors.New("no LLM API key configured: set OPENAI_API_KEY or ANTHROPIC_API_KEY")

const (
	providerOpenAI    = "openai"
	providerAnthropic = "anthropic"

	openAIDefaultURL    = "https://api.openai.com"
	openAIDefaultModel  = "gpt-4-turbo-preview"
	anthropicURL        = "https://api.anthropic.com/v1/messages"
	anthropicModel      = "claude-3-opus-20240229"
	anthropicAPIVersion = "2023-06-01"

	defaultTimeout = 60 * time.Second
)

// Message is one role-tagged turn of a model conversation
type Message struct {
	Role    string `json:"role"` // system, user, assistant
	Content string `json:"content"`
}

// Options tunes a completion request
type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string
}

// Config carries the credentials the client selects its provider from
type Config struct {
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	AnthropicAPIKey string
}

// Client talks to exactly one model provider, resolved at construction
type Client struct {
	provider   string
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient selects a provider by credential presence: OpenAI first, then
// Anthropic. Absence of any credential is a hard construction failure.
func NewClient(cfg Config) (*Client, error) {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
	}

	switch {
	case cfg.OpenAIAPIKey != "":
		c.provider = providerOpenAI
		c.apiKey = cfg.OpenAIAPIKey
		c.baseURL = cfg.OpenAIBaseURL
		if c.baseURL == "" {
			c.baseURL = openAIDefaultURL
		}
	case cfg.AnthropicAPIKey != "":
		c.provider = providerAnthropic
		c.apiKey = cfg.AnthropicAPIKey
	default:
		return nil, ErrNoCredentials
	}

	return c, nil
}

// Provider returns the name of the selected provider
func (c *Client) Provider() string {
	return c.provider
}

// Complete sends a message exchange to the configured provider and returns
// the response text. Network and API errors propagate to the caller.
func (c *Client) Complete(ctx context.Context, messages []Message, opts Options) (string, error) {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 2000
	}
	if opts.Temperature == 0 {
		opts.Temperature = 0.7
	}

	if c.provider == providerOpenAI {
		return c.completeOpenAI(ctx, messages, opts)
	}
	return c.completeAnthropic(ctx, messages, opts)
}

// OpenAI chat-completions wire structures

type openAIRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (c *Client) completeOpenAI(ctx context.Context, messages []Message, opts Options) (string, error) {
	model := opts.Model
	if model == "" {
		model = openAIDefaultModel
	}

	reqBody := openAIRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/chat/completions", bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read openai response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openai API error (status %d): %s", resp.StatusCode, string(body))
	}

	var parsed openAIResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse openai response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("openai API error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("openai response contained no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

// Anthropic messages wire structures

type anthropicRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	System      string    `json:"system,omitempty"`
	Messages    []Message `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) completeAnthropic(ctx context.Context, messages []Message, opts Options) (string, error) {
	model := opts.Model
	if model == "" {
		model = anthropicModel
	}

	// Anthropic takes the system turn as a top-level field
	var system string
	conversation := make([]Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == "system" {
			system = m.Content
			continue
		}
		conversation = append(conversation, m)
	}

	reqBody := anthropicRequest{
		Model:       model,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
		System:      system,
		Messages:    conversation,
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, anthropicURL, bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicAPIVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("anthropic request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read anthropic response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("anthropic API error (status %d): %s", resp.StatusCode, string(body))
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse anthropic response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("anthropic API error: %s", parsed.Error.Message)
	}
	if len(parsed.Content) == 0 {
		return "", errors.New("anthropic response contained no content")
	}
	return parsed.Content[0].Text, nil
}
