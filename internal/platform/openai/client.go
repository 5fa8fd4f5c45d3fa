package openai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/phrazzld/omniprompt/internal/domain"
	"github.com/phrazzld/omniprompt/internal/generation"
	"github.com/phrazzld/omniprompt/internal/redact"
)

// DefaultBaseURL is the OpenAI API endpoint used when the settings do
// not override it.
const DefaultBaseURL = "https://api.openai.com/v1"

// Client talks to the OpenAI chat-completions API. It implements
// generation.Generator.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	settings   domain.ProviderSettings
	baseURL    string
}

// chatRequest is the chat-completions request body.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the non-streaming response shape.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// streamEvent is one parsed line of a streamed response.
type streamEvent struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// NewClient creates an OpenAI chat-completions client from the given
// settings. The per-attempt timeout is enforced by the caller's retry
// policy through the request context, not by the HTTP client itself.
func NewClient(logger *slog.Logger, settings domain.ProviderSettings) (*Client, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if settings.APIKey == "" {
		return nil, fmt.Errorf("%w: openai API key cannot be empty", generation.ErrInvalidConfig)
	}
	if settings.Model == "" {
		return nil, fmt.Errorf("%w: model cannot be empty", generation.ErrInvalidConfig)
	}

	baseURL := settings.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		httpClient: &http.Client{},
		logger:     logger.With("component", "openai_client", "model", settings.Model),
		settings:   settings,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}, nil
}

// Generate sends the prompt and blocks until the complete response text
// is available.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := c.post(ctx, prompt, false)
	if err != nil {
		return "", err
	}
	defer func() { _ = body.Close() }()

	raw, err := io.ReadAll(body)
	if err != nil {
		return "", mapTransportError(err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("%w: %v", generation.ErrMalformedResponse, err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", generation.ErrMalformedResponse)
	}

	text := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("%w: empty response message", generation.ErrMalformedResponse)
	}

	c.logger.Debug("generation complete", "response_length", len(text))
	return text, nil
}

// GenerateStream sends the prompt with stream=true and forwards SSE
// delta chunks on the returned channel. The channel is closed when the
// provider finishes or the stream fails; a failed stream's final chunk
// carries the error.
func (c *Client) GenerateStream(ctx context.Context, prompt string) (<-chan generation.StreamChunk, error) {
	body, err := c.post(ctx, prompt, true)
	if err != nil {
		return nil, err
	}

	out := make(chan generation.StreamChunk)
	go func() {
		defer close(out)
		defer func() { _ = body.Close() }()

		scanner := bufio.NewScanner(body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			line = strings.TrimPrefix(line, "data:")
			line = strings.TrimSpace(line)
			if line == "[DONE]" {
				return
			}

			var event streamEvent
			if err := json.Unmarshal([]byte(line), &event); err != nil {
				c.sendChunk(ctx, out, generation.StreamChunk{
					Err: fmt.Errorf("%w: unparsable stream line: %v", generation.ErrMalformedResponse, err),
				})
				return
			}
			if len(event.Choices) == 0 {
				continue
			}
			delta := event.Choices[0].Delta.Content
			if delta == "" {
				continue
			}
			if !c.sendChunk(ctx, out, generation.StreamChunk{Text: delta}) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			c.sendChunk(ctx, out, generation.StreamChunk{Err: mapTransportError(err)})
		}
	}()

	return out, nil
}

// sendChunk delivers a chunk unless the consumer has gone away.
func (c *Client) sendChunk(ctx context.Context, out chan<- generation.StreamChunk, chunk generation.StreamChunk) bool {
	select {
	case out <- chunk:
		return true
	case <-ctx.Done():
		return false
	}
}

// post issues the chat-completions request and returns the response body
// for a 200 status, mapping every other condition into the generation
// error taxonomy.
func (c *Client) post(ctx context.Context, prompt string, stream bool) (io.ReadCloser, error) {
	reqBody := chatRequest{
		Model: c.settings.Model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
		Temperature: c.settings.Temperature,
		MaxTokens:   c.settings.MaxTokens,
		Stream:      stream,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	endpoint := c.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.settings.APIKey)

	c.logger.Debug("sending provider request",
		"endpoint", endpoint,
		"stream", stream,
		"prompt_length", len(prompt),
		"auth", redact.Secret(c.settings.APIKey))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, mapTransportError(err)
	}

	if resp.StatusCode != http.StatusOK {
		defer func() { _ = resp.Body.Close() }()
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, mapStatusError(resp.StatusCode, snippet)
	}

	return resp.Body, nil
}

// mapStatusError folds an HTTP error status into the taxonomy.
func mapStatusError(status int, body []byte) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: status %d", generation.ErrAuth, status)
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: status %d", generation.ErrRateLimited, status)
	default:
		return fmt.Errorf("%w: status %d: %s", generation.ErrMalformedResponse, status, bytes.TrimSpace(body))
	}
}

// mapTransportError folds a network-level failure into the taxonomy.
// Deadline and timeout conditions become ErrTimeout so the retry policy
// treats them uniformly with its own attempt timeout.
func mapTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", generation.ErrTimeout, err)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return fmt.Errorf("%w: %v", generation.ErrTimeout, err)
	}
	return fmt.Errorf("provider request failed: %w", err)
}
