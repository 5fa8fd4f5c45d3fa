package deepseek

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

// DefaultBaseURL is the DeepSeek API endpoint used when the settings do
// not override it.
const DefaultBaseURL = "https://api.deepseek.com"

// systemPrompt is prepended to every request, matching the provider's
// recommended framing.
const systemPrompt = "You are a helpful assistant."

// Client talks to the DeepSeek chat-completions API. It implements
// generation.Generator.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	settings   domain.ProviderSettings
	baseURL    string
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type streamEvent struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// NewClient creates a DeepSeek chat-completions client from the given
// settings.
func NewClient(logger *slog.Logger, settings domain.ProviderSettings) (*Client, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if settings.APIKey == "" {
		return nil, fmt.Errorf("%w: deepseek API key cannot be empty", generation.ErrInvalidConfig)
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
		logger:     logger.With("component", "deepseek_client", "model", settings.Model),
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

// GenerateStream sends the prompt with stream=true and forwards delta
// chunks on the returned channel. Unparsable interleaved lines are
// skipped rather than failing the stream; an empty stream fails with
// ErrMalformedResponse so the outcome stays atomic.
func (c *Client) GenerateStream(ctx context.Context, prompt string) (<-chan generation.StreamChunk, error) {
	body, err := c.post(ctx, prompt, true)
	if err != nil {
		return nil, err
	}

	out := make(chan generation.StreamChunk)
	go func() {
		defer close(out)
		defer func() { _ = body.Close() }()

		sawContent := false
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
				break
			}

			var event streamEvent
			if err := json.Unmarshal([]byte(line), &event); err != nil {
				c.logger.Debug("skipping unparsable stream line", "error", err)
				continue
			}
			if len(event.Choices) == 0 {
				continue
			}
			delta := event.Choices[0].Delta.Content
			if delta == "" {
				continue
			}
			sawContent = true
			select {
			case out <- generation.StreamChunk{Text: delta}:
			case <-ctx.Done():
				return
			}
		}

		if err := scanner.Err(); err != nil {
			select {
			case out <- generation.StreamChunk{Err: mapTransportError(err)}:
			case <-ctx.Done():
			}
			return
		}

		if !sawContent {
			select {
			case out <- generation.StreamChunk{
				Err: fmt.Errorf("%w: empty streamed response", generation.ErrMalformedResponse),
			}:
			case <-ctx.Done():
			}
		}
	}()

	return out, nil
}

func (c *Client) post(ctx context.Context, prompt string, stream bool) (io.ReadCloser, error) {
	reqBody := chatRequest{
		Model: c.settings.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
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
