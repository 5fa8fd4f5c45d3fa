package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/phrazzld/omniprompt/internal/domain"
	"github.com/phrazzld/omniprompt/internal/generation"
)

// Generator talks to the Gemini API. It implements generation.Generator.
type Generator struct {
	client   *genai.Client
	logger   *slog.Logger
	settings domain.ProviderSettings
}

// NewGenerator creates a Gemini-backed generator from the given settings.
func NewGenerator(ctx context.Context, logger *slog.Logger, settings domain.ProviderSettings) (*Generator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if settings.APIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}
	if settings.Model == "" {
		return nil, fmt.Errorf("%w: model cannot be empty", generation.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  settings.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create gemini client: %v", generation.ErrInvalidConfig, err)
	}

	return &Generator{
		client:   client,
		logger:   logger.With("component", "gemini_generator", "model", settings.Model),
		settings: settings,
	}, nil
}

// generateConfig builds the per-request generation config from settings.
func (g *Generator) generateConfig() *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	temp := g.settings.Temperature
	cfg.Temperature = &temp
	if g.settings.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(g.settings.MaxTokens)
	}
	return cfg
}

// Generate sends the prompt and blocks until the complete generated text
// is available.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.settings.Model, genai.Text(prompt), g.generateConfig())
	if err != nil {
		return "", mapAPIError(err)
	}

	text, err := extractText(resp)
	if err != nil {
		return "", err
	}

	g.logger.Debug("generation complete", "response_length", len(text))
	return text, nil
}

// GenerateStream sends the prompt and forwards partial candidate text on
// the returned channel as the provider produces it.
func (g *Generator) GenerateStream(ctx context.Context, prompt string) (<-chan generation.StreamChunk, error) {
	out := make(chan generation.StreamChunk)

	go func() {
		defer close(out)

		for resp, err := range g.client.Models.GenerateContentStream(
			ctx, g.settings.Model, genai.Text(prompt), g.generateConfig(),
		) {
			if err != nil {
				select {
				case out <- generation.StreamChunk{Err: mapAPIError(err)}:
				case <-ctx.Done():
				}
				return
			}

			text, err := extractText(resp)
			if err != nil {
				select {
				case out <- generation.StreamChunk{Err: err}:
				case <-ctx.Done():
				}
				return
			}
			if text == "" {
				continue
			}
			select {
			case out <- generation.StreamChunk{Text: text}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

// extractText pulls the concatenated candidate text out of a response,
// mapping safety blocks and empty candidates into the error taxonomy.
func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no content generated", generation.ErrMalformedResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: content blocked by safety filters", generation.ErrMalformedResponse)
	}
	if candidate.Content == nil {
		return "", fmt.Errorf("%w: empty content in response", generation.ErrMalformedResponse)
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String(), nil
}

// mapAPIError folds genai client errors into the taxonomy.
func mapAPIError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", generation.ErrTimeout, err)
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: status %d", generation.ErrAuth, apiErr.Code)
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: status %d", generation.ErrRateLimited, apiErr.Code)
		}
	}

	return fmt.Errorf("gemini request failed: %w", err)
}
