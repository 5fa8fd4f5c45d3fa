package gemini

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/phrazzld/omniprompt/internal/domain"
	"github.com/phrazzld/omniprompt/internal/generation"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testSettings() domain.ProviderSettings {
	return domain.ProviderSettings{
		Provider:    domain.ProviderGemini,
		Model:       "gemini-2.0-flash",
		APIKey:      "test-key",
		Timeout:     2 * time.Second,
		Temperature: 0.5,
	}
}

func TestNewGeneratorValidation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	settings := testSettings()
	settings.APIKey = ""
	_, err := NewGenerator(ctx, testLogger(), settings)
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)

	settings = testSettings()
	settings.Model = ""
	_, err = NewGenerator(ctx, testLogger(), settings)
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)

	_, err = NewGenerator(ctx, nil, testSettings())
	assert.Error(t, err)
}

func TestExtractText(t *testing.T) {
	t.Parallel()

	textResp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Parts: []*genai.Part{{Text: "le "}, {Text: "chat"}},
			},
		}},
	}

	text, err := extractText(textResp)
	require.NoError(t, err)
	assert.Equal(t, "le chat", text)

	testCases := []struct {
		name string
		resp *genai.GenerateContentResponse
	}{
		{name: "nil response", resp: nil},
		{name: "no candidates", resp: &genai.GenerateContentResponse{}},
		{
			name: "safety block",
			resp: &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety}},
			},
		},
		{
			name: "nil content",
			resp: &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{{}},
			},
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := extractText(tc.resp)
			assert.ErrorIs(t, err, generation.ErrMalformedResponse)
		})
	}
}

func TestMapAPIError(t *testing.T) {
	t.Parallel()

	assert.ErrorIs(t, mapAPIError(context.DeadlineExceeded), generation.ErrTimeout)
	assert.ErrorIs(t, mapAPIError(genai.APIError{Code: http.StatusUnauthorized}), generation.ErrAuth)
	assert.ErrorIs(t, mapAPIError(genai.APIError{Code: http.StatusForbidden}), generation.ErrAuth)
	assert.ErrorIs(t, mapAPIError(genai.APIError{Code: http.StatusTooManyRequests}), generation.ErrRateLimited)

	err := mapAPIError(genai.APIError{Code: http.StatusBadGateway})
	assert.NotErrorIs(t, err, generation.ErrAuth)
	assert.NotErrorIs(t, err, generation.ErrRateLimited)
}
