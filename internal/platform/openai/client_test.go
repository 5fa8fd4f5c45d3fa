package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/omniprompt/internal/domain"
	"github.com/phrazzld/omniprompt/internal/generation"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testSettings(baseURL string) domain.ProviderSettings {
	return domain.ProviderSettings{
		Provider:    domain.ProviderOpenAI,
		Model:       "gpt-4o-mini",
		APIKey:      "sk-test",
		BaseURL:     baseURL,
		Timeout:     2 * time.Second,
		Temperature: 0.5,
		MaxTokens:   100,
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(testLogger(), testSettings(srv.URL))
	require.NoError(t, err)
	return client
}

func TestNewClientValidation(t *testing.T) {
	t.Parallel()

	settings := testSettings("")
	settings.APIKey = ""
	_, err := NewClient(testLogger(), settings)
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)

	settings = testSettings("")
	settings.Model = ""
	_, err = NewClient(testLogger(), settings)
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)

	_, err = NewClient(nil, testSettings(""))
	assert.Error(t, err)
}

func TestGenerateSuccess(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)
		assert.Equal(t, "Translate cat to French", req.Messages[0].Content)
		assert.False(t, req.Stream)

		fmt.Fprint(w, `{"choices":[{"message":{"content":" le chat "}}]}`)
	})

	text, err := client.Generate(context.Background(), "Translate cat to French")
	require.NoError(t, err)
	assert.Equal(t, "le chat", text, "response text should be trimmed")
}

func TestGenerateErrorMapping(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{}`, wantErr: generation.ErrAuth},
		{name: "forbidden", status: http.StatusForbidden, body: `{}`, wantErr: generation.ErrAuth},
		{name: "rate limited", status: http.StatusTooManyRequests, body: `{}`, wantErr: generation.ErrRateLimited},
		{name: "server error", status: http.StatusInternalServerError, body: `oops`, wantErr: generation.ErrMalformedResponse},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				fmt.Fprint(w, tc.body)
			})

			_, err := client.Generate(context.Background(), "prompt")
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestGenerateMalformedBodies(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		body string
	}{
		{name: "not json", body: `<html>`},
		{name: "no choices", body: `{"choices":[]}`},
		{name: "empty content", body: `{"choices":[{"message":{"content":"  "}}]}`},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tc.body)
			})

			_, err := client.Generate(context.Background(), "prompt")
			assert.ErrorIs(t, err, generation.ErrMalformedResponse)
		})
	}
}

func TestGenerateTimeout(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server notices the client hanging up,
		// and return either way so Close does not wait on the handler.
		_, _ = io.Copy(io.Discard, r.Body)
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Generate(ctx, "prompt")
	assert.ErrorIs(t, err, generation.ErrTimeout)
}

func TestGenerateStreamSuccess(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"le \"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"chat\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	})

	stream, err := client.GenerateStream(context.Background(), "prompt")
	require.NoError(t, err)

	text, err := generation.Collect(context.Background(), stream)
	require.NoError(t, err)
	assert.Equal(t, "le chat", text)
}

func TestGenerateStreamUnparsableLineFailsAtomically(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"partial\"}}]}\n\n")
		fmt.Fprint(w, "data: this-is-not-json\n\n")
	})

	stream, err := client.GenerateStream(context.Background(), "prompt")
	require.NoError(t, err)

	text, err := generation.Collect(context.Background(), stream)
	assert.ErrorIs(t, err, generation.ErrMalformedResponse)
	assert.Empty(t, text, "partial text must be discarded on stream failure")
}

func TestGenerateStreamAuthFailure(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.GenerateStream(context.Background(), "prompt")
	assert.ErrorIs(t, err, generation.ErrAuth)
}
