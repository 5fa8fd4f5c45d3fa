package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/phrazzld/omniprompt/internal/config"
	"github.com/phrazzld/omniprompt/internal/service/auth"
)

func newAuthHandler(t *testing.T, accessToken string) *AuthHandler {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(accessToken), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := config.AuthConfig{
		JWTSecret:            "thisisasecretkeythatis32charslong!!",
		AccessTokenHash:      string(hash),
		TokenLifetimeMinutes: 60,
	}
	jwtService, err := auth.NewJWTService(cfg)
	require.NoError(t, err)

	return NewAuthHandler(cfg, jwtService, auth.NewBcryptVerifier())
}

func postToken(t *testing.T, h *AuthHandler, body any) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/token", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	h.Token(rec, req)
	return rec
}

func TestTokenExchangeSuccess(t *testing.T) {
	t.Parallel()

	h := newAuthHandler(t, "open-sesame")
	rec := postToken(t, h, TokenRequest{AccessToken: "open-sesame"})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.NotEmpty(t, resp.ExpiresAt)
}

func TestTokenExchangeWrongToken(t *testing.T) {
	t.Parallel()

	h := newAuthHandler(t, "open-sesame")
	rec := postToken(t, h, TokenRequest{AccessToken: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTokenExchangeBadPayload(t *testing.T) {
	t.Parallel()

	h := newAuthHandler(t, "open-sesame")

	// Missing access_token fails validation.
	rec := postToken(t, h, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Malformed JSON fails decoding.
	req := httptest.NewRequest(http.MethodPost, "/api/auth/token", bytes.NewReader([]byte("{")))
	raw := httptest.NewRecorder()
	h.Token(raw, req)
	assert.Equal(t, http.StatusBadRequest, raw.Code)
}
