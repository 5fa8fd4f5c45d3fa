package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/phrazzld/omniprompt/internal/config"
	"github.com/phrazzld/omniprompt/internal/service/auth"
)

// AuthHandler handles authentication-related API requests.
type AuthHandler struct {
	authConfig    config.AuthConfig
	jwtService    auth.JWTService
	tokenVerifier auth.TokenVerifier
	validator     *validator.Validate
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(
	authConfig config.AuthConfig,
	jwtService auth.JWTService,
	tokenVerifier auth.TokenVerifier,
) *AuthHandler {
	return &AuthHandler{
		authConfig:    authConfig,
		jwtService:    jwtService,
		tokenVerifier: tokenVerifier,
		validator:     validator.New(),
	}
}

// Token handles the /api/auth/token endpoint: it exchanges the
// configured access token for a short-lived JWT.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest

	if err := DecodeJSON(r, &req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	if err := h.tokenVerifier.Compare(h.authConfig.AccessTokenHash, req.AccessToken); err != nil {
		if errors.Is(err, auth.ErrAccessTokenMismatch) {
			RespondWithError(w, r, http.StatusUnauthorized, "Invalid access token")
			return
		}
		slog.Error("failed to verify access token", "error", err)
		RespondWithError(w, r, http.StatusInternalServerError, "Authentication error")
		return
	}

	token, err := h.jwtService.GenerateToken(r.Context())
	if err != nil {
		slog.Error("failed to generate token", "error", err)
		RespondWithError(w, r, http.StatusInternalServerError, "Failed to generate authentication token")
		return
	}

	lifetime := time.Duration(h.authConfig.TokenLifetimeMinutes) * time.Minute
	RespondWithJSON(w, r, http.StatusOK, TokenResponse{
		Token:     token,
		ExpiresAt: time.Now().UTC().Add(lifetime).Format(time.RFC3339),
	})
}
