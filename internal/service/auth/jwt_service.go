package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// JWTService defines operations for managing JWT authentication tokens.
type JWTService interface {
	// GenerateToken creates a signed JWT for a new operator session.
	// Returns the token string or an error if token generation fails.
	GenerateToken(ctx context.Context) (string, error)

	// ValidateToken validates the provided token string and extracts the
	// claims, or returns an error if validation fails (expired, invalid
	// signature, etc.).
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims represents the validated claims of a session token.
type Claims struct {
	// SessionID is the unique identifier minted for the session the
	// token was issued for.
	SessionID uuid.UUID `json:"sid,omitempty"`

	// IssuedAt is when the token was created.
	IssuedAt time.Time `json:"iat,omitempty"`

	// ExpiresAt is when the token expires.
	ExpiresAt time.Time `json:"exp,omitempty"`
}
