package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// TokenVerifier defines the interface for checking a presented access
// token against the configured credential.
type TokenVerifier interface {
	// Compare compares the stored hash with a presented plaintext token.
	// Returns nil on success, ErrAccessTokenMismatch on mismatch.
	Compare(hashedToken, token string) error
}

// BcryptVerifier implements TokenVerifier using bcrypt.
type BcryptVerifier struct{}

// NewBcryptVerifier creates a new BcryptVerifier.
func NewBcryptVerifier() *BcryptVerifier {
	return &BcryptVerifier{}
}

// Compare implements the TokenVerifier interface using bcrypt.
func (v *BcryptVerifier) Compare(hashedToken, token string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hashedToken), []byte(token))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrAccessTokenMismatch
		}
		return err
	}
	return nil
}
