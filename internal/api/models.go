package api

import (
	"github.com/google/uuid"
)

// Common request/response structures

// TokenRequest defines the payload for the token exchange endpoint.
type TokenRequest struct {
	AccessToken string `json:"access_token" validate:"required"`
}

// TokenResponse defines the successful response for the token exchange
// endpoint.
type TokenResponse struct {
	// Token is the JWT used for API authorization
	Token string `json:"token"`

	// ExpiresAt is the ISO 8601 timestamp when the token expires
	ExpiresAt string `json:"expires_at"`
}

// CreateRunRequest defines the payload for starting a generation run.
type CreateRunRequest struct {
	RecordIDs   []uuid.UUID `json:"record_ids"   validate:"required,min=1"`
	Template    string      `json:"template"     validate:"required"`
	TargetField string      `json:"target_field" validate:"required"`

	// Optional overrides of the configured provider defaults.
	Model       string   `json:"model,omitempty"`
	Temperature *float32 `json:"temperature,omitempty" validate:"omitempty,gte=0,lte=2"`
	MaxTokens   *int     `json:"max_tokens,omitempty"  validate:"omitempty,gt=0"`
	Streaming   *bool    `json:"streaming,omitempty"`
	MaxRetries  *int     `json:"max_retries,omitempty" validate:"omitempty,gte=0,lte=10"`
}

// SaveTemplateRequest defines the payload for saving a named prompt
// template into the library.
type SaveTemplateRequest struct {
	Template string `json:"template" validate:"required"`
}

// TemplatesResponse lists the saved prompt templates by name.
type TemplatesResponse struct {
	Templates map[string]string `json:"templates"`
}

// FieldsResponse lists the field names of a record type, in the order a
// record of that type carries them.
type FieldsResponse struct {
	TypeName string   `json:"type_name"`
	Fields   []string `json:"fields"`
}

// EditOutcomeRequest defines the payload for reviewing one outcome.
// Text, when present, replaces the generated text; Approved, when
// present, sets the approval flag.
type EditOutcomeRequest struct {
	Text     *string `json:"text,omitempty"`
	Approved *bool   `json:"approved,omitempty"`
}
