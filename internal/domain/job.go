package domain

import (
	"errors"
	"time"
)

// Provider name constants. New providers register an implementation of
// generation.Generator and add a name here; nothing else in the pipeline
// branches on the provider.
const (
	ProviderOpenAI   = "openai"
	ProviderDeepSeek = "deepseek"
	ProviderGemini   = "gemini"
)

// JobSpec validation errors
var (
	// ErrJobNoRecords is returned when a job spec contains no records.
	ErrJobNoRecords = errors.New("job must contain at least one record")

	// ErrJobTemplateEmpty is returned when the prompt template is empty.
	ErrJobTemplateEmpty = errors.New("prompt template cannot be empty")

	// ErrJobTargetFieldEmpty is returned when no target field is set.
	ErrJobTargetFieldEmpty = errors.New("target field cannot be empty")

	// ErrSettingsProviderEmpty is returned when no provider is configured.
	ErrSettingsProviderEmpty = errors.New("provider cannot be empty")

	// ErrSettingsModelEmpty is returned when no model ID is configured.
	ErrSettingsModelEmpty = errors.New("model cannot be empty")
)

// ProviderSettings holds the provider-facing knobs for one run. The
// struct is immutable for the duration of a run; per-run API overrides
// produce a fresh copy rather than mutating shared configuration.
type ProviderSettings struct {
	// Provider selects the generator implementation (openai, deepseek,
	// gemini).
	Provider string `json:"provider"`

	// Model is the provider-specific model identifier.
	Model string `json:"model"`

	// APIKey authenticates requests to the provider.
	APIKey string `json:"-"`

	// BaseURL overrides the provider's default endpoint. Empty means the
	// provider default.
	BaseURL string `json:"base_url,omitempty"`

	// Timeout bounds each individual request attempt.
	Timeout time.Duration `json:"timeout"`

	// Delay is the minimum spacing between request attempts across the
	// whole run. It doubles as the provider rate-limit control.
	Delay time.Duration `json:"delay"`

	// Streaming selects chunked responses where the provider supports it.
	Streaming bool `json:"streaming"`

	// MaxRetries is the number of additional attempts after the first
	// for retryable errors.
	MaxRetries int `json:"max_retries"`

	// Temperature and MaxTokens are passed through to the provider.
	Temperature float32 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

// Validate checks that the settings are usable for a run.
func (s ProviderSettings) Validate() error {
	if s.Provider == "" {
		return ErrSettingsProviderEmpty
	}
	if s.Model == "" {
		return ErrSettingsModelEmpty
	}
	return nil
}

// JobSpec describes one batch generation run: the ordered working set of
// records, the prompt template, the field the generated text is destined
// for, and the provider settings in force. A JobSpec lives only as long
// as its run.
type JobSpec struct {
	Records     []*Record        `json:"records"`
	Template    string           `json:"template"`
	TargetField string           `json:"target_field"`
	Settings    ProviderSettings `json:"settings"`
}

// Validate checks the spec's structural invariants. Per-record template
// resolution failures are deliberately not detected here; they surface as
// skipped outcomes during the run so one bad record cannot block the rest.
func (j *JobSpec) Validate() error {
	if len(j.Records) == 0 {
		return ErrJobNoRecords
	}
	if j.Template == "" {
		return ErrJobTemplateEmpty
	}
	if j.TargetField == "" {
		return ErrJobTargetFieldEmpty
	}
	return j.Settings.Validate()
}
