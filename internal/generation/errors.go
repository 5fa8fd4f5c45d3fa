package generation

import "errors"

// Common errors returned by the generation package and its provider
// implementations. The taxonomy drives the retry policy and the batch
// orchestrator: ErrAuth aborts an entire run, the retryable group is
// retried up to the configured bound, and everything else fails the
// single record it occurred on.
var (
	// ErrAuth is returned when the provider rejects the configured
	// credentials. It is fatal for the whole batch: retrying or moving
	// on to the next record cannot succeed with a broken key.
	ErrAuth = errors.New("provider rejected credentials")

	// ErrTimeout is returned when a request exceeds the configured
	// per-attempt timeout. Retryable.
	ErrTimeout = errors.New("provider request timed out")

	// ErrRateLimited is returned when the provider signals throttling.
	// Retryable; the inter-request delay is the backoff control.
	ErrRateLimited = errors.New("provider rate limit exceeded")

	// ErrMalformedResponse is returned when the provider payload cannot
	// be parsed or contains no usable text. Retryable up to the policy
	// limit.
	ErrMalformedResponse = errors.New("malformed response from provider")

	// ErrInvalidConfig is returned when a generator is constructed with
	// unusable settings.
	ErrInvalidConfig = errors.New("invalid generator configuration")
)

// Retryable reports whether the error is transient per the taxonomy:
// timeouts, rate limiting, and malformed payloads may succeed on a later
// attempt; authentication and configuration errors never will.
func Retryable(err error) bool {
	return errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrMalformedResponse)
}

// ErrKind returns the stable taxonomy label for an error, used in
// outcomes, events, and API responses.
func ErrKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAuth):
		return "auth"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed_response"
	case errors.Is(err, ErrInvalidConfig):
		return "invalid_config"
	default:
		return "other"
	}
}
