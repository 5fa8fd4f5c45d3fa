// Package redact provides utilities for redacting sensitive information
// from strings before they are logged or returned in error responses. The
// batch pipeline handles provider API keys and bearer tokens on every
// request; this package keeps them out of the log sink.
package redact

import (
	"regexp"
)

// Placeholder substituted for redacted material.
const Placeholder = "[REDACTED]"

// Precompiled patterns for credential material that can leak through
// wrapped provider errors.
var (
	bearerRegex = regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9_\-.~+/]{8,}`)
	apiKeyRegex = regexp.MustCompile(
		`(?i)(api[_-]?key|token|secret|key)(['"\s:=]+)[A-Za-z0-9_\-.~+/]{8,}`,
	)
)

// Secret masks a credential for logging, keeping the last four
// characters so operators can tell configured keys apart.
func Secret(s string) string {
	if len(s) <= 4 {
		return Placeholder
	}
	return Placeholder + s[len(s)-4:]
}

// String scrubs credential material from arbitrary text, typically error
// messages about to be logged or surfaced through the API.
func String(s string) string {
	s = bearerRegex.ReplaceAllString(s, "Bearer "+Placeholder)
	s = apiKeyRegex.ReplaceAllString(s, "${1}${2}"+Placeholder)
	return s
}

// Error scrubs an error's message; nil-safe.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
