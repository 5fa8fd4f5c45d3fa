package prompt

import (
	"fmt"
	"strings"

	"github.com/phrazzld/omniprompt/internal/domain"
)

// FieldMissingError reports that a template placeholder referenced a
// field the record does not have. The failure is scoped to the single
// record being resolved; other records in the same run are unaffected.
type FieldMissingError struct {
	Field string
}

func (e *FieldMissingError) Error() string {
	return fmt.Sprintf("record has no field %q", e.Field)
}

// Resolve substitutes every {FieldName} placeholder in template with the
// record's current field text and returns the resolved prompt. If the
// run's target field is referenced as an input, its pre-run value is
// used, which enables reformat-existing-content templates. The record is
// never mutated.
//
// A single pass over the template is sufficient: substituted field text
// is emitted verbatim, so field values containing braces cannot trigger
// further substitution.
func Resolve(template string, rec *domain.Record) (string, error) {
	var sb strings.Builder
	sb.Grow(len(template))

	rest := template
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			sb.WriteString(rest)
			return sb.String(), nil
		}
		sb.WriteString(rest[:open])
		rest = rest[open:]

		closing := strings.IndexByte(rest, '}')
		if closing < 0 {
			// Unterminated brace, emit literally.
			sb.WriteString(rest)
			return sb.String(), nil
		}

		name := rest[1:closing]
		if name == "" {
			sb.WriteString(rest[:closing+1])
			rest = rest[closing+1:]
			continue
		}

		text, ok := rec.Field(name)
		if !ok {
			return "", &FieldMissingError{Field: name}
		}
		sb.WriteString(text)
		rest = rest[closing+1:]
	}
}

// Placeholders returns the distinct field names referenced by the
// template, in first-appearance order. Used for eager validation before
// a run starts.
func Placeholders(template string) []string {
	var names []string
	seen := make(map[string]bool)

	rest := template
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			return names
		}
		rest = rest[open:]
		closing := strings.IndexByte(rest, '}')
		if closing < 0 {
			return names
		}
		name := rest[1:closing]
		if name != "" && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
		rest = rest[closing+1:]
	}
}
