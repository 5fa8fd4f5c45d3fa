package domain

import (
	"errors"

	"github.com/google/uuid"
)

// Record-specific validation errors
var (
	// ErrRecordIDEmpty is returned when a record ID is empty or nil.
	ErrRecordIDEmpty = errors.New("record ID cannot be empty")

	// ErrRecordNoFields is returned when a record has no fields at all.
	ErrRecordNoFields = errors.New("record must have at least one field")

	// ErrFieldNotFound is returned when a named field does not exist on a record.
	ErrFieldNotFound = errors.New("field not found on record")
)

// Record is a transient view of a single host-managed item (a flashcard
// note) exposed as a mapping from field name to field text. Field names
// are case-sensitive. The core never owns records; it reads their fields
// during a run and writes a single field back only at commit time.
type Record struct {
	ID uuid.UUID `json:"id"`

	// TypeName identifies the record type (note type) the field list
	// belongs to.
	TypeName string `json:"type_name"`

	// FieldOrder preserves the host's field ordering for UI display.
	FieldOrder []string `json:"field_order"`

	// Fields maps field name to field text.
	Fields map[string]string `json:"fields"`
}

// NewRecord creates a Record with the given ID, type name, and fields.
// Field order defaults to map iteration order being unspecified, callers
// that care about ordering should pass fieldOrder explicitly via SetOrder.
func NewRecord(id uuid.UUID, typeName string, fields map[string]string) (*Record, error) {
	rec := &Record{
		ID:       id,
		TypeName: typeName,
		Fields:   fields,
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	return rec, nil
}

// Validate checks the record's structural invariants.
func (r *Record) Validate() error {
	if r.ID == uuid.Nil {
		return ErrRecordIDEmpty
	}
	if len(r.Fields) == 0 {
		return ErrRecordNoFields
	}
	return nil
}

// Field returns the text of the named field. The lookup is exact and
// case-sensitive, matching the host's field semantics.
func (r *Record) Field(name string) (string, bool) {
	text, ok := r.Fields[name]
	return text, ok
}

// HasField reports whether the named field exists on the record.
func (r *Record) HasField(name string) bool {
	_, ok := r.Fields[name]
	return ok
}

// FieldNames returns the record's field names. When the host supplied an
// explicit ordering it is respected; otherwise names are returned in map
// order.
func (r *Record) FieldNames() []string {
	if len(r.FieldOrder) > 0 {
		names := make([]string, len(r.FieldOrder))
		copy(names, r.FieldOrder)
		return names
	}
	names := make([]string, 0, len(r.Fields))
	for name := range r.Fields {
		names = append(names, name)
	}
	return names
}
