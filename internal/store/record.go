package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/phrazzld/omniprompt/internal/domain"
)

// RecordStore defines the interface for host record access.
// Version: 1.0
type RecordStore interface {
	// SelectRecords retrieves the records for the given IDs, in the
	// order the IDs were given. Returns ErrRecordNotFound if any ID
	// does not exist.
	SelectRecords(ctx context.Context, ids []uuid.UUID) ([]*domain.Record, error)

	// GetRecord retrieves a single record by ID.
	// Returns ErrRecordNotFound if the record does not exist.
	GetRecord(ctx context.Context, id uuid.UUID) (*domain.Record, error)

	// UpdateField writes text into one named field of one record. This
	// is the only mutation the pipeline ever performs on host data, and
	// it is reached exclusively through the commit stage.
	// Returns ErrRecordNotFound if the record does not exist and
	// ErrFieldUnknown if the record type has no such field.
	UpdateField(ctx context.Context, id uuid.UUID, field, text string) error

	// FieldNames returns the field-name list for the given record
	// type, used to populate target-field choices.
	FieldNames(ctx context.Context, typeName string) ([]string, error)

	// CreateRecord inserts a new record. Provided for deployments where
	// this store is the system of record rather than a mirror of an
	// external host.
	CreateRecord(ctx context.Context, rec *domain.Record) error
}
