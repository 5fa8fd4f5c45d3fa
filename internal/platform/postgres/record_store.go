package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/phrazzld/omniprompt/internal/domain"
	"github.com/phrazzld/omniprompt/internal/store"
)

// DBTX is the subset of pgxpool.Pool the store needs, kept narrow so
// tests can substitute a transaction or a mock.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// RecordStore implements store.RecordStore using a PostgreSQL database
// as the storage backend.
type RecordStore struct {
	db     DBTX
	logger *slog.Logger
}

// NewRecordStore creates a PostgreSQL implementation of the RecordStore
// interface. The connection pool is initialized and managed by the
// caller. If logger is nil, the default logger is used.
func NewRecordStore(db DBTX, logger *slog.Logger) *RecordStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RecordStore{
		db:     db,
		logger: logger.With(slog.String("component", "record_store")),
	}
}

// Ensure RecordStore implements store.RecordStore
var _ store.RecordStore = (*RecordStore)(nil)

// CreateRecord implements store.RecordStore.CreateRecord.
func (s *RecordStore) CreateRecord(ctx context.Context, rec *domain.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	fields, err := json.Marshal(rec.Fields)
	if err != nil {
		return fmt.Errorf("failed to encode record fields: %w", err)
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO records (id, type_name, field_order, fields, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, now(), now())`,
		rec.ID, rec.TypeName, rec.FieldOrder, fields)
	if err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}

	s.logger.Debug("record created", "record_id", rec.ID, "type_name", rec.TypeName)
	return nil
}

// GetRecord implements store.RecordStore.GetRecord.
func (s *RecordStore) GetRecord(ctx context.Context, id uuid.UUID) (*domain.Record, error) {
	row := s.db.QueryRow(ctx,
		`SELECT id, type_name, field_order, fields FROM records WHERE id = $1`, id)
	return scanRecord(row)
}

// SelectRecords implements store.RecordStore.SelectRecords. The result
// preserves the order of the requested IDs, which is the run's input
// order.
func (s *RecordStore) SelectRecords(ctx context.Context, ids []uuid.UUID) ([]*domain.Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, type_name, field_order, fields FROM records WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	byID := make(map[uuid.UUID]*domain.Record, len(ids))
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		byID[rec.ID] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}

	records := make([]*domain.Record, 0, len(ids))
	for _, id := range ids {
		rec, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", store.ErrRecordNotFound, id)
		}
		records = append(records, rec)
	}
	return records, nil
}

// UpdateField implements store.RecordStore.UpdateField using a JSONB
// merge on the single named key.
func (s *RecordStore) UpdateField(ctx context.Context, id uuid.UUID, field, text string) error {
	rec, err := s.GetRecord(ctx, id)
	if err != nil {
		return err
	}
	if !rec.HasField(field) {
		return fmt.Errorf("%w: %q on type %q", store.ErrFieldUnknown, field, rec.TypeName)
	}

	value, err := json.Marshal(text)
	if err != nil {
		return fmt.Errorf("failed to encode field value: %w", err)
	}

	tag, err := s.db.Exec(ctx,
		`UPDATE records
		 SET fields = jsonb_set(fields, ARRAY[$2], $3::jsonb), updated_at = now()
		 WHERE id = $1`,
		id, field, value)
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrUpdateFailed, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", store.ErrRecordNotFound, id)
	}

	s.logger.Debug("record field updated", "record_id", id, "field", field)
	return nil
}

// FieldNames implements store.RecordStore.FieldNames. The field order
// of the most recently updated record of the type is authoritative.
func (s *RecordStore) FieldNames(ctx context.Context, typeName string) ([]string, error) {
	row := s.db.QueryRow(ctx,
		`SELECT field_order, fields FROM records
		 WHERE type_name = $1
		 ORDER BY updated_at DESC
		 LIMIT 1`, typeName)

	var order []string
	var fieldsRaw []byte
	if err := row.Scan(&order, &fieldsRaw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: no records of type %q", store.ErrNotFound, typeName)
		}
		return nil, fmt.Errorf("failed to query field names: %w", err)
	}

	if len(order) > 0 {
		return order, nil
	}

	var fields map[string]string
	if err := json.Unmarshal(fieldsRaw, &fields); err != nil {
		return nil, fmt.Errorf("failed to decode record fields: %w", err)
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	return names, nil
}

// scanRecord reads one record row.
func scanRecord(row pgx.Row) (*domain.Record, error) {
	var rec domain.Record
	var fieldsRaw []byte
	if err := row.Scan(&rec.ID, &rec.TypeName, &rec.FieldOrder, &fieldsRaw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to scan record: %w", err)
	}
	if err := json.Unmarshal(fieldsRaw, &rec.Fields); err != nil {
		return nil, fmt.Errorf("failed to decode record fields: %w", err)
	}
	return &rec, nil
}
