package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/emonupg/essync/internal/core/domain"
	"github.com/emonupg/essync/internal/core/ports/driven"
)

// indexRegistry implements driven.IndexRegistry.
type indexRegistry struct {
	store *Store
}

var _ driven.IndexRegistry = (*indexRegistry)(nil)

const indexRecordColumns = `collection_name, current_index_name, version, alias_name, last_rebuilt_at`

// Get retrieves the record of a collection.
func (r *indexRegistry) Get(ctx context.Context, collection string) (*domain.CollectionIndexRecord, error) {
	row := r.store.db.QueryRowContext(ctx,
		`SELECT `+indexRecordColumns+` FROM collection_index_records WHERE collection_name = ?`, collection)

	rec, err := scanIndexRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Save creates or replaces the record of a collection.
func (r *indexRegistry) Save(ctx context.Context, record domain.CollectionIndexRecord) error {
	if record.CollectionName == "" {
		return domain.ErrCollectionRequired
	}

	_, err := r.store.db.ExecContext(ctx, `
		INSERT INTO collection_index_records (`+indexRecordColumns+`)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(collection_name) DO UPDATE SET
			current_index_name = excluded.current_index_name,
			version = excluded.version,
			alias_name = excluded.alias_name,
			last_rebuilt_at = excluded.last_rebuilt_at
	`, record.CollectionName, record.CurrentIndexName, record.Version,
		record.AliasName, formatNullableTime(record.LastRebuiltAt))
	if err != nil {
		return fmt.Errorf("saving index record: %w", err)
	}
	return nil
}

// List returns all records sorted by collection name.
func (r *indexRegistry) List(ctx context.Context) ([]domain.CollectionIndexRecord, error) {
	rows, err := r.store.db.QueryContext(ctx,
		`SELECT `+indexRecordColumns+` FROM collection_index_records ORDER BY collection_name`)
	if err != nil {
		return nil, fmt.Errorf("querying index records: %w", err)
	}
	defer rows.Close()

	records := []domain.CollectionIndexRecord{}
	for rows.Next() {
		rec, err := scanIndexRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating index records: %w", err)
	}
	return records, nil
}

func scanIndexRecord(row scanner) (*domain.CollectionIndexRecord, error) {
	var rec domain.CollectionIndexRecord
	var rebuiltAt sql.NullString
	if err := row.Scan(&rec.CollectionName, &rec.CurrentIndexName, &rec.Version,
		&rec.AliasName, &rebuiltAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning index record: %w", err)
	}
	rec.LastRebuiltAt = parseNullableTime(rebuiltAt)
	return &rec, nil
}
