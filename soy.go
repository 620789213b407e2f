package sped

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/zoobzio/astql/postgres"
	"github.com/zoobzio/soy"
)

// SoyMemory implements Memory using soy for persistence.
type SoyMemory struct {
	records  *soy.Soy[Record]
	db       *sqlx.DB
	capacity int
}

// NewSoyMemory creates a new soy-backed Memory implementation.
// Capacity is the record count that represents full load.
func NewSoyMemory(db *sqlx.DB, capacity int) (*SoyMemory, error) {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}

	records, err := soy.New[Record](db, "records", postgres.New())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize records table: %w", err)
	}

	return &SoyMemory{
		records:  records,
		db:       db,
		capacity: capacity,
	}, nil
}

// StoreResult persists a payload and returns its memory impact.
func (m *SoyMemory) StoreResult(ctx context.Context, payload map[string]any) (float64, error) {
	impact := 1 / float64(m.capacity)
	rec, err := newRecord(payload, impact)
	if err != nil {
		return 0, err
	}
	if _, err := m.records.Insert().Exec(ctx, rec); err != nil {
		return 0, fmt.Errorf("failed to insert record: %w", err)
	}
	return impact, nil
}

// Load returns the stored record count as a fraction of capacity, capped at 1.
func (m *SoyMemory) Load(ctx context.Context) (float64, error) {
	count, err := m.records.Count().Exec(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	load := count / float64(m.capacity)
	if load > 1 {
		load = 1
	}
	return load, nil
}

// GetRecord loads a record by ID.
func (m *SoyMemory) GetRecord(ctx context.Context, id string) (*Record, error) {
	rec, err := m.records.Select().
		Where("id", "=", "id").
		Exec(ctx, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	return rec, nil
}

// RecentRecords loads the newest records of a kind, newest first.
func (m *SoyMemory) RecentRecords(ctx context.Context, kind string, limit int) ([]*Record, error) {
	records, err := m.records.Query().
		Where("kind", "=", "kind").
		OrderBy("created_at", "desc").
		Limit(limit).
		Exec(ctx, map[string]any{"kind": kind})
	if err != nil {
		return nil, fmt.Errorf("failed to get recent records: %w", err)
	}
	return records, nil
}

// DeleteRecord removes a record.
func (m *SoyMemory) DeleteRecord(ctx context.Context, id string) error {
	_, err := m.records.Remove().
		Where("id", "=", "id").
		Exec(ctx, map[string]any{"id": id})
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return nil
}
