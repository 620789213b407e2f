package sped

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNoMemory is returned when an engine is built without a Memory collaborator.
var ErrNoMemory = errors.New("no memory collaborator configured")

// Memory defines the storage collaborator of the baseline path.
type Memory interface {
	// StoreResult persists a payload and returns its memory impact.
	StoreResult(ctx context.Context, payload map[string]any) (float64, error)

	// Load returns the current load fraction in [0,1]. It is read live
	// on every call and never cached by the engine.
	Load(ctx context.Context) (float64, error)
}

// Record is a stored baseline result.
type Record struct {
	ID        string    `db:"id" type:"uuid" constraints:"primarykey" default:"gen_random_uuid()"`
	Kind      string    `db:"kind" type:"text" constraints:"notnull"`
	Payload   string    `db:"payload" type:"jsonb" constraints:"notnull"`
	Impact    float64   `db:"impact" type:"double precision" constraints:"notnull"`
	CreatedAt time.Time `db:"created_at" type:"timestamp" constraints:"notnull"`
}

// newRecord encodes a payload into a Record.
func newRecord(payload map[string]any, impact float64) (*Record, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}
	kind, _ := payload["kind"].(string)
	if kind == "" {
		kind = "result"
	}
	return &Record{
		Kind:      kind,
		Payload:   string(data),
		Impact:    impact,
		CreatedAt: time.Now(),
	}, nil
}

// Decode unmarshals the stored payload.
func (r *Record) Decode() (map[string]any, error) {
	var payload map[string]any
	if err := json.Unmarshal([]byte(r.Payload), &payload); err != nil {
		return nil, fmt.Errorf("failed to decode payload: %w", err)
	}
	return payload, nil
}

// MemoryStore is an in-memory Memory with a fixed record capacity.
// When full, the oldest record is evicted.
type MemoryStore struct {
	capacity int
	records  []Record
	mu       sync.RWMutex
}

// NewMemoryStore creates a store. A non-positive capacity uses DefaultMemoryCapacity.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &MemoryStore{capacity: capacity}
}

// StoreResult implements Memory. Each record consumes 1/capacity of the store.
func (m *MemoryStore) StoreResult(_ context.Context, payload map[string]any) (float64, error) {
	impact := 1 / float64(m.capacity)
	rec, err := newRecord(payload, impact)
	if err != nil {
		return 0, err
	}
	rec.ID = uuid.New().String()

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.records) >= m.capacity {
		m.records = m.records[1:]
	}
	m.records = append(m.records, *rec)
	return impact, nil
}

// Load implements Memory.
func (m *MemoryStore) Load(_ context.Context) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return float64(len(m.records)) / float64(m.capacity), nil
}

// Records returns a copy of the stored records, oldest first.
func (m *MemoryStore) Records() []Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Record, len(m.records))
	copy(out, m.records)
	return out
}
