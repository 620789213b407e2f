package sped

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
)

// Storage names how a StateStore encodes raw data.
type Storage string

// Storage schemes.
const (
	StorageDirect     Storage = "direct"          // amplitude, unprotected
	StorageCompressed Storage = "compressed"      // superdense, unprotected
	StorageProtected  Storage = "error_protected" // amplitude with repetition code
)

// Fidelity tracking defaults.
const (
	// DefaultFidelityDecay is the decay rate of stored states per minute.
	DefaultFidelityDecay = 0.1
	// FidelityThreshold is the fidelity below which retrieval warns.
	FidelityThreshold = 0.9
)

// ErrStateNotFound is returned for an unknown state ID.
var ErrStateNotFound = errors.New("state not found")

// StoredState is an encoding held by a StateStore.
type StoredState struct {
	ID       string
	Storage  Storage
	Encoding *Encoding
	Stored   time.Time
	Metadata map[string]any
}

// StateStore keeps encoded states and tracks their decaying fidelity.
// The oldest state is evicted once capacity is reached.
type StateStore struct {
	mu       sync.Mutex
	encoder  *Encoder
	clock    clockz.Clock
	decay    float64
	capacity int
	states   map[string]*StoredState
	order    []string
}

// NewStateStore creates a store over an encoder. A nil encoder uses
// DefaultQubits; non-positive capacity uses DefaultMemoryCapacity.
func NewStateStore(encoder *Encoder, capacity int) *StateStore {
	if encoder == nil {
		encoder = NewEncoder(DefaultQubits)
	}
	return &StateStore{
		encoder:  encoder,
		clock:    clockz.RealClock,
		decay:    DefaultFidelityDecay,
		capacity: orDefault(capacity, DefaultMemoryCapacity),
		states:   make(map[string]*StoredState),
	}
}

// WithClock sets the clock used for storage age.
func (s *StateStore) WithClock(c clockz.Clock) *StateStore {
	s.clock = c
	return s
}

// WithDecay sets the per-minute fidelity decay rate.
func (s *StateStore) WithDecay(rate float64) *StateStore {
	s.decay = math.Max(0, rate)
	return s
}

// Store encodes data with the storage scheme and keeps it.
func (s *StateStore) Store(ctx context.Context, data []float64, storage Storage, metadata map[string]any) (string, error) {
	var (
		enc *Encoding
		err error
	)
	switch storage {
	case StorageDirect:
		enc, err = s.encoder.Encode(data, SchemeAmplitude, false)
	case StorageCompressed:
		enc, err = s.encoder.Encode(data, SchemeSuperdense, false)
	case StorageProtected:
		enc, err = s.encoder.Encode(data, SchemeAmplitude, true)
	default:
		return "", fmt.Errorf("%w: storage %q", ErrUnknownScheme, storage)
	}
	if err != nil {
		return "", fmt.Errorf("state store: %w", err)
	}
	return s.Put(ctx, enc, metadata), nil
}

// Put keeps an existing encoding and returns its state ID.
func (s *StateStore) Put(ctx context.Context, enc *Encoding, metadata map[string]any) string {
	st := &StoredState{
		ID:       uuid.New().String(),
		Storage:  storageOf(enc),
		Encoding: enc.Clone(),
		Stored:   s.clock.Now(),
		Metadata: metadata,
	}

	s.mu.Lock()
	s.states[st.ID] = st
	s.order = append(s.order, st.ID)
	for len(s.order) > s.capacity {
		delete(s.states, s.order[0])
		s.order = s.order[1:]
	}
	s.mu.Unlock()

	capitan.Emit(ctx, StateStored,
		FieldStateID.Field(st.ID),
		FieldScheme.Field(string(enc.Scheme)),
		FieldQubits.Field(enc.Qubits()),
		FieldFidelity.Field(enc.Fidelity),
	)
	return st.ID
}

// Retrieve decodes a stored state and returns it with its current fidelity.
func (s *StateStore) Retrieve(ctx context.Context, id string) ([]float64, float64, error) {
	s.mu.Lock()
	st, ok := s.states[id]
	s.mu.Unlock()
	if !ok {
		return nil, 0, fmt.Errorf("%w: %s", ErrStateNotFound, id)
	}

	f := s.current(st)
	if f < FidelityThreshold {
		capitan.Warn(ctx, StateFidelityLow,
			FieldStateID.Field(id),
			FieldFidelity.Field(f),
		)
	}
	data, err := s.encoder.Decode(st.Encoding)
	if err != nil {
		return nil, f, err
	}
	return data, f, nil
}

// Monitor returns the current fidelity of every stored state and warns for
// each one below FidelityThreshold.
func (s *StateStore) Monitor(ctx context.Context) map[string]float64 {
	s.mu.Lock()
	states := make([]*StoredState, 0, len(s.order))
	for _, id := range s.order {
		states = append(states, s.states[id])
	}
	s.mu.Unlock()

	out := make(map[string]float64, len(states))
	for _, st := range states {
		f := s.current(st)
		out[st.ID] = f
		if f < FidelityThreshold {
			capitan.Warn(ctx, StateFidelityLow,
				FieldStateID.Field(st.ID),
				FieldFidelity.Field(f),
			)
		}
	}
	return out
}

// States returns the stored states, newest first.
func (s *StateStore) States() []StoredState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]StoredState, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		out = append(out, *s.states[s.order[i]])
	}
	return out
}

// Len returns the number of stored states.
func (s *StateStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// current decays the encoding fidelity by exp(-rate * minutes stored).
func (s *StateStore) current(st *StoredState) float64 {
	age := s.clock.Since(st.Stored).Minutes()
	if age < 0 {
		age = 0
	}
	return st.Encoding.Fidelity * math.Exp(-s.decay*age)
}

func storageOf(enc *Encoding) Storage {
	switch {
	case enc.Protection != "":
		return StorageProtected
	case enc.Scheme == SchemeSuperdense:
		return StorageCompressed
	default:
		return StorageDirect
	}
}
