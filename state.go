package sped

import (
	"sort"
	"time"
)

// LoadUnknown is the Snapshot memory load when the live read faulted.
const LoadUnknown = -1.0

// engineState is the single mutable state of an Engine.
// All access goes through the engine mutex. uncertainty is carried as-is:
// no engine operation writes it.
type engineState struct {
	mode              Mode
	confidence        float64
	uncertainty       float64
	lastUpdate        time.Time
	activeContexts    map[string]struct{}
	memoryLoad        float64 // last successful live read
	resourceAvailable bool
}

func newEngineState(mode Mode, resourceAvailable bool) *engineState {
	return &engineState{
		mode:              mode,
		activeContexts:    make(map[string]struct{}),
		memoryLoad:        LoadUnknown,
		resourceAvailable: resourceAvailable,
	}
}

// touch records the start of a call. lastUpdate never moves backwards.
func (s *engineState) touch(now time.Time) {
	if now.After(s.lastUpdate) {
		s.lastUpdate = now
	}
}

// merge unions context keys into the active set and returns its size.
func (s *engineState) merge(context map[string]any) int {
	for k := range context {
		s.activeContexts[k] = struct{}{}
	}
	return len(s.activeContexts)
}

// snapshot projects the state. Memory load and hook presence are not
// owned by the engine and are supplied by the caller.
func (s *engineState) snapshot(load float64, tracked bool) Snapshot {
	keys := make([]string, 0, len(s.activeContexts))
	for k := range s.activeContexts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return Snapshot{
		Mode:              s.mode,
		Confidence:        s.confidence,
		Uncertainty:       s.uncertainty,
		LastUpdate:        s.lastUpdate,
		ActiveContexts:    keys,
		MemoryLoad:        load,
		ResourceAvailable: s.resourceAvailable,
		EvolutionTracked:  tracked,
	}
}

// Snapshot is a read-only projection of engine state.
type Snapshot struct {
	Mode              Mode      `json:"mode"`
	Confidence        float64   `json:"confidence"`
	Uncertainty       float64   `json:"uncertainty"`
	LastUpdate        time.Time `json:"last_update"`
	ActiveContexts    []string  `json:"active_contexts"`
	MemoryLoad        float64   `json:"memory_load"`
	ResourceAvailable bool      `json:"resource_available"`
	EvolutionTracked  bool      `json:"evolution_tracked"`
}

// LoadKnown reports whether MemoryLoad came from a successful live read.
func (s Snapshot) LoadKnown() bool {
	return s.MemoryLoad != LoadUnknown
}

// HasContext reports whether a context key has been observed.
func (s Snapshot) HasContext(key string) bool {
	i := sort.SearchStrings(s.ActiveContexts, key)
	return i < len(s.ActiveContexts) && s.ActiveContexts[i] == key
}
