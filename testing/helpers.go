// Package spedtest provides test utilities for sped.
package spedtest

import (
	"context"
	"sync"
	"testing"

	"github.com/zoobzio/sped"
)

// calls counts method invocations on a mock.
type calls struct {
	mu     sync.Mutex
	counts map[string]int
}

func (c *calls) inc(method string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts == nil {
		c.counts = make(map[string]int)
	}
	c.counts[method]++
}

// Calls returns how many times a method was invoked.
func (c *calls) Calls(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[method]
}

// MockReasoning implements sped.Reasoning with fixed answers.
// Set an *Err field to make the matching method fail.
type MockReasoning struct {
	calls

	Complexity       float64
	Payload          map[string]any
	IntegratePayload map[string]any

	ComplexityErr error
	ClassicalErr  error
	PrepareErr    error
	IntegrateErr  error

	// PanicOnClassical makes ProcessClassical panic with this value when non-nil.
	PanicOnClassical any

	manager *sped.CircuitManager
}

// NewMockReasoning creates a reasoning mock reporting the given complexity.
func NewMockReasoning(complexity float64) *MockReasoning {
	return &MockReasoning{
		Complexity:       complexity,
		Payload:          map[string]any{"answer": "baseline"},
		IntegratePayload: map[string]any{"answer": "enhanced"},
		manager:          sped.NewCircuitManager(0),
	}
}

// AnalyzeComplexity implements sped.Reasoning.
func (m *MockReasoning) AnalyzeComplexity(_ context.Context, _ any) (float64, error) {
	m.inc("AnalyzeComplexity")
	if m.ComplexityErr != nil {
		return 0, m.ComplexityErr
	}
	return m.Complexity, nil
}

// ProcessClassical implements sped.Reasoning.
func (m *MockReasoning) ProcessClassical(_ context.Context, _ any, _ map[string]any) (map[string]any, error) {
	m.inc("ProcessClassical")
	if m.PanicOnClassical != nil {
		panic(m.PanicOnClassical)
	}
	if m.ClassicalErr != nil {
		return nil, m.ClassicalErr
	}
	return copyMap(m.Payload), nil
}

// PrepareRepresentation implements sped.Reasoning.
func (m *MockReasoning) PrepareRepresentation(_ context.Context, _ any) (*sped.Circuit, error) {
	m.inc("PrepareRepresentation")
	if m.PrepareErr != nil {
		return nil, m.PrepareErr
	}
	return m.manager.Create(sped.CircuitLearning, []float64{1, 0.5}, 1)
}

// IntegrateResults implements sped.Reasoning.
func (m *MockReasoning) IntegrateResults(_ context.Context, _ *sped.Measurement, _ map[string]any) (map[string]any, error) {
	m.inc("IntegrateResults")
	if m.IntegrateErr != nil {
		return nil, m.IntegrateErr
	}
	return copyMap(m.IntegratePayload), nil
}

// MockBackend implements sped.EnhancedBackend and sped.Initializer.
type MockBackend struct {
	calls

	InitErr     error
	InitPanic   any
	MitigateErr error
	ExecuteErr  error

	// Block makes ExecuteRepresentation wait for context cancellation.
	Block bool

	mu        sync.Mutex
	lastShots int
}

// NewMockBackend creates a backend mock that succeeds by default.
func NewMockBackend() *MockBackend {
	return &MockBackend{}
}

// Initialize implements sped.Initializer.
func (m *MockBackend) Initialize(_ context.Context) error {
	m.inc("Initialize")
	if m.InitPanic != nil {
		panic(m.InitPanic)
	}
	return m.InitErr
}

// ApplyErrorMitigation implements sped.EnhancedBackend.
func (m *MockBackend) ApplyErrorMitigation(_ context.Context, c *sped.Circuit) (*sped.Circuit, map[string]any, error) {
	m.inc("ApplyErrorMitigation")
	if m.MitigateErr != nil {
		return nil, nil, m.MitigateErr
	}
	return c.Clone(), map[string]any{"strategy": "mock"}, nil
}

// ExecuteRepresentation implements sped.EnhancedBackend.
func (m *MockBackend) ExecuteRepresentation(ctx context.Context, c *sped.Circuit, shots int) (*sped.Measurement, error) {
	m.inc("ExecuteRepresentation")
	m.mu.Lock()
	m.lastShots = shots
	m.mu.Unlock()

	if m.Block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if m.ExecuteErr != nil {
		return nil, m.ExecuteErr
	}
	return &sped.Measurement{
		CircuitID: c.ID,
		Shots:     shots,
		Basis:     2,
		Counts:    map[string]int{"0": shots},
	}, nil
}

// LastShots returns the shot count of the most recent execution.
func (m *MockBackend) LastShots() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastShots
}

// MockMemory implements sped.Memory without storage.
type MockMemory struct {
	calls

	Impact   float64
	LoadVal  float64
	StoreErr error
	LoadErr  error

	mu       sync.Mutex
	payloads []map[string]any
}

// NewMockMemory creates a memory mock with a small fixed impact.
func NewMockMemory() *MockMemory {
	return &MockMemory{Impact: 0.001}
}

// StoreResult implements sped.Memory.
func (m *MockMemory) StoreResult(_ context.Context, payload map[string]any) (float64, error) {
	m.inc("StoreResult")
	if m.StoreErr != nil {
		return 0, m.StoreErr
	}
	m.mu.Lock()
	m.payloads = append(m.payloads, copyMap(payload))
	m.mu.Unlock()
	return m.Impact, nil
}

// Load implements sped.Memory.
func (m *MockMemory) Load(_ context.Context) (float64, error) {
	m.inc("Load")
	if m.LoadErr != nil {
		return 0, m.LoadErr
	}
	return m.LoadVal, nil
}

// Stored returns the payloads written so far.
func (m *MockMemory) Stored() []map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]map[string]any, len(m.payloads))
	copy(out, m.payloads)
	return out
}

// RecordingHook implements sped.EvolutionHook and keeps every step.
type RecordingHook struct {
	Err   error
	Panic any

	mu    sync.Mutex
	steps []sped.StepRecord
}

// NewRecordingHook creates a hook that accepts every step.
func NewRecordingHook() *RecordingHook {
	return &RecordingHook{}
}

// TrackStep implements sped.EvolutionHook.
func (h *RecordingHook) TrackStep(_ context.Context, step sped.StepRecord) error {
	h.mu.Lock()
	h.steps = append(h.steps, step)
	h.mu.Unlock()

	if h.Panic != nil {
		panic(h.Panic)
	}
	return h.Err
}

// Steps returns the recorded steps.
func (h *RecordingHook) Steps() []sped.StepRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]sped.StepRecord, len(h.steps))
	copy(out, h.steps)
	return out
}

// Verify mock implementations.
var (
	_ sped.Reasoning       = (*MockReasoning)(nil)
	_ sped.EnhancedBackend = (*MockBackend)(nil)
	_ sped.Initializer     = (*MockBackend)(nil)
	_ sped.Memory          = (*MockMemory)(nil)
	_ sped.EvolutionHook   = (*RecordingHook)(nil)
)

// NewTestEngine builds an engine in the given mode over fresh mocks with
// the enhanced resource enabled.
func NewTestEngine(t testing.TB, mode sped.Mode, complexity float64, opts ...sped.Option) (*sped.Engine, *MockReasoning, *MockBackend, *MockMemory) {
	t.Helper()
	reasoning := NewMockReasoning(complexity)
	backend := NewMockBackend()
	memory := NewMockMemory()

	settings := sped.DefaultSettings()
	settings.Mode = mode

	engine, err := sped.New(sped.Config{
		Settings:  settings,
		Reasoning: reasoning,
		Memory:    memory,
		Enhanced:  backend,
	}, opts...)
	if err != nil {
		t.Fatalf("failed to create test engine: %v", err)
	}
	return engine, reasoning, backend, memory
}

// RequireSuccess asserts that a result is the success variant on the given path.
func RequireSuccess(t testing.TB, r *sped.Result, path sped.Path) {
	t.Helper()
	if r == nil {
		t.Fatal("expected result, got nil")
	}
	if r.Failed() {
		t.Fatalf("expected success, got failure: %s", r.Error)
	}
	if r.Path != path {
		t.Fatalf("expected path %s, got %s", path, r.Path)
	}
}

// RequireFailure asserts that a result is the failure variant.
func RequireFailure(t testing.TB, r *sped.Result) {
	t.Helper()
	if r == nil {
		t.Fatal("expected result, got nil")
	}
	if !r.Failed() {
		t.Fatalf("expected failure, got success on path %s", r.Path)
	}
	if r.Error == "" {
		t.Error("expected failure to carry an error message")
	}
	if r.Payload != nil {
		t.Errorf("expected failure without payload, got %v", r.Payload)
	}
}

func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
