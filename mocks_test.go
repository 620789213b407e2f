package sped

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/zoobzio/clockz"
)

// counter tracks method invocations on test doubles.
type counter struct {
	mu    sync.Mutex
	calls map[string]int
}

func (c *counter) inc(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.calls == nil {
		c.calls = make(map[string]int)
	}
	c.calls[name]++
}

func (c *counter) count(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[name]
}

// mockReasoning returns fixed answers; set an error field to make a method fail.
type mockReasoning struct {
	counter

	complexity     float64
	payload        map[string]any
	integrated     map[string]any
	complexityErr  error
	classicalErr   error
	prepareErr     error
	integrateErr   error
	classicalPanic any
}

func newMockReasoning(complexity float64) *mockReasoning {
	return &mockReasoning{
		complexity: complexity,
		payload:    map[string]any{"answer": "baseline"},
		integrated: map[string]any{"answer": "enhanced"},
	}
}

func (m *mockReasoning) AnalyzeComplexity(_ context.Context, _ any) (float64, error) {
	m.inc("AnalyzeComplexity")
	return m.complexity, m.complexityErr
}

func (m *mockReasoning) ProcessClassical(_ context.Context, _ any, _ map[string]any) (map[string]any, error) {
	m.inc("ProcessClassical")
	if m.classicalPanic != nil {
		panic(m.classicalPanic)
	}
	if m.classicalErr != nil {
		return nil, m.classicalErr
	}
	out := make(map[string]any, len(m.payload))
	for k, v := range m.payload {
		out[k] = v
	}
	return out, nil
}

func (m *mockReasoning) PrepareRepresentation(_ context.Context, _ any) (*Circuit, error) {
	m.inc("PrepareRepresentation")
	if m.prepareErr != nil {
		return nil, m.prepareErr
	}
	return NewCircuitManager(0).Create(CircuitLearning, []float64{1, 0.5}, 1)
}

func (m *mockReasoning) IntegrateResults(_ context.Context, _ *Measurement, _ map[string]any) (map[string]any, error) {
	m.inc("IntegrateResults")
	if m.integrateErr != nil {
		return nil, m.integrateErr
	}
	out := make(map[string]any, len(m.integrated))
	for k, v := range m.integrated {
		out[k] = v
	}
	return out, nil
}

// mockBackend is an EnhancedBackend and Initializer.
type mockBackend struct {
	counter

	initErr     error
	initPanic   any
	mitigateErr error
	executeErr  error
	block       bool
	shots       int
}

func (m *mockBackend) Initialize(_ context.Context) error {
	m.inc("Initialize")
	if m.initPanic != nil {
		panic(m.initPanic)
	}
	return m.initErr
}

func (m *mockBackend) ApplyErrorMitigation(_ context.Context, c *Circuit) (*Circuit, map[string]any, error) {
	m.inc("ApplyErrorMitigation")
	if m.mitigateErr != nil {
		return nil, nil, m.mitigateErr
	}
	return c.Clone(), map[string]any{"strategy": "mock"}, nil
}

func (m *mockBackend) ExecuteRepresentation(ctx context.Context, c *Circuit, shots int) (*Measurement, error) {
	m.inc("ExecuteRepresentation")
	m.mu.Lock()
	m.shots = shots
	m.mu.Unlock()
	if m.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if m.executeErr != nil {
		return nil, m.executeErr
	}
	return &Measurement{CircuitID: c.ID, Shots: shots, Basis: 2, Counts: map[string]int{"0": shots}}, nil
}

func (m *mockBackend) lastShots() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shots
}

// plainBackend has no Initialize method.
type plainBackend struct {
	counter
}

func (p *plainBackend) ApplyErrorMitigation(_ context.Context, c *Circuit) (*Circuit, map[string]any, error) {
	p.inc("ApplyErrorMitigation")
	return c.Clone(), map[string]any{"strategy": "plain"}, nil
}

func (p *plainBackend) ExecuteRepresentation(_ context.Context, c *Circuit, shots int) (*Measurement, error) {
	p.inc("ExecuteRepresentation")
	return &Measurement{CircuitID: c.ID, Shots: shots, Basis: 2, Counts: map[string]int{"1": shots}}, nil
}

type mockMemory struct {
	counter

	impact    float64
	load      float64
	storeErr  error
	loadErr   error
	loadPanic any
}

func newMockMemory() *mockMemory {
	return &mockMemory{impact: 0.001, load: 0.25}
}

func (m *mockMemory) StoreResult(_ context.Context, _ map[string]any) (float64, error) {
	m.inc("StoreResult")
	if m.storeErr != nil {
		return 0, m.storeErr
	}
	return m.impact, nil
}

func (m *mockMemory) Load(_ context.Context) (float64, error) {
	m.inc("Load")
	if m.loadPanic != nil {
		panic(m.loadPanic)
	}
	if m.loadErr != nil {
		return 0, m.loadErr
	}
	return m.load, nil
}

// settableClock is a clock that may be moved in either direction.
type settableClock struct {
	clockz.Clock
	mu  sync.Mutex
	now time.Time
}

func newSettableClock(t time.Time) *settableClock {
	return &settableClock{Clock: clockz.RealClock, now: t}
}

func (c *settableClock) set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *settableClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *settableClock) Since(t time.Time) time.Duration {
	return c.Now().Sub(t)
}

// newTestEngine builds an engine over the given doubles with the enhanced
// resource enabled.
func newTestEngine(t testing.TB, mode Mode, r Reasoning, b EnhancedBackend, m Memory, opts ...Option) *Engine {
	t.Helper()
	settings := DefaultSettings()
	settings.Mode = mode
	e, err := New(Config{Settings: settings, Reasoning: r, Memory: m, Enhanced: b}, opts...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return e
}
