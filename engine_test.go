package sped

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/zoobzio/clockz"
	"github.com/zoobzio/pipz"
)

func TestNew_RequiresCollaborators(t *testing.T) {
	if _, err := New(Config{Memory: newMockMemory()}); !errors.Is(err, ErrNoReasoning) {
		t.Errorf("expected ErrNoReasoning, got %v", err)
	}
	if _, err := New(Config{Reasoning: newMockReasoning(0)}); !errors.Is(err, ErrNoMemory) {
		t.Errorf("expected ErrNoMemory, got %v", err)
	}
}

func TestNew_ResourceAvailability(t *testing.T) {
	ctx := context.Background()

	t.Run("initialized backend is available", func(t *testing.T) {
		backend := &mockBackend{}
		e := newTestEngine(t, ModeAdaptive, newMockReasoning(0), backend, newMockMemory())
		if !e.State(ctx).ResourceAvailable {
			t.Error("expected resource available")
		}
		if backend.count("Initialize") != 1 {
			t.Errorf("expected 1 Initialize call, got %d", backend.count("Initialize"))
		}
	})

	t.Run("backend without Initialize is available", func(t *testing.T) {
		e := newTestEngine(t, ModeAdaptive, newMockReasoning(0), &plainBackend{}, newMockMemory())
		if !e.State(ctx).ResourceAvailable {
			t.Error("expected resource available")
		}
	})

	t.Run("no backend", func(t *testing.T) {
		e := newTestEngine(t, ModeQuantum, newMockReasoning(0), nil, newMockMemory())
		if e.State(ctx).ResourceAvailable {
			t.Error("expected resource unavailable without a backend")
		}
	})

	t.Run("disabled in settings", func(t *testing.T) {
		backend := &mockBackend{}
		settings := DefaultSettings()
		settings.QuantumEnabled = false
		e, err := New(Config{Settings: settings, Reasoning: newMockReasoning(0), Memory: newMockMemory(), Enhanced: backend})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if e.State(ctx).ResourceAvailable {
			t.Error("expected resource unavailable when disabled")
		}
		if backend.count("Initialize") != 0 {
			t.Error("expected Initialize not to be called when disabled")
		}
	})

	t.Run("zero settings", func(t *testing.T) {
		e, err := New(Config{Reasoning: newMockReasoning(0), Memory: newMockMemory(), Enhanced: &mockBackend{}})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		s := e.State(ctx)
		if s.Mode != ModeClassical {
			t.Errorf("expected classical mode, got %v", s.Mode)
		}
		if s.ResourceAvailable {
			t.Error("expected resource unavailable with zero settings")
		}
	})
}

func TestNew_InitializationFailureDegrades(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		backend *mockBackend
	}{
		{"error", &mockBackend{initErr: errors.New("no device")}},
		{"panic", &mockBackend{initPanic: "driver crashed"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reasoning := newMockReasoning(0.9)
			e := newTestEngine(t, ModeAdaptive, reasoning, tt.backend, newMockMemory())

			if e.State(ctx).ResourceAvailable {
				t.Fatal("expected resource unavailable after failed initialization")
			}

			r := e.Process(ctx, "x", nil)
			if r.Failed() {
				t.Fatalf("expected success, got %s", r.Error)
			}
			if r.Path != PathBaseline {
				t.Errorf("expected baseline path, got %v", r.Path)
			}
			if tt.backend.count("ExecuteRepresentation") != 0 {
				t.Error("expected enhanced backend never to execute")
			}
			if reasoning.count("PrepareRepresentation") != 0 {
				t.Error("expected no representation to be prepared")
			}
		})
	}
}

func TestProcess_Classical(t *testing.T) {
	ctx := context.Background()

	t.Run("default confidence", func(t *testing.T) {
		reasoning := newMockReasoning(0.9)
		backend := &mockBackend{}
		memory := newMockMemory()
		e := newTestEngine(t, ModeClassical, reasoning, backend, memory)

		r := e.Process(ctx, "hello", map[string]any{"domain": "test"})
		if r.Failed() {
			t.Fatalf("expected success, got %s", r.Error)
		}
		if r.Path != PathBaseline || r.Tier != TierBaseline {
			t.Errorf("expected baseline path and tier, got %v/%v", r.Path, r.Tier)
		}
		if r.Confidence != DefaultConfidence {
			t.Errorf("expected confidence %v, got %v", DefaultConfidence, r.Confidence)
		}
		if r.MemoryImpact == nil || *r.MemoryImpact != 0.001 {
			t.Errorf("expected memory impact 0.001, got %v", r.MemoryImpact)
		}
		if r.EnhancedMetadata != nil {
			t.Errorf("expected no enhanced metadata, got %v", r.EnhancedMetadata)
		}
		if r.Payload["answer"] != "baseline" {
			t.Errorf("unexpected payload: %v", r.Payload)
		}
		if r.ID == "" {
			t.Error("expected a result id")
		}
		if reasoning.count("ProcessClassical") != 1 || memory.count("StoreResult") != 1 {
			t.Error("expected one classical computation and one store")
		}
		if backend.count("ExecuteRepresentation") != 0 {
			t.Error("expected classical mode to ignore the enhanced backend")
		}

		s := e.State(ctx)
		if s.Confidence != DefaultConfidence {
			t.Errorf("expected state confidence %v, got %v", DefaultConfidence, s.Confidence)
		}
		if !s.HasContext("domain") {
			t.Errorf("expected domain in active contexts, got %v", s.ActiveContexts)
		}
	})

	t.Run("payload confidence", func(t *testing.T) {
		reasoning := newMockReasoning(0.1)
		reasoning.payload = map[string]any{"confidence": 0.93}
		e := newTestEngine(t, ModeClassical, reasoning, nil, newMockMemory())

		r := e.Process(ctx, "hello", nil)
		if r.Confidence != 0.93 {
			t.Errorf("expected confidence 0.93, got %v", r.Confidence)
		}
	})
}

func TestProcess_Enhanced(t *testing.T) {
	ctx := context.Background()
	reasoning := newMockReasoning(0.9)
	backend := &mockBackend{}
	memory := newMockMemory()
	e := newTestEngine(t, ModeAdaptive, reasoning, backend, memory)

	r := e.Process(ctx, "a hard problem", nil)
	if r.Failed() {
		t.Fatalf("expected success, got %s", r.Error)
	}
	if r.Path != PathEnhanced || r.Tier != TierEnhanced {
		t.Errorf("expected enhanced path and tier, got %v/%v", r.Path, r.Tier)
	}
	if r.Complexity != 0.9 {
		t.Errorf("expected complexity 0.9, got %v", r.Complexity)
	}
	if r.MemoryImpact != nil {
		t.Error("expected no memory impact on the enhanced path")
	}
	if r.Payload["answer"] != "enhanced" {
		t.Errorf("unexpected payload: %v", r.Payload)
	}
	if r.EnhancedMetadata["shots"] != DefaultShots {
		t.Errorf("expected shots %d in metadata, got %v", DefaultShots, r.EnhancedMetadata["shots"])
	}
	if _, ok := r.EnhancedMetadata["mitigation"]; !ok {
		t.Error("expected mitigation report in metadata")
	}
	if backend.lastShots() != DefaultShots {
		t.Errorf("expected backend to receive %d shots, got %d", DefaultShots, backend.lastShots())
	}
	if memory.count("StoreResult") != 0 {
		t.Error("expected no store on the enhanced path")
	}
}

func TestProcess_HybridTier(t *testing.T) {
	ctx := context.Background()

	t.Run("with resource", func(t *testing.T) {
		e := newTestEngine(t, ModeAdaptive, newMockReasoning(0.5), &mockBackend{}, newMockMemory())
		r := e.Process(ctx, "x", nil)
		if r.Path != PathEnhanced || r.Tier != TierHybrid {
			t.Errorf("expected enhanced/hybrid, got %v/%v", r.Path, r.Tier)
		}
	})

	t.Run("without resource", func(t *testing.T) {
		e := newTestEngine(t, ModeAdaptive, newMockReasoning(0.5), &mockBackend{initErr: errors.New("down")}, newMockMemory())
		r := e.Process(ctx, "x", nil)
		if r.Path != PathBaseline || r.Tier != TierHybrid {
			t.Errorf("expected baseline/hybrid, got %v/%v", r.Path, r.Tier)
		}
	})
}

func TestProcess_ContextAccumulation(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, ModeClassical, newMockReasoning(0), nil, newMockMemory())

	e.Process(ctx, "x", map[string]any{"a": 1})
	e.Process(ctx, "y", map[string]any{"a": 2, "b": 3})

	got := e.State(ctx).ActiveContexts
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("expected [a b], got %v", got)
	}
}

func TestProcess_ContextMergedOnFailure(t *testing.T) {
	ctx := context.Background()
	reasoning := newMockReasoning(0)
	reasoning.complexityErr = errors.New("unparseable")
	e := newTestEngine(t, ModeAdaptive, reasoning, &mockBackend{}, newMockMemory())

	r := e.Process(ctx, "x", map[string]any{"tenant": "acme"})
	if !r.Failed() {
		t.Fatal("expected failure")
	}
	if !e.State(ctx).HasContext("tenant") {
		t.Error("expected context keys to be merged before the failure")
	}
}

func TestProcess_LastUpdateMonotonic(t *testing.T) {
	ctx := context.Background()
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("advances with the clock", func(t *testing.T) {
		clock := clockz.NewFakeClockAt(t0)
		e := newTestEngine(t, ModeClassical, newMockReasoning(0), nil, newMockMemory(), WithClock(clock))

		e.Process(ctx, "x", nil)
		if got := e.State(ctx).LastUpdate; !got.Equal(t0) {
			t.Errorf("expected last update %v, got %v", t0, got)
		}

		clock.Advance(time.Minute)
		e.Process(ctx, "y", nil)
		if got := e.State(ctx).LastUpdate; !got.Equal(t0.Add(time.Minute)) {
			t.Errorf("expected last update %v, got %v", t0.Add(time.Minute), got)
		}
	})

	t.Run("never moves backwards", func(t *testing.T) {
		clock := newSettableClock(t0)
		e := newTestEngine(t, ModeClassical, newMockReasoning(0), nil, newMockMemory(), WithClock(clock))

		e.Process(ctx, "x", nil)
		clock.set(t0.Add(-time.Hour))
		e.Process(ctx, "y", nil)

		if got := e.State(ctx).LastUpdate; !got.Equal(t0) {
			t.Errorf("expected last update to stay at %v, got %v", t0, got)
		}
	})
}

func TestProcess_FailureLeavesConfidence(t *testing.T) {
	ctx := context.Background()
	reasoning := newMockReasoning(0)
	reasoning.payload = map[string]any{"confidence": 0.6}
	e := newTestEngine(t, ModeClassical, reasoning, nil, newMockMemory())
	initial := e.State(ctx).Uncertainty

	if r := e.Process(ctx, "x", nil); r.Failed() {
		t.Fatalf("expected success, got %s", r.Error)
	}
	if got := e.State(ctx).Uncertainty; got != initial {
		t.Errorf("expected success to leave uncertainty at %v, got %v", initial, got)
	}

	reasoning.classicalErr = errors.New("boom")
	r := e.Process(ctx, "y", nil)
	if !r.Failed() {
		t.Fatal("expected failure")
	}
	if !strings.Contains(r.Error, "boom") {
		t.Errorf("expected error to carry the cause, got %q", r.Error)
	}
	if r.Payload != nil || r.Confidence != 0 || r.MemoryImpact != nil {
		t.Errorf("expected failure to carry no success fields, got %+v", r)
	}
	if r.Err() == nil {
		t.Error("expected Err to return the failure")
	}

	s := e.State(ctx)
	if s.Confidence != 0.6 {
		t.Errorf("expected confidence to remain 0.6, got %v", s.Confidence)
	}
	if s.Uncertainty != initial {
		t.Errorf("expected failure to leave uncertainty at %v, got %v", initial, s.Uncertainty)
	}
}

func TestProcess_Faults(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		mode    Mode
		setup   func(*mockReasoning, *mockBackend, *mockMemory)
		wantErr string
	}{
		{
			name:    "complexity",
			mode:    ModeAdaptive,
			setup:   func(r *mockReasoning, _ *mockBackend, _ *mockMemory) { r.complexityErr = errors.New("bad input") },
			wantErr: "complexity analysis failed: bad input",
		},
		{
			name:    "store",
			mode:    ModeClassical,
			setup:   func(_ *mockReasoning, _ *mockBackend, m *mockMemory) { m.storeErr = errors.New("disk full") },
			wantErr: "baseline: store failed: disk full",
		},
		{
			name:    "prepare",
			mode:    ModeQuantum,
			setup:   func(r *mockReasoning, _ *mockBackend, _ *mockMemory) { r.prepareErr = errors.New("no encoding") },
			wantErr: "enhanced: prepare failed: no encoding",
		},
		{
			name:    "mitigation",
			mode:    ModeQuantum,
			setup:   func(_ *mockReasoning, b *mockBackend, _ *mockMemory) { b.mitigateErr = ErrMitigationBudget },
			wantErr: "sped:mitigate",
		},
		{
			name:    "execution",
			mode:    ModeQuantum,
			setup:   func(_ *mockReasoning, b *mockBackend, _ *mockMemory) { b.executeErr = errors.New("decohered") },
			wantErr: "enhanced: execution failed: decohered",
		},
		{
			name:    "integration",
			mode:    ModeHybrid,
			setup:   func(r *mockReasoning, _ *mockBackend, _ *mockMemory) { r.integrateErr = errors.New("unreadable") },
			wantErr: "enhanced: integration failed: unreadable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reasoning := newMockReasoning(0.5)
			backend := &mockBackend{}
			memory := newMockMemory()
			tt.setup(reasoning, backend, memory)
			e := newTestEngine(t, tt.mode, reasoning, backend, memory)

			r := e.Process(ctx, "x", nil)
			if !r.Failed() {
				t.Fatal("expected failure")
			}
			if !strings.Contains(r.Error, tt.wantErr) {
				t.Errorf("expected error containing %q, got %q", tt.wantErr, r.Error)
			}
			if r.Timestamp.IsZero() {
				t.Error("expected failure timestamp")
			}
		})
	}
}

func TestProcess_RecoversPanic(t *testing.T) {
	ctx := context.Background()
	reasoning := newMockReasoning(0)
	reasoning.classicalPanic = "nil map"
	e := newTestEngine(t, ModeClassical, reasoning, nil, newMockMemory())

	r := e.Process(ctx, "x", nil)
	if r == nil {
		t.Fatal("expected a result")
	}
	if !r.Failed() {
		t.Fatal("expected failure from panicking reasoning")
	}

	// The engine stays usable.
	reasoning.classicalPanic = nil
	if r := e.Process(ctx, "y", nil); r.Failed() {
		t.Errorf("expected success after recovery, got %s", r.Error)
	}
}

func TestProcess_EnhancedTimeout(t *testing.T) {
	ctx := context.Background()
	backend := &mockBackend{block: true}
	e := newTestEngine(t, ModeQuantum, newMockReasoning(0.9), backend, newMockMemory(),
		WithTimeout(50*time.Millisecond))

	r := e.Process(ctx, "x", nil)
	if !r.Failed() {
		t.Fatal("expected timeout failure")
	}
	if !strings.Contains(r.Error, "timed out") {
		t.Errorf("expected timeout in error, got %q", r.Error)
	}
}

func TestProcess_CircuitBreaker(t *testing.T) {
	ctx := context.Background()
	backend := &mockBackend{executeErr: errors.New("offline")}
	e := newTestEngine(t, ModeQuantum, newMockReasoning(0.9), backend, newMockMemory(),
		WithCircuitBreaker(2, time.Hour))

	for i := 0; i < 4; i++ {
		if r := e.Process(ctx, "x", nil); !r.Failed() {
			t.Fatalf("call %d: expected failure", i)
		}
	}
	if got := backend.count("ExecuteRepresentation"); got != 2 {
		t.Errorf("expected breaker to stop calls after 2 failures, got %d executions", got)
	}

	r := e.Process(ctx, "x", nil)
	if !strings.Contains(r.Error, "circuit breaker is open") {
		t.Errorf("expected open breaker error, got %q", r.Error)
	}
}

func TestProcess_GuardsDisabled(t *testing.T) {
	ctx := context.Background()
	backend := &mockBackend{executeErr: errors.New("offline")}
	e := newTestEngine(t, ModeQuantum, newMockReasoning(0.9), backend, newMockMemory(),
		WithCircuitBreaker(0, 0), WithTimeout(0))

	for i := 0; i < 8; i++ {
		e.Process(ctx, "x", nil)
	}
	if got := backend.count("ExecuteRepresentation"); got != 8 {
		t.Errorf("expected every call to reach the backend, got %d", got)
	}
}

func TestWithShots(t *testing.T) {
	backend := &mockBackend{}
	e := newTestEngine(t, ModeQuantum, newMockReasoning(0.9), backend, newMockMemory(), WithShots(64))

	r := e.Process(context.Background(), "x", nil)
	if r.Failed() {
		t.Fatalf("expected success, got %s", r.Error)
	}
	if backend.lastShots() != 64 {
		t.Errorf("expected 64 shots, got %d", backend.lastShots())
	}
	if r.EnhancedMetadata["shots"] != 64 {
		t.Errorf("expected 64 shots in metadata, got %v", r.EnhancedMetadata["shots"])
	}
}

func TestWithThresholds(t *testing.T) {
	e := newTestEngine(t, ModeAdaptive, newMockReasoning(0.3), &mockBackend{}, newMockMemory(),
		WithThresholds(Thresholds{Enhanced: 0.2, Hybrid: 0.1}))

	r := e.Process(context.Background(), "x", nil)
	if r.Path != PathEnhanced || r.Tier != TierEnhanced {
		t.Errorf("expected enhanced/enhanced with lowered thresholds, got %v/%v", r.Path, r.Tier)
	}
}

func TestProcess_Hook(t *testing.T) {
	ctx := context.Background()

	t.Run("records successful steps", func(t *testing.T) {
		tracker := NewTracker(0)
		e := newTestEngine(t, ModeClassical, newMockReasoning(0), nil, newMockMemory(), WithHook(tracker))

		r := e.Process(ctx, "hello", nil)
		steps := tracker.History()
		if len(steps) != 1 {
			t.Fatalf("expected 1 step, got %d", len(steps))
		}
		if steps[0].ResultID != r.ID || steps[0].InputKind != "text" || steps[0].Path != PathBaseline {
			t.Errorf("unexpected step: %+v", steps[0])
		}
		if !e.State(ctx).EvolutionTracked {
			t.Error("expected evolution tracked with a hook")
		}
	})

	t.Run("failures are not tracked", func(t *testing.T) {
		tracker := NewTracker(0)
		reasoning := newMockReasoning(0)
		reasoning.classicalErr = errors.New("boom")
		e := newTestEngine(t, ModeClassical, reasoning, nil, newMockMemory(), WithHook(tracker))

		e.Process(ctx, "x", nil)
		if len(tracker.History()) != 0 {
			t.Error("expected no step for a failed call")
		}
	})

	t.Run("hook faults do not change the result", func(t *testing.T) {
		hooks := map[string]EvolutionHook{
			"error": HookFunc(func(context.Context, StepRecord) error { return errors.New("tracker down") }),
			"panic": HookFunc(func(context.Context, StepRecord) error { panic("tracker crashed") }),
		}
		for name, hook := range hooks {
			t.Run(name, func(t *testing.T) {
				e := newTestEngine(t, ModeClassical, newMockReasoning(0), nil, newMockMemory(), WithHook(hook))
				r := e.Process(ctx, "x", nil)
				if r.Failed() {
					t.Errorf("expected success despite hook fault, got %s", r.Error)
				}
			})
		}
	})

	t.Run("untracked without hook", func(t *testing.T) {
		e := newTestEngine(t, ModeClassical, newMockReasoning(0), nil, newMockMemory())
		if e.State(ctx).EvolutionTracked {
			t.Error("expected evolution untracked without a hook")
		}
	})
}

func TestState_MemoryLoad(t *testing.T) {
	ctx := context.Background()
	memory := newMockMemory()
	e := newTestEngine(t, ModeClassical, newMockReasoning(0), nil, memory)

	s := e.State(ctx)
	if s.MemoryLoad != 0.25 || !s.LoadKnown() {
		t.Errorf("expected live load 0.25, got %v", s.MemoryLoad)
	}

	memory.load = 0.5
	if got := e.State(ctx).MemoryLoad; got != 0.5 {
		t.Errorf("expected load to be read live, got %v", got)
	}

	memory.loadErr = errors.New("unreachable")
	s = e.State(ctx)
	if s.MemoryLoad != LoadUnknown || s.LoadKnown() {
		t.Errorf("expected unknown load, got %v", s.MemoryLoad)
	}

	// A faulty load never fails processing.
	if r := e.Process(ctx, "x", nil); r.Failed() {
		t.Errorf("expected success with unreadable load, got %s", r.Error)
	}
}

func TestState_LoadPanic(t *testing.T) {
	ctx := context.Background()
	reasoning := newMockReasoning(0)
	reasoning.payload = map[string]any{"confidence": 0.6}
	memory := newMockMemory()
	memory.loadPanic = "driver crashed"
	e := newTestEngine(t, ModeClassical, reasoning, nil, memory)

	s := e.State(ctx)
	if s.MemoryLoad != LoadUnknown {
		t.Errorf("expected unknown load after panic, got %v", s.MemoryLoad)
	}

	r := e.Process(ctx, "x", nil)
	if r.Failed() {
		t.Fatalf("expected success, got %s", r.Error)
	}
	if got := e.State(ctx).Confidence; got != 0.6 {
		t.Errorf("expected committed confidence 0.6, got %v", got)
	}
}

func TestProcess_NoLiveLoad(t *testing.T) {
	ctx := context.Background()
	memory := newMockMemory()
	e := newTestEngine(t, ModeClassical, newMockReasoning(0), nil, memory)

	e.Process(ctx, "x", nil)
	if got := memory.count("Load"); got != 0 {
		t.Errorf("expected Process not to read memory load, got %d reads", got)
	}
	if got := e.History()[0].MemoryLoad; got != LoadUnknown {
		t.Errorf("expected unknown load before any State read, got %v", got)
	}

	e.State(ctx)
	e.Process(ctx, "y", nil)
	if got := e.History()[1].MemoryLoad; got != 0.25 {
		t.Errorf("expected last reported load 0.25, got %v", got)
	}
}

func TestHistory(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, ModeClassical, newMockReasoning(0), nil, newMockMemory(), WithHistoryLimit(3))

	for i := 0; i < 5; i++ {
		e.Process(ctx, "x", map[string]any{fmt.Sprintf("k%d", i): i})
	}

	h := e.History()
	if len(h) != 3 {
		t.Fatalf("expected 3 snapshots, got %d", len(h))
	}
	if len(h[0].ActiveContexts) != 3 || len(h[2].ActiveContexts) != 5 {
		t.Errorf("expected oldest retained snapshot first, got %v then %v", h[0].ActiveContexts, h[2].ActiveContexts)
	}
}

func TestProcess_Concurrent(t *testing.T) {
	ctx := context.Background()
	tracker := NewTracker(0)
	e := newTestEngine(t, ModeAdaptive, newMockReasoning(0.5), &mockBackend{}, newMockMemory(), WithHook(tracker))

	const workers = 16
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r := e.Process(ctx, "x", map[string]any{fmt.Sprintf("k%d", i): i})
			if r.Failed() {
				t.Errorf("worker %d: unexpected failure %s", i, r.Error)
			}
			_ = e.State(ctx)
		}(i)
	}
	wg.Wait()

	if got := len(e.State(ctx).ActiveContexts); got != workers {
		t.Errorf("expected %d active contexts, got %d", workers, got)
	}
	if got := len(tracker.History()); got != workers {
		t.Errorf("expected %d tracked steps, got %d", workers, got)
	}
}

func TestEngine_Schema(t *testing.T) {
	e := newTestEngine(t, ModeAdaptive, newMockReasoning(0), &mockBackend{}, newMockMemory())
	defer e.Close()

	if e.Identity().Name() != "sped:engine" {
		t.Errorf("expected identity sped:engine, got %q", e.Identity().Name())
	}
	schema := e.Schema()
	if schema.Type != "pipeline" {
		t.Errorf("expected pipeline node, got %q", schema.Type)
	}
	flow, ok := schema.Flow.(pipz.PipelineFlow)
	if !ok {
		t.Fatalf("expected pipeline flow, got %T", schema.Flow)
	}
	if flow.Root.Identity.Name() != "sped:dispatch" {
		t.Errorf("expected dispatch root, got %q", flow.Root.Identity.Name())
	}
}
