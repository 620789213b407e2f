package sped

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
	"github.com/zoobzio/pipz"
)

// Identities for the dispatch pipeline.
var (
	EngineID     = pipz.NewIdentity("sped:engine", "Adaptive processing dispatcher")
	DispatchID   = pipz.NewIdentity("sped:dispatch", "Complexity, selection, execution, scoring")
	ComplexityID = pipz.NewIdentity("sped:complexity", "Estimate input complexity")
	SelectID     = pipz.NewIdentity("sped:select", "Choose an execution path")
	PathSwitchID = pipz.NewIdentity("sped:paths", "Route to the chosen path")
	ScoreID      = pipz.NewIdentity("sped:score", "Derive result confidence")
)

// Config holds the collaborators and settings of an Engine.
type Config struct {
	Settings  Settings
	Reasoning Reasoning
	Memory    Memory

	// Enhanced is optional. Without it every call takes the baseline path.
	Enhanced EnhancedBackend

	// Hook is optional.
	Hook EvolutionHook
}

// Option configures an Engine at construction.
type Option func(*Engine)

// WithHook sets the evolution hook, replacing Config.Hook.
func WithHook(h EvolutionHook) Option {
	return func(e *Engine) { e.hook = h }
}

// WithClock sets the clock used for timestamps and the enhanced path guards.
func WithClock(c clockz.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithThresholds overrides the adaptive selector thresholds.
func WithThresholds(t Thresholds) Option {
	return func(e *Engine) { e.selector = NewSelector(t) }
}

// WithShots sets the shot count passed to the enhanced backend.
func WithShots(n int) Option {
	return func(e *Engine) { e.shots = n }
}

// WithTimeout bounds each enhanced path execution.
// A non-positive duration disables the timeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

// WithCircuitBreaker configures the enhanced path breaker.
// A non-positive failure count disables the breaker.
func WithCircuitBreaker(failures int, recovery time.Duration) Option {
	return func(e *Engine) {
		e.failures = failures
		e.recovery = recovery
	}
}

// WithHistoryLimit caps the state history archive.
func WithHistoryLimit(n int) Option {
	return func(e *Engine) { e.historyLimit = n }
}

// Engine is the adaptive processing dispatcher.
// It is safe for concurrent use; state commits are serialized while path
// execution runs in parallel.
type Engine struct {
	reasoning Reasoning
	memory    Memory
	enhanced  EnhancedBackend
	hook      EvolutionHook
	clock     clockz.Clock
	selector  Selector

	shots        int
	timeout      time.Duration
	failures     int
	recovery     time.Duration
	historyLimit int

	mu       sync.RWMutex
	state    *engineState
	history  *history
	pipeline *pipz.Pipeline[*Call]
}

// New builds an engine.
//
// When the settings enable the enhanced resource and the backend implements
// Initializer, it is initialized here. An initialization failure or panic
// does not abort construction: the engine emits EngineDegraded and runs on
// the baseline path for its whole lifetime.
func New(cfg Config, opts ...Option) (*Engine, error) {
	if cfg.Reasoning == nil {
		return nil, ErrNoReasoning
	}
	if cfg.Memory == nil {
		return nil, ErrNoMemory
	}

	s := cfg.Settings
	e := &Engine{
		reasoning:    cfg.Reasoning,
		memory:       cfg.Memory,
		enhanced:     cfg.Enhanced,
		hook:         cfg.Hook,
		clock:        clockz.RealClock,
		selector:     NewSelector(orDefaultThresholds(s.Thresholds)),
		shots:        orDefault(s.Shots, DefaultShots),
		timeout:      orDefault(s.Timeout, DefaultEnhancedTimeout),
		failures:     orDefault(s.Breaker.Failures, DefaultBreakerFailures),
		recovery:     orDefault(s.Breaker.Recovery, DefaultBreakerRecovery),
		historyLimit: orDefault(s.HistoryLimit, DefaultHistoryLimit),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.clock == nil {
		e.clock = clockz.RealClock
	}
	if e.shots <= 0 {
		e.shots = DefaultShots
	}

	ctx := context.Background()
	available := s.QuantumEnabled && e.enhanced != nil
	if available {
		if init, ok := e.enhanced.(Initializer); ok {
			if err := initialize(ctx, init); err != nil {
				available = false
				capitan.Warn(ctx, EngineDegraded,
					FieldMode.Field(s.Mode.String()),
					FieldError.Field(err),
				)
			}
		}
	}

	e.state = newEngineState(s.Mode, available)
	e.history = newHistory(e.historyLimit)
	e.pipeline = e.buildPipeline()

	capitan.Emit(ctx, EngineInitialized,
		FieldMode.Field(s.Mode.String()),
		FieldResourceAvailable.Field(available),
	)

	return e, nil
}

// initialize runs backend bring-up, converting a panic into an error.
func initialize(ctx context.Context, init Initializer) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("enhanced backend initialization panicked: %v", r)
		}
	}()
	if err := init.Initialize(ctx); err != nil {
		return fmt.Errorf("enhanced backend initialization failed: %w", err)
	}
	return nil
}

func (e *Engine) buildPipeline() *pipz.Pipeline[*Call] {
	paths := pipz.NewSwitch(PathSwitchID, func(_ context.Context, c *Call) string {
		return c.Selection.Path.String()
	})
	paths.AddRoute(PathBaseline.String(), newBaselinePath(e.reasoning, e.memory))
	if e.enhanced != nil {
		paths.AddRoute(PathEnhanced.String(), newEnhancedPath(e.reasoning, e.enhanced, enhancedConfig{
			shots:    e.shots,
			timeout:  e.timeout,
			failures: e.failures,
			recovery: e.recovery,
			clock:    e.clock,
		}))
	}

	return pipz.NewPipeline(EngineID, pipz.NewSequence(DispatchID,
		pipz.Apply(ComplexityID, e.analyze),
		pipz.Transform(SelectID, e.route),
		paths,
		pipz.Transform(ScoreID, func(_ context.Context, c *Call) *Call {
			c.Confidence = Score(c.Raw)
			return c
		}),
	))
}

func (e *Engine) analyze(ctx context.Context, c *Call) (*Call, error) {
	complexity, err := e.reasoning.AnalyzeComplexity(ctx, c.Input)
	if err != nil {
		return c, fmt.Errorf("complexity analysis failed: %w", err)
	}
	c.Complexity = complexity
	return c, nil
}

func (e *Engine) route(ctx context.Context, c *Call) *Call {
	c.Selection = e.selector.Choose(c.Mode, c.Complexity, c.ResourceAvailable)
	capitan.Emit(ctx, PathSelected,
		FieldResultID.Field(c.ID),
		FieldMode.Field(c.Mode.String()),
		FieldPath.Field(c.Selection.Path.String()),
		FieldTier.Field(c.Selection.Tier.String()),
		FieldComplexity.Field(c.Complexity),
		FieldResourceAvailable.Field(c.ResourceAvailable),
	)
	return c
}

// Process runs one dispatch cycle. It never panics and never returns nil:
// every fault becomes a failed Result.
func (e *Engine) Process(ctx context.Context, input any, data map[string]any) (result *Result) {
	id := uuid.New().String()
	start := e.clock.Now()

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("process panicked: %v", r)
			e.emitFailed(ctx, id, start, err)
			result = failed(id, err, e.clock.Now())
		}
	}()

	// Stamp and merge before anything can fail.
	e.mu.Lock()
	e.state.touch(start)
	active := e.state.merge(data)
	mode := e.state.mode
	available := e.state.resourceAvailable
	e.mu.Unlock()

	capitan.Emit(ctx, ProcessStarted,
		FieldResultID.Field(id),
		FieldInputKind.Field(InputKind(input)),
		FieldMode.Field(mode.String()),
		FieldContextKeys.Field(len(data)),
		FieldActiveContext.Field(active),
	)

	c := &Call{
		ID:                id,
		Input:             input,
		Context:           data,
		Started:           start,
		Mode:              mode,
		ResourceAvailable: available,
	}

	// c is not read after a failure: a timed-out enhanced stage may still own it.
	c, err := e.pipeline.Process(ctx, c)
	if err != nil {
		err = describe(err)
		e.emitFailed(ctx, id, start, err)
		return failed(id, err, e.clock.Now())
	}

	e.mu.Lock()
	e.state.confidence = c.Confidence
	e.history.record(e.state.snapshot(e.state.memoryLoad, e.hook != nil))
	e.mu.Unlock()

	result = succeeded(id, c, e.clock.Now())
	e.notify(ctx, input, result)

	capitan.Emit(ctx, ProcessCompleted,
		FieldResultID.Field(id),
		FieldPath.Field(result.Path.String()),
		FieldTier.Field(result.Tier.String()),
		FieldComplexity.Field(result.Complexity),
		FieldConfidence.Field(result.Confidence),
		FieldDuration.Field(e.clock.Since(start)),
	)
	return result
}

// notify sends the step record to the hook. Faults and panics are
// reported through HookFailed and never reach the caller.
func (e *Engine) notify(ctx context.Context, input any, r *Result) {
	if e.hook == nil {
		return
	}

	step := StepRecord{
		ResultID:     r.ID,
		InputKind:    InputKind(input),
		Path:         r.Path,
		Tier:         r.Tier,
		Confidence:   r.Confidence,
		MemoryImpact: r.MemoryImpact,
		Timestamp:    r.Timestamp,
	}

	err := func() (err error) {
		defer func() {
			if p := recover(); p != nil {
				err = fmt.Errorf("evolution hook panicked: %v", p)
			}
		}()
		return e.hook.TrackStep(ctx, step)
	}()
	if err != nil {
		capitan.Warn(ctx, HookFailed,
			FieldResultID.Field(r.ID),
			FieldError.Field(err),
		)
		return
	}

	capitan.Emit(ctx, HookTracked,
		FieldResultID.Field(r.ID),
		FieldInputKind.Field(step.InputKind),
		FieldPath.Field(step.Path.String()),
	)
}

func (e *Engine) emitFailed(ctx context.Context, id string, start time.Time, err error) {
	capitan.Error(ctx, ProcessFailed,
		FieldResultID.Field(id),
		FieldDuration.Field(e.clock.Since(start)),
		FieldError.Field(err),
	)
}

// State returns a read-only snapshot of the engine. The memory load is
// read live; a failed or panicking read is reported as LoadUnknown.
func (e *Engine) State(ctx context.Context) Snapshot {
	load, err := e.readLoad(ctx)
	if err != nil {
		capitan.Warn(ctx, MemoryLoadUnavailable, FieldError.Field(err))

		e.mu.RLock()
		defer e.mu.RUnlock()
		return e.state.snapshot(LoadUnknown, e.hook != nil)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.memoryLoad = load
	return e.state.snapshot(load, e.hook != nil)
}

func (e *Engine) readLoad(ctx context.Context) (load float64, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("memory load panicked: %v", p)
		}
	}()
	return e.memory.Load(ctx)
}

// History returns the snapshots recorded after each successful call, oldest
// first. Their memory load is the last one State read, or LoadUnknown.
func (e *Engine) History() []Snapshot {
	return e.history.all()
}

// Identity returns the engine identity.
func (e *Engine) Identity() pipz.Identity {
	return EngineID
}

// Schema returns the dispatch pipeline tree.
func (e *Engine) Schema() pipz.Node {
	return e.pipeline.Schema()
}

// Close releases the pipeline.
func (e *Engine) Close() error {
	return e.pipeline.Close()
}

// describe flattens a pipeline error into "stage -> stage: cause".
func describe(err error) error {
	var pe *pipz.Error[*Call]
	if !errors.As(err, &pe) {
		return err
	}
	names := make([]string, 0, len(pe.Path))
	for _, id := range pe.Path {
		names = append(names, id.Name())
	}
	verb := ""
	if pe.Timeout {
		verb = " timed out"
	} else if pe.Canceled {
		verb = " canceled"
	}
	return fmt.Errorf("%s%s: %w", strings.Join(names, " -> "), verb, pe.Err)
}

func orDefault[T int | time.Duration](v, def T) T {
	if v <= 0 {
		return def
	}
	return v
}

func orDefaultThresholds(t Thresholds) Thresholds {
	if t == (Thresholds{}) {
		return DefaultThresholds
	}
	return t
}
