package sped

import "github.com/zoobzio/capitan"

// Signal definitions for sped dispatcher events.
// Signals follow the pattern: sped.<entity>.<event>.
var (
	// Engine lifecycle signals.
	EngineInitialized = capitan.NewSignal(
		"sped.engine.initialized",
		"Engine constructed with its resolved mode and resource availability",
	)
	EngineDegraded = capitan.NewSignal(
		"sped.engine.degraded",
		"Enhanced backend failed to initialize; engine runs baseline only",
	)

	// Process signals.
	ProcessStarted = capitan.NewSignal(
		"sped.process.started",
		"Dispatch cycle began and context keys were merged",
	)
	ProcessCompleted = capitan.NewSignal(
		"sped.process.completed",
		"Dispatch cycle produced a success result",
	)
	ProcessFailed = capitan.NewSignal(
		"sped.process.failed",
		"Dispatch cycle produced a failure result",
	)

	// Routing signals.
	PathSelected = capitan.NewSignal(
		"sped.path.selected",
		"Selector chose an execution path from mode and complexity",
	)

	// Memory signals.
	MemoryStored = capitan.NewSignal(
		"sped.memory.stored",
		"Baseline result written to the memory collaborator",
	)
	MemoryLoadUnavailable = capitan.NewSignal(
		"sped.memory.load.unavailable",
		"Live memory load could not be read; reported as unknown",
	)

	// Enhanced path signals.
	MitigationApplied = capitan.NewSignal(
		"sped.mitigation.applied",
		"Error mitigation produced a mitigated circuit",
	)
	CircuitExecuted = capitan.NewSignal(
		"sped.circuit.executed",
		"Enhanced backend returned a measurement",
	)

	// Encoded state signals.
	StateEncoded = capitan.NewSignal(
		"sped.state.encoded",
		"Input features encoded into a prepared state",
	)
	StateStored = capitan.NewSignal(
		"sped.state.stored",
		"Encoded state kept in the state store",
	)
	StateFidelityLow = capitan.NewSignal(
		"sped.state.fidelity.low",
		"Stored state decayed below the fidelity threshold",
	)

	// Provider signals.
	ProviderFallback = capitan.NewSignal(
		"sped.provider.fallback",
		"Synapse fell back to the global provider",
	)

	// Evolution hook signals.
	HookTracked = capitan.NewSignal(
		"sped.hook.tracked",
		"Evolution hook accepted a step record",
	)
	HookFailed = capitan.NewSignal(
		"sped.hook.failed",
		"Evolution hook faulted; result left unchanged",
	)
)

// Field keys for sped event data.
var (
	// Call metadata.
	FieldResultID  = capitan.NewStringKey("result_id")
	FieldInputKind = capitan.NewStringKey("input_kind")
	FieldMode      = capitan.NewStringKey("mode")
	FieldPath      = capitan.NewStringKey("path")
	FieldTier      = capitan.NewStringKey("tier")

	// Scores.
	FieldComplexity   = capitan.NewFloat64Key("complexity")
	FieldConfidence   = capitan.NewFloat64Key("confidence")
	FieldMemoryImpact = capitan.NewFloat64Key("memory_impact")

	// Context.
	FieldContextKeys   = capitan.NewIntKey("context_keys")    // keys in this call
	FieldActiveContext = capitan.NewIntKey("active_contexts") // keys after merge

	// Resource state.
	FieldResourceAvailable = capitan.NewBoolKey("resource_available")

	// Enhanced path.
	FieldCircuitID = capitan.NewStringKey("circuit_id")
	FieldStrategy  = capitan.NewStringKey("strategy")
	FieldResidual  = capitan.NewFloat64Key("residual_error")
	FieldShots     = capitan.NewIntKey("shots")

	// Encoded states.
	FieldScheme    = capitan.NewStringKey("scheme")
	FieldStateID   = capitan.NewStringKey("state_id")
	FieldFidelity  = capitan.NewFloat64Key("fidelity")
	FieldQubits    = capitan.NewIntKey("qubits")
	FieldProtected = capitan.NewBoolKey("protected")

	// Providers.
	FieldProvider  = capitan.NewStringKey("provider")
	FieldOperation = capitan.NewStringKey("operation")

	// Timing.
	FieldDuration = capitan.NewDurationKey("duration")

	// Error information.
	FieldError = capitan.NewErrorKey("error")
)
