package sped

import (
	"context"
	"errors"
)

// ErrNoReasoning is returned when an engine is built without a Reasoning collaborator.
var ErrNoReasoning = errors.New("no reasoning collaborator configured")

// Reasoning is the computation collaborator of the dispatcher.
// The engine never interprets payloads; it only routes them.
type Reasoning interface {
	// AnalyzeComplexity estimates input difficulty in [0,1].
	AnalyzeComplexity(ctx context.Context, input any) (float64, error)

	// ProcessClassical is the baseline computation.
	ProcessClassical(ctx context.Context, input any, context map[string]any) (map[string]any, error)

	// PrepareRepresentation stages the input for the enhanced backend.
	PrepareRepresentation(ctx context.Context, input any) (*Circuit, error)

	// IntegrateResults turns enhanced output back into a payload.
	IntegrateResults(ctx context.Context, output *Measurement, context map[string]any) (map[string]any, error)
}

// EnhancedBackend is the resource-constrained execution collaborator.
type EnhancedBackend interface {
	// ApplyErrorMitigation returns a mitigated circuit plus a report.
	// It may fault when the mitigation budget is exhausted.
	ApplyErrorMitigation(ctx context.Context, c *Circuit) (*Circuit, map[string]any, error)

	// ExecuteRepresentation runs the circuit and returns raw output.
	ExecuteRepresentation(ctx context.Context, c *Circuit, shots int) (*Measurement, error)
}

// Initializer is implemented by enhanced backends that need bring-up.
// A failure during construction degrades the engine to baseline only.
type Initializer interface {
	Initialize(ctx context.Context) error
}
