package sped

import (
	"context"
	"fmt"
	"time"

	"github.com/zoobzio/clockz"
	"github.com/zoobzio/pipz"
)

// Identities for the enhanced path.
var (
	EnhancedID       = pipz.NewIdentity("sped:enhanced", "Enhanced path guarded by breaker and timeout")
	EnhancedStagesID = pipz.NewIdentity("sped:enhanced-stages", "Prepare, mitigate, execute, integrate")
	BreakerID        = pipz.NewIdentity("sped:enhanced-breaker", "Stops calling a failing enhanced backend")
	TimeoutID        = pipz.NewIdentity("sped:enhanced-timeout", "Bounds a single enhanced execution")
	PrepareID        = pipz.NewIdentity("sped:prepare", "Derive a circuit from the input")
	MitigateID       = pipz.NewIdentity("sped:mitigate", "Apply error mitigation to the circuit")
	ExecuteID        = pipz.NewIdentity("sped:execute", "Run the mitigated circuit")
	IntegrateID      = pipz.NewIdentity("sped:integrate", "Fold the measurement back into a payload")
)

// enhancedConfig holds the reliability settings of the enhanced path.
type enhancedConfig struct {
	shots    int
	timeout  time.Duration
	failures int
	recovery time.Duration
	clock    clockz.Clock
}

// newEnhancedPath builds the four-stage enhanced pipeline.
// Stage faults are returned, never swallowed.
func newEnhancedPath(reasoning Reasoning, backend EnhancedBackend, cfg enhancedConfig) pipz.Chainable[*Call] {
	stages := pipz.NewSequence(EnhancedStagesID,
		pipz.Apply(PrepareID, func(ctx context.Context, c *Call) (*Call, error) {
			circuit, err := reasoning.PrepareRepresentation(ctx, c.Input)
			if err != nil {
				return c, fmt.Errorf("enhanced: prepare failed: %w", err)
			}
			c.Circuit = circuit
			return c, nil
		}),
		pipz.Apply(MitigateID, func(ctx context.Context, c *Call) (*Call, error) {
			mitigated, report, err := backend.ApplyErrorMitigation(ctx, c.Circuit)
			if err != nil {
				return c, fmt.Errorf("enhanced: mitigation failed: %w", err)
			}
			c.Mitigated = mitigated
			c.Mitigation = report
			return c, nil
		}),
		pipz.Apply(ExecuteID, func(ctx context.Context, c *Call) (*Call, error) {
			m, err := backend.ExecuteRepresentation(ctx, c.Mitigated, cfg.shots)
			if err != nil {
				return c, fmt.Errorf("enhanced: execution failed: %w", err)
			}
			c.Measurement = m
			return c, nil
		}),
		pipz.Apply(IntegrateID, func(ctx context.Context, c *Call) (*Call, error) {
			payload, err := reasoning.IntegrateResults(ctx, c.Measurement, c.Context)
			if err != nil {
				return c, fmt.Errorf("enhanced: integration failed: %w", err)
			}
			c.Raw = RawResult{
				Payload:  payload,
				Metadata: enhancedMetadata(c, cfg.shots),
			}
			return c, nil
		}),
	)

	var guarded pipz.Chainable[*Call] = stages
	if cfg.timeout > 0 {
		guarded = pipz.NewTimeout(TimeoutID, guarded, cfg.timeout).WithClock(cfg.clock)
	}
	if cfg.failures > 0 {
		guarded = pipz.NewCircuitBreaker(BreakerID, guarded, cfg.failures, cfg.recovery).WithClock(cfg.clock)
	}
	return pipz.NewSequence(EnhancedID, guarded)
}

func enhancedMetadata(c *Call, shots int) map[string]any {
	meta := map[string]any{
		"shots":      shots,
		"mitigation": c.Mitigation,
	}
	if c.Mitigated != nil {
		meta["circuit_id"] = c.Mitigated.ID
		meta["circuit_kind"] = c.Mitigated.Kind
		meta["qubits"] = c.Mitigated.Qubits
		meta["layers"] = c.Mitigated.Layers
		if enc := c.Mitigated.Encoding; enc != nil {
			meta["encoding"] = string(enc.Scheme)
			meta["encoding_fidelity"] = enc.Fidelity
			meta["encoding_qubits"] = enc.Qubits()
			if enc.Protection != "" {
				meta["error_protection"] = enc.Protection
			}
		}
	}
	if c.Measurement != nil {
		meta["basis"] = c.Measurement.Basis
		if c.Measurement.StateID != "" {
			meta["state_id"] = c.Measurement.StateID
		}
	}
	return meta
}
