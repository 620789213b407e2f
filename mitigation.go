package sped

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zoobzio/capitan"
)

// ErrMitigationBudget is returned when no affordable strategy brings the
// residual error under the budget.
var ErrMitigationBudget = errors.New("mitigation budget exhausted")

// ErrorModel describes one source of enhanced-backend error.
type ErrorModel struct {
	Name      string
	Rate      float64
	Kind      string
	Strategy  string
	Technique string
}

// DefaultErrorModels returns the decoherence, gate and readout models.
func DefaultErrorModels() []ErrorModel {
	return []ErrorModel{
		{Name: "decoherence", Rate: 0.001, Kind: "continuous", Strategy: "dynamical_decoupling", Technique: "CPMG"},
		{Name: "gate_error", Rate: 0.0005, Kind: "discrete", Strategy: "gate_optimization", Technique: "pulse_shaping"},
		{Name: "measurement", Rate: 0.002, Kind: "readout", Strategy: "readout_mitigation", Technique: "symmetric"},
	}
}

// Strategy is a mitigation level with its budget cost and error suppression.
type Strategy struct {
	Name   string
	Cost   float64
	Factor float64
}

// DefaultStrategies are ordered by increasing cost.
func DefaultStrategies() []Strategy {
	return []Strategy{
		{Name: "none", Cost: 0, Factor: 1.0},
		{Name: "measurement", Cost: 0.005, Factor: 0.6},
		{Name: "zne", Cost: 0.015, Factor: 0.3},
		{Name: "pec", Cost: 0.025, Factor: 0.1},
		{Name: "full", Cost: 0.04, Factor: 0.05},
	}
}

// RateReport is the per-model entry of an error-rate analysis.
type RateReport struct {
	Current   float64
	Threshold float64
	Status    string
}

// Mitigator applies error mitigation within a fixed error budget.
type Mitigator struct {
	budget     float64
	models     []ErrorModel
	strategies []Strategy
}

// NewMitigator creates a mitigator. A non-positive budget uses DefaultErrorBudget.
func NewMitigator(budget float64) *Mitigator {
	if budget <= 0 {
		budget = DefaultErrorBudget
	}
	return &Mitigator{
		budget:     budget,
		models:     DefaultErrorModels(),
		strategies: DefaultStrategies(),
	}
}

// Budget returns the error budget.
func (m *Mitigator) Budget() float64 {
	return m.budget
}

// EstimateError sums per-layer decoherence and gate error plus one readout.
func (m *Mitigator) EstimateError(c *Circuit) float64 {
	var total float64
	for _, model := range m.models {
		if model.Kind == "readout" {
			total += model.Rate
			continue
		}
		total += model.Rate * float64(c.Layers)
	}
	return total
}

// Choose returns the most thorough strategy whose cost fits the budget.
func (m *Mitigator) Choose() Strategy {
	chosen := m.strategies[0]
	for _, s := range m.strategies {
		if s.Cost <= m.budget {
			chosen = s
		}
	}
	return chosen
}

// Apply mitigates the circuit and returns a mitigated clone plus a report.
func (m *Mitigator) Apply(ctx context.Context, c *Circuit) (*Circuit, map[string]any, error) {
	if c == nil {
		return nil, nil, fmt.Errorf("%w: nil circuit", ErrInvalidCircuit)
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	strategy := m.Choose()
	estimated := m.EstimateError(c)
	residual := estimated * strategy.Factor

	techniques := make([]map[string]any, 0, len(m.models))
	mitigated := c.Clone()
	for _, model := range m.models {
		mitigated.Mitigations = append(mitigated.Mitigations, model.Strategy)
		techniques = append(techniques, map[string]any{
			"model":     model.Name,
			"method":    model.Strategy,
			"technique": model.Technique,
		})
	}

	report := map[string]any{
		"circuit_id":      c.ID,
		"strategy":        strategy.Name,
		"cost":            strategy.Cost,
		"estimated_error": estimated,
		"residual_error":  residual,
		"techniques":      techniques,
		"timestamp":       time.Now(),
	}

	if residual > m.budget {
		return nil, report, fmt.Errorf("%w: residual %.4f exceeds budget %.4f with strategy %q",
			ErrMitigationBudget, residual, m.budget, strategy.Name)
	}

	capitan.Emit(ctx, MitigationApplied,
		FieldCircuitID.Field(c.ID),
		FieldStrategy.Field(strategy.Name),
		FieldResidual.Field(residual),
	)

	return mitigated, report, nil
}

// AnalyzeErrorRates reports each model's current rate against its threshold.
func (m *Mitigator) AnalyzeErrorRates() map[string]RateReport {
	out := make(map[string]RateReport, len(m.models))
	for _, model := range m.models {
		current := model.Rate * 0.9
		status := "acceptable"
		if current > model.Rate {
			status = "needs_mitigation"
		}
		out[model.Name] = RateReport{Current: current, Threshold: model.Rate, Status: status}
	}
	return out
}
