package sped

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/zoobzio/zyn"
)

// ComplexityEstimate is the structured answer of the complexity synapse.
type ComplexityEstimate struct {
	Score     float64 `json:"score"`
	Rationale string  `json:"rationale"`
}

// Validate implements zyn.Validator.
func (c ComplexityEstimate) Validate() error {
	if c.Score < 0 || c.Score > 1 {
		return fmt.Errorf("score must be 0-1, got %f", c.Score)
	}
	return nil
}

// Synapse is an LLM-backed Reasoning built on zyn.
// Circuit preparation is delegated to the embedded Heuristic.
type Synapse struct {
	*Heuristic
	provider              Provider
	complexityTemperature float32
	processingTemperature float32
}

// NewSynapse creates an LLM-backed reasoner. A nil heuristic uses NewHeuristic(nil).
//
// Provider resolution follows ResolveProvider: the synapse provider, then
// the context provider, then the global provider. Each global fallback
// emits ProviderFallback with the operation that needed it.
//
// Example:
//
//	reasoning := sped.NewSynapse(nil).WithProvider(provider)
//	engine, err := sped.New(sped.Config{Reasoning: reasoning, Memory: sped.NewMemoryStore(0)})
func NewSynapse(h *Heuristic) *Synapse {
	if h == nil {
		h = NewHeuristic(nil)
	}
	return &Synapse{
		Heuristic:             h,
		complexityTemperature: DefaultComplexityTemperature,
		processingTemperature: DefaultProcessingTemperature,
	}
}

// WithProvider sets the provider for this synapse.
func (s *Synapse) WithProvider(p Provider) *Synapse {
	s.provider = p
	return s
}

// WithComplexityTemperature sets the temperature of complexity estimation.
func (s *Synapse) WithComplexityTemperature(t float32) *Synapse {
	s.complexityTemperature = t
	return s
}

// WithProcessingTemperature sets the temperature of processing and integration.
func (s *Synapse) WithProcessingTemperature(t float32) *Synapse {
	s.processingTemperature = t
	return s
}

// AnalyzeComplexity asks the provider for a complexity score.
func (s *Synapse) AnalyzeComplexity(ctx context.Context, input any) (float64, error) {
	provider, err := s.resolve(ctx, "complexity")
	if err != nil {
		return 0, fmt.Errorf("synapse: complexity: %w", err)
	}

	extract, err := zyn.Extract[ComplexityEstimate]("input complexity score between 0 and 1 with rationale", provider)
	if err != nil {
		return 0, fmt.Errorf("synapse: failed to create extract synapse: %w", err)
	}

	estimate, err := extract.FireWithInput(ctx, zyn.NewSession(), zyn.ExtractionInput{
		Text:        render(input),
		Context:     "Score how hard the input is to process. 0 is trivial, 1 is maximally complex.",
		Temperature: s.complexityTemperature,
	})
	if err != nil {
		return 0, fmt.Errorf("synapse: extract synapse execution failed: %w", err)
	}
	return estimate.Score, nil
}

// ProcessClassical answers the input directly. The payload carries the
// provider's confidence.
func (s *Synapse) ProcessClassical(ctx context.Context, input any, data map[string]any) (map[string]any, error) {
	resp, err := s.transform(ctx, "classical",
		"Process the input and produce a direct, complete answer",
		render(input),
		renderContext(data),
	)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"kind":         "classical",
		"input_kind":   InputKind(input),
		"output":       resp.Output,
		ConfidenceKey:  resp.Confidence,
		"reasoning":    resp.Reasoning,
		"context_keys": sortedKeys(data),
	}, nil
}

// IntegrateResults interprets a measurement in light of the call context.
func (s *Synapse) IntegrateResults(ctx context.Context, m *Measurement, data map[string]any) (map[string]any, error) {
	base, err := s.Heuristic.IntegrateResults(ctx, m, data)
	if err != nil {
		return nil, err
	}

	summary, err := json.Marshal(map[string]any{
		"distribution":   base["distribution"],
		"dominant_state": base["dominant_state"],
		"shots":          base["shots"],
	})
	if err != nil {
		return nil, fmt.Errorf("synapse: failed to marshal measurement: %w", err)
	}

	resp, err := s.transform(ctx, "integrate",
		"Interpret the measured outcome distribution as an answer to the original request",
		string(summary),
		renderContext(data),
	)
	if err != nil {
		return nil, err
	}

	base["output"] = resp.Output
	base["reasoning"] = resp.Reasoning
	base[ConfidenceKey] = resp.Confidence
	return base, nil
}

func (s *Synapse) transform(ctx context.Context, operation, instruction, text, background string) (*zyn.TransformResponse, error) {
	provider, err := s.resolve(ctx, operation)
	if err != nil {
		return nil, fmt.Errorf("synapse: %s: %w", operation, err)
	}

	synapse, err := zyn.Transform(instruction, provider)
	if err != nil {
		return nil, fmt.Errorf("synapse: failed to create transform synapse: %w", err)
	}

	resp, err := synapse.FireWithInputDetails(ctx, zyn.NewSession(), zyn.TransformInput{
		Text:        text,
		Context:     background,
		Temperature: s.processingTemperature,
	})
	if err != nil {
		return nil, fmt.Errorf("synapse: transform synapse execution failed: %w", err)
	}
	if resp == nil {
		return nil, errors.New("synapse: empty transform response")
	}
	return resp, nil
}

// renderContext formats call context as "key: value" lines in key order.
func renderContext(data map[string]any) string {
	if len(data) == 0 {
		return ""
	}
	var b strings.Builder
	for i, k := range sortedKeys(data) {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s: %s", k, render(data[k]))
	}
	return b.String()
}
