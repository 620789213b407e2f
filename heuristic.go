package sped

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"reflect"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/zoobzio/capitan"
)

// Heuristic scaling constants.
const (
	heuristicTokenScale = 64 // tokens at which length saturates
	heuristicDepthScale = 4  // nesting depth at which structure saturates
	heuristicSpread     = 8  // tokens at which diversity counts fully
	heuristicLevel      = 2  // optimization level of prepared circuits
	summaryLimit        = 80
)

// Heuristic is a deterministic Reasoning with no external calls.
type Heuristic struct {
	manager *CircuitManager
	encoder *Encoder
	scheme  Scheme
	protect bool
}

// NewHeuristic creates a heuristic reasoner. A nil manager uses DefaultQubits.
// Prepared circuits carry a protected amplitude encoding.
func NewHeuristic(manager *CircuitManager) *Heuristic {
	if manager == nil {
		manager = NewCircuitManager(DefaultQubits)
	}
	return &Heuristic{
		manager: manager,
		encoder: NewEncoder(manager.Qubits()),
		scheme:  DefaultEncoding,
		protect: true,
	}
}

// WithEncoding sets the scheme and error protection of prepared states.
// An empty scheme keeps DefaultEncoding.
func (h *Heuristic) WithEncoding(scheme Scheme, protect bool) *Heuristic {
	if scheme != "" {
		h.scheme = scheme
	}
	h.protect = protect
	return h
}

// AnalyzeComplexity blends token length, token diversity and nesting depth.
func (h *Heuristic) AnalyzeComplexity(ctx context.Context, input any) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	tokens := strings.Fields(render(input))
	length := saturate(float64(len(tokens)), heuristicTokenScale)
	spread := saturate(float64(len(tokens)), heuristicSpread)
	depth := saturate(float64(nesting(input)), heuristicDepthScale)

	c := 0.5*length + 0.3*diversity(tokens)*spread + 0.2*depth
	return math.Min(1, math.Max(0, c)), nil
}

// ProcessClassical summarizes the input. The payload carries no confidence.
func (h *Heuristic) ProcessClassical(ctx context.Context, input any, data map[string]any) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	text := render(input)
	summary := text
	if utf8.RuneCountInString(summary) > summaryLimit {
		summary = string([]rune(summary)[:summaryLimit]) + "..."
	}
	return map[string]any{
		"kind":         "classical",
		"input_kind":   InputKind(input),
		"summary":      summary,
		"tokens":       len(strings.Fields(text)),
		"context_keys": sortedKeys(data),
	}, nil
}

// PrepareRepresentation encodes token buckets and attaches the encoding to
// a learning circuit.
func (h *Heuristic) PrepareRepresentation(ctx context.Context, input any) (*Circuit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f := features(input)
	enc, err := h.encoder.Encode(fold(f, h.encoder.Capacity(h.scheme)), h.scheme, h.protect)
	if err != nil {
		return nil, err
	}
	c, err := h.manager.Create(CircuitLearning, f, heuristicLevel)
	if err != nil {
		return nil, err
	}
	c.Encoding = enc

	capitan.Emit(ctx, StateEncoded,
		FieldCircuitID.Field(c.ID),
		FieldScheme.Field(string(enc.Scheme)),
		FieldQubits.Field(enc.Qubits()),
		FieldProtected.Field(enc.Protection != ""),
		FieldFidelity.Field(enc.Fidelity),
	)
	return c, nil
}

// IntegrateResults reports the measured distribution. Confidence is the
// probability of the dominant state.
func (h *Heuristic) IntegrateResults(ctx context.Context, m *Measurement, data map[string]any) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, errors.New("no measurement to integrate")
	}
	state, p := m.Dominant()
	return map[string]any{
		"kind":           "enhanced",
		"distribution":   m.Distribution(),
		"dominant_state": state,
		ConfidenceKey:    p,
		"shots":          m.Shots,
		"context_keys":   sortedKeys(data),
	}, nil
}

// features hashes tokens into one bucket per basis state. Empty input is
// the ground state.
func features(input any) []float64 {
	out := make([]float64, 1<<maxBasisBits)
	tokens := strings.Fields(strings.ToLower(render(input)))
	if len(tokens) == 0 {
		out[0] = 1
		return out
	}
	for _, tok := range tokens {
		f := fnv.New32a()
		_, _ = f.Write([]byte(tok))
		out[f.Sum32()%uint32(len(out))] += 4 / float64(len(tokens))
	}
	return out
}

// fold sums features onto n buckets when a register cannot hold them all.
func fold(f []float64, n int) []float64 {
	if len(f) <= n {
		return f
	}
	out := make([]float64, n)
	for i, v := range f {
		out[i%n] += v
	}
	return out
}

func render(input any) string {
	switch v := input.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case fmt.Stringer:
		return v.String()
	}
	b, err := json.Marshal(input)
	if err != nil {
		return fmt.Sprint(input)
	}
	return string(b)
}

// nesting returns the structural depth of an input. Text counts bracket depth.
func nesting(input any) int {
	switch v := input.(type) {
	case nil:
		return 0
	case string:
		return bracketDepth(v)
	case []byte:
		return bracketDepth(string(v))
	}
	return valueDepth(reflect.ValueOf(input))
}

func bracketDepth(s string) int {
	depth, deepest := 0, 0
	for _, r := range s {
		switch r {
		case '(', '[', '{':
			depth++
			if depth > deepest {
				deepest = depth
			}
		case ')', ']', '}':
			if depth > 0 {
				depth--
			}
		}
	}
	return deepest
}

func valueDepth(v reflect.Value) int {
	for v.Kind() == reflect.Interface || v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return 0
		}
		v = v.Elem()
	}
	deepest := 0
	switch v.Kind() {
	case reflect.Map:
		iter := v.MapRange()
		for iter.Next() {
			deepest = max(deepest, valueDepth(iter.Value()))
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			deepest = max(deepest, valueDepth(v.Index(i)))
		}
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			if v.Type().Field(i).IsExported() {
				deepest = max(deepest, valueDepth(v.Field(i)))
			}
		}
	default:
		return 0
	}
	return deepest + 1
}

func diversity(tokens []string) float64 {
	if len(tokens) == 0 {
		return 0
	}
	seen := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		seen[strings.ToLower(t)] = struct{}{}
	}
	return float64(len(seen)) / float64(len(tokens))
}

func saturate(v, scale float64) float64 {
	return math.Min(1, v/scale)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
