package sped

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"sort"
	"strconv"

	"github.com/zoobzio/capitan"
)

// ErrResourceUnavailable is returned by a simulator that has been disabled.
var ErrResourceUnavailable = errors.New("enhanced resource unavailable")

// maxBasisBits bounds the sampled register so distributions stay small.
const maxBasisBits = 4

// Measurement is the raw output of an enhanced execution.
type Measurement struct {
	CircuitID string
	StateID   string // set when the executed state was kept
	Shots     int
	Basis     int
	Counts    map[string]int
}

// Distribution returns outcome probabilities.
func (m *Measurement) Distribution() map[string]float64 {
	out := make(map[string]float64, len(m.Counts))
	if m.Shots == 0 {
		return out
	}
	for state, n := range m.Counts {
		out[state] = float64(n) / float64(m.Shots)
	}
	return out
}

// Dominant returns the most frequent outcome and its probability.
// Ties resolve to the lexically smallest state.
func (m *Measurement) Dominant() (string, float64) {
	states := make([]string, 0, len(m.Counts))
	for s := range m.Counts {
		states = append(states, s)
	}
	sort.Strings(states)

	var best string
	bestCount := -1
	for _, s := range states {
		if m.Counts[s] > bestCount {
			best, bestCount = s, m.Counts[s]
		}
	}
	if m.Shots == 0 || bestCount < 0 {
		return best, 0
	}
	return best, float64(bestCount) / float64(m.Shots)
}

// Simulator is a deterministic in-process EnhancedBackend.
// Sampling is seeded from the circuit features, so identical circuits
// produce identical measurements. Circuits carrying an Encoding are sampled
// from its state; others from a softmax over their features.
type Simulator struct {
	manager   *CircuitManager
	mitigator *Mitigator
	states    *StateStore
	disabled  bool
}

// NewSimulator creates a simulator over a circuit manager and mitigator.
func NewSimulator(manager *CircuitManager, mitigator *Mitigator) *Simulator {
	if manager == nil {
		manager = NewCircuitManager(DefaultQubits)
	}
	if mitigator == nil {
		mitigator = NewMitigator(DefaultErrorBudget)
	}
	return &Simulator{manager: manager, mitigator: mitigator}
}

// Disable makes Initialize fail, modelling an unreachable resource.
func (s *Simulator) Disable() *Simulator {
	s.disabled = true
	return s
}

// WithStates keeps every executed encoding in a state store.
func (s *Simulator) WithStates(store *StateStore) *Simulator {
	s.states = store
	return s
}

// Initialize implements Initializer.
func (s *Simulator) Initialize(_ context.Context) error {
	if s.disabled {
		return ErrResourceUnavailable
	}
	if s.manager.Qubits() < 1 {
		return fmt.Errorf("simulator: invalid register width %d", s.manager.Qubits())
	}
	return nil
}

// ApplyErrorMitigation implements EnhancedBackend.
func (s *Simulator) ApplyErrorMitigation(ctx context.Context, c *Circuit) (*Circuit, map[string]any, error) {
	mitigated, report, err := s.mitigator.Apply(ctx, c)
	if err != nil {
		return nil, report, err
	}
	opt := s.manager.Optimize(mitigated, 0.99)
	report["gates_before"] = opt.GatesBefore
	report["gates_after"] = opt.GatesAfter
	report["error_rates"] = s.mitigator.AnalyzeErrorRates()
	return mitigated, report, nil
}

// ExecuteRepresentation implements EnhancedBackend.
func (s *Simulator) ExecuteRepresentation(ctx context.Context, c *Circuit, shots int) (*Measurement, error) {
	if s.disabled {
		return nil, ErrResourceUnavailable
	}
	if err := s.manager.Check(c); err != nil {
		return nil, err
	}
	if shots <= 0 {
		return nil, fmt.Errorf("simulator: shots must be positive, got %d", shots)
	}

	bits := c.Qubits
	if bits > maxBasisBits {
		bits = maxBasisBits
	}
	basis := 1 << bits
	var weights []float64
	if c.Encoding != nil {
		weights = c.Encoding.Probabilities(basis)
	} else {
		weights = amplitudes(c.Features, basis)
	}
	rng := rand.New(rand.NewSource(seed(c.Features))) //nolint:gosec // deterministic sampling

	counts := make(map[string]int, basis)
	for i := 0; i < shots; i++ {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		r := rng.Float64()
		idx := basis - 1
		for j, w := range weights {
			if r < w {
				idx = j
				break
			}
			r -= w
		}
		counts[basisState(idx, bits)]++
	}

	m := &Measurement{CircuitID: c.ID, Shots: shots, Basis: basis, Counts: counts}
	if s.states != nil && c.Encoding != nil {
		m.StateID = s.states.Put(ctx, c.Encoding, map[string]any{"circuit_id": c.ID})
	}
	capitan.Emit(ctx, CircuitExecuted,
		FieldCircuitID.Field(c.ID),
		FieldShots.Field(shots),
	)
	return m, nil
}

// amplitudes folds features into a normalized softmax over the basis.
func amplitudes(features []float64, basis int) []float64 {
	logits := make([]float64, basis)
	for i, f := range features {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			continue
		}
		logits[i%basis] += f
	}
	maxLogit := logits[0]
	for _, l := range logits {
		if l > maxLogit {
			maxLogit = l
		}
	}
	var sum float64
	weights := make([]float64, basis)
	for i, l := range logits {
		weights[i] = math.Exp(l - maxLogit)
		sum += weights[i]
	}
	for i := range weights {
		weights[i] /= sum
	}
	return weights
}

func seed(features []float64) int64 {
	h := fnv.New64a()
	for _, f := range features {
		_, _ = h.Write([]byte(strconv.FormatFloat(f, 'g', -1, 64)))
	}
	return int64(h.Sum64())
}

func basisState(idx, bits int) string {
	s := strconv.FormatInt(int64(idx), 2)
	for len(s) < bits {
		s = "0" + s
	}
	return s
}
