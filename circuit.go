package sped

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidCircuit is returned when a circuit fails validation or construction.
var ErrInvalidCircuit = errors.New("invalid circuit")

// Circuit kinds.
const (
	CircuitLearning   = "learning"
	CircuitMemory     = "memory"
	CircuitProcessing = "processing"
)

// Connectivity layouts.
const (
	ConnectivityAllToAll        = "all-to-all"
	ConnectivityNearestNeighbor = "nearest-neighbor"
	ConnectivityCustom          = "custom"
)

// CircuitConfig describes the shape of a circuit kind.
type CircuitConfig struct {
	Layers         int
	Connectivity   string
	ErrorThreshold float64
}

// Circuit is the representation the enhanced backend executes.
type Circuit struct {
	ID                string
	Kind              string
	Qubits            int
	Layers            int
	Connectivity      string
	ErrorThreshold    float64
	Features          []float64
	Encoding          *Encoding // optional prepared state
	OptimizationLevel int
	Mitigations       []string
	Created           time.Time
}

// Gates estimates the gate count: single-qubit rotations plus entanglers per layer.
func (c *Circuit) Gates() int {
	var entanglers int
	switch c.Connectivity {
	case ConnectivityAllToAll:
		entanglers = c.Qubits * (c.Qubits - 1) / 2
	case ConnectivityNearestNeighbor:
		entanglers = c.Qubits - 1
	default:
		entanglers = c.Qubits
	}
	if entanglers < 0 {
		entanglers = 0
	}
	return c.Layers * (c.Qubits + entanglers)
}

// Clone returns a deep copy with the same ID.
func (c *Circuit) Clone() *Circuit {
	if c == nil {
		return nil
	}
	clone := *c
	clone.Features = append([]float64(nil), c.Features...)
	clone.Encoding = c.Encoding.Clone()
	clone.Mitigations = append([]string(nil), c.Mitigations...)
	return &clone
}

// OptimizationReport records a gate-reduction pass.
type OptimizationReport struct {
	TargetFidelity float64
	GatesBefore    int
	GatesAfter     int
	Level          int
}

// Validation is the result of CircuitManager.Validate.
type Validation struct {
	QubitCount   bool
	Connectivity bool
	ErrorRates   bool
	Valid        bool
}

// CircuitManager builds and checks circuits for a fixed register width.
type CircuitManager struct {
	qubits  int
	configs map[string]CircuitConfig
}

// NewCircuitManager creates a manager for the given qubit count.
// Non-positive counts fall back to DefaultQubits.
func NewCircuitManager(qubits int) *CircuitManager {
	if qubits <= 0 {
		qubits = DefaultQubits
	}
	return &CircuitManager{
		qubits: qubits,
		configs: map[string]CircuitConfig{
			CircuitLearning:   {Layers: 3, Connectivity: ConnectivityAllToAll, ErrorThreshold: 0.001},
			CircuitMemory:     {Layers: 2, Connectivity: ConnectivityNearestNeighbor, ErrorThreshold: 0.0005},
			CircuitProcessing: {Layers: 4, Connectivity: ConnectivityCustom, ErrorThreshold: 0.002},
		},
	}
}

// Qubits returns the register width.
func (m *CircuitManager) Qubits() int {
	return m.qubits
}

// Config returns the shape of a circuit kind.
func (m *CircuitManager) Config(kind string) (CircuitConfig, bool) {
	cfg, ok := m.configs[kind]
	return cfg, ok
}

// Create builds a circuit of the given kind encoding features.
// Optimization level must be 1 to 3.
func (m *CircuitManager) Create(kind string, features []float64, level int) (*Circuit, error) {
	cfg, ok := m.configs[kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidCircuit, kind)
	}
	if level < 1 || level > 3 {
		return nil, fmt.Errorf("%w: optimization level %d out of range", ErrInvalidCircuit, level)
	}
	return &Circuit{
		ID:                uuid.New().String(),
		Kind:              kind,
		Qubits:            m.qubits,
		Layers:            cfg.Layers,
		Connectivity:      cfg.Connectivity,
		ErrorThreshold:    cfg.ErrorThreshold,
		Features:          append([]float64(nil), features...),
		OptimizationLevel: level,
		Created:           time.Now(),
	}, nil
}

// Optimize applies gate reduction proportional to the optimization level.
// The circuit is not modified; the report describes the reduction.
func (m *CircuitManager) Optimize(c *Circuit, targetFidelity float64) OptimizationReport {
	before := c.Gates()
	reduction := 0.1 * float64(c.OptimizationLevel)
	after := int(math.Round(float64(before) * (1 - reduction)))
	return OptimizationReport{
		TargetFidelity: targetFidelity,
		GatesBefore:    before,
		GatesAfter:     after,
		Level:          c.OptimizationLevel,
	}
}

// Validate checks qubit count, connectivity and error threshold.
func (m *CircuitManager) Validate(c *Circuit) Validation {
	v := Validation{
		QubitCount: c.Qubits == m.qubits,
		ErrorRates: c.ErrorThreshold > 0 && c.ErrorThreshold <= DefaultErrorBudget,
	}
	switch c.Connectivity {
	case ConnectivityAllToAll, ConnectivityNearestNeighbor, ConnectivityCustom:
		v.Connectivity = true
	}
	v.Valid = v.QubitCount && v.Connectivity && v.ErrorRates
	return v
}

// Check returns ErrInvalidCircuit describing the failed checks, or nil.
func (m *CircuitManager) Check(c *Circuit) error {
	if c == nil {
		return fmt.Errorf("%w: nil circuit", ErrInvalidCircuit)
	}
	v := m.Validate(c)
	if v.Valid {
		return nil
	}
	return fmt.Errorf("%w: qubits=%t connectivity=%t error_rates=%t",
		ErrInvalidCircuit, v.QubitCount, v.Connectivity, v.ErrorRates)
}
