package sped

import (
	"fmt"
	"os"
	"time"

	"github.com/zoobzio/zyn"
	"gopkg.in/yaml.v3"
)

// Default configuration for sped engines.
// These can be overridden per-engine using options or Settings.
var (
	// DefaultThresholds are the adaptive complexity cut-offs.
	DefaultThresholds = Thresholds{Enhanced: 0.7, Hybrid: 0.4}

	// DefaultConfidence is reported when a raw result carries no confidence.
	DefaultConfidence = 0.8

	// DefaultShots is the number of executions requested from the enhanced backend.
	DefaultShots = 1000

	// DefaultEnhancedTimeout bounds a single enhanced-path execution.
	DefaultEnhancedTimeout = 30 * time.Second

	// DefaultBreakerFailures is the number of consecutive enhanced-path
	// failures that open the circuit breaker.
	DefaultBreakerFailures = 5

	// DefaultBreakerRecovery is how long the breaker stays open before probing.
	DefaultBreakerRecovery = 30 * time.Second

	// DefaultQubits is the register width of circuits built by CircuitManager.
	DefaultQubits = 20

	// DefaultErrorBudget is the maximum residual error the Mitigator accepts.
	DefaultErrorBudget = 0.01

	// DefaultHistoryLimit caps state and evolution archives.
	DefaultHistoryLimit = 100

	// DefaultMemoryCapacity is the record capacity used to derive memory load.
	DefaultMemoryCapacity = 1000

	// DefaultEncoding is the scheme Heuristic uses to prepare states.
	DefaultEncoding = SchemeAmplitude

	// DefaultComplexityTemperature is used by Synapse when estimating complexity.
	DefaultComplexityTemperature = zyn.DefaultTemperatureDeterministic

	// DefaultProcessingTemperature is used by Synapse for classical processing
	// and result integration.
	DefaultProcessingTemperature = zyn.DefaultTemperatureAnalytical
)

// Settings are the serializable engine settings.
// Zero values fall back to the package defaults.
type Settings struct {
	Mode           Mode          `yaml:"mode" json:"mode"`
	QuantumEnabled bool          `yaml:"quantum_enabled" json:"quantum_enabled"`
	Thresholds     Thresholds    `yaml:"thresholds" json:"thresholds"`
	Shots          int           `yaml:"shots" json:"shots"`
	Timeout        time.Duration `yaml:"timeout" json:"timeout"`
	Breaker        struct {
		Failures int           `yaml:"failures" json:"failures"`
		Recovery time.Duration `yaml:"recovery" json:"recovery"`
	} `yaml:"breaker" json:"breaker"`
	Qubits         int     `yaml:"qubits" json:"qubits"`
	ErrorBudget    float64 `yaml:"error_budget" json:"error_budget"`
	HistoryLimit   int     `yaml:"history_limit" json:"history_limit"`
	MemoryCapacity int     `yaml:"memory_capacity" json:"memory_capacity"`
	Encoding       Scheme  `yaml:"encoding" json:"encoding"`
}

// DefaultSettings returns Settings populated with the package defaults.
func DefaultSettings() Settings {
	s := Settings{
		Mode:           ModeAdaptive,
		QuantumEnabled: true,
		Thresholds:     DefaultThresholds,
		Shots:          DefaultShots,
		Timeout:        DefaultEnhancedTimeout,
		Qubits:         DefaultQubits,
		ErrorBudget:    DefaultErrorBudget,
		HistoryLimit:   DefaultHistoryLimit,
		MemoryCapacity: DefaultMemoryCapacity,
		Encoding:       DefaultEncoding,
	}
	s.Breaker.Failures = DefaultBreakerFailures
	s.Breaker.Recovery = DefaultBreakerRecovery
	return s
}

// ParseSettings decodes YAML settings on top of DefaultSettings.
func ParseSettings(data []byte) (Settings, error) {
	s := DefaultSettings()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("failed to parse settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// LoadSettings reads and parses a YAML settings file.
func LoadSettings(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read settings: %w", err)
	}
	return ParseSettings(data)
}

// Validate reports settings that no engine can run with.
func (s Settings) Validate() error {
	if s.Thresholds.Hybrid > s.Thresholds.Enhanced {
		return fmt.Errorf("invalid thresholds: hybrid %.2f above enhanced %.2f", s.Thresholds.Hybrid, s.Thresholds.Enhanced)
	}
	if s.Shots < 0 {
		return fmt.Errorf("invalid shots: %d", s.Shots)
	}
	if s.ErrorBudget < 0 {
		return fmt.Errorf("invalid error budget: %f", s.ErrorBudget)
	}
	if s.Encoding != "" && !s.Encoding.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownScheme, s.Encoding)
	}
	return nil
}
