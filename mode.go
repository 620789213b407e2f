package sped

import (
	"errors"
	"fmt"
	"strings"
)

// Mode is the configured dispatch policy of an Engine.
type Mode int

// Dispatch modes.
const (
	// ModeClassical pins every call to the baseline path.
	ModeClassical Mode = iota
	// ModeQuantum pins every call to the enhanced path when the resource is available.
	ModeQuantum
	// ModeHybrid prefers the enhanced path and degrades to baseline without the resource.
	ModeHybrid
	// ModeAdaptive lets the selector decide per call from input complexity.
	ModeAdaptive
)

// ErrUnknownMode is returned when a mode name cannot be parsed.
var ErrUnknownMode = errors.New("unknown mode")

var modeNames = map[Mode]string{
	ModeClassical: "classical",
	ModeQuantum:   "quantum",
	ModeHybrid:    "hybrid",
	ModeAdaptive:  "adaptive",
}

// String returns the lowercase mode name.
func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// ParseMode converts a mode name into a Mode. Matching is case-insensitive.
func ParseMode(s string) (Mode, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for m, n := range modeNames {
		if n == name {
			return m, nil
		}
	}
	return ModeClassical, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	if _, ok := modeNames[m]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMode, int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Path is the execution route chosen for a single call.
type Path int

// Execution paths.
const (
	PathBaseline Path = iota
	PathEnhanced
)

// String returns the route key of the path.
func (p Path) String() string {
	switch p {
	case PathBaseline:
		return "baseline"
	case PathEnhanced:
		return "enhanced"
	default:
		return fmt.Sprintf("path(%d)", int(p))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p Path) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Tier is the complexity band a selection landed in.
// The hybrid tier resolves to either path depending on resource availability.
type Tier int

// Complexity tiers.
const (
	TierBaseline Tier = iota
	TierHybrid
	TierEnhanced
)

// String returns the tier name.
func (t Tier) String() string {
	switch t {
	case TierBaseline:
		return "baseline"
	case TierHybrid:
		return "hybrid"
	case TierEnhanced:
		return "enhanced"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}
