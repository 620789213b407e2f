package sped

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
	"math/cmplx"
)

// Scheme names a classical-to-state encoding.
type Scheme string

// Encoding schemes.
const (
	// SchemeAmplitude writes normalized values into state amplitudes.
	SchemeAmplitude Scheme = "amplitude"
	// SchemePhase writes normalized values into the phase of uniform amplitudes.
	SchemePhase Scheme = "phase"
	// SchemeSuperdense superposes values over the four Bell states of a pair.
	SchemeSuperdense Scheme = "superdense"
)

// Encoding errors.
var (
	ErrUnknownScheme    = errors.New("unknown encoding scheme")
	ErrEncodingCapacity = errors.New("data exceeds encoder capacity")
	ErrZeroState        = errors.New("data has no amplitude to encode")
)

// protection describes the repetition code applied per scheme.
type protection struct {
	code   string
	factor int
}

var protections = map[Scheme]protection{
	SchemeAmplitude:  {code: "repetition", factor: 3},
	SchemePhase:      {code: "phase-flip", factor: 9},
	SchemeSuperdense: {code: "stabilizer", factor: 7},
}

var bellStates = [4][4]float64{
	{1 / math.Sqrt2, 0, 0, 1 / math.Sqrt2},
	{0, 1 / math.Sqrt2, 1 / math.Sqrt2, 0},
	{1 / math.Sqrt2, 0, 0, -1 / math.Sqrt2},
	{0, 1 / math.Sqrt2, -1 / math.Sqrt2, 0},
}

// Valid reports whether s is a known scheme.
func (s Scheme) Valid() bool {
	_, ok := protections[s]
	return ok
}

// Encoding is an encoded state with its bookkeeping.
type Encoding struct {
	Scheme     Scheme
	State      []complex128
	Length     int    // classical values carried
	Protection string // error protection code, empty when unprotected
	Fidelity   float64
}

// Qubits returns the register width spanned by the state.
func (e *Encoding) Qubits() int {
	if len(e.State) <= 1 {
		return len(e.State)
	}
	return bits.Len(uint(len(e.State) - 1))
}

// Probabilities folds the logical state onto a basis of the given size.
func (e *Encoding) Probabilities(basis int) []float64 {
	out := make([]float64, basis)
	var sum float64
	for i, a := range e.logical() {
		p := real(a)*real(a) + imag(a)*imag(a)
		out[i%basis] += p
		sum += p
	}
	if sum == 0 {
		out[0] = 1
		return out
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// Clone returns a deep copy.
func (e *Encoding) Clone() *Encoding {
	if e == nil {
		return nil
	}
	clone := *e
	clone.State = append([]complex128(nil), e.State...)
	return &clone
}

// logical strips error protection, averaging each repeated block.
func (e *Encoding) logical() []complex128 {
	if e.Protection == "" {
		return e.State
	}
	k := protections[e.Scheme].factor
	out := make([]complex128, len(e.State)/k)
	scale := complex(math.Sqrt(float64(k)), 0)
	for i := range out {
		var sum complex128
		for _, a := range e.State[i*k : (i+1)*k] {
			sum += a
		}
		out[i] = sum / complex(float64(k), 0) * scale
	}
	return out
}

// Encoder encodes feature vectors for a register of fixed width.
type Encoder struct {
	bits  int
	pairs int
}

// NewEncoder creates an encoder for the given qubit count. Non-positive
// counts fall back to DefaultQubits. Amplitude and phase registers are
// capped at the simulator basis.
func NewEncoder(qubits int) *Encoder {
	if qubits <= 0 {
		qubits = DefaultQubits
	}
	return &Encoder{
		bits:  min(qubits, maxBasisBits),
		pairs: max(1, min(qubits/2, len(bellStates))),
	}
}

// Capacity returns the number of values a scheme carries without loss.
func (e *Encoder) Capacity(s Scheme) int {
	if s == SchemeSuperdense {
		return e.pairs
	}
	return 1 << e.bits
}

// Encode normalizes data and encodes it with the scheme. Superdense drops
// values beyond capacity; the loss shows in Fidelity.
func (e *Encoder) Encode(data []float64, s Scheme, protect bool) (*Encoding, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScheme, s)
	}
	if s != SchemeSuperdense && len(data) > e.Capacity(s) {
		return nil, fmt.Errorf("%w: %d values, %s holds %d", ErrEncodingCapacity, len(data), s, e.Capacity(s))
	}
	unit, err := normalize(data)
	if err != nil {
		return nil, err
	}

	var state []complex128
	switch s {
	case SchemeAmplitude:
		state = make([]complex128, 1<<e.bits)
		for i, v := range unit {
			state[i] = complex(v, 0)
		}
	case SchemePhase:
		state = make([]complex128, 1<<e.bits)
		amp := 1 / math.Sqrt(float64(len(unit)))
		for i, v := range unit {
			state[i] = cmplx.Rect(amp, 2*math.Pi*v)
		}
	case SchemeSuperdense:
		state = make([]complex128, len(bellStates[0]))
		for i, v := range unit[:min(len(unit), e.pairs)] {
			for j, b := range bellStates[i] {
				state[j] += complex(v*b, 0)
			}
		}
		if err := normalizeState(state); err != nil {
			return nil, err
		}
	}

	enc := &Encoding{Scheme: s, State: state, Length: len(unit)}
	enc.Fidelity = fidelity(unit, decodeLogical(enc.Scheme, state, enc.Length, e.pairs))
	if protect {
		p := protections[s]
		enc.Protection = p.code
		enc.State = repeat(state, p.factor)
	}
	return enc, nil
}

// Decode recovers the normalized classical values of an encoding.
func (e *Encoder) Decode(enc *Encoding) ([]float64, error) {
	if enc == nil || !enc.Scheme.Valid() {
		return nil, fmt.Errorf("%w: cannot decode", ErrUnknownScheme)
	}
	logical := enc.logical()
	if enc.Length > len(logical) && enc.Scheme != SchemeSuperdense {
		return nil, fmt.Errorf("decode: state holds %d amplitudes, need %d", len(logical), enc.Length)
	}
	return decodeLogical(enc.Scheme, logical, enc.Length, e.pairs), nil
}

func decodeLogical(s Scheme, state []complex128, n, pairs int) []float64 {
	out := make([]float64, n)
	switch s {
	case SchemeAmplitude:
		for i := range out {
			out[i] = real(state[i])
		}
	case SchemePhase:
		for i := range out {
			out[i] = cmplx.Phase(state[i]) / (2 * math.Pi)
		}
	case SchemeSuperdense:
		for i := 0; i < min(n, pairs); i++ {
			var proj complex128
			for j, b := range bellStates[i] {
				proj += complex(b, 0) * state[j]
			}
			out[i] = real(proj)
		}
	}
	return out
}

// fidelity is the squared overlap of a unit vector with its decoding.
// Decodings with norm below one are not rescaled, so lost values lower it.
func fidelity(unit, decoded []float64) float64 {
	var dot, norm float64
	for i := range unit {
		dot += unit[i] * decoded[i]
		norm += decoded[i] * decoded[i]
	}
	f := dot * dot / math.Max(norm, 1)
	return math.Min(1, math.Max(0, f))
}

func normalize(data []float64) ([]float64, error) {
	if len(data) == 0 {
		return nil, ErrZeroState
	}
	var sum float64
	for _, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("encode: non-finite value %v", v)
		}
		sum += v * v
	}
	if sum == 0 {
		return nil, ErrZeroState
	}
	norm := math.Sqrt(sum)
	out := make([]float64, len(data))
	for i, v := range data {
		out[i] = v / norm
	}
	return out, nil
}

func normalizeState(state []complex128) error {
	var sum float64
	for _, a := range state {
		sum += real(a)*real(a) + imag(a)*imag(a)
	}
	if sum == 0 {
		return ErrZeroState
	}
	norm := complex(math.Sqrt(sum), 0)
	for i := range state {
		state[i] /= norm
	}
	return nil
}

func repeat(state []complex128, k int) []complex128 {
	out := make([]complex128, 0, len(state)*k)
	scale := complex(1/math.Sqrt(float64(k)), 0)
	for _, a := range state {
		for i := 0; i < k; i++ {
			out = append(out, a*scale)
		}
	}
	return out
}
