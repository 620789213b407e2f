package sped

import (
	"encoding/json"
	"math"
)

// ConfidenceKey is the payload key read by Score.
const ConfidenceKey = "confidence"

// Score derives a normalized confidence from a raw result.
// An explicit hint wins, then a numeric payload["confidence"], then
// DefaultConfidence. The result is clamped to [0,1]. Score never fails;
// a missing confidence is the normal case.
func Score(raw RawResult) float64 {
	if raw.ConfidenceHint != nil {
		return clampConfidence(*raw.ConfidenceHint)
	}
	if v, ok := raw.Payload[ConfidenceKey]; ok {
		if f, ok := toFloat(v); ok {
			return clampConfidence(f)
		}
	}
	return DefaultConfidence
}

func clampConfidence(f float64) float64 {
	switch {
	case math.IsNaN(f):
		return DefaultConfidence
	case f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
