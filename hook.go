package sped

import (
	"context"
	"fmt"
	"reflect"
	"time"
)

// StepRecord is the post-hoc notification sent to an EvolutionHook.
type StepRecord struct {
	ResultID     string
	InputKind    string
	Path         Path
	Tier         Tier
	Confidence   float64
	MemoryImpact *float64
	Timestamp    time.Time
}

// EvolutionHook receives a record of every successful call.
// Notification is best-effort: errors are reported through HookFailed
// and never change the call's result.
type EvolutionHook interface {
	TrackStep(ctx context.Context, step StepRecord) error
}

// HookFunc adapts a function to EvolutionHook.
type HookFunc func(ctx context.Context, step StepRecord) error

// TrackStep implements EvolutionHook.
func (f HookFunc) TrackStep(ctx context.Context, step StepRecord) error {
	return f(ctx, step)
}

// InputKind returns a coarse tag for an input value.
func InputKind(input any) string {
	if input == nil {
		return "nil"
	}
	switch input.(type) {
	case string:
		return "text"
	case []byte:
		return "bytes"
	case bool:
		return "bool"
	}
	switch reflect.TypeOf(input).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Slice, reflect.Array:
		return "list"
	case reflect.Map, reflect.Struct:
		return "mapping"
	default:
		return fmt.Sprintf("%T", input)
	}
}
