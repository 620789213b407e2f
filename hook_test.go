package sped

import (
	"context"
	"errors"
	"testing"
)

func TestHookFunc(t *testing.T) {
	var got StepRecord
	h := HookFunc(func(_ context.Context, s StepRecord) error {
		got = s
		return nil
	})
	if err := h.TrackStep(context.Background(), StepRecord{ResultID: "r1", Path: PathEnhanced}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ResultID != "r1" || got.Path != PathEnhanced {
		t.Errorf("unexpected step: %+v", got)
	}

	failing := HookFunc(func(context.Context, StepRecord) error { return errors.New("down") })
	if err := failing.TrackStep(context.Background(), StepRecord{}); err == nil {
		t.Error("expected error")
	}
}

func TestInputKind(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, "nil"},
		{"hello", "text"},
		{[]byte("hi"), "bytes"},
		{true, "bool"},
		{42, "number"},
		{3.5, "number"},
		{[]int{1}, "list"},
		{[2]string{}, "list"},
		{map[string]any{}, "mapping"},
		{struct{ A int }{}, "mapping"},
		{make(chan int), "chan int"},
	}
	for _, tt := range tests {
		if got := InputKind(tt.in); got != tt.want {
			t.Errorf("InputKind(%T) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
