package sped

import (
	"context"
	"math"
	"testing"
)

func TestTracker(t *testing.T) {
	ctx := context.Background()
	tr := NewTracker(2)

	steps := []StepRecord{
		{ResultID: "a", Path: PathBaseline, Confidence: 0.8},
		{ResultID: "b", Path: PathEnhanced, Confidence: 0.6},
		{ResultID: "c", Path: PathEnhanced, Confidence: 1.0},
	}
	for _, s := range steps {
		if err := tr.TrackStep(ctx, s); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	h := tr.History()
	if len(h) != 2 || h[0].ResultID != "b" || h[1].ResultID != "c" {
		t.Errorf("expected last two steps, got %+v", h)
	}

	stats := tr.Stats()
	if stats[PathBaseline].Count != 1 || stats[PathEnhanced].Count != 2 {
		t.Errorf("unexpected counts: %+v", stats)
	}
	if math.Abs(stats[PathEnhanced].MeanConfidence-0.8) > 1e-9 {
		t.Errorf("expected mean 0.8, got %v", stats[PathEnhanced].MeanConfidence)
	}
}

func TestTracker_CanceledContext(t *testing.T) {
	tr := NewTracker(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := tr.TrackStep(ctx, StepRecord{}); err == nil {
		t.Error("expected canceled context error")
	}
	if len(tr.History()) != 0 {
		t.Error("expected no steps tracked")
	}
}
