package sped

import (
	"context"
	"sync"
)

// PathStats summarizes tracked steps for one path.
type PathStats struct {
	Count          int
	MeanConfidence float64
}

// Tracker is an in-memory EvolutionHook with a capped step history.
type Tracker struct {
	limit int
	steps []StepRecord
	stats map[Path]PathStats
	mu    sync.RWMutex
}

// NewTracker creates a tracker. A non-positive limit uses DefaultHistoryLimit.
func NewTracker(limit int) *Tracker {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &Tracker{
		limit: limit,
		stats: make(map[Path]PathStats),
	}
}

// TrackStep implements EvolutionHook.
func (t *Tracker) TrackStep(ctx context.Context, step StepRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.steps = append(t.steps, step)
	if over := len(t.steps) - t.limit; over > 0 {
		t.steps = append([]StepRecord(nil), t.steps[over:]...)
	}

	// Stats cover every tracked step, not just the retained window.
	s := t.stats[step.Path]
	s.Count++
	s.MeanConfidence += (step.Confidence - s.MeanConfidence) / float64(s.Count)
	t.stats[step.Path] = s
	return nil
}

// History returns the retained steps, oldest first.
func (t *Tracker) History() []StepRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]StepRecord, len(t.steps))
	copy(out, t.steps)
	return out
}

// Stats returns per-path counts and mean confidence.
func (t *Tracker) Stats() map[Path]PathStats {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[Path]PathStats, len(t.stats))
	for p, s := range t.stats {
		out[p] = s
	}
	return out
}
