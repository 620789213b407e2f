package sped

import "time"

// Call carries one dispatch cycle through the pipeline.
// It is created by Engine.Process and owned by a single goroutine.
type Call struct {
	ID      string
	Input   any
	Context map[string]any
	Started time.Time

	// Snapshotted from engine state when the call began.
	Mode              Mode
	ResourceAvailable bool

	// Filled in by pipeline stages.
	Complexity  float64
	Selection   Selection
	Circuit     *Circuit
	Mitigated   *Circuit
	Mitigation  map[string]any
	Measurement *Measurement
	Raw         RawResult
	Confidence  float64
}
