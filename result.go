package sped

import (
	"encoding/json"
	"errors"
	"time"
)

// RawResult is the unscored output of a path.
type RawResult struct {
	Payload        map[string]any
	ConfidenceHint *float64
	MemoryImpact   *float64
	Metadata       map[string]any
}

// Status tags the populated variant of a Result.
type Status string

// Result statuses.
const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Result is the uniform outcome of Engine.Process.
// A failed result carries only ID, Status, Error and Timestamp; MarshalJSON
// writes only the fields of the populated variant.
type Result struct {
	ID               string
	Status           Status
	Payload          map[string]any
	Confidence       float64
	MemoryImpact     *float64
	EnhancedMetadata map[string]any
	Path             Path
	Tier             Tier
	Complexity       float64
	Error            string
	Timestamp        time.Time
}

type successJSON struct {
	ID               string         `json:"id"`
	Status           Status         `json:"status"`
	Payload          map[string]any `json:"payload"`
	Confidence       float64        `json:"confidence"`
	MemoryImpact     *float64       `json:"memory_impact,omitempty"`
	EnhancedMetadata map[string]any `json:"enhanced_metadata,omitempty"`
	Path             Path           `json:"path"`
	Tier             Tier           `json:"tier"`
	Complexity       float64        `json:"complexity"`
	Timestamp        time.Time      `json:"timestamp"`
}

type failureJSON struct {
	ID        string    `json:"id"`
	Status    Status    `json:"status"`
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

// MarshalJSON implements json.Marshaler.
func (r Result) MarshalJSON() ([]byte, error) {
	if r.Failed() {
		return json.Marshal(failureJSON{
			ID:        r.ID,
			Status:    r.Status,
			Error:     r.Error,
			Timestamp: r.Timestamp,
		})
	}
	return json.Marshal(successJSON{
		ID:               r.ID,
		Status:           r.Status,
		Payload:          r.Payload,
		Confidence:       r.Confidence,
		MemoryImpact:     r.MemoryImpact,
		EnhancedMetadata: r.EnhancedMetadata,
		Path:             r.Path,
		Tier:             r.Tier,
		Complexity:       r.Complexity,
		Timestamp:        r.Timestamp,
	})
}

// Failed reports whether the result is the failure variant.
func (r Result) Failed() bool {
	return r.Status == StatusFailed
}

// Err returns the failure as an error, or nil on success.
func (r Result) Err() error {
	if !r.Failed() {
		return nil
	}
	return errors.New(r.Error)
}

func succeeded(id string, c *Call, ts time.Time) *Result {
	return &Result{
		ID:               id,
		Status:           StatusSuccess,
		Payload:          c.Raw.Payload,
		Confidence:       c.Confidence,
		MemoryImpact:     c.Raw.MemoryImpact,
		EnhancedMetadata: c.Raw.Metadata,
		Path:             c.Selection.Path,
		Tier:             c.Selection.Tier,
		Complexity:       c.Complexity,
		Timestamp:        ts,
	}
}

func failed(id string, err error, ts time.Time) *Result {
	return &Result{
		ID:        id,
		Status:    StatusFailed,
		Error:     err.Error(),
		Timestamp: ts,
	}
}
