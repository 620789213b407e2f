// Package sped provides an adaptive processing dispatcher for Go.
//
// sped routes each request to one of two capability-equivalent execution
// paths: a cheap baseline path and a resource-constrained enhanced path.
// The choice is made per call from a configured mode and an estimate of
// input complexity, and every call returns a uniform [Result].
//
// # Core Types
//
//   - [Engine] - The dispatcher. Owns the only mutable state and the pipeline
//   - [Mode] - Configured policy: classical, quantum, hybrid or adaptive
//   - [Path] - The route taken by a call: baseline or enhanced
//   - [Result] - Success or failure outcome of [Engine.Process]
//   - [Snapshot] - Read-only projection returned by [Engine.State]
//
// # Creating an Engine
//
//	manager := sped.NewCircuitManager(0)
//	engine, err := sped.New(sped.Config{
//	    Settings:  sped.DefaultSettings(),
//	    Reasoning: sped.NewHeuristic(manager),
//	    Memory:    sped.NewMemoryStore(0),
//	    Enhanced:  sped.NewSimulator(manager, nil),
//	}, sped.WithHook(sped.NewTracker(0)))
//
//	result := engine.Process(ctx, "hello", map[string]any{"domain": "test"})
//
// # Selection
//
// In adaptive mode complexity above 0.7 takes the enhanced path when the
// resource is available, complexity above 0.4 is the hybrid tier (enhanced if
// available, baseline otherwise) and everything else takes the baseline path.
// Thresholds are strict. See [Select] and [Selector].
//
// # Collaborators
//
// The engine talks only to interfaces:
//
//   - [Reasoning] - Complexity, classical processing, circuit staging, integration
//   - [EnhancedBackend] - Error mitigation and execution, optionally an [Initializer]
//   - [Memory] - Result storage and live load
//   - [EvolutionHook] - Best-effort notification after each success
//
// Default implementations are [Heuristic] and [Synapse] for reasoning,
// [Simulator] for the enhanced backend, [MemoryStore] and [SoyMemory] for
// memory, and [Tracker] for evolution tracking.
//
// # Provider
//
// [Synapse] resolves its LLM provider in order:
//
//  1. Explicit parameter (.WithProvider(p))
//  2. Context value (sped.WithProvider(ctx, p))
//  3. Global default (sped.SetProvider(p))
//
// # Observability
//
// sped emits capitan signals throughout execution. See signals.go for the
// complete list, including ProcessStarted, PathSelected, ProcessCompleted
// and ProcessFailed. [Metrics] turns those signals into Prometheus series.
package sped
