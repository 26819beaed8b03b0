// Package orchestrator wires decomposition, the bounded executor and the
// tier agents into complete runs. The Orchestrator is a synchronous engine:
// one Run call decomposes the task, fans out over the worker tier, batches
// results through the synthesis tier and conditionally the executive tier,
// and assembles the final result. The Manager wraps the engine with the
// service behavior: async submission, run tracking, cancellation, event
// publishing, result storage and metrics.
package orchestrator
