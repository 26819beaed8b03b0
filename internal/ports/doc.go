// Package ports defines the interfaces between the orchestration core and
// its adapters: the executor seam that performs the actual work, the event
// bus carrying run and progress events, result storage, and metrics.
//
// The core has no opinion on what backs an Executor (LLM call, HTTP fetch,
// local computation); adapters under pkg/adapters provide implementations.
package ports
