// Package executor runs batches of work items under bounded concurrency
// with per-item timeouts and bounded retry.
//
// One RunAll call admits items in submission order through a fresh counting
// semaphore, never aborts the batch because one item failed, and returns
// exactly one result per item in submission order.
package executor
