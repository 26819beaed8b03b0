// Package domain defines the data model for hierarchical task orchestration.
//
// A run takes one task description, decomposes it into SubTasks, executes
// them as tier-1 WorkItems, synthesizes the results in tier 2, and optionally
// produces a tier-3 executive synthesis. Results are value objects: their
// status is set exactly once at construction and never transitions afterward.
package domain
