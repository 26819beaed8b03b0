// Package decompose splits one task description into a bounded, validated
// list of subtasks.
//
// When an executor-backed decomposition source is available its output is
// parsed as a numbered, bulleted or dashed list; otherwise a deterministic
// template decomposition is used. Degradation is a policy, not an error
// path: the only failure mode is an empty task string.
package decompose
