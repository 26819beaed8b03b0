// Package agents provides the three tier adapters that frame work items as
// prompts for an external executor. Workers handle one subtask each,
// synthesizers aggregate a batch of worker results, and the executive
// produces the final synthesis across all synthesizer output. All three
// report failures through the result status and never return errors.
package agents
