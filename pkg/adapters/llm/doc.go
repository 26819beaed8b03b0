// Package llm selects and constructs the executor backing all agent work.
package llm
