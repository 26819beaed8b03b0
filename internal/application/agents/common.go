package agents

import "strings"

// Specializations is the rotation bank assigned round-robin to worker
// agents. The label frames the worker's system context and is carried in
// result metadata; scheduling does not depend on it.
var Specializations = []string{"research", "analysis", "coding", "financial", "general"}

// SpecializationFor returns the specialization for the i-th worker.
func SpecializationFor(i int) string {
	return Specializations[i%len(Specializations)]
}

// costPerKiloToken is a provider-agnostic cost unit. Token counts are
// approximated at four characters per token.
const costPerKiloToken = 0.003

func estimateCost(prompt, response string) float64 {
	tokens := float64(len(prompt)+len(response)) / 4
	return tokens / 1000 * costPerKiloToken
}

// extractCitations pulls URLs out of generated content, preserving
// first-seen order without duplicates.
func extractCitations(content string) []string {
	var citations []string
	seen := make(map[string]struct{})
	for _, field := range strings.Fields(content) {
		field = strings.Trim(field, "()<>[],;\"'")
		if !strings.HasPrefix(field, "http://") && !strings.HasPrefix(field, "https://") {
			continue
		}
		field = strings.TrimRight(field, ".")
		if _, ok := seen[field]; ok {
			continue
		}
		seen[field] = struct{}{}
		citations = append(citations, field)
	}
	return citations
}

// mergeCitations combines citation lists, preserving first-seen order
// without duplicates.
func mergeCitations(lists ...[]string) []string {
	var merged []string
	seen := make(map[string]struct{})
	for _, list := range lists {
		for _, c := range list {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			merged = append(merged, c)
		}
	}
	return merged
}
