package decompose

import "fmt"

// templateSubtasks is the deterministic fallback decomposition used when no
// source is available or the source output is unusable.
func templateSubtasks(task string) []string {
	return []string{
		fmt.Sprintf("Research and gather relevant information about: %s", task),
		fmt.Sprintf("Analyze key aspects and factors related to: %s", task),
		fmt.Sprintf("Identify challenges and opportunities for: %s", task),
		fmt.Sprintf("Evaluate different approaches and strategies for: %s", task),
		fmt.Sprintf("Synthesize findings and formulate recommendations for: %s", task),
	}
}

// fillerBank is the rotating template bank used to pad under-produced
// decompositions. The resulting subtasks can read oddly generic; that is
// the reference behavior, kept as-is.
var fillerBank = []string{
	"Conduct supplementary research on: %s",
	"Perform detailed analysis of: %s",
	"Investigate related aspects of: %s",
	"Gather additional perspectives on: %s",
	"Examine supporting evidence for: %s",
	"Research secondary sources about: %s",
	"Analyze contextual factors of: %s",
	"Study comparative examples of: %s",
	"Evaluate different approaches to: %s",
	"Explore implications and consequences of: %s",
	"Review best practices related to: %s",
	"Investigate potential challenges with: %s",
	"Research implementation strategies for: %s",
	"Analyze stakeholder perspectives on: %s",
	"Study market/industry context of: %s",
}

// fillerSubtasks produces count generic subtasks keyed off the original
// task text, cycling through the bank starting at offset.
func fillerSubtasks(task string, count, offset int) []string {
	out := make([]string, 0, count)
	for i := 0; i < count; i++ {
		template := fillerBank[(offset+i)%len(fillerBank)]
		out = append(out, fmt.Sprintf(template, task))
	}
	return out
}
