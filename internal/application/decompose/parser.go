package decompose

import "strings"

// ParseList extracts list items from free-form text. It accepts numbered
// ("1." or "1)"), dashed ("- "), starred ("* ") and bulleted ("• ")
// markers; lines without a marker are ignored.
func ParseList(text string) []string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	items := make([]string, 0, len(lines))

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if line[0] >= '0' && line[0] <= '9' {
			if item, ok := splitNumbered(line); ok {
				items = append(items, item)
			}
			continue
		}
		for _, marker := range []string{"- ", "* ", "• "} {
			if strings.HasPrefix(line, marker) {
				if item := strings.TrimSpace(strings.TrimPrefix(line, marker)); item != "" {
					items = append(items, item)
				}
				break
			}
		}
	}

	return items
}

// splitNumbered strips a leading "1." or "1)" marker.
func splitNumbered(line string) (string, bool) {
	for _, sep := range []string{".", ")"} {
		if idx := strings.Index(line, sep); idx > 0 {
			prefix := line[:idx]
			if !allDigits(prefix) {
				continue
			}
			item := strings.TrimSpace(line[idx+1:])
			if item != "" {
				return item, true
			}
		}
	}
	return "", false
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
