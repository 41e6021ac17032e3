package jobs

import "strings"

// DefaultDelimiter separates prompts in a batch prompt list.
const DefaultDelimiter = ","

// SplitPrompts splits list on delim, trims each entry and drops empty ones.
func SplitPrompts(list, delim string) []string {
	if delim == "" {
		delim = DefaultDelimiter
	}
	parts := strings.Split(list, delim)
	prompts := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			prompts = append(prompts, p)
		}
	}
	return prompts
}
