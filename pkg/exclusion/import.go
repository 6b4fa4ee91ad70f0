package exclusion

import "strings"

// ParseList reads the plain-text import format: one name per line, blank
// lines ignored. Order is preserved, duplicates (after canonicalization)
// collapsed to the first occurrence.
func ParseList(text string) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, l := range strings.Split(text, "\n") {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		key := canonical(l)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, l)
	}
	return out
}
