package scan

import "strings"

// maxLineLen guards against OCR garbage rows (whole-card single-line reads).
const maxLineLen = 120

// NormalizeLines splits raw OCR text into trimmed lines, dropping empty and
// overlong ones. Original order is preserved; positional heuristics in the
// name extractor depend on it.
func NormalizeLines(text string) []string {
	var out []string
	for _, l := range strings.Split(text, "\n") {
		l = strings.TrimSpace(l)
		if l == "" || len(l) > maxLineLen {
			continue
		}
		out = append(out, l)
	}
	return out
}
