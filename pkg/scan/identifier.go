package scan

import (
	"regexp"
	"strings"
)

// identifierRule is one step of the cascade. Rules run in declaration order;
// keeping them as named values (rather than inline literals) makes the
// precedence explicit and lets tests exercise each rule alone.
type identifierRule struct {
	name string
	kind ruleKind
	re   *regexp.Regexp
}

type ruleKind string

const (
	ruleLabeled ruleKind = "labeled-digits"
	ruleBare    ruleKind = "bare-digits"
)

// combinedIDRE is tried first: an id-indicator phrase, an optional qualifier
// (number/#/no), then 5-12 digits possibly broken up by OCR separators.
var combinedIDRE = regexp.MustCompile(`(?i)\b(?:student\s*id|identification|id)\s*(?:number|no\.?|#)?\s*[:\-]?\s*([0-9][0-9.\-]{3,14})`)

var identifierRules = []identifierRule{
	{name: "id-hash", kind: ruleLabeled, re: regexp.MustCompile(`(?i)\bid\s*#\s*([0-9][0-9.\-]{3,14})`)},
	{name: "student-id", kind: ruleLabeled, re: regexp.MustCompile(`(?i)\bstudent\s*id[:\s#]*([0-9][0-9.\-]{3,14})`)},
	{name: "id-number", kind: ruleLabeled, re: regexp.MustCompile(`(?i)\bid\s*number[:\s#]*([0-9][0-9.\-]{3,14})`)},
	{name: "id-generic", kind: ruleLabeled, re: regexp.MustCompile(`(?i)\bid[:\s#]*([0-9][0-9.\-]{3,14})`)},
	{name: "bare-digits", kind: ruleBare, re: regexp.MustCompile(`\b([0-9]{7,10})\b`)},
}

const (
	minIDDigits = 5
	maxIDDigits = 12
)

// ExtractIdentifierCandidates scans the whole OCR text for student-id shaped
// digit runs. Every rule contributes; duplicates (same digit string reached by
// different rules) are collapsed keeping first-occurrence order, so the head
// of the returned slice is the accepted identifier.
func ExtractIdentifierCandidates(text string) []string {
	var out []string
	seen := map[string]struct{}{}
	add := func(raw string) {
		d := onlyDigits(raw)
		if len(d) < minIDDigits || len(d) > maxIDDigits {
			return
		}
		if _, ok := seen[d]; ok {
			return
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	if m := combinedIDRE.FindStringSubmatch(text); len(m) >= 2 {
		add(m[1])
	}
	for _, rule := range identifierRules {
		for _, m := range rule.re.FindAllStringSubmatch(text, -1) {
			if len(m) >= 2 {
				add(m[1])
			}
		}
	}
	return out
}

// onlyDigits extracts decimal digits from a string.
func onlyDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}
