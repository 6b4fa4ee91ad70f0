package scan

import (
	"regexp"
	"sort"
	"strings"
)

// NameCandidate is a scored line; higher confidence wins, ties keep OCR order.
type NameCandidate struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

const (
	minNameLen = 4
	maxNameLen = 50
)

// titleWords are card-furniture tokens; a line carrying any of them is never a name.
var titleWords = map[string]struct{}{
	"student":    {},
	"id":         {},
	"card":       {},
	"university": {},
	"college":    {},
	"school":     {},
}

// nameShapeREs: First Last, First M. Last, Name: First Last,
// Student: First Last, Last, First.
var nameShapeREs = []*regexp.Regexp{
	regexp.MustCompile(`^[A-Z][a-z]+\s+[A-Z][a-z]+$`),
	regexp.MustCompile(`^[A-Z][a-z]+\s+[A-Z]\.\s+[A-Z][a-z]+$`),
	regexp.MustCompile(`^Name:\s*[A-Z][a-z]+\s+[A-Z][a-z]+$`),
	regexp.MustCompile(`^Student:\s*[A-Z][a-z]+\s+[A-Z][a-z]+$`),
	regexp.MustCompile(`^[A-Z][a-z]+,\s*[A-Z][a-z]+$`),
}

var nameIndicators = []string{"name:", "student:", "student name:"}

var twoTokenRE = regexp.MustCompile(`^[A-Z][a-z]+\s+[A-Z][a-z]+$`)

var nameCharsetRE = regexp.MustCompile(`^[A-Za-z\s.\-]+$`)

// ExtractNameCandidates scores every usable line as a potential person name
// and returns the full ranked list (best first). Confidence is a plain sum of
// independent signals so each heuristic stays testable on its own; callers
// must treat a 0-confidence head as "no usable name".
func ExtractNameCandidates(lines []string, det NameDetector) []NameCandidate {
	var out []NameCandidate
	for i, line := range lines {
		if len(line) < minNameLen || len(line) > maxNameLen {
			continue
		}
		if hasTitleWord(line) {
			continue
		}
		conf := 0.0
		if det != nil && det.IsPersonName(line) {
			conf += 0.6
			if twoTokenRE.MatchString(line) {
				conf += 0.2
			}
		}
		for _, re := range nameShapeREs {
			if re.MatchString(line) {
				conf += 0.4
				break
			}
		}
		low := strings.ToLower(line)
		for _, ind := range nameIndicators {
			if strings.Contains(low, ind) {
				conf += 0.4
				break
			}
		}
		if allTokensProperCase(line) {
			conf += 0.3
		}
		if n := len(strings.Fields(line)); n == 2 || n == 3 {
			conf += 0.2
		}
		if nameCharsetRE.MatchString(line) {
			conf += 0.2
		}
		if contextSuggestsName(lines, i) {
			conf += 0.3
		}
		out = append(out, NameCandidate{Text: line, Confidence: conf})
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Confidence > out[b].Confidence })
	return out
}

func hasTitleWord(line string) bool {
	for _, tok := range strings.Fields(line) {
		if _, ok := titleWords[strings.ToLower(tok)]; ok {
			return true
		}
	}
	return false
}

var properCaseTokenRE = regexp.MustCompile(`^[A-Z][a-z]*$`)

func allTokensProperCase(line string) bool {
	toks := strings.Fields(line)
	if len(toks) == 0 {
		return false
	}
	for _, t := range toks {
		if !properCaseTokenRE.MatchString(t) {
			return false
		}
	}
	return true
}

// contextSuggestsName checks the neighbouring lines: a "name"/"student" label
// above or an "id"/"number" row below is how these cards are typically laid out.
func contextSuggestsName(lines []string, i int) bool {
	if i > 0 {
		prev := strings.ToLower(lines[i-1])
		if strings.Contains(prev, "name") || strings.Contains(prev, "student") {
			return true
		}
	}
	if i+1 < len(lines) {
		next := strings.ToLower(lines[i+1])
		if strings.Contains(next, "id") || strings.Contains(next, "number") {
			return true
		}
	}
	return false
}
