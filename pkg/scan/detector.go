package scan

import "regexp"

// NameDetector classifies a text line as containing a person's name. The
// original design hid this behind a lazily-initialized global model; keeping
// it an explicit capability lets callers inject a real NER backend and lets
// tests stub it out.
type NameDetector interface {
	IsPersonName(line string) bool
}

// HeuristicDetector is the default NameDetector: a shape-based approximation
// good enough for latin-script ID cards (sequences of capitalized tokens,
// optional middle initial, optional hyphenated surname).
type HeuristicDetector struct{}

var personShapeRE = regexp.MustCompile(`^[A-Z][a-z]+(?:\s+[A-Z]\.?)?(?:\s+[A-Z][a-z]+(?:-[A-Z][a-z]+)?){1,3}$`)

func (HeuristicDetector) IsPersonName(line string) bool {
	return personShapeRE.MatchString(line)
}
