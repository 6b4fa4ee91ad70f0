package scan

import (
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Result is the outcome of one scan: the accepted identifier and name, with
// synthetic fallbacks substituted when extraction came up empty on one side.
type Result struct {
	Identifier        string          `json:"identifier"`
	Name              string          `json:"name"`
	SyntheticID       bool            `json:"synthetic_id"`
	SyntheticName     bool            `json:"synthetic_name"`
	CapturedAt        time.Time       `json:"captured_at"`
	NameCandidates    []NameCandidate `json:"name_candidates,omitempty"`
	IdentifierMatches []string        `json:"identifier_matches,omitempty"`
}

// BuildResult runs both extractors over the normalized lines and resolves the
// final (identifier, name) pair. A missing identifier gets a generated one; a
// missing name gets a placeholder that embeds the identifier. When both sides
// are synthetic the scan carried no signal at all and ErrNothingExtracted is
// returned so callers stop before the ledger.
func BuildResult(lines []string, det NameDetector, now time.Time) (Result, error) {
	res := Result{CapturedAt: now}
	res.NameCandidates = ExtractNameCandidates(lines, det)
	res.IdentifierMatches = ExtractIdentifierCandidates(strings.Join(lines, "\n"))

	if len(res.IdentifierMatches) > 0 {
		res.Identifier = res.IdentifierMatches[0]
	} else {
		res.Identifier = syntheticIdentifier(now)
		res.SyntheticID = true
	}
	if len(res.NameCandidates) > 0 && res.NameCandidates[0].Confidence > 0 {
		res.Name = res.NameCandidates[0].Text
	} else {
		res.Name = fmt.Sprintf("Unknown (%s)", res.Identifier)
		res.SyntheticName = true
	}
	if res.SyntheticID && res.SyntheticName {
		return res, ErrNothingExtracted
	}
	return res, nil
}

// syntheticIdentifier generates a digit-only stand-in id. Each of the ULID's
// ten entropy bytes maps to one digit, so the stand-in is shaped like a real
// card number and downstream storage treats it uniformly.
func syntheticIdentifier(now time.Time) string {
	u := ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy())
	buf := make([]byte, 0, 10)
	for _, b := range u.Entropy() {
		buf = append(buf, '0'+b%10)
	}
	return string(buf)
}
