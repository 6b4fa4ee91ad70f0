package scan

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestBuildResultFull(t *testing.T) {
	lines := []string{"Name: Jane Smith", "ID: 12345678"}
	res, err := BuildResult(lines, HeuristicDetector{}, time.Now())
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if res.Identifier != "12345678" || res.Name != "Name: Jane Smith" {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.SyntheticID || res.SyntheticName {
		t.Fatalf("nothing should be synthetic: %+v", res)
	}
}

func TestBuildResultSyntheticIdentifier(t *testing.T) {
	res, err := BuildResult([]string{"Jane Smith"}, HeuristicDetector{}, time.Now())
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if !res.SyntheticID {
		t.Fatalf("expected synthetic identifier: %+v", res)
	}
	if len(res.Identifier) != 10 {
		t.Fatalf("synthetic identifier must be 10 digits, got %q", res.Identifier)
	}
	for _, r := range res.Identifier {
		if r < '0' || r > '9' {
			t.Fatalf("synthetic identifier must be digit-only, got %q", res.Identifier)
		}
	}
	res2, _ := BuildResult([]string{"Jane Smith"}, HeuristicDetector{}, time.Now())
	if res2.Identifier == res.Identifier {
		t.Fatalf("consecutive synthetic identifiers must not collide: %q", res.Identifier)
	}
}

func TestBuildResultPlaceholderName(t *testing.T) {
	// bare ID token (no colon) trips the title-word skip, so no line survives
	// as a name candidate
	res, err := BuildResult([]string{"ID 555666777"}, HeuristicDetector{}, time.Now())
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if !res.SyntheticName {
		t.Fatalf("expected placeholder name: %+v", res)
	}
	if !strings.Contains(res.Name, res.Identifier) {
		t.Fatalf("placeholder must embed the identifier: %+v", res)
	}
}

func TestBuildResultTotalFailure(t *testing.T) {
	res, err := BuildResult(nil, HeuristicDetector{}, time.Now())
	if !errors.Is(err, ErrNothingExtracted) {
		t.Fatalf("expected ErrNothingExtracted got %v", err)
	}
	if !res.SyntheticID || !res.SyntheticName {
		t.Fatalf("both sides must be synthetic on total failure: %+v", res)
	}
}

func TestZeroConfidenceHeadIsNoName(t *testing.T) {
	// a line that passes the length gate but earns no signal must not be
	// accepted as the name; the digit-only neighbor carries no context words
	// so it cannot lift the score either
	res, err := BuildResult([]string{"zz 9@ kk !! pp", "9876543"}, nil, time.Now())
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if !res.SyntheticName {
		t.Fatalf("0-confidence head must fall back to placeholder: %+v", res)
	}
	if res.Identifier != "9876543" {
		t.Fatalf("identifier = %q, want bare-digit fallback 9876543", res.Identifier)
	}
}
