package scan

import "testing"

func TestExtractIdentifierLabeled(t *testing.T) {
	got := ExtractIdentifierCandidates("Name: Jane Smith\nID: 12345678\nUniversity College")
	if len(got) != 1 || got[0] != "12345678" {
		t.Fatalf("expected [12345678] got %v", got)
	}
}

func TestIdentifierDedup(t *testing.T) {
	// same digit string reachable via the hash rule, the generic rule and the
	// bare fallback still counts once
	got := ExtractIdentifierCandidates("ID # 9988776 issued 2020\nbarcode 9988776")
	n := 0
	for _, c := range got {
		if c == "9988776" {
			n++
		}
	}
	if n != 1 {
		t.Fatalf("expected exactly one 9988776, got %v", got)
	}
	if got[0] != "9988776" {
		t.Fatalf("accepted identifier must be 9988776, got %v", got)
	}
}

func TestIdentifierSeparatorsStripped(t *testing.T) {
	got := ExtractIdentifierCandidates("STUDENT ID 2021-00123")
	if len(got) == 0 || got[0] != "202100123" {
		t.Fatalf("expected 202100123 got %v", got)
	}
}

func TestIdentifierBareFallback(t *testing.T) {
	got := ExtractIdentifierCandidates("some noise 9876543 more noise")
	if len(got) != 1 || got[0] != "9876543" {
		t.Fatalf("expected bare 7-digit fallback, got %v", got)
	}
}

func TestIdentifierBareLengthBounds(t *testing.T) {
	if got := ExtractIdentifierCandidates("123456"); len(got) != 0 {
		t.Fatalf("6 bare digits must not match, got %v", got)
	}
	if got := ExtractIdentifierCandidates("12345678901"); len(got) != 0 {
		t.Fatalf("11 bare digits must not match, got %v", got)
	}
}

func TestIdentifierLabeledPrecedence(t *testing.T) {
	// labeled digits beat an earlier bare run because rules cascade in order
	got := ExtractIdentifierCandidates("7770001 text ID NUMBER 55667")
	if len(got) < 2 || got[0] != "55667" {
		t.Fatalf("labeled id must rank first, got %v", got)
	}
}

func TestIdentifierPerRule(t *testing.T) {
	cases := map[string]string{
		"ID # 12345":             "12345",
		"STUDENT ID 445566":      "445566",
		"ID NUMBER 778899":       "778899",
		"id 13579 on the back":   "13579",
		"identification 2468013": "2468013",
	}
	for text, want := range cases {
		got := ExtractIdentifierCandidates(text)
		if len(got) == 0 || got[0] != want {
			t.Fatalf("text %q: expected %s got %v", text, want, got)
		}
	}
}

func TestIdentifierStopsAtWhitespace(t *testing.T) {
	// trailing text after the id must not be glued onto the capture
	got := ExtractIdentifierCandidates("ID: 12345678 2026 Main St")
	if len(got) == 0 || got[0] != "12345678" {
		t.Fatalf("expected head 12345678, got %v", got)
	}
	for _, c := range got {
		if c == "123456782026" {
			t.Fatalf("adjacent digit runs were merged: %v", got)
		}
	}
}
