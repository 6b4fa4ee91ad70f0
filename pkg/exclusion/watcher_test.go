package exclusion

import (
	"os"
	"path/filepath"
	"testing"
)

func TestImportFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "42.txt")
	if err := os.WriteFile(path, []byte("John Smith\nJane Doe\n"), 0644); err != nil {
		t.Fatal(err)
	}
	var gotKey string
	var gotNames []string
	importFile(path, func(key string, names []string) {
		gotKey = key
		gotNames = names
	})
	if gotKey != "42" {
		t.Fatalf("expected key 42 got %q", gotKey)
	}
	if len(gotNames) != 2 || gotNames[0] != "John Smith" {
		t.Fatalf("unexpected names %v", gotNames)
	}
}

func TestImportFileEmptyListIgnored(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "global.txt")
	if err := os.WriteFile(path, []byte("\n\n"), 0644); err != nil {
		t.Fatal(err)
	}
	called := false
	importFile(path, func(string, []string) { called = true })
	if called {
		t.Fatalf("empty list must not be imported")
	}
}
