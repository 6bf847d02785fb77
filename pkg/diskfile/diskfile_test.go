package diskfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestHashKey(t *testing.T) {
	a, b := HashKey("predict|AAPL|5|xgboost"), HashKey("predict|AAPL|5|xgboost")
	if a != b {
		t.Errorf("HashKey not deterministic: %q / %q", a, b)
	}
	if len(a) != 16 {
		t.Errorf("HashKey length = %d, want 16", len(a))
	}
	if HashKey("a/b") == HashKey("a_b") {
		t.Error("distinct keys should hash differently")
	}
}

func TestWriteAtomicReplaces(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "entry")

	for _, want := range []string{"first", "second"} {
		if err := WriteAtomic(path, []byte(want), dir); err != nil {
			t.Fatalf("WriteAtomic: %v", err)
		}
		got, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != want {
			t.Errorf("contents = %q, want %q", got, want)
		}
	}

	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), TempPrefix) {
			t.Errorf("temporary file left behind: %s", e.Name())
		}
	}
}

func TestWriteAtomicCleansUpOnFailure(t *testing.T) {
	dir := t.TempDir()
	// Renaming a file over a directory fails.
	target := filepath.Join(dir, "occupied")
	if err := os.MkdirAll(filepath.Join(target, "child"), 0755); err != nil {
		t.Fatal(err)
	}

	if err := WriteAtomic(target, []byte("x"), dir); err == nil {
		t.Fatal("expected error writing over a non-empty directory")
	}
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), TempPrefix) {
			t.Errorf("temporary file left behind: %s", e.Name())
		}
	}
}
