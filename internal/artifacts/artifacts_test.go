package artifacts

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCreateProducesUniqueNames(t *testing.T) {
	store := NewStore(t.TempDir(), "/public/results")

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		f, a, err := store.Create(".png")
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		f.Close()

		if seen[a.Name] {
			t.Fatalf("duplicate artifact name %s", a.Name)
		}
		seen[a.Name] = true

		if !namePattern.MatchString(a.Name) {
			t.Errorf("name %q does not match pattern", a.Name)
		}
		if a.URL != "/public/results/"+a.Name {
			t.Errorf("unexpected URL %q", a.URL)
		}
	}
}

func TestReserveDoesNotCreate(t *testing.T) {
	store := NewStore(t.TempDir(), "/r/")
	a := store.Reserve(".mkv")

	if !strings.HasSuffix(a.Name, ".mkv") {
		t.Errorf("expected .mkv name, got %s", a.Name)
	}
	if _, err := os.Stat(a.Path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected reserved path to be absent, got %v", err)
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, "/r")

	f, a, err := store.Create(".png")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	f.Close()

	path, err := store.Open(a.Name)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if path != filepath.Join(dir, a.Name) {
		t.Errorf("unexpected path %s", path)
	}

	invalid := []string{"../secret.png", "encoded-1-zzzzzzzz.png", "notes.txt", "", "encoded-1-abcdef01.png/../x"}
	for _, name := range invalid {
		if _, err := store.Open(name); !errors.Is(err, ErrInvalidName) {
			t.Errorf("Open(%q) expected ErrInvalidName, got %v", name, err)
		}
	}

	if _, err := store.Open("encoded-1-abcdef01.png"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestDiscard(t *testing.T) {
	store := NewStore(t.TempDir(), "/r")
	f, a, err := store.Create(".png")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	f.Close()

	if err := store.Discard(a); err != nil {
		t.Fatalf("Discard failed: %v", err)
	}
	if err := store.Discard(a); err != nil {
		t.Errorf("second Discard should be a no-op, got %v", err)
	}
	if err := store.Discard(nil); err != nil {
		t.Errorf("Discard(nil) should be a no-op, got %v", err)
	}
}
