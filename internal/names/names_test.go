package names

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"IMG_1234", "IMG_1234"},
		{"holiday photo", "holiday_photo"},
		{"été à Paris!", "_t_Paris_"},
		{"a..b", "a_b"},
		{"photo (1) copy", "photo_1_copy"},
		{"already-safe_name-2", "already-safe_name-2"},
		{"", "file"},
		{"日本語", "_"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := Sanitize(tt.raw); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestAllocate(t *testing.T) {
	dir := t.TempDir()
	a := New(dir, ".jpg")

	first, err := a.Allocate("photo")
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if first != "photo" {
		t.Errorf("first allocation = %q, want %q", first, "photo")
	}

	second, err := a.Allocate("photo")
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if second != "photo_0" {
		t.Errorf("second allocation = %q, want %q", second, "photo_0")
	}

	third, err := a.Allocate("photo")
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if third != "photo_1" {
		t.Errorf("third allocation = %q, want %q", third, "photo_1")
	}

	// Reservation files must exist for each allocation.
	for _, stem := range []string{"photo", "photo_0", "photo_1"} {
		if _, err := os.Stat(filepath.Join(dir, stem+".jpg")); err != nil {
			t.Errorf("reservation file for %q missing: %v", stem, err)
		}
	}
}

func TestAllocateSanitizesCollisions(t *testing.T) {
	dir := t.TempDir()
	a := New(dir, ".jpg")

	// Two distinct raw names that sanitize to the same stem.
	first, err := a.Allocate("my photo")
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	second, err := a.Allocate("my.photo")
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if first == second {
		t.Errorf("both raw names allocated %q", first)
	}
}

func TestAllocateRespectsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "photo.jpg"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	a := New(dir, ".jpg")
	got, err := a.Allocate("photo")
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if got != "photo_0" {
		t.Errorf("Allocate over existing file = %q, want %q", got, "photo_0")
	}
}

func TestAllocateConcurrent(t *testing.T) {
	dir := t.TempDir()
	a := New(dir, ".jpg")

	const n = 64
	stems := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			stem, err := a.Allocate("photo")
			if err != nil {
				t.Errorf("Allocate: %v", err)
				return
			}
			stems[i] = stem
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, n)
	for _, stem := range stems {
		if stem == "" {
			continue
		}
		if seen[stem] {
			t.Fatalf("stem %q allocated twice", stem)
		}
		seen[stem] = true
	}
	if len(seen) != n {
		t.Errorf("got %d unique stems, want %d", len(seen), n)
	}
}

func TestAllocateErrorOnMissingDir(t *testing.T) {
	a := New(filepath.Join(t.TempDir(), "missing"), ".jpg")
	if _, err := a.Allocate("photo"); err == nil {
		t.Fatal("Allocate into a missing directory succeeded")
	}
}
