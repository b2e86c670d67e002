// Package names assigns collision-free, filesystem-safe output basenames.
package names

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Allocator reserves output basenames against a single directory namespace.
// Reservation is an atomic create-exclusive of the reservation file, so it
// is race-free under concurrent workers and across processes sharing the
// output directory.
type Allocator struct {
	dir string
	ext string
}

// New creates an Allocator reserving names in dir. ext is the extension of
// the reservation file, including the dot; a stem unique for dir/<stem><ext>
// is unique for every derivative directory because all derivatives of one
// asset share the stem.
func New(dir, ext string) *Allocator {
	return &Allocator{dir: dir, ext: ext}
}

// Sanitize replaces every run of characters outside [0-9A-Za-z_-] with a
// single underscore. An empty result becomes "file".
func Sanitize(raw string) string {
	var b strings.Builder
	pending := false
	for _, r := range raw {
		safe := r == '-' || r == '_' ||
			(r >= '0' && r <= '9') ||
			(r >= 'A' && r <= 'Z') ||
			(r >= 'a' && r <= 'z')
		if safe {
			if pending {
				b.WriteByte('_')
				pending = false
			}
			b.WriteRune(r)
		} else {
			pending = true
		}
	}
	if pending {
		b.WriteByte('_')
	}
	if b.Len() == 0 {
		return "file"
	}
	return b.String()
}

// Allocate sanitizes raw and reserves a unique stem: first the sanitized
// name itself, then _0, _1, ... suffixes until an unused one is secured.
// The check and the reservation are one indivisible operation per candidate
// (O_CREATE|O_EXCL), never a check-then-create pair.
func (a *Allocator) Allocate(raw string) (string, error) {
	stem := Sanitize(raw)

	for n := -1; ; n++ {
		candidate := stem
		if n >= 0 {
			candidate = fmt.Sprintf("%s_%d", stem, n)
		}

		f, err := os.OpenFile(filepath.Join(a.dir, candidate+a.ext),
			os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			f.Close()
			return candidate, nil
		}
		if !os.IsExist(err) {
			return "", fmt.Errorf("failed to reserve output name %q: %w", candidate, err)
		}
	}
}
