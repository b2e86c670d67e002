//go:build !cgo

package transform

import (
	"fmt"
	"image"
)

// govips is a cgo binding to libvips, so builds without cgo cannot include
// it; these stubs report vips as unavailable, which routes all decoding
// through the pure-Go fallback path in transform.go.

// InitVips is a no-op without cgo; libvips is never available.
func InitVips() {}

// ShutdownVips is a no-op without cgo.
func ShutdownVips() {}

func isVipsAvailable() bool { return false }

func loadWithVips(path string, targetW, targetH int) (image.Image, error) {
	return nil, fmt.Errorf("libvips support not compiled in (cgo disabled)")
}
