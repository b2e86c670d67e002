// Package retain decides whether a full-resolution original is kept in the
// gallery's download tree or discarded after derivatives are generated.
package retain

import (
	"gallerize/internal/geometry"
	"gallerize/internal/logging"
)

// Override forces the retention decision regardless of the heuristic.
type Override int

const (
	// Auto applies the panorama heuristic.
	Auto Override = iota
	// Always keeps every original.
	Always
	// Never discards every original.
	Never
)

// DefaultAspectThreshold is the aspect ratio above which an image counts as
// a panorama.
const DefaultAspectThreshold = 2.0

// Policy holds the retention configuration for one run.
type Policy struct {
	Override        Override
	AspectThreshold float64
}

// Keep reports whether the original behind an asset should be preserved for
// download.
//
// Under Auto, an original is kept only when all three hold: its megapixels
// are at least the uncropped megapixels reported by metadata (the file is
// not a crop of something larger), its megapixels exceed the batch average,
// and its aspect ratio meets the panorama threshold. The intent is to
// preserve full-resolution panoramas while discarding ordinary originals to
// save space.
//
// When metadata reports no uncropped dimensions, uncropped is zero and the
// first condition holds trivially: the asset is treated as uncropped.
func (p Policy) Keep(asset, uncropped geometry.Size, batchAvgMegapixels float64) bool {
	switch p.Override {
	case Always:
		return true
	case Never:
		return false
	}

	threshold := p.AspectThreshold
	if threshold <= 0 {
		threshold = DefaultAspectThreshold
	}

	mpx := asset.Megapixels()
	keep := mpx >= uncropped.Megapixels() &&
		mpx > batchAvgMegapixels &&
		asset.AspectRatio() >= threshold
	if keep {
		logging.Debug("retaining original: %s (%.1f mpx, aspect %.2f, batch avg %.1f mpx)",
			asset, mpx, asset.AspectRatio(), batchAvgMegapixels)
	}
	return keep
}
