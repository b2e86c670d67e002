package geometry

import (
	"fmt"
	"math"
)

// Size is a width/height pair in pixels.
type Size struct {
	W int
	H int
}

// Megapixels returns the pixel count in millions.
func (s Size) Megapixels() float64 {
	return float64(s.W) * float64(s.H) / 1e6
}

// AspectRatio returns max(w,h)/min(w,h), so both portrait and landscape
// panoramas compare against the same threshold. Returns 0 for degenerate
// sizes.
func (s Size) AspectRatio() float64 {
	if s.W <= 0 || s.H <= 0 {
		return 0
	}
	long, short := float64(s.W), float64(s.H)
	if short > long {
		long, short = short, long
	}
	return long / short
}

// IsZero reports whether either dimension is unset.
func (s Size) IsZero() bool {
	return s.W == 0 || s.H == 0
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.W, s.H)
}

// Center is a normalized focal point, each axis in [0,1].
type Center struct {
	X float64
	Y float64
}

// DefaultCenter is the middle of the image.
var DefaultCenter = Center{X: 0.5, Y: 0.5}

// PerMille quantizes the center to integer per-mille on each axis.
func (c Center) PerMille() (int, int) {
	return int(math.Round(c.X * 1000)), int(math.Round(c.Y * 1000))
}

// IsDefault reports whether the center is within ±1‰ of the middle on both
// axes. Such a center carries no information and is omitted from the
// manifest.
func (c Center) IsDefault() bool {
	x, y := c.PerMille()
	return x >= 499 && x <= 501 && y >= 499 && y <= 501
}

// ThumbSpec describes how one thumbnail is produced: the source dimensions,
// the scaled (pre-crop) dimensions, the final crop size, and where the crop
// window sits inside the scaled image.
type ThumbSpec struct {
	Source  Size
	Scaled  Size
	Crop    Size
	OffsetX int
	OffsetY int

	// Distinct is set when the scaled and cropped dimensions differ. When
	// they are equal the manifest omits the scaled size and offset.
	Distinct bool
}

// Compute determines the scale and crop window for a thumbnail.
//
// The source is scaled uniformly so that it covers the min box on its
// shorter-constrained axis, the scaled dimensions are clamped to the max
// box, and the crop window is centered on the focal point without leaving
// the scaled image bounds.
func Compute(source, min, max Size, center Center) ThumbSpec {
	srcAspect := float64(source.W) / float64(source.H)
	minAspect := float64(min.W) / float64(min.H)

	var scale float64
	if srcAspect < minAspect {
		scale = float64(min.W) / float64(source.W)
	} else {
		scale = float64(min.H) / float64(source.H)
	}

	scaled := Size{
		W: int(math.Round(float64(source.W) * scale)),
		H: int(math.Round(float64(source.H) * scale)),
	}
	// Absorb rounding: the scaled image must cover the min box.
	if scaled.W < min.W {
		scaled.W = min.W
	}
	if scaled.H < min.H {
		scaled.H = min.H
	}

	crop := Size{
		W: minInt(scaled.W, max.W),
		H: minInt(scaled.H, max.H),
	}

	return ThumbSpec{
		Source:   source,
		Scaled:   scaled,
		Crop:     crop,
		OffsetX:  cropOffset(center.X, scaled.W, crop.W),
		OffsetY:  cropOffset(center.Y, scaled.H, crop.H),
		Distinct: scaled != crop,
	}
}

// cropOffset centers a window of length crop on the focal fraction within a
// span of length scaled, clamped so the window stays inside the span.
func cropOffset(fraction float64, scaled, crop int) int {
	offset := int(math.Round(fraction*float64(scaled) - float64(crop)/2))
	if offset < 0 {
		offset = 0
	}
	if limit := scaled - crop; offset > limit {
		offset = limit
	}
	return offset
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
