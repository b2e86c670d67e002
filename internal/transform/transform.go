package transform

import (
	"fmt"
	"image"
	"io"
	"math"
	"os"

	"gallerize/internal/geometry"
	"gallerize/internal/logging"

	"github.com/disintegration/imaging"

	_ "image/gif"

	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// blurQuality is the JPEG quality of blur placeholders. They are viewed
// through heavy blur, so aggressive compression is invisible.
const blurQuality = 70

// Engine performs the image transforms of the asset phase. One Engine is
// shared by all workers; it holds no per-file state.
type Engine struct {
	quality int
}

// NewEngine creates an Engine encoding JPEG outputs at the given quality
// (1-100).
func NewEngine(quality int) *Engine {
	return &Engine{quality: quality}
}

// Dimensions reads the pixel dimensions of an image from its header without
// decoding the pixels.
func Dimensions(path string) (geometry.Size, error) {
	f, err := os.Open(path)
	if err != nil {
		return geometry.Size{}, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return geometry.Size{}, fmt.Errorf("failed to read image header of %s: %w", path, err)
	}
	return geometry.Size{W: cfg.Width, H: cfg.Height}, nil
}

// load decodes src, shrinking toward the target box during decode when
// libvips is available.
func (e *Engine) load(path string, targetW, targetH int) (image.Image, error) {
	if isVipsAvailable() {
		img, err := loadWithVips(path, targetW, targetH)
		if err == nil {
			return img, nil
		}
		logging.Debug("vips load failed for %s, falling back to pure-Go decode: %v", path, err)
	}
	return imaging.Open(path)
}

// Preview generates the full-size preview: src scaled to fit within the max
// box, never upscaled, encoded as JPEG. Returns the preview dimensions.
func (e *Engine) Preview(src, dst string, max geometry.Size) (geometry.Size, error) {
	img, err := e.load(src, max.W, max.H)
	if err != nil {
		return geometry.Size{}, fmt.Errorf("failed to decode %s: %w", src, err)
	}

	bounds := img.Bounds()
	srcSize := geometry.Size{W: bounds.Dx(), H: bounds.Dy()}
	target := fitWithin(srcSize, max)

	if target != srcSize {
		img = resizeGamma(img, target.W, target.H)
	}

	if err := imaging.Save(img, dst, imaging.JPEGQuality(e.quality)); err != nil {
		return geometry.Size{}, fmt.Errorf("failed to write preview %s: %w", dst, err)
	}
	return target, nil
}

// Thumbnail scales src to the pre-crop dimensions and cuts the crop window
// out of it.
func (e *Engine) Thumbnail(src, dst string, spec geometry.ThumbSpec) error {
	img, err := e.load(src, spec.Scaled.W, spec.Scaled.H)
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", src, err)
	}

	img = resizeGamma(img, spec.Scaled.W, spec.Scaled.H)
	if spec.Distinct {
		img = imaging.Crop(img, image.Rect(
			spec.OffsetX, spec.OffsetY,
			spec.OffsetX+spec.Crop.W, spec.OffsetY+spec.Crop.H))
	}

	if err := imaging.Save(img, dst, imaging.JPEGQuality(e.quality)); err != nil {
		return fmt.Errorf("failed to write thumbnail %s: %w", dst, err)
	}
	return nil
}

// Blur produces the low-res placeholder: the thumbnail filled onto the blur
// canvas and gaussian-blurred.
func (e *Engine) Blur(src, dst string, canvas geometry.Size, radius float64) error {
	img, err := imaging.Open(src)
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", src, err)
	}

	img = imaging.Fill(img, canvas.W, canvas.H, imaging.Center, imaging.Lanczos)
	img = imaging.Blur(img, radius)

	if err := imaging.Save(img, dst, imaging.JPEGQuality(blurQuality)); err != nil {
		return fmt.Errorf("failed to write blur %s: %w", dst, err)
	}
	return nil
}

// BlurRadius derives the placeholder blur radius from the minimum thumbnail
// bounds: a tenth of their average dimension.
func BlurRadius(min geometry.Size) float64 {
	return float64(min.W+min.H) / 2 * 0.1
}

// resizeGamma resizes through linear light: gamma-expand, scale, compress.
// Resizing gamma-compressed sRGB directly darkens high-contrast detail.
func resizeGamma(img image.Image, w, h int) image.Image {
	lin := imaging.AdjustGamma(img, 1/2.2)
	res := imaging.Resize(lin, w, h, imaging.Lanczos)
	return imaging.AdjustGamma(res, 2.2)
}

// fitWithin scales size down to fit inside box, preserving aspect ratio and
// never upscaling.
func fitWithin(size, box geometry.Size) geometry.Size {
	if size.W <= box.W && size.H <= box.H {
		return size
	}
	scale := math.Min(float64(box.W)/float64(size.W), float64(box.H)/float64(size.H))
	return geometry.Size{
		W: maxInt(1, int(math.Round(float64(size.W)*scale))),
		H: maxInt(1, int(math.Round(float64(size.H)*scale))),
	}
}

// CopyFile copies src to dst through a temp file and rename, so a crash
// never leaves a half-written file under the final name.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp := dst + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dst)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
