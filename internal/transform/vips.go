//go:build cgo

package transform

import (
	"bytes"
	"fmt"
	"image"
	"path/filepath"
	"sync"

	"gallerize/internal/logging"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/disintegration/imaging"
)

var (
	vipsInitialized bool
	vipsInitMutex   sync.Mutex
	vipsAvailable   bool
)

// InitVips initializes the libvips library. Called once at startup; safe to
// call again.
func InitVips() {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		return
	}

	// Quiet by default: vips chatter only surfaces as our own debug/warn
	// lines, at a verbosity matching the configured log level.
	vipsLogLevel := vips.LogLevelWarning
	if logging.GetLevel() <= logging.LevelDebug {
		vipsLogLevel = vips.LogLevelInfo
	}
	vips.LoggingSettings(func(domain string, level vips.LogLevel, msg string) {
		switch {
		case level <= vips.LogLevelError:
			logging.Error("[%s] %s", domain, msg)
		case level == vips.LogLevelWarning:
			logging.Warn("[%s] %s", domain, msg)
		default:
			logging.Debug("[%s] %s", domain, msg)
		}
	}, vipsLogLevel)

	// Workers parallelize across files, so each vips operation runs
	// single-threaded with a small cache.
	vips.Startup(&vips.Config{
		ConcurrencyLevel: 1,
		MaxCacheMem:      50 * 1024 * 1024,
		MaxCacheSize:     100,
	})

	vipsInitialized = true
	vipsAvailable = true
	logging.Info("libvips initialized (version: %s)", vips.Version)
}

// ShutdownVips cleans up libvips resources.
func ShutdownVips() {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		vips.Shutdown()
		vipsInitialized = false
		vipsAvailable = false
	}
}

func isVipsAvailable() bool {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()
	return vipsAvailable
}

// loadWithVips decodes an image shrunk toward the target box during decode,
// which is far cheaper than decoding full-size pixels and resizing after.
// The result is still larger than the target; the caller does the exact
// gamma-correct resize.
func loadWithVips(path string, targetW, targetH int) (image.Image, error) {
	ref, err := vips.LoadImageFromFile(path, vips.NewImportParams())
	if err != nil {
		return nil, fmt.Errorf("vips failed to load %s: %w", path, err)
	}
	defer ref.Close()

	logging.Debug("vips loaded %s: %dx%d, shrinking toward %dx%d",
		filepath.Base(path), ref.Width(), ref.Height(), targetW, targetH)

	// Shrink to twice the target so the final Lanczos pass still has
	// headroom to work with. Smaller sources pass through untouched.
	if ref.Width() > targetW*2 && ref.Height() > targetH*2 {
		if err := ref.Thumbnail(targetW*2, targetH*2, vips.InterestingNone); err != nil {
			return nil, fmt.Errorf("vips shrink failed for %s: %w", path, err)
		}
	}

	imgBytes, _, err := ref.ExportJpeg(&vips.JpegExportParams{
		Quality:        95,
		OptimizeCoding: true,
	})
	if err != nil {
		return nil, fmt.Errorf("vips export failed for %s: %w", path, err)
	}

	img, err := imaging.Decode(bytes.NewReader(imgBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to decode vips output for %s: %w", path, err)
	}
	return img, nil
}
