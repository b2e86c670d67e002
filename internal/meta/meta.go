package meta

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"gallerize/internal/geometry"
	"gallerize/internal/logging"
	"gallerize/internal/mediatypes"
	"gallerize/internal/video"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// TimeSource tags where a capture timestamp came from.
type TimeSource string

const (
	// TimeOriginal is the EXIF original-capture time.
	TimeOriginal TimeSource = "original"
	// TimeModified is the EXIF modification time.
	TimeModified TimeSource = "modified"
	// TimeCreated is the EXIF digitization/creation time.
	TimeCreated TimeSource = "created"
	// TimeSynthetic is a counter value assigned when no capture time exists.
	TimeSynthetic TimeSource = "synthetic"
)

// Real reports whether the source carries an actual clock time.
func (s TimeSource) Real() bool {
	return s != TimeSynthetic
}

// Properties holds the extracted metadata of one source file. Populated
// once during the analysis phase and read-only afterward.
type Properties struct {
	Size        geometry.Size
	Format      string
	Orientation int
	Uncropped   geometry.Size

	// Video-only fields.
	Duration float64
	Codec    string

	Taken      time.Time
	TimeSource TimeSource

	// Stamp is the sort key: epoch seconds for real timestamps, a small
	// positive counter value for synthetic ones.
	Stamp int64
}

// Counter is the batch-global synthetic timestamp allocator. Values are
// strictly increasing and never collide, even when Next is called from
// concurrent workers.
type Counter struct {
	mu   sync.Mutex
	last int64
}

// Next returns the next synthetic timestamp.
func (c *Counter) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last++
	return c.last
}

// Collector analyzes source files. One Collector serves the whole batch;
// Analyze is safe for concurrent use.
type Collector struct {
	counter Counter
}

// NewCollector creates a Collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Analyze extracts the properties of one source file. Files with no
// capture timestamp get a synthetic one from the batch counter.
func (c *Collector) Analyze(ctx context.Context, path string, kind mediatypes.Kind) (Properties, error) {
	var props Properties
	var err error

	switch kind {
	case mediatypes.KindImage:
		props, err = analyzeImage(path)
	case mediatypes.KindVideo:
		props, err = analyzeVideo(ctx, path)
	default:
		return Properties{}, fmt.Errorf("unsupported media kind %q for %s", kind, path)
	}
	if err != nil {
		return Properties{}, err
	}

	if props.TimeSource == TimeSynthetic {
		props.Stamp = c.counter.Next()
	} else {
		props.Stamp = props.Taken.Unix()
	}

	logging.Debug("analyzed %s: %s %s orientation=%d time=%s",
		filepath.Base(path), props.Size, props.Format, props.Orientation, props.TimeSource)
	return props, nil
}

func analyzeImage(path string) (Properties, error) {
	f, err := os.Open(path)
	if err != nil {
		return Properties{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return Properties{}, fmt.Errorf("failed to read image header of %s: %w", path, err)
	}

	props := Properties{
		Size:        geometry.Size{W: cfg.Width, H: cfg.Height},
		Format:      format,
		Orientation: 1,
		TimeSource:  TimeSynthetic,
	}

	fields, err := exifFields(path)
	if err != nil {
		// Missing or malformed EXIF is normal; the file still gets
		// processed with synthetic time and default orientation.
		logging.Debug("no usable EXIF in %s: %v", filepath.Base(path), err)
		return props, nil
	}

	if v, ok := fields["Orientation"]; ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n >= 1 && n <= 8 {
			props.Orientation = n
		}
	}

	if w, h, ok := uncroppedDims(fields); ok {
		props.Uncropped = geometry.Size{W: w, H: h}
	}

	if t, source, ok := captureTime(fields); ok {
		props.Taken = t
		props.TimeSource = source
	}

	return props, nil
}

func analyzeVideo(ctx context.Context, path string) (Properties, error) {
	info, err := video.Probe(ctx, path)
	if err != nil {
		return Properties{}, err
	}

	props := Properties{
		Size:       info.Size(),
		Format:     strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."),
		Duration:   info.Duration,
		Codec:      info.Codec,
		TimeSource: TimeSynthetic,
	}
	if !info.Created.IsZero() {
		props.Taken = info.Created
		props.TimeSource = TimeOriginal
	}
	return props, nil
}

// timestampFields lists EXIF tags in priority order: original-capture time,
// then modification time, then creation time.
var timestampFields = []struct {
	tag    string
	source TimeSource
}{
	{"DateTimeOriginal", TimeOriginal},
	{"DateTime", TimeModified},
	{"DateTimeDigitized", TimeCreated},
}

const exifTimeLayout = "2006:01:02 15:04:05"

func captureTime(fields map[string]string) (time.Time, TimeSource, bool) {
	for _, tf := range timestampFields {
		v, ok := fields[tf.tag]
		if !ok {
			continue
		}
		if t, err := time.Parse(exifTimeLayout, strings.TrimSpace(v)); err == nil {
			return t, tf.source, true
		}
	}
	return time.Time{}, TimeSynthetic, false
}

func uncroppedDims(fields map[string]string) (int, int, bool) {
	w, okW := fields["OriginalImageWidth"]
	h, okH := fields["OriginalImageHeight"]
	if !okW || !okH {
		return 0, 0, false
	}
	width, errW := strconv.Atoi(strings.TrimSpace(w))
	height, errH := strconv.Atoi(strings.TrimSpace(h))
	if errW != nil || errH != nil || width <= 0 || height <= 0 {
		return 0, 0, false
	}
	return width, height, true
}

// Average returns the batch average megapixels, a phase-barrier aggregate
// required by the retention policy.
func Average(props []Properties) float64 {
	if len(props) == 0 {
		return 0
	}
	var sum float64
	for _, p := range props {
		sum += p.Size.Megapixels()
	}
	return sum / float64(len(props))
}
