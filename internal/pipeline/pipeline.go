package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gallerize/internal/archive"
	"gallerize/internal/config"
	"gallerize/internal/executor"
	"gallerize/internal/faces"
	"gallerize/internal/geometry"
	"gallerize/internal/logging"
	"gallerize/internal/manifest"
	"gallerize/internal/mediatypes"
	"gallerize/internal/meta"
	"gallerize/internal/names"
	"gallerize/internal/optimize"
	"gallerize/internal/progress"
	"gallerize/internal/retain"
	"gallerize/internal/transform"
	"gallerize/internal/video"
)

// Output subdirectories, recreated fresh on every run.
const (
	thumbsDir = "thumbs"
	blursDir  = "blurs"
	imgsDir   = "imgs"
	filesDir  = "files"
)

// archiveName is the download archive's name inside filesDir.
const archiveName = "album.zip"

// dateLayout formats real capture timestamps for display.
const dateLayout = "2006-01-02 15:04"

// Runner builds one gallery. Create it with New and call Run once.
type Runner struct {
	cfg       config.Config
	collector *meta.Collector
	engine    *transform.Engine
	tracker   *progress.Tracker
	detector  *faces.Detector
	tools     *optimize.Set
	policy    retain.Policy
	alloc     *names.Allocator
}

// New creates a Runner for the given configuration. The configuration must
// already be finalized.
func New(cfg config.Config) *Runner {
	return &Runner{
		cfg:       cfg,
		collector: meta.NewCollector(),
		engine:    transform.NewEngine(cfg.Quality),
		tracker:   progress.New(os.Stdout),
		detector:  faces.New(cfg.FaceTool),
		tools:     optimize.Detect(),
		policy:    cfg.Retention(),
	}
}

// Run executes the full build: discovery, tool preflight, the analysis
// phase, the generation phase, archiving, and the manifest write.
func (r *Runner) Run(ctx context.Context) error {
	start := time.Now()

	files, err := Discover(r.cfg.InputDir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no supported media files found in %s", r.cfg.InputDir)
	}

	if err := r.preflight(files); err != nil {
		return err
	}
	if err := r.prepareOutput(); err != nil {
		return err
	}
	r.alloc = names.New(filepath.Join(r.cfg.OutputDir, imgsDir), ".jpg")

	logging.Info("processing %d files from %s with %d workers",
		len(files), r.cfg.InputDir, r.cfg.Workers)

	// Phase 1: metadata. The executor's return is the barrier; the batch
	// average below must not be computed before every file is analyzed.
	r.tracker.StartPhase("analyzing", len(files))
	props, err := executor.Map(files, r.cfg.Workers, func(i int, f SourceFile) (meta.Properties, error) {
		p, err := r.collector.Analyze(ctx, f.Path, f.Kind)
		if err != nil {
			return meta.Properties{}, err
		}
		r.tracker.Report(f.Base)
		return p, nil
	})
	if err != nil {
		return err
	}
	r.tracker.Finish()

	avgMpx := meta.Average(props)

	// Phase 2: asset generation.
	r.tracker.StartPhase("rendering", len(files))
	assets, err := executor.Map(files, r.cfg.Workers, func(i int, f SourceFile) (manifest.Asset, error) {
		a, err := r.process(ctx, f, props[i], avgMpx)
		if err != nil {
			return manifest.Asset{}, err
		}
		r.tracker.Report(f.Base)
		return a, nil
	})
	if err != nil {
		return err
	}
	r.tracker.Finish()

	m := &manifest.Manifest{
		Name: r.cfg.AlbumName,
		Blur: [2]int{r.cfg.MinThumb.W, r.cfg.MinThumb.H},
		Thumb: manifest.Bounds{
			Min: r.cfg.MinThumb,
			Max: r.cfg.MaxThumb,
		},
		Data: assets,
	}

	m.Sort(r.cfg.TimeSort, r.cfg.Reverse)

	// The archive members follow the manifest's final ordering, so it is
	// built only after the sort.
	retained := retainedFiles(r.cfg.OutputDir, m.Data)
	if r.cfg.Download && len(retained) > 0 {
		dst := filepath.Join(r.cfg.OutputDir, filesDir, archiveName)
		if err := archive.Build(dst, retained); err != nil {
			return err
		}
		m.Download = filesDir + "/" + archiveName
	}

	if err := m.Write(filepath.Join(r.cfg.OutputDir, manifest.FileName)); err != nil {
		return err
	}

	images, videos := 0, 0
	for _, f := range files {
		if f.Kind == mediatypes.KindVideo {
			videos++
		} else {
			images++
		}
	}
	logging.Info("gallery ready in %s: %d assets (%d images, %d videos), %d originals retained",
		time.Since(start).Round(time.Millisecond), len(assets), images, videos, len(retained))
	return nil
}

// preflight verifies every external tool the run will need before any work
// starts, so a missing dependency fails fast instead of mid-batch.
func (r *Runner) preflight(files []SourceFile) error {
	if r.cfg.AutoOrient {
		if err := r.tools.CheckRotation(); err != nil {
			return err
		}
	}
	if r.cfg.FaceDetect {
		if err := r.detector.Check(); err != nil {
			return err
		}
	}
	for _, f := range files {
		if f.Kind == mediatypes.KindVideo {
			return video.CheckTools()
		}
	}
	return nil
}

// prepareOutput recreates the derivative subdirectories. Stale derivatives
// from a previous run would otherwise mix with the new manifest.
func (r *Runner) prepareOutput() error {
	if err := os.MkdirAll(r.cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", r.cfg.OutputDir, err)
	}
	for _, sub := range []string{thumbsDir, blursDir, imgsDir, filesDir} {
		dir := filepath.Join(r.cfg.OutputDir, sub)
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("failed to clear %s: %w", dir, err)
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// process generates every derivative of one source file and returns its
// manifest entry.
func (r *Runner) process(ctx context.Context, f SourceFile, props meta.Properties, avgMpx float64) (manifest.Asset, error) {
	if err := ctx.Err(); err != nil {
		return manifest.Asset{}, err
	}

	ext := strings.ToLower(filepath.Ext(f.Base))
	stem, err := r.alloc.Allocate(strings.TrimSuffix(f.Base, filepath.Ext(f.Base)))
	if err != nil {
		return manifest.Asset{}, err
	}

	var a manifest.Asset
	switch f.Kind {
	case mediatypes.KindVideo:
		a, err = r.processVideo(ctx, f, props, stem, ext)
	default:
		a, err = r.processImage(ctx, f, props, avgMpx, stem, ext)
	}
	if err != nil {
		return manifest.Asset{}, err
	}

	if props.TimeSource.Real() {
		a.Date = props.Taken.Format(dateLayout)
	}
	a.Stamp = props.Stamp
	return a, nil
}

func (r *Runner) processImage(ctx context.Context, f SourceFile, props meta.Properties, avgMpx float64, stem, ext string) (manifest.Asset, error) {
	size := props.Size

	// The original is copied first and all tools operate on the copy; the
	// source tree is never written to.
	fileRel := filesDir + "/" + stem + ext
	filePath := filepath.Join(r.cfg.OutputDir, fileRel)
	if err := transform.CopyFile(f.Path, filePath); err != nil {
		return manifest.Asset{}, fmt.Errorf("failed to copy %s: %w", f.Path, err)
	}

	if r.cfg.AutoOrient && props.Format == "jpeg" {
		rotated, err := r.tools.AutoRotate(filePath, props.Orientation)
		if err != nil {
			return manifest.Asset{}, err
		}
		if rotated && props.Orientation >= 5 {
			size = geometry.Size{W: size.H, H: size.W}
		}
	}
	r.tools.Lossless(filePath, props.Format)

	previewRel := imgsDir + "/" + stem + ".jpg"
	previewPath := filepath.Join(r.cfg.OutputDir, previewRel)
	previewSize, err := r.engine.Preview(filePath, previewPath, r.cfg.MaxFull)
	if err != nil {
		return manifest.Asset{}, err
	}

	center := geometry.DefaultCenter
	if r.cfg.FaceDetect {
		if fx, fy, ok := r.detector.Best(ctx, previewPath); ok {
			center = geometry.Center{
				X: clampUnit(float64(fx) / float64(previewSize.W)),
				Y: clampUnit(float64(fy) / float64(previewSize.H)),
			}
		}
	}

	spec := geometry.Compute(previewSize, r.cfg.MinThumb, r.cfg.MaxThumb, center)
	thumbRel := thumbsDir + "/" + stem + ".jpg"
	thumbPath := filepath.Join(r.cfg.OutputDir, thumbRel)
	if err := r.engine.Thumbnail(previewPath, thumbPath, spec); err != nil {
		return manifest.Asset{}, err
	}

	blurRel := blursDir + "/" + stem + ".jpg"
	if err := r.engine.Blur(thumbPath, filepath.Join(r.cfg.OutputDir, blurRel),
		r.cfg.MinThumb, transform.BlurRadius(r.cfg.MinThumb)); err != nil {
		return manifest.Asset{}, err
	}

	var a manifest.Asset
	a.Img = manifest.ImageRef{Path: previewRel, Size: previewSize}
	a.SetThumb(thumbRel, spec)
	a.Blur = blurRel
	a.SetCenter(center)

	if r.policy.Keep(size, props.Uncropped, avgMpx) {
		a.File = &manifest.ImageRef{Path: fileRel, Size: size}
	} else if err := os.Remove(filePath); err != nil {
		return manifest.Asset{}, fmt.Errorf("failed to discard original copy %s: %w", filePath, err)
	}
	return a, nil
}

func (r *Runner) processVideo(ctx context.Context, f SourceFile, props meta.Properties, stem, _ string) (manifest.Asset, error) {
	previewRel := imgsDir + "/" + stem + ".jpg"
	previewPath := filepath.Join(r.cfg.OutputDir, previewRel)

	// The poster frame comes out at source resolution; the preview pass
	// scales it into the full-size box like any image.
	framePath := previewPath + ".frame"
	if err := video.PosterFrame(ctx, f.Path, framePath+".jpg"); err != nil {
		return manifest.Asset{}, err
	}
	previewSize, err := r.engine.Preview(framePath+".jpg", previewPath, r.cfg.MaxFull)
	os.Remove(framePath + ".jpg")
	if err != nil {
		return manifest.Asset{}, err
	}

	spec := geometry.Compute(previewSize, r.cfg.MinThumb, r.cfg.MaxThumb, geometry.DefaultCenter)
	thumbRel := thumbsDir + "/" + stem + ".jpg"
	thumbPath := filepath.Join(r.cfg.OutputDir, thumbRel)
	if err := r.engine.Thumbnail(previewPath, thumbPath, spec); err != nil {
		return manifest.Asset{}, err
	}

	blurRel := blursDir + "/" + stem + ".jpg"
	if err := r.engine.Blur(thumbPath, filepath.Join(r.cfg.OutputDir, blurRel),
		r.cfg.MinThumb, transform.BlurRadius(r.cfg.MinThumb)); err != nil {
		return manifest.Asset{}, err
	}

	formats := []video.Format{video.MP4}
	if !r.cfg.Slim {
		formats = append(formats, video.WebM)
	}

	var refs []manifest.VideoRef
	for _, format := range formats {
		rel := filesDir + "/" + stem + format.Ext
		dst := filepath.Join(r.cfg.OutputDir, rel)
		if err := video.Transcode(ctx, f.Path, dst, format, r.cfg.MaxFull.W); err != nil {
			return manifest.Asset{}, err
		}
		refs = append(refs, manifest.VideoRef{Path: rel, MIME: format.MIME})
	}

	var a manifest.Asset
	a.Img = manifest.ImageRef{Path: previewRel, Size: previewSize}
	a.SetThumb(thumbRel, spec)
	a.Blur = blurRel
	a.Video = refs
	return a, nil
}

// retainedFiles lists the absolute paths of the originals that survived the
// retention decision.
func retainedFiles(outputDir string, assets []manifest.Asset) []string {
	var paths []string
	for _, a := range assets {
		if a.File != nil {
			paths = append(paths, filepath.Join(outputDir, filepath.FromSlash(a.File.Path)))
		}
	}
	return paths
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
