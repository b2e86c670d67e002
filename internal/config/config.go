package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gallerize/internal/geometry"
	"gallerize/internal/retain"
	"gallerize/internal/workers"

	"github.com/pelletier/go-toml/v2"
)

// ErrUsage marks configuration errors caused by bad arguments or flag
// values. main maps it to exit code 2.
var ErrUsage = errors.New("usage error")

// Config holds one run's settings. Zero values are replaced by Default
// before flags and the config file are applied.
type Config struct {
	InputDir  string `toml:"-"`
	OutputDir string `toml:"-"`
	AlbumName string `toml:"name"`

	Workers int `toml:"workers"`
	Quality int `toml:"quality"`

	MinThumb geometry.Size `toml:"-"`
	MaxThumb geometry.Size `toml:"-"`
	MaxFull  geometry.Size `toml:"-"`

	// String forms of the size boxes, as given on the command line or in
	// the config file ("WxH").
	MinThumbStr string `toml:"min_thumb"`
	MaxThumbStr string `toml:"max_thumb"`
	MaxFullStr  string `toml:"max_full"`

	TimeSort bool `toml:"time_sort"`
	Reverse  bool `toml:"reverse"`

	Download    bool   `toml:"download"`
	Slim        bool   `toml:"slim"`
	AutoOrient  bool   `toml:"auto_orient"`
	FaceDetect  bool   `toml:"face_detection"`
	FaceTool    string `toml:"face_tool"`
	KeepOrig    bool   `toml:"keep_originals"`
	DiscardOrig bool   `toml:"discard_originals"`

	PanoramaRatio float64 `toml:"panorama_ratio"`
}

// Default returns the built-in settings: sequential processing, the
// customary thumbnail and preview boxes, time-sorted output with downloads
// enabled.
func Default() Config {
	return Config{
		Workers:       1,
		Quality:       90,
		MinThumbStr:   "150x112",
		MaxThumbStr:   "267x200",
		MaxFullStr:    "1600x1200",
		TimeSort:      true,
		Download:      true,
		AutoOrient:    true,
		FaceTool:      "",
		PanoramaRatio: retain.DefaultAspectThreshold,
	}
}

// LoadFile overlays the TOML config file at path onto c, replacing whatever
// the named keys held before. Callers that must preserve explicitly-given
// flag values use MergeFile instead.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: cannot read config file: %v", ErrUsage, err)
	}
	if err := toml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("%w: invalid config file %s: %v", ErrUsage, path, err)
	}
	return nil
}

// flagFields ties each command-line flag name to the Config field it is
// bound to, so MergeFile can restore flag values the file would clobber.
var flagFields = map[string]func(dst *Config, src Config){
	"jobs":           func(dst *Config, src Config) { dst.Workers = src.Workers },
	"quality":        func(dst *Config, src Config) { dst.Quality = src.Quality },
	"min-thumb":      func(dst *Config, src Config) { dst.MinThumbStr = src.MinThumbStr },
	"max-thumb":      func(dst *Config, src Config) { dst.MaxThumbStr = src.MaxThumbStr },
	"max-full":       func(dst *Config, src Config) { dst.MaxFullStr = src.MaxFullStr },
	"slim":           func(dst *Config, src Config) { dst.Slim = src.Slim },
	"keep-orig":      func(dst *Config, src Config) { dst.KeepOrig = src.KeepOrig },
	"discard-orig":   func(dst *Config, src Config) { dst.DiscardOrig = src.DiscardOrig },
	"panorama-ratio": func(dst *Config, src Config) { dst.PanoramaRatio = src.PanoramaRatio },
	"reverse":        func(dst *Config, src Config) { dst.Reverse = src.Reverse },
	"faces":          func(dst *Config, src Config) { dst.FaceDetect = src.FaceDetect },
	"face-tool":      func(dst *Config, src Config) { dst.FaceTool = src.FaceTool },
}

// MergeFile loads the TOML config file at path beneath the flag values
// already present in c: a file key takes effect only where the matching
// flag was not explicitly given, as reported by changed.
func (c *Config) MergeFile(path string, changed func(name string) bool) error {
	fromFlags := *c
	if err := c.LoadFile(path); err != nil {
		return err
	}
	for name, restore := range flagFields {
		if changed(name) {
			restore(c, fromFlags)
		}
	}
	return nil
}

// ParseSize parses a "WxH" string into a Size.
func ParseSize(s string) (geometry.Size, error) {
	parts := strings.SplitN(strings.ToLower(strings.TrimSpace(s)), "x", 2)
	if len(parts) != 2 {
		return geometry.Size{}, fmt.Errorf("%w: size %q is not of the form WxH", ErrUsage, s)
	}
	w, errW := strconv.Atoi(parts[0])
	h, errH := strconv.Atoi(parts[1])
	if errW != nil || errH != nil || w <= 0 || h <= 0 {
		return geometry.Size{}, fmt.Errorf("%w: size %q must be two positive integers", ErrUsage, s)
	}
	return geometry.Size{W: w, H: h}, nil
}

// Finalize parses the size strings, resolves the automatic worker count,
// and validates the whole configuration.
func (c *Config) Finalize() error {
	var err error
	if c.MinThumb, err = ParseSize(c.MinThumbStr); err != nil {
		return err
	}
	if c.MaxThumb, err = ParseSize(c.MaxThumbStr); err != nil {
		return err
	}
	if c.MaxFull, err = ParseSize(c.MaxFullStr); err != nil {
		return err
	}

	if c.MinThumb.W > c.MaxThumb.W || c.MinThumb.H > c.MaxThumb.H {
		return fmt.Errorf("%w: min thumbnail %s exceeds max thumbnail %s", ErrUsage, c.MinThumb, c.MaxThumb)
	}
	if c.Quality < 1 || c.Quality > 100 {
		return fmt.Errorf("%w: quality %d outside 1-100", ErrUsage, c.Quality)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: worker count %d is negative", ErrUsage, c.Workers)
	}
	if c.Workers == 0 {
		c.Workers = workers.Auto(0)
	}
	if c.KeepOrig && c.DiscardOrig {
		return fmt.Errorf("%w: --keep-orig and --discard-orig are mutually exclusive", ErrUsage)
	}
	if c.PanoramaRatio < 1 {
		return fmt.Errorf("%w: panorama ratio %v must be at least 1", ErrUsage, c.PanoramaRatio)
	}
	if c.InputDir == "" || c.OutputDir == "" {
		return fmt.Errorf("%w: input and output directories are required", ErrUsage)
	}
	return nil
}

// Retention returns the retention policy implied by the flags.
func (c *Config) Retention() retain.Policy {
	p := retain.Policy{AspectThreshold: c.PanoramaRatio}
	switch {
	case c.KeepOrig:
		p.Override = retain.Always
	case c.DiscardOrig:
		p.Override = retain.Never
	}
	return p
}
