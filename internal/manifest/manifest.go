package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"gallerize/internal/geometry"
	"gallerize/internal/logging"
)

// FileName is the manifest's name inside the output directory.
const FileName = "data.json"

// ImageRef points at a generated or kept image file.
// Encodes as ["path",[w,h]].
type ImageRef struct {
	Path string
	Size geometry.Size
}

// MarshalJSON encodes the ref as its path/size tuple.
func (r ImageRef) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{r.Path, [2]int{r.Size.W, r.Size.H}})
}

// ThumbRef points at a thumbnail. When the pre-crop (scaled) size differs
// from the final size, the scaled size and crop offset are appended:
// ["path",[w,h]] or ["path",[w,h],[sw,sh],[ox,oy]].
type ThumbRef struct {
	Path   string
	Size   geometry.Size
	Scaled *geometry.Size
	Offset *[2]int
}

// MarshalJSON encodes the ref as its tuple, with the scaled size and offset
// only when distinct.
func (r ThumbRef) MarshalJSON() ([]byte, error) {
	tuple := []interface{}{r.Path, [2]int{r.Size.W, r.Size.H}}
	if r.Scaled != nil && r.Offset != nil {
		tuple = append(tuple, [2]int{r.Scaled.W, r.Scaled.H}, *r.Offset)
	}
	return json.Marshal(tuple)
}

// VideoRef points at one streaming derivative. Encodes as ["path","mime"].
type VideoRef struct {
	Path string
	MIME string
}

// MarshalJSON encodes the ref as its path/MIME tuple.
func (r VideoRef) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{r.Path, r.MIME})
}

// Asset is one gallery entry. Created once by the pipeline, ordered here.
type Asset struct {
	Img    ImageRef   `json:"img"`
	Thumb  ThumbRef   `json:"thumb"`
	File   *ImageRef  `json:"file,omitempty"`
	Blur   string     `json:"blur"`
	Center []float64  `json:"center,omitempty"`
	Video  []VideoRef `json:"video,omitempty"`
	Date   string     `json:"date,omitempty"`
	Stamp  int64      `json:"stamp"`
}

// SetCenter records a crop center, quantized to per-mille. Centers within
// a per-mille of the default middle are dropped entirely.
func (a *Asset) SetCenter(c geometry.Center) {
	if c.IsDefault() {
		a.Center = nil
		return
	}
	x, y := c.PerMille()
	a.Center = []float64{float64(x) / 1000, float64(y) / 1000}
}

// SetThumb records the thumbnail reference, appending the scaled size and
// offset only when the crop actually removed something.
func (a *Asset) SetThumb(path string, spec geometry.ThumbSpec) {
	a.Thumb = ThumbRef{Path: path, Size: spec.Crop}
	if spec.Distinct {
		scaled := spec.Scaled
		offset := [2]int{spec.OffsetX, spec.OffsetY}
		a.Thumb.Scaled = &scaled
		a.Thumb.Offset = &offset
	}
}

// Bounds is a min/max box pair. Encodes as {"min":[w,h],"max":[w,h]}.
type Bounds struct {
	Min geometry.Size
	Max geometry.Size
}

// MarshalJSON encodes both boxes as [w,h] pairs.
func (b Bounds) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string][2]int{
		"min": {b.Min.W, b.Min.H},
		"max": {b.Max.W, b.Max.H},
	})
}

// Manifest is the full gallery description.
type Manifest struct {
	Name     string  `json:"name,omitempty"`
	Download string  `json:"download,omitempty"`
	Blur     [2]int  `json:"blur"`
	Thumb    Bounds  `json:"thumb"`
	Data     []Asset `json:"data"`
}

// Sort orders the assets. With timeSort the order is by timestamp
// ascending (stable, so ties keep discovery order); without it, discovery
// order stands. Reverse flips whichever ordering applies.
func (m *Manifest) Sort(timeSort, reverse bool) {
	if timeSort {
		sort.SliceStable(m.Data, func(i, j int) bool {
			return m.Data[i].Stamp < m.Data[j].Stamp
		})
	}
	if reverse {
		for i, j := 0, len(m.Data)-1; i < j; i, j = i+1, j-1 {
			m.Data[i], m.Data[j] = m.Data[j], m.Data[i]
		}
	}
}

// Write serializes the manifest to path. Called exactly once, after every
// asset is final.
func (m *Manifest) Write(path string) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest %s: %w", path, err)
	}
	logging.Info("wrote manifest %s (%d assets, %d bytes)", path, len(m.Data), len(data))
	return nil
}
