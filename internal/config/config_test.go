package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"gallerize/internal/geometry"
	"gallerize/internal/retain"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		in      string
		want    geometry.Size
		wantErr bool
	}{
		{"150x112", geometry.Size{W: 150, H: 112}, false},
		{"1600X1200", geometry.Size{W: 1600, H: 1200}, false},
		{" 267x200 ", geometry.Size{W: 267, H: 200}, false},
		{"150", geometry.Size{}, true},
		{"150x", geometry.Size{}, true},
		{"x112", geometry.Size{}, true},
		{"0x100", geometry.Size{}, true},
		{"-1x100", geometry.Size{}, true},
		{"axb", geometry.Size{}, true},
	}
	for _, tt := range tests {
		got, err := ParseSize(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseSize(%q): expected error", tt.in)
			} else if !errors.Is(err, ErrUsage) {
				t.Errorf("ParseSize(%q): error %v is not a usage error", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseSize(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSize(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFinalizeDefaults(t *testing.T) {
	c := Default()
	c.InputDir = "in"
	c.OutputDir = "out"
	if err := c.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if c.MinThumb != (geometry.Size{W: 150, H: 112}) {
		t.Errorf("MinThumb = %v", c.MinThumb)
	}
	if c.MaxThumb != (geometry.Size{W: 267, H: 200}) {
		t.Errorf("MaxThumb = %v", c.MaxThumb)
	}
	if c.MaxFull != (geometry.Size{W: 1600, H: 1200}) {
		t.Errorf("MaxFull = %v", c.MaxFull)
	}
	if c.Workers != 1 {
		t.Errorf("Workers = %d, want 1", c.Workers)
	}
	if !c.TimeSort || !c.Download || !c.AutoOrient {
		t.Errorf("unexpected defaults: %+v", c)
	}
}

func TestFinalizeValidation(t *testing.T) {
	mutate := []struct {
		name string
		fn   func(*Config)
	}{
		{"quality too low", func(c *Config) { c.Quality = 0 }},
		{"quality too high", func(c *Config) { c.Quality = 101 }},
		{"negative workers", func(c *Config) { c.Workers = -1 }},
		{"min over max thumb", func(c *Config) { c.MinThumbStr = "300x300" }},
		{"keep and discard", func(c *Config) { c.KeepOrig = true; c.DiscardOrig = true }},
		{"panorama ratio under one", func(c *Config) { c.PanoramaRatio = 0.5 }},
		{"missing input", func(c *Config) { c.InputDir = "" }},
	}
	for _, tt := range mutate {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			c.InputDir = "in"
			c.OutputDir = "out"
			tt.fn(&c)
			err := c.Finalize()
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrUsage) {
				t.Errorf("error %v is not a usage error", err)
			}
		})
	}
}

func TestFinalizeAutoWorkers(t *testing.T) {
	c := Default()
	c.InputDir = "in"
	c.OutputDir = "out"
	c.Workers = 0
	if err := c.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if c.Workers < 1 {
		t.Errorf("Workers = %d, want at least 1", c.Workers)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gallerize.toml")
	body := `
name = "Summer 2024"
workers = 4
quality = 85
min_thumb = "120x90"
slim = true
download = false
panorama_ratio = 2.5
`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	c := Default()
	if err := c.LoadFile(path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	c.InputDir = "in"
	c.OutputDir = "out"
	if err := c.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	if c.AlbumName != "Summer 2024" {
		t.Errorf("AlbumName = %q", c.AlbumName)
	}
	if c.Workers != 4 || c.Quality != 85 {
		t.Errorf("Workers/Quality = %d/%d", c.Workers, c.Quality)
	}
	if c.MinThumb != (geometry.Size{W: 120, H: 90}) {
		t.Errorf("MinThumb = %v", c.MinThumb)
	}
	if c.MaxThumb != (geometry.Size{W: 267, H: 200}) {
		t.Errorf("file overlay should keep defaults it does not name, got %v", c.MaxThumb)
	}
	if !c.Slim || c.Download {
		t.Errorf("Slim/Download = %v/%v", c.Slim, c.Download)
	}
	if c.PanoramaRatio != 2.5 {
		t.Errorf("PanoramaRatio = %v", c.PanoramaRatio)
	}
}

func TestMergeFileFlagPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gallerize.toml")
	body := `
quality = 80
workers = 8
min_thumb = "100x75"
slim = true
face_tool = "detector-from-file"
`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	// Simulates flag parsing having already written explicit values into
	// the bound fields before the file is read.
	c := Default()
	c.Quality = 50
	c.Workers = 2

	explicit := map[string]bool{"quality": true, "jobs": true}
	if err := c.MergeFile(path, func(name string) bool { return explicit[name] }); err != nil {
		t.Fatalf("MergeFile: %v", err)
	}

	if c.Quality != 50 {
		t.Errorf("Quality = %d, explicit flag must beat the file's 80", c.Quality)
	}
	if c.Workers != 2 {
		t.Errorf("Workers = %d, explicit flag must beat the file's 8", c.Workers)
	}
	if c.MinThumbStr != "100x75" {
		t.Errorf("MinThumbStr = %q, file must fill in unflagged keys", c.MinThumbStr)
	}
	if !c.Slim || c.FaceTool != "detector-from-file" {
		t.Errorf("Slim/FaceTool = %v/%q, file must fill in unflagged keys", c.Slim, c.FaceTool)
	}
}

func TestMergeFileNothingExplicit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gallerize.toml")
	if err := os.WriteFile(path, []byte("quality = 75\n"), 0644); err != nil {
		t.Fatal(err)
	}

	c := Default()
	if err := c.MergeFile(path, func(string) bool { return false }); err != nil {
		t.Fatalf("MergeFile: %v", err)
	}
	if c.Quality != 75 {
		t.Errorf("Quality = %d, file must apply when no flag was given", c.Quality)
	}
}

func TestLoadFileErrors(t *testing.T) {
	c := Default()
	if err := c.LoadFile(filepath.Join(t.TempDir(), "absent.toml")); !errors.Is(err, ErrUsage) {
		t.Errorf("missing file: error %v is not a usage error", err)
	}

	bad := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(bad, []byte("workers = [nope"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := c.LoadFile(bad); !errors.Is(err, ErrUsage) {
		t.Errorf("bad file: error %v is not a usage error", err)
	}
}

func TestRetention(t *testing.T) {
	c := Default()
	if p := c.Retention(); p.Override != retain.Auto || p.AspectThreshold != retain.DefaultAspectThreshold {
		t.Errorf("default policy = %+v", p)
	}
	c.KeepOrig = true
	if p := c.Retention(); p.Override != retain.Always {
		t.Errorf("keep policy = %+v", p)
	}
	c.KeepOrig = false
	c.DiscardOrig = true
	if p := c.Retention(); p.Override != retain.Never {
		t.Errorf("discard policy = %+v", p)
	}
}
