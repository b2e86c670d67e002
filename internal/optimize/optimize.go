// Package optimize wraps the lossless JPEG/PNG tooling: in-place
// auto-rotation and best-effort file-size optimizers.
package optimize

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"

	"gallerize/internal/logging"
)

// Set holds the resolved paths of the external tools found at startup.
// Missing optimizers disable their step silently; the rotation tools are
// required only when auto-orientation is enabled.
type Set struct {
	exiftran  string
	jpegtran  string
	jpegoptim string
	pngcrush  string
}

// Detect probes PATH once for every tool.
func Detect() *Set {
	s := &Set{}
	s.exiftran, _ = exec.LookPath("exiftran")
	s.jpegtran, _ = exec.LookPath("jpegtran")
	s.jpegoptim, _ = exec.LookPath("jpegoptim")
	s.pngcrush, _ = exec.LookPath("pngcrush")

	logging.Debug("lossless tools: exiftran=%q jpegtran=%q jpegoptim=%q pngcrush=%q",
		s.exiftran, s.jpegtran, s.jpegoptim, s.pngcrush)
	return s
}

// CheckRotation verifies that a lossless rotation tool is available.
func (s *Set) CheckRotation() error {
	if s.exiftran == "" && s.jpegtran == "" {
		return fmt.Errorf("neither exiftran nor jpegtran found in PATH (required for auto-orientation; use --no-orient to disable)")
	}
	return nil
}

// orientationArgs maps EXIF orientation codes to the jpegtran transform
// that restores the upright image. Code 1 is upright and code 2 is a bare
// mirror; both are left alone.
var orientationArgs = map[int][]string{
	3: {"-rotate", "180"},
	4: {"-flip", "vertical"},
	5: {"-transpose"},
	6: {"-rotate", "90"},
	7: {"-transverse"},
	8: {"-rotate", "270"},
}

// AutoRotate losslessly rotates a JPEG in place to match its EXIF
// orientation, resetting the orientation tag. Returns whether the file was
// changed.
func (s *Set) AutoRotate(path string, orientation int) (bool, error) {
	if _, ok := orientationArgs[orientation]; !ok {
		return false, nil
	}

	if s.exiftran != "" {
		if err := run(s.exiftran, "-aip", path); err != nil {
			return false, fmt.Errorf("exiftran failed for %s: %w", path, err)
		}
		return true, nil
	}

	args := append([]string{}, orientationArgs[orientation]...)
	tmp := path + ".rot"
	args = append(args, "-copy", "all", "-outfile", tmp, path)
	if err := run(s.jpegtran, args...); err != nil {
		os.Remove(tmp)
		return false, fmt.Errorf("jpegtran failed for %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return false, err
	}
	return true, nil
}

// Lossless shrinks a JPEG or PNG in place when the matching optimizer is
// installed. Failures are logged and swallowed: optimization is always
// best-effort.
func (s *Set) Lossless(path string, format string) {
	switch format {
	case "jpeg":
		if s.jpegoptim == "" {
			return
		}
		if err := run(s.jpegoptim, "--strip-none", "--quiet", path); err != nil {
			logging.Warn("jpegoptim failed for %s: %v", path, err)
		}
	case "png":
		if s.pngcrush == "" {
			return
		}
		tmp := path + ".crush"
		if err := run(s.pngcrush, "-q", path, tmp); err != nil {
			logging.Warn("pngcrush failed for %s: %v", path, err)
			os.Remove(tmp)
			return
		}
		if err := os.Rename(tmp, path); err != nil {
			logging.Warn("failed to replace %s with crushed output: %v", path, err)
			os.Remove(tmp)
		}
	}
}

func run(tool string, args ...string) error {
	cmd := exec.Command(tool, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w - %s", err, stderr.String())
	}
	return nil
}
