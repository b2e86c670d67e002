// Package faces wraps an external face-detection command that biases
// thumbnail crops toward the most prominent face.
package faces

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"gallerize/internal/logging"
)

// DefaultTool is the detector command looked up when none is configured.
const DefaultTool = "facedetect"

// Detector invokes an external face detector. The tool is expected to print
// one detection per line as "x y width height" in pixel coordinates of the
// input image, best match first, and print nothing when no face is found.
type Detector struct {
	tool string
}

// New creates a Detector using the given command name or path. Empty means
// DefaultTool.
func New(tool string) *Detector {
	if tool == "" {
		tool = DefaultTool
	}
	return &Detector{tool: tool}
}

// Check verifies the detector command is on PATH. Called before processing
// starts when face detection is enabled.
func (d *Detector) Check() error {
	if _, err := exec.LookPath(d.tool); err != nil {
		return fmt.Errorf("face detection tool %q not found in PATH: %w", d.tool, err)
	}
	return nil
}

// Best returns the focal pixel of the most prominent face in the image, or
// ok=false when nothing is detected. Detector failures are treated as "no
// detection": a misbehaving detector degrades crops, it does not abort the
// run.
func (d *Detector) Best(ctx context.Context, path string) (x, y int, ok bool) {
	cmd := exec.CommandContext(ctx, d.tool, "--best", path)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		logging.Debug("face detection failed for %s: %v - %s", path, err, stderr.String())
		return 0, 0, false
	}

	line := strings.TrimSpace(stdout.String())
	if line == "" {
		return 0, 0, false
	}
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = strings.TrimSpace(line[:i])
	}

	fx, fy, ok := parseDetection(line)
	if !ok {
		logging.Warn("unparseable face detection output for %s: %q", path, line)
		return 0, 0, false
	}
	logging.Debug("face focal point for %s: (%d,%d)", path, fx, fy)
	return fx, fy, true
}

// parseDetection converts an "x y w h" bounding box line into its center
// pixel.
func parseDetection(line string) (int, int, bool) {
	parts := strings.Fields(line)
	if len(parts) < 4 {
		return 0, 0, false
	}
	nums := make([]int, 4)
	for i := 0; i < 4; i++ {
		n, err := strconv.Atoi(parts[i])
		if err != nil || n < 0 {
			return 0, 0, false
		}
		nums[i] = n
	}
	return nums[0] + nums[2]/2, nums[1] + nums[3]/2, true
}
