package video

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"time"

	"gallerize/internal/geometry"
	"gallerize/internal/logging"
	"gallerize/internal/mediatypes"
)

// Info contains the probed properties of a video file.
type Info struct {
	Width    int
	Height   int
	Duration float64
	Codec    string
	Rotation int
	Created  time.Time
}

// Size returns the display dimensions, swapping width and height when the
// stream carries a 90 or 270 degree rotation.
func (i Info) Size() geometry.Size {
	if i.Rotation == 90 || i.Rotation == 270 {
		return geometry.Size{W: i.Height, H: i.Width}
	}
	return geometry.Size{W: i.Width, H: i.Height}
}

// CheckTools verifies that ffmpeg and ffprobe are on PATH. Called before
// processing starts when the input contains videos.
func CheckTools() error {
	for _, tool := range []string{"ffmpeg", "ffprobe"} {
		if _, err := exec.LookPath(tool); err != nil {
			return fmt.Errorf("%s not found in PATH (required for video input): %w", tool, err)
		}
	}
	return nil
}

// ffprobe JSON output shape (the fields we read).
type probeOutput struct {
	Streams []struct {
		CodecType   string `json:"codec_type"`
		CodecName   string `json:"codec_name"`
		Width       int    `json:"width"`
		Height      int    `json:"height"`
		SideDataLst []struct {
			Rotation int `json:"rotation"`
		} `json:"side_data_list"`
		Tags struct {
			Rotate string `json:"rotate"`
		} `json:"tags"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
		Tags     struct {
			CreationTime string `json:"creation_time"`
		} `json:"tags"`
	} `json:"format"`
}

// Probe retrieves dimensions, codec, duration, and the creation timestamp of
// a video file via ffprobe.
func Probe(ctx context.Context, path string) (Info, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return Info{}, fmt.Errorf("ffprobe error for %s: %w - %s", path, err, stderr.String())
	}

	var out probeOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return Info{}, fmt.Errorf("failed to parse ffprobe output for %s: %w", path, err)
	}

	var info Info
	for _, s := range out.Streams {
		if s.CodecType != "video" {
			continue
		}
		info.Width = s.Width
		info.Height = s.Height
		info.Codec = s.CodecName
		if len(s.SideDataLst) > 0 {
			info.Rotation = normalizeRotation(s.SideDataLst[0].Rotation)
		}
		if s.Tags.Rotate != "" {
			if r, err := strconv.Atoi(s.Tags.Rotate); err == nil {
				info.Rotation = normalizeRotation(r)
			}
		}
		break
	}
	if info.Width == 0 || info.Height == 0 {
		return Info{}, fmt.Errorf("no video stream found in %s", path)
	}

	info.Duration, _ = strconv.ParseFloat(out.Format.Duration, 64)
	if ct := out.Format.Tags.CreationTime; ct != "" {
		if t, err := time.Parse(time.RFC3339, ct); err == nil {
			info.Created = t
		} else if t, err := time.Parse("2006-01-02T15:04:05.000000Z", ct); err == nil {
			info.Created = t
		}
	}

	logging.Debug("probed %s: %dx%d %s %.1fs", path, info.Width, info.Height, info.Codec, info.Duration)
	return info, nil
}

func normalizeRotation(r int) int {
	r %= 360
	if r < 0 {
		r += 360
	}
	return r
}

// PosterFrame extracts a representative frame near the one second mark into
// dst as a JPEG. Very short clips have no frame at 1s, so a second attempt
// reads from the start.
func PosterFrame(ctx context.Context, src, dst string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-y",
		"-i", src,
		"-ss", "00:00:01",
		"-vframes", "1",
		"-q:v", "2",
		dst,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err == nil {
		return nil
	}

	logging.Debug("poster frame at 1s failed for %s, retrying from start: %s", src, stderr.String())

	cmd = exec.CommandContext(ctx, "ffmpeg",
		"-y",
		"-i", src,
		"-vframes", "1",
		"-q:v", "2",
		dst,
	)
	stderr.Reset()
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg poster frame failed for %s: %w - %s", src, err, stderr.String())
	}
	return nil
}

// Format identifies a streaming derivative.
type Format struct {
	Ext  string
	MIME string
	args []string
}

// MP4 is the H.264/AAC derivative playable nearly everywhere.
var MP4 = Format{
	Ext:  ".mp4",
	MIME: mediatypes.MimeType(".mp4"),
	args: []string{
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "23",
		"-c:a", "aac",
		"-b:a", "128k",
		"-movflags", "+faststart",
		"-pix_fmt", "yuv420p",
	},
}

// WebM is the VP9/Opus derivative. Skipped under --slim.
var WebM = Format{
	Ext:  ".webm",
	MIME: mediatypes.MimeType(".webm"),
	args: []string{
		"-c:v", "libvpx-vp9",
		"-crf", "33",
		"-b:v", "0",
		"-c:a", "libopus",
		"-b:a", "96k",
	},
}

// Transcode produces a streaming derivative of src at dst, downscaling to
// maxWidth when the source is wider. Even dimensions are forced because
// yuv420p requires them.
func Transcode(ctx context.Context, src, dst string, format Format, maxWidth int) error {
	args := []string{"-y", "-i", src}
	args = append(args, format.args...)
	if maxWidth > 0 {
		args = append(args, "-vf", fmt.Sprintf("scale='min(%d,iw)':-2", maxWidth))
	} else {
		args = append(args, "-vf", "scale=iw:-2")
	}
	args = append(args, dst)

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("transcoding %s to %s failed: %w - %s", src, format.Ext, err, stderr.String())
	}
	logging.Debug("transcoded %s -> %s", src, dst)
	return nil
}
