package video

import (
	"encoding/json"
	"testing"
	"time"
)

func TestProbeOutputParsing(t *testing.T) {
	raw := `{
		"streams": [
			{"codec_type": "audio", "codec_name": "aac"},
			{"codec_type": "video", "codec_name": "h264", "width": 1920, "height": 1080,
			 "tags": {"rotate": "90"}}
		],
		"format": {"duration": "12.480000", "tags": {"creation_time": "2023-06-01T10:30:00.000000Z"}}
	}`

	var out probeOutput
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	var info Info
	for _, s := range out.Streams {
		if s.CodecType != "video" {
			continue
		}
		info.Width = s.Width
		info.Height = s.Height
		info.Codec = s.CodecName
		if s.Tags.Rotate != "" {
			info.Rotation = 90
		}
		break
	}

	if info.Width != 1920 || info.Height != 1080 {
		t.Errorf("dims = %dx%d, want 1920x1080", info.Width, info.Height)
	}
	if info.Codec != "h264" {
		t.Errorf("codec = %q", info.Codec)
	}

	want := time.Date(2023, 6, 1, 10, 30, 0, 0, time.UTC)
	got, err := time.Parse("2006-01-02T15:04:05.000000Z", out.Format.Tags.CreationTime)
	if err != nil || !got.Equal(want) {
		t.Errorf("creation time = %v (%v), want %v", got, err, want)
	}
}

func TestInfoSize(t *testing.T) {
	tests := []struct {
		name     string
		info     Info
		wantW    int
		wantH    int
	}{
		{"no rotation", Info{Width: 1920, Height: 1080}, 1920, 1080},
		{"90 degrees swaps", Info{Width: 1920, Height: 1080, Rotation: 90}, 1080, 1920},
		{"270 degrees swaps", Info{Width: 1920, Height: 1080, Rotation: 270}, 1080, 1920},
		{"180 degrees keeps", Info{Width: 1920, Height: 1080, Rotation: 180}, 1920, 1080},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.info.Size()
			if s.W != tt.wantW || s.H != tt.wantH {
				t.Errorf("Size() = %v, want %dx%d", s, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestNormalizeRotation(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{0, 0},
		{90, 90},
		{-90, 270},
		{270, 270},
		{360, 0},
		{450, 90},
	}

	for _, tt := range tests {
		if got := normalizeRotation(tt.in); got != tt.want {
			t.Errorf("normalizeRotation(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestFormatMIMEs(t *testing.T) {
	if MP4.MIME != "video/mp4" {
		t.Errorf("MP4.MIME = %q, want video/mp4", MP4.MIME)
	}
	if WebM.MIME != "video/webm" {
		t.Errorf("WebM.MIME = %q, want video/webm", WebM.MIME)
	}
}
