package mediatypes

import "testing"

func TestKindOf(t *testing.T) {
	tests := []struct {
		path string
		want Kind
	}{
		{"holiday.jpg", KindImage},
		{"holiday.JPG", KindImage},
		{"scan.tiff", KindImage},
		{"pano.webp", KindImage},
		{"clip.mp4", KindVideo},
		{"clip.MOV", KindVideo},
		{"old.mpeg", KindVideo},
		{"notes.txt", KindOther},
		{"noext", KindOther},
		{"archive.zip", KindOther},
		{"/abs/path/to/photo.jpeg", KindImage},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := KindOf(tt.path); got != tt.want {
				t.Errorf("KindOf(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestMimeType(t *testing.T) {
	tests := []struct {
		ext  string
		want string
	}{
		{".mp4", "video/mp4"},
		{".M4V", "video/mp4"},
		{".webm", "video/webm"},
		{".mov", "video/quicktime"},
		{".mkv", "video/x-matroska"},
		{".jpg", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			if got := MimeType(tt.ext); got != tt.want {
				t.Errorf("MimeType(%q) = %q, want %q", tt.ext, got, tt.want)
			}
		})
	}
}
