package workers

import (
	"runtime"
	"testing"
)

func TestAuto(t *testing.T) {
	available := runtime.GOMAXPROCS(0)

	tests := []struct {
		name  string
		env   string
		limit int
		want  int
	}{
		{"no override, no limit", "", 0, available},
		{"no override, high limit", "", available + 10, available},
		{"limit below CPU count", "", 1, 1},
		{"valid override", "7", 0, 7},
		{"override capped by limit", "16", 4, 4},
		{"zero override ignored", "0", 0, available},
		{"negative override ignored", "-3", 0, available},
		{"garbage override ignored", "lots", 0, available},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("GALLERY_WORKERS", tt.env)
			got := Auto(tt.limit)
			if got != tt.want {
				t.Errorf("Auto(%d) = %d, want %d", tt.limit, got, tt.want)
			}
			if got < 1 {
				t.Errorf("Auto(%d) = %d, should never return less than 1", tt.limit, got)
			}
		})
	}
}
