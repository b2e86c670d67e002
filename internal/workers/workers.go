package workers

import (
	"os"
	"runtime"
	"strconv"
)

// Auto returns the worker count to use when the --jobs flag is zero.
// It respects container CPU limits via GOMAXPROCS (Go 1.19+) and can be
// overridden with the GALLERY_WORKERS environment variable.
//
// The limit parameter caps the worker count; use 0 for no limit.
func Auto(limit int) int {
	if override := os.Getenv("GALLERY_WORKERS"); override != "" {
		if count, err := strconv.Atoi(override); err == nil && count > 0 {
			return clamp(count, limit)
		}
	}

	return clamp(runtime.GOMAXPROCS(0), limit)
}

func clamp(count, limit int) int {
	if count < 1 {
		count = 1
	}
	if limit > 0 && count > limit {
		count = limit
	}
	return count
}
