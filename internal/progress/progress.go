// Package progress prints per-phase completion status shared by concurrent
// workers.
package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

// Tracker is a thread-safe monotonic counter with a status line. One Tracker
// is shared by all workers of a phase; Report serializes access so lines are
// never interleaved.
type Tracker struct {
	mu    sync.Mutex
	out   io.Writer
	tty   bool
	width int

	label string
	done  int
	total int
}

// New creates a Tracker writing to out. When out is a terminal the status is
// rewritten in place with carriage returns; otherwise each completion is a
// plain line.
func New(out io.Writer) *Tracker {
	t := &Tracker{out: out, width: 80}
	if f, ok := out.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		t.tty = true
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
			t.width = w
		}
	}
	return t
}

// StartPhase resets the counter for a new phase.
func (t *Tracker) StartPhase(label string, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.label = label
	t.done = 0
	t.total = total
}

// Report records one completed item and emits the status line.
func (t *Tracker) Report(item string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.done++
	pct := 0
	if t.total > 0 {
		pct = t.done * 100 / t.total
	}
	line := fmt.Sprintf("%3d%% %s (%d/%d) %s", pct, t.label, t.done, t.total, item)

	if t.tty {
		if len(line) >= t.width {
			line = line[:t.width-1]
		}
		pad := strings.Repeat(" ", t.width-1-len(line))
		fmt.Fprintf(t.out, "\r%s%s", line, pad)
		return
	}
	fmt.Fprintln(t.out, line)
}

// Finish marks the phase complete.
func (t *Tracker) Finish() {
	t.mu.Lock()
	defer t.mu.Unlock()

	line := fmt.Sprintf("100%% %s: completed", t.label)
	if t.tty {
		pad := strings.Repeat(" ", maxInt(0, t.width-1-len(line)))
		fmt.Fprintf(t.out, "\r%s%s\n", line, pad)
		return
	}
	fmt.Fprintln(t.out, line)
}

// Done returns the number of completed items in the current phase.
func (t *Tracker) Done() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
