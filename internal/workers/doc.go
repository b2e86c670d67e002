// Package workers determines worker pool sizes for the two processing
// phases.
//
// Go 1.25 sets GOMAXPROCS from container CPU limits, so GOMAXPROCS(0) is
// used instead of runtime.NumCPU(), which reports the host machine's CPU
// count even under cgroup constraints.
package workers
