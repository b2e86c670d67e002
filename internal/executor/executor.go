package executor

import (
	"sync"
	"sync/atomic"

	"gallerize/internal/logging"
)

// Map executes fn for every item using workerCount concurrent workers
// pulling from one shared FIFO queue, and returns the outputs in input
// order regardless of completion order.
//
// The first error aborts the run: remaining queued items are skipped, the
// workers drain, and the error is returned with no partial results. Callers
// sequence phases by calling Map again after a previous call returns; that
// return is the phase barrier.
func Map[T, R any](items []T, workerCount int, fn func(index int, item T) (R, error)) ([]R, error) {
	if len(items) == 0 {
		return nil, nil
	}
	if workerCount < 1 {
		workerCount = 1
	}
	if workerCount > len(items) {
		workerCount = len(items)
	}

	jobs := make(chan int, len(items))
	for i := range items {
		jobs <- i
	}
	close(jobs)

	// Results are index-addressed: each worker writes only its own slots,
	// so no lock is needed on the slice.
	results := make([]R, len(items))

	var (
		wg       sync.WaitGroup
		failed   atomic.Bool
		errOnce  sync.Once
		firstErr error
	)

	logging.Debug("starting %d workers for %d items", workerCount, len(items))
	for w := 0; w < workerCount; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for i := range jobs {
				if failed.Load() {
					return
				}
				out, err := fn(i, items[i])
				if err != nil {
					failed.Store(true)
					errOnce.Do(func() { firstErr = err })
					logging.Debug("worker %d: item %d failed: %v", id, i, err)
					return
				}
				results[i] = out
			}
		}(w)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}
