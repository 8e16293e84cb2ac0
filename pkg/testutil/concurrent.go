// Package testutil holds helpers shared by store and service tests.
package testutil

import (
	"errors"
	"sync"
	"sync/atomic"

	"didgate/pkg/platform/sentinel"
)

// ConcurrentResult tracks outcomes of concurrent store operations.
type ConcurrentResult struct {
	Successes   int32
	Conflicts   int32
	NotFounds   int32
	Unavailable int32
	Errors      int32
}

// Total returns the number of operations executed.
func (r *ConcurrentResult) Total() int32 {
	return r.Successes + r.Conflicts + r.NotFounds + r.Unavailable + r.Errors
}

// RunConcurrent runs fn in n goroutines released together and buckets each
// result by store sentinel.
func RunConcurrent(n int, fn func(idx int) error) *ConcurrentResult {
	var (
		wg    sync.WaitGroup
		start = make(chan struct{})

		successes, conflicts, notFounds, unavailable, errs atomic.Int32
	)

	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			err := fn(i)
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, sentinel.ErrConflict):
				conflicts.Add(1)
			case errors.Is(err, sentinel.ErrNotFound):
				notFounds.Add(1)
			case errors.Is(err, sentinel.ErrUnavailable):
				unavailable.Add(1)
			default:
				errs.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	return &ConcurrentResult{
		Successes:   successes.Load(),
		Conflicts:   conflicts.Load(),
		NotFounds:   notFounds.Load(),
		Unavailable: unavailable.Load(),
		Errors:      errs.Load(),
	}
}
