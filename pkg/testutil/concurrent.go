package testutil

import (
	"errors"
	"sync"

	"smartparking/internal/sentinel"
)

// ConcurrentResult counts how the calls of RunConcurrent ended.
type ConcurrentResult struct {
	Successes int32
	Conflicts int32
	NotFounds int32
	Errors    int32
}

// RunConcurrent releases n calls of fn at once and tallies the results.
// sentinel.ErrAlreadyUsed is a conflict and sentinel.ErrNotFound a
// not-found; anything else non-nil is an error.
func RunConcurrent(n int, fn func(idx int) error) *ConcurrentResult {
	var (
		mu  sync.Mutex
		res ConcurrentResult
		wg  sync.WaitGroup
	)
	gate := make(chan struct{})
	for i := range n {
		wg.Go(func() {
			<-gate
			err := fn(i)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				res.Successes++
			case errors.Is(err, sentinel.ErrAlreadyUsed):
				res.Conflicts++
			case errors.Is(err, sentinel.ErrNotFound):
				res.NotFounds++
			default:
				res.Errors++
			}
		})
	}
	close(gate)
	wg.Wait()
	return &res
}
