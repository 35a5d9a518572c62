package xtest

import (
	"fmt"

	"github.com/securetee/xtest/framework"

	"golang.org/x/sync/errgroup"
)

// RunWorkers runs count workers concurrently and waits for all of them. It returns their
// results in worker order, and the first error that any worker returned. A worker that panics
// contributes its zero result and an error.
//
// Workers must not make Expect calls on a Case shared with the caller; they report what they
// saw in their results, and the caller checks those after RunWorkers returns.
func RunWorkers[R any](count int, work func(index int) (R, error)) ([]R, error) {
	queue := framework.NewOrderedQueue(count)
	var g errgroup.Group
	for i := 0; i < count; i++ {
		i := i
		g.Go(func() (err error) {
			var result R
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("worker %d panicked: %v", i, r)
				}
				queue.Accept(i, result)
			}()
			result, err = work(i)
			return err
		})
	}
	err := g.Wait()
	queue.Close()

	results := make([]R, 0, count)
	for item := range queue.C {
		r, _ := item.(R)
		results = append(results, r)
	}
	return results, err
}
