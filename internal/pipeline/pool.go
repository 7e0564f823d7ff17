package pipeline

import (
	"context"
	"fmt"
	"sync"
)

// PoolConfig holds configuration for a bounded worker pool run.
type PoolConfig struct {
	MaxWorkers       int              // Number of parallel workers (<=0 means 1)
	ProgressCallback ProgressCallback // Optional progress reporting
}

type poolJob[T any] struct {
	index int
	task  T
}

type poolResult struct {
	index int
	err   error
}

// RunPool executes fn over tasks with at most MaxWorkers in flight.
// Completion order is unspecified; the first task error cancels the
// remaining tasks and is returned to the caller. Context cancellation
// stops scheduling and returns ctx.Err().
func RunPool[T any](ctx context.Context, tasks []T, cfg PoolConfig, fn func(context.Context, T) error) error {
	if len(tasks) == 0 {
		return nil
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 1
	}
	if cfg.MaxWorkers > len(tasks) {
		cfg.MaxWorkers = len(tasks)
	}

	if cfg.ProgressCallback != nil {
		cfg.ProgressCallback.OnStart(len(tasks))
		defer cfg.ProgressCallback.OnComplete()
	}

	// A failed task cancels everything still queued.
	poolCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan poolJob[T], len(tasks))
	results := make(chan poolResult, len(tasks))

	var wg sync.WaitGroup
	for range cfg.MaxWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case job, ok := <-jobs:
					if !ok {
						return
					}
					err := fn(poolCtx, job.task)
					select {
					case results <- poolResult{index: job.index, err: err}:
					case <-poolCtx.Done():
						return
					}
				case <-poolCtx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i, t := range tasks {
			select {
			case jobs <- poolJob[T]{index: i, task: t}:
			case <-poolCtx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var firstErr error
	completed := 0
	for res := range results {
		completed++
		if res.err != nil && firstErr == nil {
			firstErr = fmt.Errorf("task %d: %w", res.index, res.err)
			cancel()
		}
		if cfg.ProgressCallback != nil {
			cfg.ProgressCallback.OnProgress(completed, len(tasks))
			if res.err != nil {
				cfg.ProgressCallback.OnError(res.index, res.err)
			}
		}
	}

	if firstErr != nil {
		return firstErr
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return nil
}
