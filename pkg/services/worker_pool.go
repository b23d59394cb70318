package services

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// DefaultMaxWorkers is the discovery concurrency used when the
// configured value is missing or invalid.
const DefaultMaxWorkers = 8

// Pool bounds the number of catalog queries in flight. Discovery fans
// out per table, and the dialect adapters share one connection pool
// underneath, so the bound keeps a wide schema from exhausting server
// connections.
type Pool struct {
	maxConcurrent int
	logger        *zap.Logger
}

// NewPool creates a discovery pool. A maxConcurrent below 1 falls back
// to DefaultMaxWorkers; a nil logger falls back to a no-op logger.
func NewPool(maxConcurrent int, logger *zap.Logger) *Pool {
	if maxConcurrent < 1 {
		maxConcurrent = DefaultMaxWorkers
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pool{
		maxConcurrent: maxConcurrent,
		logger:        logger.Named("discovery-pool"),
	}
}

// Task is one unit of discovery work, keyed for result attribution.
type Task[T any] struct {
	Key string
	Run func(ctx context.Context) (T, error)
}

// TaskResult pairs a task key with its outcome.
type TaskResult[T any] struct {
	Key   string
	Value T
	Err   error
}

// RunAll executes every task with bounded parallelism and returns
// results in completion order. All tasks run even when some fail; a
// cancelled context fails the tasks still waiting for a slot.
func RunAll[T any](ctx context.Context, pool *Pool, tasks []Task[T], onProgress func(done, total int)) []TaskResult[T] {
	if len(tasks) == 0 {
		return nil
	}

	results := make([]TaskResult[T], 0, len(tasks))
	resultsChan := make(chan TaskResult[T], len(tasks))
	sem := make(chan struct{}, pool.maxConcurrent)

	var wg sync.WaitGroup
	for _, task := range tasks {
		wg.Add(1)
		go func(task Task[T]) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				var zero T
				resultsChan <- TaskResult[T]{Key: task.Key, Value: zero, Err: ctx.Err()}
				return
			}

			value, err := task.Run(ctx)
			resultsChan <- TaskResult[T]{Key: task.Key, Value: value, Err: err}
		}(task)
	}

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	done := 0
	for result := range resultsChan {
		results = append(results, result)
		done++
		if result.Err != nil {
			pool.logger.Debug("Discovery task failed",
				zap.String("key", result.Key),
				zap.Error(result.Err))
		}
		if onProgress != nil {
			onProgress(done, len(tasks))
		}
	}

	return results
}
