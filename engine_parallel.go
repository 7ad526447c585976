package gmlinject

import (
	"context"
	"runtime"
	"sync"

	"github.com/jward/gmlinject/internal/project"
)

// workResult is the outcome of processing one script.
type workResult struct {
	script   *project.Script
	injected int
	err      error
}

// processParallel resolves and injects scripts with a worker pool. The
// library is shared read-only; each worker owns the scripts it takes.
// Results come back in input order.
func (e *Engine) processParallel(ctx context.Context, lib *Library, scripts []*project.Script) []workResult {
	results := make([]workResult, len(scripts))
	if len(scripts) == 0 {
		return results
	}

	numWorkers := e.workers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	numWorkers = min(numWorkers, len(scripts))

	workCh := make(chan int, len(scripts))
	for i := range scripts {
		workCh <- i
	}
	close(workCh)

	var wg sync.WaitGroup
	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range workCh {
				results[i] = e.processScript(ctx, lib, scripts[i])
			}
		}()
	}
	wg.Wait()

	return results
}

// processSerial is processParallel on the calling goroutine.
func (e *Engine) processSerial(ctx context.Context, lib *Library, scripts []*project.Script) []workResult {
	results := make([]workResult, len(scripts))
	for i, s := range scripts {
		results[i] = e.processScript(ctx, lib, s)
	}
	return results
}

// processScript replaces the working content of s with its injected form.
func (e *Engine) processScript(ctx context.Context, lib *Library, s *project.Script) workResult {
	if err := ctx.Err(); err != nil {
		return workResult{script: s, err: err}
	}
	out, closure := resolveAndInject(s.OriginalContent, lib)
	s.WorkingContent = out
	return workResult{script: s, injected: len(closure)}
}
