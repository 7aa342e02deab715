package worker

import (
	"sync"

	"github.com/ecsilo/silo"
)

// Pool owns a fixed set of Workers, all initialized against the same
// Context and partitioned 0..N-1 over its id space.
type Pool struct {
	workers []*Worker
}

// NewPool starts n Workers and initializes each against ctx with its own
// threadIndex in [0, n).
func NewPool(ctx *silo.Context, n int) (*Pool, error) {
	p := &Pool{workers: make([]*Worker, n)}
	for i := 0; i < n; i++ {
		w := New()
		if err := w.Init(ctx, n, i); err != nil {
			return nil, err
		}
		p.workers[i] = w
	}
	return p, nil
}

// Broadcast runs job on every worker in the pool concurrently and waits for
// all of them to finish, returning the first error encountered (if any);
// every worker still runs to completion regardless.
func (p *Pool) Broadcast(job Job) error {
	var wg sync.WaitGroup
	errs := make([]error, len(p.workers))
	for i, w := range p.workers {
		wg.Add(1)
		go func(i int, w *Worker) {
			defer wg.Done()
			errs[i] = w.Execute(job)
		}(i, w)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of workers in the pool.
func (p *Pool) Len() int { return len(p.workers) }

// Close stops every worker in the pool.
func (p *Pool) Close() {
	for _, w := range p.workers {
		w.Close()
	}
}
