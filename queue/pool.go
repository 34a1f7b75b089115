package queue

import (
	"context"
	"sync"
)

// Pool bounds how many conversions run at once. Each submission gets its
// own goroutine that waits for a slot; a cancelled context releases the
// submission without running it.
type Pool struct {
	sem chan struct{}
	wg  sync.WaitGroup
}

func NewPool(maxWorkers int) *Pool {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	return &Pool{
		sem: make(chan struct{}, maxWorkers),
	}
}

func (p *Pool) Go(ctx context.Context, fn func(context.Context)) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		select {
		case p.sem <- struct{}{}:
			defer func() { <-p.sem }()
			fn(ctx)
		case <-ctx.Done():
		}
	}()
}

func (p *Pool) Wait() {
	p.wg.Wait()
}
