package core

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"
)

// BatchMode selects how RunBatch bounds concurrency. Both modes give the same
// results; they differ only in how goroutines are used.
type BatchMode int

const (
	// ModeWorkerPool runs a fixed pool of MaxConcurrency goroutines, each
	// executing one request at a time for its whole retry loop.
	ModeWorkerPool BatchMode = iota
	// ModeSemaphore starts a goroutine per admitted request and bounds the
	// number in flight with a weighted semaphore.
	ModeSemaphore
)

// String returns the mode name.
func (m BatchMode) String() string {
	if m == ModeSemaphore {
		return "semaphore"
	}
	return "worker_pool"
}

// DefaultBatchConcurrency is used when BatchOptions.MaxConcurrency is unset.
const DefaultBatchConcurrency = 4

// BatchOptions configures RunBatch.
type BatchOptions struct {
	// MaxConcurrency bounds in-flight requests (default: 4).
	MaxConcurrency int
	Mode           BatchMode

	// OnResult, if set, is called as each item resolves, in completion order.
	// It runs on worker goroutines and must be safe for concurrent use.
	OnResult func(index int, o Outcome)
}

func (o BatchOptions) concurrency(n int) int {
	c := o.MaxConcurrency
	if c <= 0 {
		c = DefaultBatchConcurrency
	}
	if c > n {
		c = n
	}
	return c
}

// RunBatch executes reqs with at most opts.MaxConcurrency in flight and
// returns one BatchItem per request, in input order.
//
// A failed item never stops its siblings. Cancelling ctx stops admission:
// in-flight requests finish their current attempt, and items that never
// started resolve as KindCancelled failures. RunBatch returns only after every
// item has an Outcome.
//
// Every request is validated before any is started; RunBatch panics on the
// first invalid one.
func RunBatch(ctx context.Context, ex Executor, reqs []LogicalRequest, opts BatchOptions) []BatchItem {
	for i, r := range reqs {
		if err := r.Validate(); err != nil {
			panic(fmt.Sprintf("core: batch item %d: %v", i, err))
		}
	}

	items := make([]BatchItem, len(reqs))
	for i, r := range reqs {
		items[i].Request = r
	}
	if len(reqs) == 0 {
		return items
	}

	b := &batch{ctx: ctx, ex: ex, items: items, onResult: opts.OnResult}
	var admitted int
	switch opts.Mode {
	case ModeSemaphore:
		admitted = b.runSemaphore(opts.concurrency(len(reqs)))
	default:
		admitted = b.runPool(opts.concurrency(len(reqs)))
	}

	for i := admitted; i < len(items); i++ {
		b.resolve(i, cancelledOutcome(context.Cause(ctx)))
	}
	return items
}

type batch struct {
	ctx      context.Context
	ex       Executor
	items    []BatchItem
	onResult func(int, Outcome)
}

// runPool feeds indexes to a fixed set of workers and returns how many were
// handed out.
func (b *batch) runPool(workers int) int {
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				b.run(i)
			}
		}()
	}

	next := 0
feed:
	for ; next < len(b.items); next++ {
		if b.ctx.Err() != nil {
			break
		}
		select {
		case jobs <- next:
		case <-b.ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()
	return next
}

// runSemaphore starts one goroutine per admitted index and returns how many
// were admitted.
func (b *batch) runSemaphore(limit int) int {
	sem := semaphore.NewWeighted(int64(limit))
	var wg sync.WaitGroup

	next := 0
	for ; next < len(b.items); next++ {
		if err := sem.Acquire(b.ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer sem.Release(1)
			b.run(i)
		}(next)
	}
	wg.Wait()
	return next
}

// run executes item i unless the batch was cancelled while it waited.
func (b *batch) run(i int) {
	if err := b.ctx.Err(); err != nil {
		b.resolve(i, cancelledOutcome(context.Cause(b.ctx)))
		return
	}
	b.resolve(i, b.ex.Execute(b.ctx, b.items[i].Request))
}

// resolve stores the outcome at its input index. Indexes are owned by exactly
// one goroutine, so no lock is needed.
func (b *batch) resolve(i int, o Outcome) {
	b.items[i].Outcome = o
	if b.onResult != nil {
		b.onResult(i, o)
	}
}
