package auth

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// HashObserver receives the duration of every KDF run on a HashPool.
// op is "hash" or "verify".
type HashObserver func(op string, d time.Duration)

// HashPool runs Argon2id computations on a bounded set of goroutines so the
// tens of milliseconds they take never run on a request goroutine, and so a
// burst of logins cannot allocate unbounded KDF memory.
type HashPool struct {
	sem      *semaphore.Weighted
	workers  int
	inFlight atomic.Int64
	observe  HashObserver
}

// NewHashPool creates a pool with the given number of workers.
// workers <= 0 means runtime.GOMAXPROCS(0).
func NewHashPool(workers int, observe HashObserver) *HashPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &HashPool{
		sem:     semaphore.NewWeighted(int64(workers)),
		workers: workers,
		observe: observe,
	}
}

// Workers returns the pool size
func (p *HashPool) Workers() int {
	return p.workers
}

// InFlight returns the number of KDF computations currently running
func (p *HashPool) InFlight() int64 {
	return p.inFlight.Load()
}

// Hash computes HashPassword(password, salt) on the pool.
func (p *HashPool) Hash(ctx context.Context, password, salt string) (string, error) {
	var (
		hash    string
		hashErr error
	)
	if err := p.run(ctx, "hash", func() {
		hash, hashErr = HashPassword(password, salt)
	}); err != nil {
		return "", err
	}
	return hash, hashErr
}

// Verify computes VerifyPassword(password, storedHash) on the pool.
func (p *HashPool) Verify(ctx context.Context, password, storedHash string) (bool, error) {
	var ok bool
	if err := p.run(ctx, "verify", func() {
		ok = VerifyPassword(password, storedHash)
	}); err != nil {
		return false, err
	}
	return ok, nil
}

// run waits for a free worker, then runs fn on its own goroutine and waits for
// it. If ctx ends first the caller gets ctx.Err(); fn still completes and
// releases its slot.
func (p *HashPool) run(ctx context.Context, op string, fn func()) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer p.sem.Release(1)

		p.inFlight.Add(1)
		defer p.inFlight.Add(-1)

		start := time.Now()
		fn()
		if p.observe != nil {
			p.observe(op, time.Since(start))
		}
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
