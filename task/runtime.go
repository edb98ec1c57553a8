package task

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"golang.org/x/sync/semaphore"
)

var ErrRuntimeStarted = errors.New("task runtime already started")

// Config sizes the process-wide runtime.
type Config struct {
	// Workers bounds how many spawned tasks run at the same time. Zero
	// selects a default based on GOMAXPROCS.
	Workers int64
}

func defaultWorkers() int64 {
	return int64(runtime.GOMAXPROCS(0) * 4)
}

// pool runs spawned work with bounded parallelism. There is exactly one per
// process. It is created on first use and lives until the process exits;
// work still in flight at exit is abandoned.
type pool struct {
	sem     *semaphore.Weighted
	workers int64
}

var (
	cfgMu   sync.Mutex
	cfg     Config
	started bool

	rt     *pool
	rtOnce sync.Once
)

// Configure sets the runtime configuration. It must be called before the
// first task is spawned; afterwards it returns ErrRuntimeStarted.
func Configure(c Config) error {
	cfgMu.Lock()
	defer cfgMu.Unlock()

	if started {
		return ErrRuntimeStarted
	}
	cfg = c
	return nil
}

func get() *pool {
	rtOnce.Do(func() {
		cfgMu.Lock()
		defer cfgMu.Unlock()

		started = true
		workers := cfg.Workers
		if workers <= 0 {
			workers = defaultWorkers()
		}
		rt = &pool{
			sem:     semaphore.NewWeighted(workers),
			workers: workers,
		}
	})
	return rt
}

// Workers returns the parallelism of the running runtime, starting it if
// needed.
func Workers() int64 {
	return get().workers
}

func (p *pool) submit(fn func()) {
	go func() {
		// Acquire only fails on a cancelled context.
		_ = p.sem.Acquire(context.Background(), 1)
		defer p.sem.Release(1)
		fn()
	}()
}
