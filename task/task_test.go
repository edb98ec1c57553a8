package task

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/marcboeker/go-duckdb-ffi/ffi"
)

type result struct {
	v int
}

func (result) FFIOrigin() ffi.FromArc { return ffi.FromArc{} }

type recorder struct {
	mu        sync.Mutex
	completes []ffi.OwnedSharedPtr[ffi.Opaque]
	fails     []string
	tcs       []TcsPtr
	done      chan struct{}
	once      sync.Once
}

func newRecorder() *recorder {
	return &recorder{done: make(chan struct{})}
}

func (r *recorder) tcb(tcs TcsPtr) Tcb {
	return Tcb{
		Tcs: tcs,
		Complete: func(tcs TcsPtr, p ffi.OwnedSharedPtr[ffi.Opaque]) {
			r.mu.Lock()
			r.completes = append(r.completes, p)
			r.tcs = append(r.tcs, tcs)
			r.mu.Unlock()
			r.once.Do(func() { close(r.done) })
		},
		Fail: func(tcs TcsPtr, msg string) {
			r.mu.Lock()
			r.fails = append(r.fails, msg)
			r.tcs = append(r.tcs, tcs)
			r.mu.Unlock()
			r.once.Do(func() { close(r.done) })
		},
	}
}

func (r *recorder) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(5 * time.Second):
		t.Fatal("task was never settled")
	}
	// Leave room for a stray second report to show up.
	assert.Never(t, func() bool {
		r.mu.Lock()
		defer r.mu.Unlock()
		return len(r.completes)+len(r.fails) > 1
	}, 50*time.Millisecond, 5*time.Millisecond)
}

func TestSpawnComplete(t *testing.T) {
	r := newRecorder()
	Spawn(r.tcb(7), func(context.Context) (*result, error) {
		return &result{v: 42}, nil
	})
	r.wait(t)

	require.Empty(t, r.fails)
	require.Len(t, r.completes, 1)
	require.Equal(t, []TcsPtr{7}, r.tcs)

	a, ok := ffi.ImportArc(ffi.Cast[result](r.completes[0]))
	require.True(t, ok)
	require.Equal(t, 42, a.Get().v)
	require.EqualValues(t, 1, a.StrongCount())
	a.Release()
}

func TestSpawnPanic(t *testing.T) {
	r := newRecorder()
	Spawn(r.tcb(1), func(context.Context) (*result, error) {
		panic("boom")
	})
	r.wait(t)

	require.Empty(t, r.completes)
	require.Len(t, r.fails, 1)
	require.Contains(t, r.fails[0], "boom")
}

func TestSpawnPanicNonString(t *testing.T) {
	r := newRecorder()
	Spawn(r.tcb(1), func(context.Context) (*result, error) {
		panic(42)
	})
	r.wait(t)

	require.Empty(t, r.completes)
	require.Len(t, r.fails, 1)
	require.Contains(t, r.fails[0], unknownPanicMsg)
}

func TestSpawnError(t *testing.T) {
	r := newRecorder()
	err := fmt.Errorf("could not connect: %w", errors.New("connection refused"))
	Spawn(r.tcb(1), func(context.Context) (*result, error) {
		return nil, err
	})
	r.wait(t)

	require.Empty(t, r.completes)
	require.Equal(t, []string{err.Error()}, r.fails)
}

func TestSpawnNilResult(t *testing.T) {
	r := newRecorder()
	Spawn(r.tcb(1), func(context.Context) (*result, error) {
		return nil, nil
	})
	r.wait(t)

	require.Empty(t, r.completes)
	require.Equal(t, []string{errNilResult.Error()}, r.fails)
}

func TestSpawnCallbackPanic(t *testing.T) {
	done := make(chan struct{})
	var fails int
	var mu sync.Mutex

	tcb := Tcb{
		Complete: func(TcsPtr, ffi.OwnedSharedPtr[ffi.Opaque]) {
			close(done)
			panic("foreign side blew up")
		},
		Fail: func(TcsPtr, string) {
			mu.Lock()
			fails++
			mu.Unlock()
		},
	}
	Spawn(tcb, func(context.Context) (*result, error) {
		return &result{v: 1}, nil
	})

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("task was never settled")
	}
	assert.Never(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return fails > 0
	}, 50*time.Millisecond, 5*time.Millisecond)
}

func TestSpawnMissingCallback(t *testing.T) {
	before := ffi.LiveHandles()
	finished := make(chan struct{})

	Spawn(Tcb{}, func(context.Context) (*result, error) {
		defer close(finished)
		return &result{v: 1}, nil
	})
	<-finished

	require.Eventually(t, func() bool {
		return ffi.LiveHandles() == before
	}, time.Second, 5*time.Millisecond)
}

func TestSpawnMany(t *testing.T) {
	const n = 200
	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := make(map[TcsPtr]int)

	wg.Add(n)
	for i := 0; i < n; i++ {
		tcb := Tcb{
			Tcs: TcsPtr(i + 1),
			Complete: func(tcs TcsPtr, p ffi.OwnedSharedPtr[ffi.Opaque]) {
				ffi.FreeArc(ffi.Cast[result](p))
				mu.Lock()
				seen[tcs]++
				mu.Unlock()
				wg.Done()
			},
			Fail: func(tcs TcsPtr, _ string) {
				mu.Lock()
				seen[tcs]++
				mu.Unlock()
				wg.Done()
			},
		}
		Spawn(tcb, func(context.Context) (*result, error) {
			if i%3 == 0 {
				panic("boom")
			}
			return &result{v: i}, nil
		})
	}
	wg.Wait()

	require.Len(t, seen, n)
	for tcs, count := range seen {
		require.Equal(t, 1, count, "task %d", tcs)
	}
}

func TestBlockOn(t *testing.T) {
	v, err := BlockOn(func(context.Context) (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	require.Equal(t, 42, v)

	domainErr := errors.New("no such table")
	_, err = BlockOn(func(context.Context) (int, error) {
		return 0, domainErr
	})
	require.ErrorIs(t, err, domainErr)

	v, err = BlockOn(func(context.Context) (int, error) {
		panic("boom")
	})
	require.ErrorIs(t, err, ErrPanic)
	require.Contains(t, err.Error(), "boom")
	require.Zero(t, v)
}

func TestSetLoggerWhileSpawning(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	observed := zap.New(core)
	defer SetLogger(nil)

	const n = 50
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		tcb := Tcb{
			Tcs:      TcsPtr(i + 1),
			Complete: func(TcsPtr, ffi.OwnedSharedPtr[ffi.Opaque]) { wg.Done() },
			Fail:     func(TcsPtr, string) { wg.Done() },
		}
		Spawn(tcb, func(context.Context) (*result, error) {
			panic("boom")
		})
		if i%2 == 0 {
			SetLogger(observed)
		} else {
			SetLogger(nil)
		}
	}
	wg.Wait()

	SetLogger(observed)
	require.Same(t, observed, Logger())
	_, err := BlockOn(func(context.Context) (int, error) { panic("boom") })
	require.ErrorIs(t, err, ErrPanic)
	require.NotZero(t, logs.FilterMessage("recovered panic in task").Len())

	SetLogger(nil)
	require.NotNil(t, Logger())
}

func TestConfigureAfterStart(t *testing.T) {
	require.Positive(t, Workers())
	require.ErrorIs(t, Configure(Config{Workers: 2}), ErrRuntimeStarted)
}

func TestPanicMessage(t *testing.T) {
	tests := []struct {
		name    string
		payload any
		want    string
	}{
		{"string", "boom", "boom"},
		{"error", errors.New("bad state"), "bad state"},
		{"stringer", time.Second, "1s"},
		{"other", 3.5, unknownPanicMsg},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, panicMessage(tt.payload))
		})
	}
}
