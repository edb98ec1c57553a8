// Package task bridges background work to a foreign caller that waits for a
// single completion or failure callback.
package task

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/marcboeker/go-duckdb-ffi/ffi"
)

const unknownPanicMsg = "task panicked with a non-string payload"

var (
	ErrPanic     = errors.New("task panicked")
	errNilResult = errors.New("task completed without a result")
)

// TcsPtr is the foreign completion handle. It is opaque to Go and handed
// back verbatim to whichever callback settles the task.
type TcsPtr uintptr

// CompleteFunc receives an owned pointer to the result. The foreign side
// becomes responsible for freeing it.
type CompleteFunc func(tcs TcsPtr, result ffi.OwnedSharedPtr[ffi.Opaque])

// FailFunc receives a human-readable failure message.
type FailFunc func(tcs TcsPtr, msg string)

// Tcb is a one-shot completion context. Exactly one of Complete and Fail is
// called, exactly once.
type Tcb struct {
	Tcs      TcsPtr
	Complete CompleteFunc
	Fail     FailFunc
}

// Spawn runs work on the process-wide runtime and reports its outcome
// through tcb. A successful result is exported as a reference-counted
// value. Errors and panics are reported through Fail. Once spawned the
// work cannot be cancelled.
func Spawn[T ffi.ArcFFI](tcb Tcb, work func(ctx context.Context) (*T, error)) {
	s := &settler{tcb: tcb, id: uuid.New()}
	get().submit(func() {
		run(s, work)
	})
}

func run[T ffi.ArcFFI](s *settler, work func(ctx context.Context) (*T, error)) {
	log := Logger().With(zap.Stringer("task", s.id))
	log.Debug("task started")

	v, err := catch(work)
	switch {
	case err != nil:
		log.Debug("task failed", zap.Error(err))
		s.fail(err.Error())
	case v == nil:
		s.fail(errNilResult.Error())
	default:
		log.Debug("task completed")
		p := ffi.ExportArc(ffi.NewArc(v))
		if !s.complete(ffi.Erase(p)) {
			ffi.FreeArc(p)
		}
	}
}

// BlockOn runs work on the calling goroutine and returns its outcome. It
// does not report through a Tcb. A panic inside work comes back as an
// error wrapping ErrPanic.
func BlockOn[T any](work func(ctx context.Context) (T, error)) (T, error) {
	get()
	return catch(work)
}

func catch[T any](work func(ctx context.Context) (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			Logger().Error("recovered panic in task",
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
			var zero T
			v = zero
			err = fmt.Errorf("%w: %s", ErrPanic, panicMessage(r))
		}
	}()
	return work(context.Background())
}

func panicMessage(r any) string {
	switch p := r.(type) {
	case string:
		return p
	case error:
		return p.Error()
	case fmt.Stringer:
		return p.String()
	}
	return unknownPanicMsg
}

type settler struct {
	tcb     Tcb
	id      uuid.UUID
	settled atomic.Bool
}

// complete reports whether ownership of result passed to the foreign side.
func (s *settler) complete(result ffi.OwnedSharedPtr[ffi.Opaque]) bool {
	if !s.settled.CompareAndSwap(false, true) {
		return false
	}
	if s.tcb.Complete == nil {
		Logger().Warn("task result dropped: no completion callback", zap.Stringer("task", s.id))
		return false
	}
	s.report(func() { s.tcb.Complete(s.tcb.Tcs, result) })
	return true
}

func (s *settler) fail(msg string) {
	if !s.settled.CompareAndSwap(false, true) {
		return
	}
	if s.tcb.Fail == nil {
		Logger().Warn("task failure dropped: no failure callback",
			zap.Stringer("task", s.id),
			zap.String("message", msg),
		)
		return
	}
	s.report(func() { s.tcb.Fail(s.tcb.Tcs, msg) })
}

// report invokes a foreign callback. A panic escaping it is logged; the
// task is already settled, so nothing else is reported.
func (s *settler) report(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			Logger().Error("completion callback panicked",
				zap.Stringer("task", s.id),
				zap.Any("panic", r),
			)
		}
	}()
	fn()
}
