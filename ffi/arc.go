package ffi

import (
	"sync"
	"sync/atomic"
)

// FromArc is the origin of reference-counted types. Every owned pointer
// stands for one strong count.
type FromArc struct{ _ sealed }

// ArcFFI is satisfied by types declaring the reference-counted discipline.
type ArcFFI interface {
	FFIOrigin() FromArc
}

type arcInner[T any] struct {
	value  *T
	strong atomic.Int64

	// addr is the view address shared by every borrowed pointer to this
	// allocation. Guarded by handles.mu.
	addr uintptr

	dropOnce sync.Once
}

// Arc is one strong reference to a shared value. An Arc must be released
// exactly once, either through Release or by exporting it.
type Arc[T any] struct {
	inner    *arcInner[T]
	released atomic.Bool
}

// NewArc wraps v with a strong count of one.
func NewArc[T any](v *T) *Arc[T] {
	inner := &arcInner[T]{value: v}
	inner.strong.Store(1)
	return &Arc[T]{inner: inner}
}

// Get returns the shared value, or nil once this reference is released.
func (a *Arc[T]) Get() *T {
	if a == nil || a.released.Load() {
		return nil
	}
	return a.inner.value
}

// Clone returns a new strong reference to the same value.
func (a *Arc[T]) Clone() *Arc[T] {
	if a == nil || a.released.Load() {
		return nil
	}
	if !a.inner.acquire() {
		return nil
	}
	return &Arc[T]{inner: a.inner}
}

// Release drops this strong reference. Releasing twice is a no-op.
func (a *Arc[T]) Release() {
	if a == nil || !a.released.CompareAndSwap(false, true) {
		return
	}
	a.inner.releaseOne()
}

// StrongCount returns the number of strong references, including the ones
// held by exported pointers.
func (a *Arc[T]) StrongCount() int64 {
	if a == nil {
		return 0
	}
	return a.inner.strong.Load()
}

// Downgrade returns a weak reference that does not keep the value alive.
func (a *Arc[T]) Downgrade() *Weak[T] {
	if a == nil {
		return nil
	}
	return &Weak[T]{inner: a.inner}
}

// Weak refers to a shared value without owning it.
type Weak[T any] struct {
	inner *arcInner[T]
}

// Upgrade returns a strong reference if the value is still alive.
func (w *Weak[T]) Upgrade() (*Arc[T], bool) {
	if w == nil || w.inner == nil || !w.inner.acquire() {
		return nil, false
	}
	return &Arc[T]{inner: w.inner}, true
}

// Expired reports whether the value has already been released.
func (w *Weak[T]) Expired() bool {
	return w == nil || w.inner == nil || w.inner.strong.Load() == 0
}

// acquire increments the strong count unless it already reached zero.
func (in *arcInner[T]) acquire() bool {
	for {
		n := in.strong.Load()
		if n <= 0 {
			return false
		}
		if in.strong.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

func (in *arcInner[T]) releaseOne() {
	if in.strong.Add(-1) != 0 {
		return
	}
	in.dropOnce.Do(func() {
		handles.mu.Lock()
		if in.addr != 0 {
			delete(handles.entries, in.addr)
			in.addr = 0
		}
		handles.mu.Unlock()

		drop(in.value)
	})
}

// registerArc returns the view address of an allocation, assigning one on
// first use. Every borrowed pointer to the allocation shares it. It returns
// zero once the allocation has been released.
func registerArc[T any](in *arcInner[T]) uintptr {
	handles.mu.Lock()
	defer handles.mu.Unlock()

	if in.strong.Load() <= 0 {
		return 0
	}
	if in.addr != 0 {
		return in.addr
	}

	handles.next++
	handles.entries[handles.next] = &entry{
		value:  in,
		origin: originArcView,
		root:   &node{},
	}
	in.addr = handles.next
	return in.addr
}

// ExportArc moves the strong reference held by a into a pointer. The count
// does not change: the pointer now stands for that reference, and a must
// not be used afterwards. Each export gets its own address, which is gone
// once imported or freed.
func ExportArc[T ArcFFI](a *Arc[T]) OwnedSharedPtr[T] {
	if a == nil || !a.released.CompareAndSwap(false, true) {
		return OwnedSharedPtr[T]{}
	}
	return OwnedSharedPtr[T]{addr: handles.insert(a.inner, originArc, nil)}
}

// PeekArc returns a borrowed pointer to the value held by a without
// changing the count. The pointer is valid while a, or any other strong
// reference, is alive.
func PeekArc[T ArcFFI](a *Arc[T]) BorrowedSharedPtr[T] {
	if a == nil || a.released.Load() {
		return BorrowedSharedPtr[T]{}
	}
	return BorrowedSharedPtr[T]{addr: registerArc(a.inner)}
}

// ImportArc turns an owned pointer back into the strong reference it
// stands for. The count does not change, and the pointer's address is
// consumed: importing or freeing it again fails.
func ImportArc[T ArcFFI](p OwnedSharedPtr[T]) (*Arc[T], bool) {
	if p.lease != nil {
		return nil, false
	}
	if _, ok := lookupArc[T](p.addr); !ok {
		return nil, false
	}
	v, ok := handles.take(p.addr, originArc)
	if !ok {
		return nil, false
	}
	return &Arc[T]{inner: v.(*arcInner[T])}, true
}

// CloneArc returns a new strong reference to the value behind p. It is the
// only count-changing operation allowed on a borrowed pointer: a live
// pointer means the count has not reached zero, and the increment is
// refused if it has.
func CloneArc[T ArcFFI, L Lifetime](p Ptr[T, L, Shared]) (*Arc[T], bool) {
	if _, _, err := handles.view(p.addr, p.lease, false); err != nil {
		return nil, false
	}
	in, ok := lookupArc[T](p.addr)
	if !ok || !in.acquire() {
		return nil, false
	}
	return &Arc[T]{inner: in}, true
}

// ArcAsRef returns an immutable view of a reference-counted value.
func ArcAsRef[T ArcFFI, L Lifetime](p Ptr[T, L, Shared]) (*T, bool) {
	return p.IntoRef()
}

// FreeArc releases the strong reference p stands for, dropping the value
// when it was the last one. Freeing null is a no-op.
func FreeArc[T ArcFFI](p OwnedSharedPtr[T]) {
	if a, ok := ImportArc(p); ok {
		a.Release()
	}
}

func lookupArc[T any](addr uintptr) (*arcInner[T], bool) {
	e, ok := handles.get(addr)
	if !ok || (e.origin != originArc && e.origin != originArcView) {
		return nil, false
	}
	in, ok := e.value.(*arcInner[T])
	return in, ok
}
