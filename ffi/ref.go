package ffi

import "sync"

// FromRef is the origin of types that are never exported by value. They
// only cross the boundary as borrowed views into memory owned elsewhere.
type FromRef struct{ _ sealed }

// RefFFI is satisfied by types declaring the borrowed-only discipline.
type RefFFI interface {
	FFIOrigin() FromRef
}

// Scope bounds a set of borrowed pointers. Closing the scope revokes every
// pointer it handed out.
type Scope struct {
	mu     sync.Mutex
	addrs  []uintptr
	closed bool
}

func NewScope() *Scope {
	return &Scope{}
}

func (s *Scope) add(v any, alive func() bool) uintptr {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0
	}
	addr := handles.insert(v, originRef, alive)
	s.addrs = append(s.addrs, addr)
	return addr
}

// Close revokes every pointer created in the scope. Closing twice is a
// no-op.
func (s *Scope) Close() {
	s.mu.Lock()
	addrs := s.addrs
	s.addrs = nil
	s.closed = true
	s.mu.Unlock()

	for _, addr := range addrs {
		handles.remove(addr)
	}
}

// RefOf returns a borrowed pointer to v that stays valid until s is
// closed. The caller keeps v alive for at least that long.
func RefOf[T RefFFI](s *Scope, v *T) BorrowedSharedPtr[T] {
	if s == nil || v == nil {
		return BorrowedSharedPtr[T]{}
	}
	return BorrowedSharedPtr[T]{addr: s.add(v, nil)}
}

// WeakRefOf returns a borrowed pointer to the value behind w, or null if
// it has already been released.
//
// Every view through the pointer checks that the value is still alive, so
// a release before the view is reported as absent. A release that lands
// after a view has been handed out is not detected: whoever dereferences
// must make sure the owner outlives that window, or use PinWeak instead.
func WeakRefOf[T RefFFI](s *Scope, w *Weak[T]) BorrowedSharedPtr[T] {
	if s == nil || w.Expired() {
		return BorrowedSharedPtr[T]{}
	}
	in := w.inner
	addr := s.add(in.value, func() bool {
		return in.strong.Load() > 0
	})
	return BorrowedSharedPtr[T]{addr: addr}
}

// Lend calls fn with a pointer to v that is revoked as soon as fn returns.
func Lend[T RefFFI](v *T, fn func(BorrowedSharedPtr[T])) {
	s := NewScope()
	defer s.Close()

	fn(RefOf(s, v))
}

// PinWeak upgrades w for the duration of fn, so the value cannot be
// released while fn holds the pointer. It returns false without calling fn
// if the value is already gone.
func PinWeak[T RefFFI](w *Weak[T], fn func(BorrowedSharedPtr[T])) bool {
	a, ok := w.Upgrade()
	if !ok {
		return false
	}
	defer a.Release()

	Lend(a.Get(), fn)
	return true
}

// RefAsRef returns an immutable view of a borrowed-only value.
func RefAsRef[T RefFFI, L Lifetime, O Ownership](p Ptr[T, L, O]) (*T, bool) {
	return p.IntoRef()
}
