package ffi

// Ptr is the handle type every cross-boundary pointer is expressed in. The
// zero value is the null pointer.
//
// L records who is responsible for the pointee: an Owned pointer must be
// handed back to the matching free operation, a Borrowed one must not. O
// records which views the pointer grants.
type Ptr[T any, L Lifetime, O Ownership] struct {
	addr  uintptr
	lease *node
}

type (
	OwnedSharedPtr[T any]       = Ptr[T, Owned, Shared]
	BorrowedSharedPtr[T any]    = Ptr[T, Borrowed, Shared]
	OwnedExclusivePtr[T any]    = Ptr[T, Owned, Exclusive]
	BorrowedExclusivePtr[T any] = Ptr[T, Borrowed, Exclusive]
)

// Null returns the null pointer.
func Null[T any, L Lifetime, O Ownership]() Ptr[T, L, O] {
	return Ptr[T, L, O]{}
}

// FromRaw admits an address received from the foreign side.
//
// This is the only unchecked constructor: the caller asserts that addr is
// either zero or was produced for a value of type T, and picks L and O to
// match how it was produced. A wrong guess is never a memory error, since
// every view re-checks the table, but it breaks the ownership protocol.
func FromRaw[T any, L Lifetime, O Ownership](addr uintptr) Ptr[T, L, O] {
	return Ptr[T, L, O]{addr: addr}
}

// IsNull reports whether p is the null pointer.
func (p Ptr[T, L, O]) IsNull() bool {
	return p.addr == 0
}

// Addr returns the address handed to the foreign side.
func (p Ptr[T, L, O]) Addr() uintptr {
	return p.addr
}

// Check reports why p cannot be dereferenced right now, or nil if it can.
func (p Ptr[T, L, O]) Check() error {
	v, _, err := handles.view(p.addr, p.lease, false)
	if err != nil {
		return err
	}
	if _, ok := deref[T](v); !ok {
		return ErrDangling
	}
	return nil
}

// IntoRef returns an immutable view of the pointee.
func (p Ptr[T, L, O]) IntoRef() (*T, bool) {
	v, _, err := handles.view(p.addr, p.lease, false)
	if err != nil {
		return nil, false
	}
	return deref[T](v)
}

// IntoMut returns a mutable view of the pointee. Only exclusive pointers to
// single-owner values grant one.
func IntoMut[T any, L Lifetime](p Ptr[T, L, Exclusive]) (*T, bool) {
	v, o, err := handles.view(p.addr, p.lease, true)
	if err != nil || o != originBox {
		return nil, false
	}
	return deref[T](v)
}

// Borrow returns a shared reborrow of p. The reborrow stays valid until it
// is released or the pointee is freed, and while it is live p cannot be
// viewed mutably. Borrow returns null while a mutable reborrow of p is live.
func (p *Ptr[T, L, O]) Borrow() Ptr[T, Borrowed, Shared] {
	n, err := handles.borrow(p.addr, p.lease, false)
	if err != nil {
		return Ptr[T, Borrowed, Shared]{}
	}
	return Ptr[T, Borrowed, Shared]{addr: p.addr, lease: n}
}

// BorrowMut returns an exclusive reborrow of p. It returns null while any
// other reborrow of p is live. Until the reborrow is released, p itself
// cannot be viewed at all.
func BorrowMut[T any, L Lifetime](p *Ptr[T, L, Exclusive]) Ptr[T, Borrowed, Exclusive] {
	n, err := handles.borrow(p.addr, p.lease, true)
	if err != nil {
		return Ptr[T, Borrowed, Exclusive]{}
	}
	return Ptr[T, Borrowed, Exclusive]{addr: p.addr, lease: n}
}

// Release ends a reborrow along with every reborrow derived from it. It is
// a no-op on pointers that are not reborrows and on reborrows already
// released.
func (p Ptr[T, L, O]) Release() {
	handles.release(p.lease)
}

// Erase casts p to the opaque pointee type, keeping its lifetime and kind.
func Erase[T any, L Lifetime, O Ownership](p Ptr[T, L, O]) Ptr[Opaque, L, O] {
	return Cast[Opaque](p)
}

// Cast reinterprets the pointee type of p. Views through the result only
// succeed if the pointee really is a U.
func Cast[U, T any, L Lifetime, O Ownership](p Ptr[T, L, O]) Ptr[U, L, O] {
	return Ptr[U, L, O]{addr: p.addr, lease: p.lease}
}

func deref[T any](v any) (*T, bool) {
	switch x := v.(type) {
	case *T:
		return x, x != nil
	case *arcInner[T]:
		return x.value, x.value != nil
	}
	return nil, false
}
