package ffi

// FromBox is the origin of types with a single owner. Exporting detaches the
// value into the handle table; importing takes it back out.
type FromBox struct{ _ sealed }

// BoxFFI is satisfied by types declaring the single-owner discipline.
type BoxFFI interface {
	FFIOrigin() FromBox
}

// ExportBox moves v into the handle table and returns the only pointer
// that owns it. A nil v yields null.
func ExportBox[T BoxFFI](v *T) OwnedExclusivePtr[T] {
	if v == nil {
		return OwnedExclusivePtr[T]{}
	}
	return OwnedExclusivePtr[T]{addr: handles.insert(v, originBox, nil)}
}

// ImportBox takes the value back out of the handle table. After a
// successful import the address is gone for good, and every reborrow taken
// from it is invalid.
func ImportBox[T BoxFFI](p OwnedExclusivePtr[T]) (*T, bool) {
	if p.lease != nil {
		return nil, false
	}
	e, ok := handles.get(p.addr)
	if !ok || e.origin != originBox {
		return nil, false
	}
	if _, ok := e.value.(*T); !ok {
		return nil, false
	}

	v, ok := handles.take(p.addr, originBox)
	if !ok {
		return nil, false
	}
	return v.(*T), true
}

// BoxAsRef returns an immutable view of a single-owner value.
func BoxAsRef[T BoxFFI, L Lifetime, O Ownership](p Ptr[T, L, O]) (*T, bool) {
	return p.IntoRef()
}

// BoxAsMut returns a mutable view of a single-owner value.
func BoxAsMut[T BoxFFI, L Lifetime](p Ptr[T, L, Exclusive]) (*T, bool) {
	return IntoMut(p)
}

// FreeBox imports the value and drops it. Freeing null is a no-op.
func FreeBox[T BoxFFI](p OwnedExclusivePtr[T]) {
	if v, ok := ImportBox(p); ok {
		drop(v)
	}
}
