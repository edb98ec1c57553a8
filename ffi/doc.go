// Package ffi provides ownership-typed handles for values that are exported
// across a foreign function boundary.
//
// A foreign caller never sees Go memory. It receives an address into a
// process-wide handle table, wrapped on the Go side in a [Ptr] that carries
// two compile-time tags: a [Lifetime] (Owned or Borrowed) and an [Ownership]
// kind (Shared or Exclusive). Every native type opts into exactly one
// allocation discipline by declaring an FFIOrigin method:
//
//	type RowSet struct{ ... }
//
//	func (RowSet) FFIOrigin() ffi.FromArc { return ffi.FromArc{} }
//
// The discipline then fixes the operations available for the type:
//
//   - FromBox: single owner. ExportBox, ImportBox, FreeBox, BoxAsRef, BoxAsMut.
//   - FromArc: reference counted. ExportArc, PeekArc, ImportArc, CloneArc,
//     FreeArc, ArcAsRef.
//   - FromRef: borrowed only. RefOf, WeakRefOf, Lend, PinWeak, RefAsRef.
//
// Operations that accept a pointer treat a null, stale or mistyped address
// as absent and report it through a false result. They never panic.
//
// Reborrows (Borrow, BorrowMut) are tracked with leases. A mutable reborrow
// cannot coexist with any other live reborrow of the same parent, and
// freeing the pointee invalidates every reborrow taken from it.
package ffi
