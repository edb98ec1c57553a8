package ffi

// sealed cannot be named outside this package, so neither can a literal of
// any marker type that embeds it.
type sealed struct{}

// Shared marks a pointer that only grants immutable views.
type Shared struct{ _ sealed }

// Exclusive marks a pointer that grants immutable or mutable views, never
// both at the same time.
type Exclusive struct{ _ sealed }

// Ownership is the closed set of ownership kinds.
type Ownership interface {
	Shared | Exclusive
}

// Owned marks a pointer whose holder must release it through the matching
// free operation.
type Owned struct{ _ sealed }

// Borrowed marks a pointer that is only valid while its true owner keeps
// the pointee alive. A borrowed pointer is never freed.
type Borrowed struct{ _ sealed }

// Lifetime is the closed set of lifetime tags.
type Lifetime interface {
	Owned | Borrowed
}

// Opaque is the erased pointee type used where an interface cannot be
// generic over the pointee.
type Opaque struct{ _ sealed }
