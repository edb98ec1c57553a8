package ffi

import (
	"sync"
)

type origin uint8

const (
	originBox origin = iota + 1
	originArc
	originArcView
	originRef
)

func (o origin) String() string {
	switch o {
	case originBox:
		return "box"
	case originArc:
		return "arc"
	case originArcView:
		return "arc view"
	case originRef:
		return "ref"
	}
	return "unknown"
}

// node is one link in the reborrow chain of an entry. The root node belongs
// to the entry itself; every Borrow or BorrowMut adds a child.
type node struct {
	parent   *node
	readers  int
	writer   bool
	mutable  bool
	released bool
}

func (n *node) active() bool {
	for ; n != nil; n = n.parent {
		if n.released {
			return false
		}
	}
	return true
}

type entry struct {
	value  any
	origin origin
	root   *node
	// alive is consulted on every access when set. Weak references use it
	// to notice that their owner has been released.
	alive func() bool
}

func (e *entry) live() bool {
	return e.alive == nil || e.alive()
}

// table maps boundary addresses to exported values. Addresses are handed
// out monotonically and never reused, so a stale address can only miss.
type table struct {
	mu      sync.RWMutex
	entries map[uintptr]*entry
	next    uintptr
}

var handles = newTable()

func newTable() *table {
	return &table{
		entries: make(map[uintptr]*entry),
	}
}

func (t *table) insert(value any, o origin, alive func() bool) uintptr {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.next++
	t.entries[t.next] = &entry{
		value:  value,
		origin: o,
		root:   &node{},
		alive:  alive,
	}
	return t.next
}

func (t *table) get(addr uintptr) (*entry, bool) {
	if addr == 0 {
		return nil, false
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	e, ok := t.entries[addr]
	return e, ok
}

// take removes the entry at addr if it was created by the given discipline.
func (t *table) take(addr uintptr, o origin) (any, bool) {
	if addr == 0 {
		return nil, false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[addr]
	if !ok || e.origin != o {
		return nil, false
	}
	delete(t.entries, addr)
	return e.value, true
}

func (t *table) remove(addr uintptr) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, addr)
}

// view returns the value at addr if the pointer identified by (addr, lease)
// may currently be dereferenced, mutably or not.
func (t *table) view(addr uintptr, lease *node, mutable bool) (any, origin, error) {
	if addr == 0 {
		return nil, 0, ErrNullPointer
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	e, ok := t.entries[addr]
	if !ok || !e.live() {
		return nil, 0, ErrDangling
	}

	n := lease
	if n == nil {
		n = e.root
	}
	if !n.active() {
		return nil, 0, ErrDangling
	}
	if n.writer || (mutable && n.readers > 0) {
		return nil, 0, ErrLeaseHeld
	}
	return e.value, e.origin, nil
}

func (t *table) borrow(addr uintptr, parent *node, mutable bool) (*node, error) {
	if addr == 0 {
		return nil, ErrNullPointer
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[addr]
	if !ok || !e.live() {
		return nil, ErrDangling
	}

	p := parent
	if p == nil {
		p = e.root
	}
	if !p.active() {
		return nil, ErrDangling
	}
	if p.writer || (mutable && p.readers > 0) {
		return nil, ErrLeaseHeld
	}

	if mutable {
		p.writer = true
	} else {
		p.readers++
	}
	return &node{parent: p, mutable: mutable}, nil
}

func (t *table) release(n *node) {
	if n == nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if n.released {
		return
	}
	n.released = true

	if p := n.parent; p != nil {
		if n.mutable {
			p.writer = false
		} else if p.readers > 0 {
			p.readers--
		}
	}
}

func (t *table) len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// LiveHandles returns the number of values currently reachable through the
// handle table.
func LiveHandles() int {
	return handles.len()
}

// Dropper is implemented by values that hold resources which must be
// released when the last owner frees them.
type Dropper interface {
	Drop()
}

func drop(v any) {
	if d, ok := v.(Dropper); ok {
		d.Drop()
	}
}
