package main

import "github.com/marcboeker/go-duckdb-ffi/ffi"

type values struct{ n int }

func (values) FFIOrigin() ffi.FromBox { return ffi.FromBox{} }

type session struct{}

func (session) FFIOrigin() ffi.FromArc { return ffi.FromArc{} }

type cell struct{}

func (cell) FFIOrigin() ffi.FromRef { return ffi.FromRef{} }

func main() {
	p := ffi.ExportBox(&values{})
	m := ffi.BorrowMut(&p)
	if v, ok := ffi.BoxAsMut(m); ok {
		v.n++
	}
	m.Release()
	r := p.Borrow()
	_, _ = ffi.BoxAsRef(r)
	r.Release()
	ffi.FreeBox(p)

	a := ffi.NewArc(&session{})
	b := ffi.PeekArc(a)
	if c, ok := ffi.CloneArc(b); ok {
		ffi.FreeArc(ffi.ExportArc(c))
	}
	o := ffi.ExportArc(a)
	_ = ffi.Erase(o)
	ffi.FreeArc(o)

	ffi.Lend(&cell{}, func(p ffi.BorrowedSharedPtr[cell]) {
		_, _ = ffi.RefAsRef(p)
	})
}
