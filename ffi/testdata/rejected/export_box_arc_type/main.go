package main

import "github.com/marcboeker/go-duckdb-ffi/ffi"

type session struct{}

func (session) FFIOrigin() ffi.FromArc { return ffi.FromArc{} }

func main() {
	_ = ffi.ExportBox(&session{})
}
