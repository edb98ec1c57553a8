package main

import "github.com/marcboeker/go-duckdb-ffi/ffi"

type cell struct{}

func (cell) FFIOrigin() ffi.FromBox { return ffi.FromBox{} }

func (cell) FFIOrigin() ffi.FromArc { return ffi.FromArc{} }

func main() {
	_ = ffi.ExportBox(&cell{})
}
