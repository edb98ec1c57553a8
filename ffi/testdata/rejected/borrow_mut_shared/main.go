package main

import "github.com/marcboeker/go-duckdb-ffi/ffi"

type values struct{}

func (values) FFIOrigin() ffi.FromBox { return ffi.FromBox{} }

func main() {
	p := ffi.Null[values, ffi.Borrowed, ffi.Shared]()
	_ = ffi.BorrowMut(&p)
}
