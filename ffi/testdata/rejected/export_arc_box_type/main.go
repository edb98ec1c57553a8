package main

import "github.com/marcboeker/go-duckdb-ffi/ffi"

type values struct{}

func (values) FFIOrigin() ffi.FromBox { return ffi.FromBox{} }

func main() {
	_ = ffi.ExportArc(ffi.NewArc(&values{}))
}
