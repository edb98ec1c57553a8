package main

import "github.com/marcboeker/go-duckdb-ffi/ffi"

type Writable struct{}

func main() {
	var p ffi.Ptr[int, ffi.Owned, Writable]
	_ = p.IsNull()
}
