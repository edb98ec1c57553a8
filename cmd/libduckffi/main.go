// Command libduckffi builds the bridge as a C shared library:
//
//	go build -buildmode=c-shared -o libduckffi.so ./cmd/libduckffi
//
// Handles are passed as uintptr_t and strings as pointer plus length. See
// bridge.h for the callback types.
package main

func main() {}
