package main

/*
#include "bridge.h"

static void call_complete(duckffi_complete_fn fn, uintptr_t tcs, duckffi_handle_t result) {
	fn((void *)tcs, result);
}

static void call_fail(duckffi_fail_fn fn, uintptr_t tcs, const char *msg, size_t msg_len) {
	fn((void *)tcs, msg, msg_len);
}

static void call_set_metadata(duckffi_set_metadata_fn fn, uintptr_t ctx, size_t idx,
                              const char *name, size_t name_len, uint8_t code, duckffi_handle_t info) {
	fn((void *)ctx, idx, name, name_len, code, info);
}

static void call_deserialize(duckffi_deserialize_fn fn, uintptr_t ctx, size_t idx, duckffi_handle_t cell,
                             uint8_t code, const uint8_t *data, size_t data_len) {
	fn((void *)ctx, idx, cell, code, data, data_len);
}
*/
import "C"

import (
	"unsafe"

	duckffi "github.com/marcboeker/go-duckdb-ffi"
	"github.com/marcboeker/go-duckdb-ffi/ffi"
	"github.com/marcboeker/go-duckdb-ffi/task"
)

// Go memory handed to the callbacks below holds no Go pointers and is only
// used for the duration of the call.

func cString(s string) (*C.char, C.size_t) {
	return (*C.char)(unsafe.Pointer(unsafe.StringData(s))), C.size_t(len(s))
}

func cBytes(b []byte) (*C.uint8_t, C.size_t) {
	return (*C.uint8_t)(unsafe.Pointer(unsafe.SliceData(b))), C.size_t(len(b))
}

func tcbFromC(c C.duckffi_tcb_t) task.Tcb {
	tcb := task.Tcb{Tcs: task.TcsPtr(uintptr(c.tcs))}
	if complete := c.complete; complete != nil {
		tcb.Complete = func(tcs task.TcsPtr, result ffi.OwnedSharedPtr[ffi.Opaque]) {
			C.call_complete(complete, C.uintptr_t(tcs), C.duckffi_handle_t(result.Addr()))
		}
	}
	if fail := c.fail; fail != nil {
		tcb.Fail = func(tcs task.TcsPtr, msg string) {
			p, n := cString(msg)
			C.call_fail(fail, C.uintptr_t(tcs), p, n)
		}
	}
	return tcb
}

func setMetadataFunc(fn C.duckffi_set_metadata_fn, ctx unsafe.Pointer) duckffi.SetMetadataFunc {
	return func(idx int, name string, code duckffi.Type, info ffi.OwnedExclusivePtr[duckffi.TypeInfo]) {
		p, n := cString(name)
		C.call_set_metadata(fn, C.uintptr_t(uintptr(ctx)), C.size_t(idx), p, n, C.uint8_t(code), C.duckffi_handle_t(info.Addr()))
	}
}

func deserializeFunc(fn C.duckffi_deserialize_fn, ctx unsafe.Pointer) duckffi.DeserializeValueFunc {
	return func(idx int, cell ffi.BorrowedSharedPtr[duckffi.CellValue]) {
		c, ok := ffi.RefAsRef(cell)
		if !ok {
			return
		}
		p, n := cBytes(c.Bytes())
		C.call_deserialize(fn, C.uintptr_t(uintptr(ctx)), C.size_t(idx), C.duckffi_handle_t(cell.Addr()), C.uint8_t(c.Type()), p, n)
	}
}
