package main

/*
#include "bridge.h"
*/
import "C"

import (
	"unsafe"

	"go.uber.org/zap"

	duckffi "github.com/marcboeker/go-duckdb-ffi"
	"github.com/marcboeker/go-duckdb-ffi/ffi"
)

func goString(p *C.char, n C.size_t) string {
	if p == nil || n == 0 {
		return ""
	}
	return C.GoStringN(p, C.int(n))
}

func goBytes(p *C.uint8_t, n C.size_t) []byte {
	if p == nil {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(p)), int(n))
}

// copyOut copies s into buf, truncating to capacity, and returns the full
// length so the caller can retry with a larger buffer.
func copyOut(s string, buf *C.char, capacity C.size_t) C.size_t {
	if buf != nil && capacity > 0 {
		dst := unsafe.Slice((*byte)(unsafe.Pointer(buf)), int(capacity))
		copy(dst, s)
	}
	return C.size_t(len(s))
}

func sharedRef[T any](h C.duckffi_handle_t) ffi.BorrowedSharedPtr[T] {
	return ffi.FromRaw[T, ffi.Borrowed, ffi.Shared](uintptr(h))
}

func ownedShared[T any](h C.duckffi_handle_t) ffi.OwnedSharedPtr[T] {
	return ffi.FromRaw[T, ffi.Owned, ffi.Shared](uintptr(h))
}

func ownedExclusive[T any](h C.duckffi_handle_t) ffi.OwnedExclusivePtr[T] {
	return ffi.FromRaw[T, ffi.Owned, ffi.Exclusive](uintptr(h))
}

func mutRef[T any](h C.duckffi_handle_t) ffi.BorrowedExclusivePtr[T] {
	return ffi.FromRaw[T, ffi.Borrowed, ffi.Exclusive](uintptr(h))
}

//export duckffi_init
func duckffi_init(path *C.char, pathLen C.size_t) C.int32_t {
	if err := duckffi.Init(goString(path, pathLen)); err != nil {
		duckffi.Logger().Error("init failed", zap.Error(err))
		return C.int32_t(duckffi.CodeAbsent)
	}
	return C.int32_t(duckffi.CodeOK)
}

//export session_create
func session_create(tcb C.duckffi_tcb_t, dsn *C.char, dsnLen C.size_t) {
	duckffi.SessionCreate(tcbFromC(tcb), goString(dsn, dsnLen))
}

//export session_free
func session_free(session C.duckffi_handle_t) {
	duckffi.SessionFree(ownedShared[duckffi.Session](session))
}

//export session_prepare
func session_prepare(tcb C.duckffi_tcb_t, session C.duckffi_handle_t, query *C.char, queryLen C.size_t) {
	duckffi.SessionPrepare(tcbFromC(tcb), sharedRef[duckffi.Session](session), goString(query, queryLen))
}

//export session_query
func session_query(tcb C.duckffi_tcb_t, session C.duckffi_handle_t, query *C.char, queryLen C.size_t) {
	duckffi.SessionQuery(tcbFromC(tcb), sharedRef[duckffi.Session](session), goString(query, queryLen))
}

//export session_query_with_values
func session_query_with_values(tcb C.duckffi_tcb_t, session C.duckffi_handle_t, query *C.char, queryLen C.size_t, values C.duckffi_handle_t) {
	duckffi.SessionQueryWithValues(tcbFromC(tcb), sharedRef[duckffi.Session](session), goString(query, queryLen),
		ownedExclusive[duckffi.PreSerializedValues](values))
}

//export prepared_statement_free
func prepared_statement_free(stmt C.duckffi_handle_t) {
	duckffi.PreparedStatementFree(ownedShared[duckffi.PreparedStatement](stmt))
}

//export prepared_statement_param_count
func prepared_statement_param_count(stmt C.duckffi_handle_t, out *C.size_t) C.int32_t {
	if out == nil {
		return C.int32_t(duckffi.CodeAbsent)
	}
	var n int
	code := duckffi.PreparedStatementParamCount(sharedRef[duckffi.PreparedStatement](stmt), &n)
	*out = C.size_t(n)
	return C.int32_t(code)
}

//export prepared_statement_is_read_only
func prepared_statement_is_read_only(stmt C.duckffi_handle_t) C.int32_t {
	return C.int32_t(duckffi.PreparedStatementIsReadOnly(sharedRef[duckffi.PreparedStatement](stmt)))
}

//export prepared_statement_query
func prepared_statement_query(tcb C.duckffi_tcb_t, stmt C.duckffi_handle_t, values C.duckffi_handle_t) {
	duckffi.PreparedStatementQuery(tcbFromC(tcb), sharedRef[duckffi.PreparedStatement](stmt),
		ownedExclusive[duckffi.PreSerializedValues](values))
}

//export row_set_free
func row_set_free(rows C.duckffi_handle_t) {
	duckffi.RowSetFree(ownedShared[duckffi.RowSet](rows))
}

//export row_set_columns_count
func row_set_columns_count(rows C.duckffi_handle_t) C.size_t {
	return C.size_t(duckffi.RowSetColumnsCount(sharedRef[duckffi.RowSet](rows)))
}

//export row_set_fill_columns_metadata
func row_set_fill_columns_metadata(rows C.duckffi_handle_t, ctx unsafe.Pointer, fn C.duckffi_set_metadata_fn) C.int32_t {
	if fn == nil {
		return C.int32_t(duckffi.CodeAbsent)
	}
	return C.int32_t(duckffi.RowSetFillColumnsMetadata(sharedRef[duckffi.RowSet](rows), setMetadataFunc(fn, ctx)))
}

//export row_set_next_row
func row_set_next_row(rows C.duckffi_handle_t, ctx unsafe.Pointer, fn C.duckffi_deserialize_fn) C.int32_t {
	if fn == nil {
		return C.int32_t(duckffi.CodeAbsent)
	}
	return C.int32_t(duckffi.RowSetNextRow(sharedRef[duckffi.RowSet](rows), deserializeFunc(fn, ctx)))
}

// row_set_error copies the iteration error into buf and returns its full
// length, zero if there is none.
//
//export row_set_error
func row_set_error(rows C.duckffi_handle_t, buf *C.char, capacity C.size_t) C.size_t {
	return copyOut(duckffi.RowSetError(sharedRef[duckffi.RowSet](rows)), buf, capacity)
}

//export row_set_type_info_free
func row_set_type_info_free(info C.duckffi_handle_t) {
	duckffi.TypeInfoFree(ownedExclusive[duckffi.TypeInfo](info))
}

//export row_set_type_info_code
func row_set_type_info_code(info C.duckffi_handle_t) C.uint8_t {
	return C.uint8_t(duckffi.TypeInfoCode(sharedRef[duckffi.TypeInfo](info)))
}

//export row_set_type_info_list_child
func row_set_type_info_list_child(info C.duckffi_handle_t, out *C.duckffi_handle_t) C.int32_t {
	if out == nil {
		return C.int32_t(duckffi.CodeAbsent)
	}
	var child ffi.OwnedExclusivePtr[duckffi.TypeInfo]
	code := duckffi.TypeInfoListChild(sharedRef[duckffi.TypeInfo](info), &child)
	*out = C.duckffi_handle_t(child.Addr())
	return C.int32_t(code)
}

//export row_set_type_info_array_size
func row_set_type_info_array_size(info C.duckffi_handle_t, out *C.size_t) C.int32_t {
	if out == nil {
		return C.int32_t(duckffi.CodeAbsent)
	}
	var n int
	code := duckffi.TypeInfoArraySize(sharedRef[duckffi.TypeInfo](info), &n)
	*out = C.size_t(n)
	return C.int32_t(code)
}

//export row_set_type_info_map_children
func row_set_type_info_map_children(info C.duckffi_handle_t, outKey, outValue *C.duckffi_handle_t) C.int32_t {
	if outKey == nil || outValue == nil {
		return C.int32_t(duckffi.CodeAbsent)
	}
	var key, value ffi.OwnedExclusivePtr[duckffi.TypeInfo]
	code := duckffi.TypeInfoMapChildren(sharedRef[duckffi.TypeInfo](info), &key, &value)
	*outKey = C.duckffi_handle_t(key.Addr())
	*outValue = C.duckffi_handle_t(value.Addr())
	return C.int32_t(code)
}

//export row_set_type_info_struct_field_count
func row_set_type_info_struct_field_count(info C.duckffi_handle_t, out *C.size_t) C.int32_t {
	if out == nil {
		return C.int32_t(duckffi.CodeAbsent)
	}
	var n int
	code := duckffi.TypeInfoStructFieldCount(sharedRef[duckffi.TypeInfo](info), &n)
	*out = C.size_t(n)
	return C.int32_t(code)
}

// row_set_type_info_struct_field exports the type of field idx and copies
// its name into nameBuf. nameLen receives the full name length.
//
//export row_set_type_info_struct_field
func row_set_type_info_struct_field(info C.duckffi_handle_t, idx C.size_t, nameBuf *C.char, nameCap C.size_t, nameLen *C.size_t, outChild *C.duckffi_handle_t) C.int32_t {
	if nameLen == nil || outChild == nil {
		return C.int32_t(duckffi.CodeAbsent)
	}
	var name string
	var child ffi.OwnedExclusivePtr[duckffi.TypeInfo]
	code := duckffi.TypeInfoStructField(sharedRef[duckffi.TypeInfo](info), int(idx), &name, &child)
	*nameLen = copyOut(name, nameBuf, nameCap)
	*outChild = C.duckffi_handle_t(child.Addr())
	return C.int32_t(code)
}

//export row_set_type_info_decimal
func row_set_type_info_decimal(info C.duckffi_handle_t, outWidth, outScale *C.uint8_t) C.int32_t {
	if outWidth == nil || outScale == nil {
		return C.int32_t(duckffi.CodeAbsent)
	}
	var w, s uint8
	code := duckffi.TypeInfoDecimal(sharedRef[duckffi.TypeInfo](info), &w, &s)
	*outWidth, *outScale = C.uint8_t(w), C.uint8_t(s)
	return C.int32_t(code)
}

//export pre_serialized_values_new
func pre_serialized_values_new() C.duckffi_handle_t {
	return C.duckffi_handle_t(duckffi.PreSerializedValuesNew().Addr())
}

// pre_serialized_values_borrowing_new returns a value set that keeps
// pointers to the buffers it is given. They must stay untouched until the
// query consuming the set has completed or failed.
//
//export pre_serialized_values_borrowing_new
func pre_serialized_values_borrowing_new() C.duckffi_handle_t {
	return C.duckffi_handle_t(duckffi.PreSerializedValuesBorrowingNew().Addr())
}

//export pre_serialized_values_add_value
func pre_serialized_values_add_value(values C.duckffi_handle_t, data *C.uint8_t, dataLen C.size_t) C.int32_t {
	return C.int32_t(duckffi.PreSerializedValuesAddValue(mutRef[duckffi.PreSerializedValues](values), goBytes(data, dataLen)))
}

//export pre_serialized_values_add_typed_value
func pre_serialized_values_add_typed_value(values C.duckffi_handle_t, code C.uint8_t, data *C.uint8_t, dataLen C.size_t) C.int32_t {
	return C.int32_t(duckffi.PreSerializedValuesAddTypedValue(mutRef[duckffi.PreSerializedValues](values),
		duckffi.Type(code), goBytes(data, dataLen)))
}

//export pre_serialized_values_add_decimal_value
func pre_serialized_values_add_decimal_value(values C.duckffi_handle_t, width C.uint8_t, scale C.uint8_t, data *C.uint8_t, dataLen C.size_t) C.int32_t {
	return C.int32_t(duckffi.PreSerializedValuesAddDecimalValue(mutRef[duckffi.PreSerializedValues](values),
		uint8(width), uint8(scale), goBytes(data, dataLen)))
}

//export pre_serialized_values_add_null
func pre_serialized_values_add_null(values C.duckffi_handle_t) C.int32_t {
	return C.int32_t(duckffi.PreSerializedValuesAddNull(mutRef[duckffi.PreSerializedValues](values)))
}

//export pre_serialized_values_add_unset
func pre_serialized_values_add_unset(values C.duckffi_handle_t) C.int32_t {
	return C.int32_t(duckffi.PreSerializedValuesAddUnset(mutRef[duckffi.PreSerializedValues](values)))
}

// pre_serialized_values_len returns -1 for a null or consumed handle.
//
//export pre_serialized_values_len
func pre_serialized_values_len(values C.duckffi_handle_t) C.int64_t {
	return C.int64_t(duckffi.PreSerializedValuesLen(sharedRef[duckffi.PreSerializedValues](values)))
}

//export pre_serialized_values_free
func pre_serialized_values_free(values C.duckffi_handle_t) {
	duckffi.PreSerializedValuesFree(ownedExclusive[duckffi.PreSerializedValues](values))
}
