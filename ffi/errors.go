package ffi

import "errors"

var (
	ErrNullPointer = errors.New("ffi: null pointer")
	ErrDangling    = errors.New("ffi: pointer does not refer to a live value of the requested type")
	ErrLeaseHeld   = errors.New("ffi: conflicting reborrow is still live")
)
