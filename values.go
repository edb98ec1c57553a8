package duckffi

import (
	"math"

	"github.com/marcboeker/go-duckdb-ffi/ffi"
)

// maxValuesLength bounds the number of values bound to one query.
const maxValuesLength = math.MaxUint16

type cellKind uint8

const (
	cellValue cellKind = iota
	cellTypedValue
	cellDecimalValue
	cellNull
	cellUnset
)

type cell struct {
	kind  cellKind
	typ   Type
	width uint8
	scale uint8
	data  []byte
}

// PreSerializedValues collects query parameters in their serialized form.
// Values are decoded when the query runs.
type PreSerializedValues struct {
	cells []cell
	// borrowing keeps the caller's byte slices instead of copying them.
	borrowing bool
}

func (PreSerializedValues) FFIOrigin() ffi.FromBox { return ffi.FromBox{} }

// NewPreSerializedValues returns an empty set that copies every value.
func NewPreSerializedValues() *PreSerializedValues {
	return &PreSerializedValues{}
}

// NewBorrowingPreSerializedValues returns an empty set that keeps the
// slices it is given. The caller must leave their contents untouched until
// the query using the set has run.
func NewBorrowingPreSerializedValues() *PreSerializedValues {
	return &PreSerializedValues{borrowing: true}
}

func (v *PreSerializedValues) add(c cell) error {
	if len(v.cells) >= maxValuesLength {
		return getError(errTooManyValues, paramCountError(len(v.cells)+1, maxValuesLength))
	}
	if c.data != nil && !v.borrowing {
		c.data = append([]byte(nil), c.data...)
	}
	v.cells = append(v.cells, c)
	return nil
}

// AddValue appends an untyped value. It is bound as text and cast by
// DuckDB to the parameter's type.
func (v *PreSerializedValues) AddValue(b []byte) error {
	if b == nil {
		b = []byte{}
	}
	return v.add(cell{kind: cellValue, data: b})
}

// AddTypedValue appends a value serialized as type t.
func (v *PreSerializedValues) AddTypedValue(t Type, b []byte) error {
	if b == nil {
		b = []byte{}
	}
	return v.add(cell{kind: cellTypedValue, typ: t, data: b})
}

// AddDecimalValue appends the unscaled 16-byte form of a
// DECIMAL(width, scale) value, the layout DECIMAL cells are delivered in.
func (v *PreSerializedValues) AddDecimalValue(width uint8, scale uint8, b []byte) error {
	if b == nil {
		b = []byte{}
	}
	return v.add(cell{kind: cellDecimalValue, typ: TYPE_DECIMAL, width: width, scale: scale, data: b})
}

// AddNull appends a NULL.
func (v *PreSerializedValues) AddNull() error {
	return v.add(cell{kind: cellNull})
}

// AddUnset appends a placeholder that must be filled before the query runs.
func (v *PreSerializedValues) AddUnset() error {
	return v.add(cell{kind: cellUnset})
}

// Len returns the number of values.
func (v *PreSerializedValues) Len() int {
	return len(v.cells)
}

// args decodes the values into driver arguments.
func (v *PreSerializedValues) args() ([]any, error) {
	if v == nil {
		return nil, nil
	}

	args := make([]any, len(v.cells))
	for i, c := range v.cells {
		switch c.kind {
		case cellNull:
			args[i] = nil
		case cellUnset:
			return nil, valueError(errUnsetValue, i)
		case cellValue:
			args[i] = string(c.data)
		case cellTypedValue:
			a, err := decodeTyped(c.typ, c.data)
			if err != nil {
				return nil, valueError(err, i)
			}
			args[i] = a
		case cellDecimalValue:
			a, err := decodeDecimal(c.width, c.scale, c.data)
			if err != nil {
				return nil, valueError(err, i)
			}
			args[i] = a
		}
	}
	return args, nil
}

// PreSerializedValuesNew exports an empty, copying value set.
func PreSerializedValuesNew() ffi.OwnedExclusivePtr[PreSerializedValues] {
	return ffi.ExportBox(NewPreSerializedValues())
}

// PreSerializedValuesBorrowingNew exports an empty value set that keeps
// references to the caller's buffers.
func PreSerializedValuesBorrowingNew() ffi.OwnedExclusivePtr[PreSerializedValues] {
	return ffi.ExportBox(NewBorrowingPreSerializedValues())
}

func withValues(p ffi.BorrowedExclusivePtr[PreSerializedValues], fn func(*PreSerializedValues) error) Code {
	v, ok := ffi.BoxAsMut(p)
	if !ok {
		return CodeAbsent
	}
	return codeOf(fn(v) == nil)
}

func PreSerializedValuesAddValue(p ffi.BorrowedExclusivePtr[PreSerializedValues], b []byte) Code {
	return withValues(p, func(v *PreSerializedValues) error { return v.AddValue(b) })
}

func PreSerializedValuesAddTypedValue(p ffi.BorrowedExclusivePtr[PreSerializedValues], t Type, b []byte) Code {
	return withValues(p, func(v *PreSerializedValues) error { return v.AddTypedValue(t, b) })
}

func PreSerializedValuesAddDecimalValue(p ffi.BorrowedExclusivePtr[PreSerializedValues], width uint8, scale uint8, b []byte) Code {
	return withValues(p, func(v *PreSerializedValues) error { return v.AddDecimalValue(width, scale, b) })
}

func PreSerializedValuesAddNull(p ffi.BorrowedExclusivePtr[PreSerializedValues]) Code {
	return withValues(p, (*PreSerializedValues).AddNull)
}

func PreSerializedValuesAddUnset(p ffi.BorrowedExclusivePtr[PreSerializedValues]) Code {
	return withValues(p, (*PreSerializedValues).AddUnset)
}

// PreSerializedValuesLen returns the number of values, or -1 for a null or
// stale pointer.
func PreSerializedValuesLen(p ffi.BorrowedSharedPtr[PreSerializedValues]) int {
	v, ok := ffi.BoxAsRef(p)
	if !ok {
		return -1
	}
	return v.Len()
}

// PreSerializedValuesFree drops a value set that was never handed to a
// query. Freeing null is a no-op.
func PreSerializedValuesFree(p ffi.OwnedExclusivePtr[PreSerializedValues]) {
	ffi.FreeBox(p)
}

// takeValues consumes an owned value set. A null pointer means no values.
func takeValues(p ffi.OwnedExclusivePtr[PreSerializedValues]) (*PreSerializedValues, error) {
	if p.IsNull() {
		return nil, nil
	}
	v, ok := ffi.ImportBox(p)
	if !ok {
		return nil, getError(errInvalidValues, nil)
	}
	return v, nil
}
