package duckffi

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marcboeker/go-duckdb-ffi/ffi"
)

func TestPreSerializedValuesCopy(t *testing.T) {
	buf := []byte("abc")

	copying := NewPreSerializedValues()
	require.NoError(t, copying.AddValue(buf))
	borrowing := NewBorrowingPreSerializedValues()
	require.NoError(t, borrowing.AddValue(buf))

	buf[0] = 'x'

	args, err := copying.args()
	require.NoError(t, err)
	require.Equal(t, []any{"abc"}, args)

	args, err = borrowing.args()
	require.NoError(t, err)
	require.Equal(t, []any{"xbc"}, args)
}

func TestPreSerializedValuesArgs(t *testing.T) {
	v := NewPreSerializedValues()
	require.NoError(t, v.AddValue(nil))
	require.NoError(t, v.AddNull())
	require.NoError(t, v.AddTypedValue(TYPE_SMALLINT, []byte{1, 0}))
	require.Equal(t, 3, v.Len())

	args, err := v.args()
	require.NoError(t, err)
	require.Equal(t, []any{"", nil, int16(1)}, args)

	require.NoError(t, v.AddTypedValue(TYPE_SMALLINT, []byte{1}))
	_, err = v.args()
	require.ErrorIs(t, err, errDecode)
	require.Contains(t, err.Error(), valueErrMsg+": 3")

	var none *PreSerializedValues
	args, err = none.args()
	require.NoError(t, err)
	require.Nil(t, args)
}

func TestPreSerializedValuesDecimal(t *testing.T) {
	b, err := hugeIntBytes(big.NewInt(125), true)
	require.NoError(t, err)

	v := NewPreSerializedValues()
	require.NoError(t, v.AddDecimalValue(4, 2, b))
	args, err := v.args()
	require.NoError(t, err)
	require.Equal(t, []any{"1.25"}, args)

	require.NoError(t, v.AddTypedValue(TYPE_DECIMAL, b))
	_, err = v.args()
	require.ErrorIs(t, err, errDecode)
	require.Contains(t, err.Error(), errDecimalScale.Error())
	require.Contains(t, err.Error(), valueErrMsg+": 1")
}

func TestPreSerializedValuesUnset(t *testing.T) {
	v := NewPreSerializedValues()
	require.NoError(t, v.AddNull())
	require.NoError(t, v.AddUnset())

	_, err := v.args()
	require.ErrorIs(t, err, errUnsetValue)
	require.Contains(t, err.Error(), valueErrMsg+": 1")
}

func TestPreSerializedValuesMaxLength(t *testing.T) {
	v := NewPreSerializedValues()
	for i := 0; i < maxValuesLength; i++ {
		require.NoError(t, v.AddNull())
	}
	err := v.AddNull()
	require.ErrorIs(t, err, errTooManyValues)
	require.Equal(t, maxValuesLength, v.Len())
}

func TestPreSerializedValuesBoundary(t *testing.T) {
	p := PreSerializedValuesNew()
	mut := ffi.FromRaw[PreSerializedValues, ffi.Borrowed, ffi.Exclusive](p.Addr())
	view := ffi.FromRaw[PreSerializedValues, ffi.Borrowed, ffi.Shared](p.Addr())

	require.Equal(t, 0, PreSerializedValuesLen(view))
	require.Equal(t, CodeOK, PreSerializedValuesAddValue(mut, []byte("1")))
	require.Equal(t, CodeOK, PreSerializedValuesAddTypedValue(mut, TYPE_BOOLEAN, []byte{1}))
	require.Equal(t, CodeOK, PreSerializedValuesAddNull(mut))
	require.Equal(t, CodeOK, PreSerializedValuesAddUnset(mut))
	require.Equal(t, CodeOK, PreSerializedValuesAddDecimalValue(mut, 5, 2, make([]byte, hugeIntLength)))
	require.Equal(t, 5, PreSerializedValuesLen(view))

	v, err := takeValues(p)
	require.NoError(t, err)
	require.Equal(t, 5, v.Len())

	// Taken values are gone from the table.
	require.Equal(t, -1, PreSerializedValuesLen(view))
	require.Equal(t, CodeAbsent, PreSerializedValuesAddNull(mut))
	_, err = takeValues(p)
	require.ErrorIs(t, err, errInvalidValues)

	v, err = takeValues(ffi.Null[PreSerializedValues, ffi.Owned, ffi.Exclusive]())
	require.NoError(t, err)
	require.Nil(t, v)

	b := PreSerializedValuesBorrowingNew()
	PreSerializedValuesFree(b)
	require.Equal(t, -1, PreSerializedValuesLen(ffi.FromRaw[PreSerializedValues, ffi.Borrowed, ffi.Shared](b.Addr())))
	PreSerializedValuesFree(ffi.Null[PreSerializedValues, ffi.Owned, ffi.Exclusive]())
}
