package duckffi

import (
	"errors"
	"fmt"
)

func getError(errBridge error, err error) error {
	if err == nil {
		return fmt.Errorf("%s: %w", bridgeErrMsg, errBridge)
	}
	return fmt.Errorf("%s: %w: %s", bridgeErrMsg, errBridge, err.Error())
}

func columnError(err error, colIdx int) error {
	return fmt.Errorf("%w: %s: %d", err, columnErrMsg, colIdx)
}

func valueError(err error, valIdx int) error {
	return fmt.Errorf("%w: %s: %d", err, valueErrMsg, valIdx)
}

func decodeError(err error) error {
	return fmt.Errorf("%w: %s", errDecode, err.Error())
}

func typeNameError(name string, pos int, reason string) error {
	return fmt.Errorf("%s: %q at offset %d: %s", typeNameErrMsg, name, pos, reason)
}

func paramCountError(actual int, expected int) error {
	return fmt.Errorf("%s: expected %d, got %d", paramCountErrMsg, expected, actual)
}

func lengthError(t Type, actual int, expected int) error {
	return fmt.Errorf("%s: %s needs %d bytes, got %d", lengthErrMsg, t, expected, actual)
}

func decimalWidthError(width uint8, scale uint8) error {
	return fmt.Errorf("%s: DECIMAL(%d, %d)", decimalWidthErrMsg, width, scale)
}

func unsupportedTypeError(name string) error {
	return fmt.Errorf("%s: %s", unsupportedTypeErrMsg, name)
}

const (
	bridgeErrMsg          = "duckffi"
	columnErrMsg          = "column index"
	valueErrMsg           = "value index"
	typeNameErrMsg        = "invalid type name"
	paramCountErrMsg      = "wrong number of values"
	lengthErrMsg          = "invalid value length"
	unsupportedTypeErrMsg = "unsupported data type"
	decimalWidthErrMsg    = "invalid decimal width or scale"
)

var (
	errParseDSN      = errors.New("could not parse DSN for database")
	errInvalidOption = errors.New("could not apply bridge option")
	errConnect       = errors.New("could not connect to database")

	errInvalidSession   = errors.New("invalid or freed session pointer")
	errInvalidStatement = errors.New("invalid or freed prepared statement pointer")
	errInvalidValues    = errors.New("invalid or freed values pointer")

	errPrepare = errors.New("could not prepare statement")
	errQuery   = errors.New("could not execute query")
	errColumns = errors.New("could not read column metadata")
	errNextRow = errors.New("could not fetch next row")

	errTooManyValues = errors.New("too many values")
	errUnsetValue    = errors.New("value was left unset")
	errEncode        = errors.New("could not encode value")
	errDecode        = errors.New("could not decode value")
	errDecimalScale  = errors.New("DECIMAL values must be added with their width and scale")
)
