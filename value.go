package duckffi

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/big"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/marcboeker/go-duckdb"
)

const (
	hugeIntLength   = 16
	intervalLength  = 16
	uuidLength      = 16
	secondsPerDay   = 24 * 60 * 60
	maxDecimalWidth = 38
)

var (
	twoTo128 = new(big.Int).Lsh(big.NewInt(1), 128)
	bigOne   = big.NewInt(1)
)

// encodeValue turns a scanned, non-NULL value into the bytes handed to the
// foreign side. Fixed-width values are little-endian. Nested values are
// JSON.
func encodeValue(info *TypeInfo, v any) ([]byte, error) {
	switch x := v.(type) {
	case bool:
		if x {
			return []byte{1}, nil
		}
		return []byte{0}, nil
	case int8:
		return []byte{byte(x)}, nil
	case int16:
		return binary.LittleEndian.AppendUint16(nil, uint16(x)), nil
	case int32:
		return binary.LittleEndian.AppendUint32(nil, uint32(x)), nil
	case int64:
		return binary.LittleEndian.AppendUint64(nil, uint64(x)), nil
	case int:
		return binary.LittleEndian.AppendUint64(nil, uint64(x)), nil
	case uint8:
		return []byte{x}, nil
	case uint16:
		return binary.LittleEndian.AppendUint16(nil, x), nil
	case uint32:
		return binary.LittleEndian.AppendUint32(nil, x), nil
	case uint64:
		return binary.LittleEndian.AppendUint64(nil, x), nil
	case float32:
		return binary.LittleEndian.AppendUint32(nil, math.Float32bits(x)), nil
	case float64:
		return binary.LittleEndian.AppendUint64(nil, math.Float64bits(x)), nil
	case string:
		return []byte(x), nil
	case []byte:
		return append([]byte(nil), x...), nil
	case time.Time:
		return encodeTime(info.typ, x), nil
	case duckdb.Interval:
		b := binary.LittleEndian.AppendUint32(nil, uint32(x.Months))
		b = binary.LittleEndian.AppendUint32(b, uint32(x.Days))
		return binary.LittleEndian.AppendUint64(b, uint64(x.Micros)), nil
	case *big.Int:
		return hugeIntBytes(x, info.typ != TYPE_UHUGEINT)
	case duckdb.Decimal:
		return hugeIntBytes(x.Value, true)
	}

	if info.typ.IsNested() || info.typ == TYPE_ANY {
		b, err := json.Marshal(normalize(v))
		if err != nil {
			return nil, getError(errEncode, err)
		}
		return b, nil
	}
	return nil, getError(errEncode, unsupportedTypeError(fmt.Sprintf("%T as %s", v, info.typ)))
}

func encodeTime(t Type, ts time.Time) []byte {
	switch t {
	case TYPE_DATE:
		days := ts.Unix() / secondsPerDay
		if ts.Unix()%secondsPerDay < 0 {
			days--
		}
		return binary.LittleEndian.AppendUint32(nil, uint32(int32(days)))
	case TYPE_TIME, TYPE_TIME_TZ:
		h, m, s := ts.Clock()
		micros := int64((h*60+m)*60+s)*1e6 + int64(ts.Nanosecond()/1e3)
		return binary.LittleEndian.AppendUint64(nil, uint64(micros))
	}
	return binary.LittleEndian.AppendUint64(nil, uint64(ts.UnixMicro()))
}

// hugeIntBytes encodes i as 16 little-endian bytes in two's complement.
func hugeIntBytes(i *big.Int, signed bool) ([]byte, error) {
	if i == nil {
		return nil, getError(errEncode, fmt.Errorf("nil integer"))
	}

	v := new(big.Int).Set(i)
	switch {
	case !signed && (v.Sign() < 0 || v.BitLen() > 128):
		return nil, getError(errEncode, fmt.Errorf("%s out of range for UHUGEINT", i))
	case signed && v.Sign() >= 0 && v.BitLen() > 127:
		return nil, getError(errEncode, fmt.Errorf("%s out of range for HUGEINT", i))
	case signed && v.Sign() < 0:
		if new(big.Int).Sub(new(big.Int).Neg(v), bigOne).BitLen() > 127 {
			return nil, getError(errEncode, fmt.Errorf("%s out of range for HUGEINT", i))
		}
		v.Add(v, twoTo128)
	}

	b := v.FillBytes(make([]byte, hugeIntLength))
	reverse(b)
	return b, nil
}

func hugeIntFromBytes(b []byte, signed bool) *big.Int {
	be := append([]byte(nil), b...)
	reverse(be)
	v := new(big.Int).SetBytes(be)
	if signed && be[0]&0x80 != 0 {
		v.Sub(v, twoTo128)
	}
	return v
}

func reverse(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}

type mapEntry struct {
	Key   any `json:"key"`
	Value any `json:"value"`
}

// normalize rewrites a scanned nested value into something JSON can carry.
func normalize(v any) any {
	switch x := v.(type) {
	case duckdb.Map:
		entries := make([]mapEntry, 0, len(x))
		for k, val := range x {
			entries = append(entries, mapEntry{Key: normalize(k), Value: normalize(val)})
		}
		sort.Slice(entries, func(i, j int) bool {
			return fmt.Sprint(entries[i].Key) < fmt.Sprint(entries[j].Key)
		})
		return entries
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[k] = normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, val := range x {
			out[i] = normalize(val)
		}
		return out
	case duckdb.Decimal:
		return decimalString(x)
	}
	return v
}

func decimalString(d duckdb.Decimal) string {
	if d.Value == nil {
		return "0"
	}
	digits := new(big.Int).Abs(d.Value).String()
	if scale := int(d.Scale); scale > 0 {
		if len(digits) <= scale {
			digits = strings.Repeat("0", scale-len(digits)+1) + digits
		}
		digits = digits[:len(digits)-scale] + "." + digits[len(digits)-scale:]
	}
	if d.Value.Sign() < 0 {
		return "-" + digits
	}
	return digits
}

// decodeTyped turns bytes in the encodeValue layout back into a value the
// driver can bind for a parameter of type t. Types the driver has no native
// binding for are bound as text and cast by DuckDB.
func decodeTyped(t Type, b []byte) (any, error) {
	fixed := func(n int) error {
		if len(b) != n {
			return decodeError(lengthError(t, len(b), n))
		}
		return nil
	}

	switch t {
	case TYPE_BOOLEAN:
		if err := fixed(1); err != nil {
			return nil, err
		}
		return b[0] != 0, nil
	case TYPE_TINYINT:
		if err := fixed(1); err != nil {
			return nil, err
		}
		return int8(b[0]), nil
	case TYPE_UTINYINT:
		if err := fixed(1); err != nil {
			return nil, err
		}
		return b[0], nil
	case TYPE_SMALLINT, TYPE_USMALLINT:
		if err := fixed(2); err != nil {
			return nil, err
		}
		u := binary.LittleEndian.Uint16(b)
		if t == TYPE_SMALLINT {
			return int16(u), nil
		}
		return u, nil
	case TYPE_INTEGER, TYPE_UINTEGER, TYPE_FLOAT:
		if err := fixed(4); err != nil {
			return nil, err
		}
		u := binary.LittleEndian.Uint32(b)
		switch t {
		case TYPE_INTEGER:
			return int32(u), nil
		case TYPE_FLOAT:
			return math.Float32frombits(u), nil
		}
		return u, nil
	case TYPE_BIGINT, TYPE_UBIGINT, TYPE_DOUBLE:
		if err := fixed(8); err != nil {
			return nil, err
		}
		u := binary.LittleEndian.Uint64(b)
		switch t {
		case TYPE_BIGINT:
			return int64(u), nil
		case TYPE_DOUBLE:
			return math.Float64frombits(u), nil
		}
		return u, nil
	case TYPE_VARCHAR, TYPE_ENUM:
		return string(b), nil
	case TYPE_DECIMAL:
		return nil, decodeError(errDecimalScale)
	case TYPE_BLOB:
		return append([]byte(nil), b...), nil
	case TYPE_UUID:
		return decodeUUID(b)
	case TYPE_DATE:
		if err := fixed(4); err != nil {
			return nil, err
		}
		days := int64(int32(binary.LittleEndian.Uint32(b)))
		return time.Unix(days*secondsPerDay, 0).UTC().Format(time.DateOnly), nil
	case TYPE_TIMESTAMP, TYPE_TIMESTAMP_TZ, TYPE_TIMESTAMP_S, TYPE_TIMESTAMP_MS, TYPE_TIMESTAMP_NS:
		if err := fixed(8); err != nil {
			return nil, err
		}
		return time.UnixMicro(int64(binary.LittleEndian.Uint64(b))).UTC(), nil
	case TYPE_TIME, TYPE_TIME_TZ:
		if err := fixed(8); err != nil {
			return nil, err
		}
		micros := int64(binary.LittleEndian.Uint64(b))
		return time.UnixMicro(micros).UTC().Format("15:04:05.999999"), nil
	case TYPE_INTERVAL:
		if err := fixed(intervalLength); err != nil {
			return nil, err
		}
		return fmt.Sprintf("%d months %d days %d microseconds",
			int32(binary.LittleEndian.Uint32(b[0:4])),
			int32(binary.LittleEndian.Uint32(b[4:8])),
			int64(binary.LittleEndian.Uint64(b[8:16])),
		), nil
	case TYPE_HUGEINT, TYPE_UHUGEINT:
		if err := fixed(hugeIntLength); err != nil {
			return nil, err
		}
		return hugeIntFromBytes(b, t == TYPE_HUGEINT).String(), nil
	}
	return nil, decodeError(unsupportedTypeError(t.String()))
}

// decodeDecimal turns the unscaled 16-byte form of a DECIMAL(width, scale)
// back into its text, which DuckDB casts to the parameter type.
func decodeDecimal(width, scale uint8, b []byte) (any, error) {
	if len(b) != hugeIntLength {
		return nil, decodeError(lengthError(TYPE_DECIMAL, len(b), hugeIntLength))
	}
	if width == 0 || width > maxDecimalWidth || scale > width {
		return nil, decodeError(decimalWidthError(width, scale))
	}
	return decimalString(duckdb.Decimal{
		Width: width,
		Scale: scale,
		Value: hugeIntFromBytes(b, true),
	}), nil
}

// decodeUUID accepts either the 16 raw bytes or the textual form and binds
// the canonical text.
func decodeUUID(b []byte) (any, error) {
	if len(b) == uuidLength {
		u, err := uuid.FromBytes(b)
		if err != nil {
			return nil, decodeError(err)
		}
		return u.String(), nil
	}
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return nil, decodeError(err)
	}
	return u.String(), nil
}
