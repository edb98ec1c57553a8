package duckffi

// Type is a DuckDB logical type id. The numeric values match DuckDB's C API
// and are what crosses the boundary as a column's type code.
type Type uint8

const (
	TYPE_INVALID      Type = 0
	TYPE_BOOLEAN      Type = 1
	TYPE_TINYINT      Type = 2
	TYPE_SMALLINT     Type = 3
	TYPE_INTEGER      Type = 4
	TYPE_BIGINT       Type = 5
	TYPE_UTINYINT     Type = 6
	TYPE_USMALLINT    Type = 7
	TYPE_UINTEGER     Type = 8
	TYPE_UBIGINT      Type = 9
	TYPE_FLOAT        Type = 10
	TYPE_DOUBLE       Type = 11
	TYPE_TIMESTAMP    Type = 12
	TYPE_DATE         Type = 13
	TYPE_TIME         Type = 14
	TYPE_INTERVAL     Type = 15
	TYPE_HUGEINT      Type = 16
	TYPE_VARCHAR      Type = 17
	TYPE_BLOB         Type = 18
	TYPE_DECIMAL      Type = 19
	TYPE_TIMESTAMP_S  Type = 20
	TYPE_TIMESTAMP_MS Type = 21
	TYPE_TIMESTAMP_NS Type = 22
	TYPE_ENUM         Type = 23
	TYPE_LIST         Type = 24
	TYPE_STRUCT       Type = 25
	TYPE_MAP          Type = 26
	TYPE_UUID         Type = 27
	TYPE_UNION        Type = 28
	TYPE_BIT          Type = 29
	TYPE_TIME_TZ      Type = 30
	TYPE_TIMESTAMP_TZ Type = 31
	TYPE_UHUGEINT     Type = 32
	TYPE_ARRAY        Type = 33
	TYPE_ANY          Type = 34
	TYPE_VARINT       Type = 35
	TYPE_SQLNULL      Type = 36
)

var typeToStringMap = map[Type]string{
	TYPE_INVALID:      "INVALID",
	TYPE_BOOLEAN:      "BOOLEAN",
	TYPE_TINYINT:      "TINYINT",
	TYPE_SMALLINT:     "SMALLINT",
	TYPE_INTEGER:      "INTEGER",
	TYPE_BIGINT:       "BIGINT",
	TYPE_UTINYINT:     "UTINYINT",
	TYPE_USMALLINT:    "USMALLINT",
	TYPE_UINTEGER:     "UINTEGER",
	TYPE_UBIGINT:      "UBIGINT",
	TYPE_FLOAT:        "FLOAT",
	TYPE_DOUBLE:       "DOUBLE",
	TYPE_TIMESTAMP:    "TIMESTAMP",
	TYPE_DATE:         "DATE",
	TYPE_TIME:         "TIME",
	TYPE_INTERVAL:     "INTERVAL",
	TYPE_HUGEINT:      "HUGEINT",
	TYPE_VARCHAR:      "VARCHAR",
	TYPE_BLOB:         "BLOB",
	TYPE_DECIMAL:      "DECIMAL",
	TYPE_TIMESTAMP_S:  "TIMESTAMP_S",
	TYPE_TIMESTAMP_MS: "TIMESTAMP_MS",
	TYPE_TIMESTAMP_NS: "TIMESTAMP_NS",
	TYPE_ENUM:         "ENUM",
	TYPE_LIST:         "LIST",
	TYPE_STRUCT:       "STRUCT",
	TYPE_MAP:          "MAP",
	TYPE_UUID:         "UUID",
	TYPE_UNION:        "UNION",
	TYPE_BIT:          "BIT",
	TYPE_TIME_TZ:      "TIMETZ",
	TYPE_TIMESTAMP_TZ: "TIMESTAMPTZ",
	TYPE_UHUGEINT:     "UHUGEINT",
	TYPE_ARRAY:        "ARRAY",
	TYPE_ANY:          "ANY",
	TYPE_VARINT:       "VARINT",
	TYPE_SQLNULL:      "SQLNULL",
}

// Aliases accepted in type names on top of the canonical names above.
var typeAliases = map[string]Type{
	"BOOL":                     TYPE_BOOLEAN,
	"LOGICAL":                  TYPE_BOOLEAN,
	"INT1":                     TYPE_TINYINT,
	"INT2":                     TYPE_SMALLINT,
	"SHORT":                    TYPE_SMALLINT,
	"INT":                      TYPE_INTEGER,
	"INT4":                     TYPE_INTEGER,
	"SIGNED":                   TYPE_INTEGER,
	"INT8":                     TYPE_BIGINT,
	"LONG":                     TYPE_BIGINT,
	"INT128":                   TYPE_HUGEINT,
	"UINT128":                  TYPE_UHUGEINT,
	"FLOAT4":                   TYPE_FLOAT,
	"REAL":                     TYPE_FLOAT,
	"FLOAT8":                   TYPE_DOUBLE,
	"NUMERIC":                  TYPE_DECIMAL,
	"STRING":                   TYPE_VARCHAR,
	"TEXT":                     TYPE_VARCHAR,
	"CHAR":                     TYPE_VARCHAR,
	"BPCHAR":                   TYPE_VARCHAR,
	"BYTEA":                    TYPE_BLOB,
	"BINARY":                   TYPE_BLOB,
	"VARBINARY":                TYPE_BLOB,
	"BITSTRING":                TYPE_BIT,
	"DATETIME":                 TYPE_TIMESTAMP,
	"TIMESTAMP_US":             TYPE_TIMESTAMP,
	"TIME_TZ":                  TYPE_TIME_TZ,
	"TIMESTAMP_TZ":             TYPE_TIMESTAMP_TZ,
	"TIME WITH TIME ZONE":      TYPE_TIME_TZ,
	"TIMESTAMP WITH TIME ZONE": TYPE_TIMESTAMP_TZ,
	"NULL":                     TYPE_SQLNULL,
}

var stringToTypeMap = func() map[string]Type {
	m := make(map[string]Type, len(typeToStringMap)+len(typeAliases))
	for t, name := range typeToStringMap {
		m[name] = t
	}
	for name, t := range typeAliases {
		m[name] = t
	}
	return m
}()

func (t Type) String() string {
	if name, ok := typeToStringMap[t]; ok {
		return name
	}
	return typeToStringMap[TYPE_INVALID]
}

// IsNested reports whether values of t are composed of other values.
func (t Type) IsNested() bool {
	switch t {
	case TYPE_LIST, TYPE_STRUCT, TYPE_MAP, TYPE_ARRAY, TYPE_UNION:
		return true
	}
	return false
}

// hasTypeInfo reports whether a column of type t carries parameters beyond
// its type code, and therefore gets a TypeInfo handle.
func (t Type) hasTypeInfo() bool {
	return t.IsNested() || t == TYPE_DECIMAL || t == TYPE_ENUM
}
