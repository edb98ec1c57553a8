package duckffi

import (
	"strconv"
	"strings"

	"github.com/marcboeker/go-duckdb-ffi/ffi"
)

// Default DECIMAL parameters when a type name omits them.
const (
	defaultDecimalWidth = 18
	defaultDecimalScale = 3
)

// StructField is one named member of a STRUCT or UNION.
type StructField struct {
	Name string
	Info *TypeInfo
}

// TypeInfo describes a column type in full, including the parameters and
// child types that the type code alone does not carry.
type TypeInfo struct {
	typ  Type
	name string

	// LIST and ARRAY element type.
	child *TypeInfo
	// ARRAY length.
	size int
	// MAP key and value types.
	key, value *TypeInfo
	// STRUCT fields or UNION members.
	fields []StructField
	// ENUM dictionary, when the type name spells it out.
	dict []string

	decimalWidth uint8
	decimalScale uint8
}

func (TypeInfo) FFIOrigin() ffi.FromBox { return ffi.FromBox{} }

// Type returns the type code.
func (info *TypeInfo) Type() Type {
	return info.typ
}

// String returns the type name the info was parsed from.
func (info *TypeInfo) String() string {
	return info.name
}

// Child returns the element type of a LIST or ARRAY.
func (info *TypeInfo) Child() (*TypeInfo, bool) {
	return info.child, info.child != nil
}

// ArraySize returns the fixed length of an ARRAY.
func (info *TypeInfo) ArraySize() (int, bool) {
	return info.size, info.typ == TYPE_ARRAY
}

// MapTypes returns the key and value types of a MAP.
func (info *TypeInfo) MapTypes() (*TypeInfo, *TypeInfo, bool) {
	return info.key, info.value, info.typ == TYPE_MAP
}

// Fields returns the members of a STRUCT or UNION.
func (info *TypeInfo) Fields() []StructField {
	return info.fields
}

// Decimal returns the width and scale of a DECIMAL.
func (info *TypeInfo) Decimal() (uint8, uint8, bool) {
	return info.decimalWidth, info.decimalScale, info.typ == TYPE_DECIMAL
}

// EnumValues returns the dictionary of an ENUM, if the type name carried one.
func (info *TypeInfo) EnumValues() []string {
	return info.dict
}

func (info *TypeInfo) clone() *TypeInfo {
	if info == nil {
		return nil
	}
	c := *info
	c.child = info.child.clone()
	c.key = info.key.clone()
	c.value = info.value.clone()
	if info.fields != nil {
		c.fields = make([]StructField, len(info.fields))
		for i, f := range info.fields {
			c.fields[i] = StructField{Name: f.Name, Info: f.Info.clone()}
		}
	}
	if info.dict != nil {
		c.dict = append([]string(nil), info.dict...)
	}
	return &c
}

// parseTypeInfo parses a DuckDB type name as reported for a result column,
// e.g. DECIMAL(18,3), INTEGER[], VARCHAR[3], MAP(VARCHAR, INTEGER) or
// STRUCT("a b" INTEGER, c VARCHAR[]).
func parseTypeInfo(name string) (*TypeInfo, error) {
	p := &typeParser{s: name}
	info, err := p.parseType()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if !p.eof() {
		return nil, p.errorf("unexpected trailing input")
	}
	return info, nil
}

type typeParser struct {
	s   string
	pos int
}

func (p *typeParser) errorf(reason string) error {
	return typeNameError(p.s, p.pos, reason)
}

func (p *typeParser) eof() bool {
	return p.pos >= len(p.s)
}

func (p *typeParser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.s[p.pos]
}

func (p *typeParser) skipSpace() {
	for !p.eof() && (p.s[p.pos] == ' ' || p.s[p.pos] == '\t' || p.s[p.pos] == '\n') {
		p.pos++
	}
}

func (p *typeParser) expect(c byte) error {
	p.skipSpace()
	if p.peek() != c {
		return p.errorf("expected " + strconv.QuoteRune(rune(c)))
	}
	p.pos++
	return nil
}

func isIdentByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func (p *typeParser) ident() string {
	p.skipSpace()
	start := p.pos
	for !p.eof() && isIdentByte(p.s[p.pos]) {
		p.pos++
	}
	return p.s[start:p.pos]
}

// quoted reads a string delimited by q, where a doubled q stands for itself.
func (p *typeParser) quoted(q byte) (string, error) {
	p.pos++
	var b strings.Builder
	for !p.eof() {
		c := p.s[p.pos]
		p.pos++
		if c != q {
			b.WriteByte(c)
			continue
		}
		if p.peek() == q {
			b.WriteByte(q)
			p.pos++
			continue
		}
		return b.String(), nil
	}
	return "", p.errorf("unterminated quoted name")
}

func (p *typeParser) number() (int, error) {
	p.skipSpace()
	start := p.pos
	for !p.eof() && p.s[p.pos] >= '0' && p.s[p.pos] <= '9' {
		p.pos++
	}
	if start == p.pos {
		return 0, p.errorf("expected a number")
	}
	return strconv.Atoi(p.s[start:p.pos])
}

// keyword consumes the multi-word suffix kw if it follows, case-insensitively.
func (p *typeParser) keyword(kw string) bool {
	rest := p.s[p.pos:]
	if len(rest) < len(kw) || !strings.EqualFold(rest[:len(kw)], kw) {
		return false
	}
	if len(rest) > len(kw) && isIdentByte(rest[len(kw)]) {
		return false
	}
	p.pos += len(kw)
	return true
}

func (p *typeParser) parseType() (*TypeInfo, error) {
	start := p.pos
	info, err := p.parseBase()
	if err != nil {
		return nil, err
	}

	for {
		p.skipSpace()
		if p.peek() != '[' {
			break
		}
		p.pos++
		p.skipSpace()

		if p.peek() == ']' {
			p.pos++
			info = &TypeInfo{typ: TYPE_LIST, child: info}
		} else {
			n, err := p.number()
			if err != nil {
				return nil, err
			}
			if err := p.expect(']'); err != nil {
				return nil, err
			}
			info = &TypeInfo{typ: TYPE_ARRAY, child: info, size: n}
		}
		info.name = strings.TrimSpace(p.s[start:p.pos])
	}
	return info, nil
}

func (p *typeParser) parseBase() (*TypeInfo, error) {
	p.skipSpace()
	start := p.pos
	word := strings.ToUpper(p.ident())
	if word == "" {
		return nil, p.errorf("expected a type name")
	}

	switch word {
	case "TIME", "TIMESTAMP":
		save := p.pos
		p.skipSpace()
		if p.keyword("WITH TIME ZONE") {
			word += " WITH TIME ZONE"
		} else {
			p.pos = save
		}
	case "DOUBLE":
		save := p.pos
		p.skipSpace()
		if !p.keyword("PRECISION") {
			p.pos = save
		}
	}

	t, ok := stringToTypeMap[word]
	if !ok {
		return nil, typeNameError(p.s, start, unsupportedTypeError(word).Error())
	}
	info := &TypeInfo{typ: t}

	var err error
	switch t {
	case TYPE_DECIMAL:
		err = p.parseDecimal(info)
	case TYPE_STRUCT, TYPE_UNION:
		err = p.parseFields(info)
	case TYPE_MAP:
		err = p.parseMap(info)
	case TYPE_ENUM:
		err = p.parseEnum(info)
	case TYPE_VARCHAR:
		// VARCHAR(n) is accepted and the length ignored, as DuckDB does.
		p.skipSpace()
		if p.peek() == '(' {
			p.pos++
			if _, err = p.number(); err == nil {
				err = p.expect(')')
			}
		}
	}
	if err != nil {
		return nil, err
	}

	info.name = strings.TrimSpace(p.s[start:p.pos])
	return info, nil
}

func (p *typeParser) parseDecimal(info *TypeInfo) error {
	info.decimalWidth = defaultDecimalWidth
	info.decimalScale = defaultDecimalScale

	p.skipSpace()
	if p.peek() != '(' {
		return nil
	}
	p.pos++

	width, err := p.number()
	if err != nil {
		return err
	}
	scale := 0
	p.skipSpace()
	if p.peek() == ',' {
		p.pos++
		if scale, err = p.number(); err != nil {
			return err
		}
	}
	if err := p.expect(')'); err != nil {
		return err
	}
	if width < 1 || width > 38 || scale > width {
		return p.errorf("DECIMAL width must be in [1, 38] and scale must not exceed it")
	}

	info.decimalWidth = uint8(width)
	info.decimalScale = uint8(scale)
	return nil
}

func (p *typeParser) parseFields(info *TypeInfo) error {
	// Some driver versions report a bare UNION without its members.
	p.skipSpace()
	if p.peek() != '(' {
		return nil
	}
	p.pos++
	for {
		p.skipSpace()
		var name string
		if c := p.peek(); c == '"' {
			var err error
			if name, err = p.quoted('"'); err != nil {
				return err
			}
		} else {
			name = p.ident()
		}
		if name == "" {
			return p.errorf("expected a field name")
		}

		child, err := p.parseType()
		if err != nil {
			return err
		}
		info.fields = append(info.fields, StructField{Name: name, Info: child})

		p.skipSpace()
		if p.peek() == ',' {
			p.pos++
			continue
		}
		return p.expect(')')
	}
}

func (p *typeParser) parseMap(info *TypeInfo) error {
	p.skipSpace()
	if p.peek() != '(' {
		return nil
	}
	p.pos++
	key, err := p.parseType()
	if err != nil {
		return err
	}
	if err := p.expect(','); err != nil {
		return err
	}
	value, err := p.parseType()
	if err != nil {
		return err
	}
	info.key, info.value = key, value
	return p.expect(')')
}

func (p *typeParser) parseEnum(info *TypeInfo) error {
	p.skipSpace()
	if p.peek() != '(' {
		return nil
	}
	p.pos++
	for {
		p.skipSpace()
		if p.peek() != '\'' {
			return p.errorf("expected a quoted ENUM value")
		}
		v, err := p.quoted('\'')
		if err != nil {
			return err
		}
		info.dict = append(info.dict, v)

		p.skipSpace()
		if p.peek() == ',' {
			p.pos++
			continue
		}
		return p.expect(')')
	}
}

// TypeInfoFree releases a type info handle. Freeing null is a no-op.
func TypeInfoFree(p ffi.OwnedExclusivePtr[TypeInfo]) {
	ffi.FreeBox(p)
}

// TypeInfoCode returns the type code behind p, or TYPE_INVALID for null.
func TypeInfoCode(p ffi.BorrowedSharedPtr[TypeInfo]) Type {
	info, ok := ffi.BoxAsRef(p)
	if !ok {
		return TYPE_INVALID
	}
	return info.typ
}

// TypeInfoListChild exports the element type of a LIST or ARRAY.
func TypeInfoListChild(p ffi.BorrowedSharedPtr[TypeInfo], out *ffi.OwnedExclusivePtr[TypeInfo]) Code {
	info, ok := ffi.BoxAsRef(p)
	if !ok || out == nil {
		return CodeAbsent
	}
	child, ok := info.Child()
	if !ok {
		return CodeAbsent
	}
	*out = ffi.ExportBox(child.clone())
	return CodeOK
}

// TypeInfoArraySize writes the fixed length of an ARRAY.
func TypeInfoArraySize(p ffi.BorrowedSharedPtr[TypeInfo], out *int) Code {
	info, ok := ffi.BoxAsRef(p)
	if !ok || out == nil {
		return CodeAbsent
	}
	n, ok := info.ArraySize()
	if !ok {
		return CodeAbsent
	}
	*out = n
	return CodeOK
}

// TypeInfoMapChildren exports the key and value types of a MAP.
func TypeInfoMapChildren(p ffi.BorrowedSharedPtr[TypeInfo], outKey, outValue *ffi.OwnedExclusivePtr[TypeInfo]) Code {
	info, ok := ffi.BoxAsRef(p)
	if !ok || outKey == nil || outValue == nil {
		return CodeAbsent
	}
	key, value, ok := info.MapTypes()
	if !ok {
		return CodeAbsent
	}
	*outKey = ffi.ExportBox(key.clone())
	*outValue = ffi.ExportBox(value.clone())
	return CodeOK
}

// TypeInfoStructFieldCount writes the number of STRUCT fields or UNION
// members.
func TypeInfoStructFieldCount(p ffi.BorrowedSharedPtr[TypeInfo], out *int) Code {
	info, ok := ffi.BoxAsRef(p)
	if !ok || out == nil || (info.typ != TYPE_STRUCT && info.typ != TYPE_UNION) {
		return CodeAbsent
	}
	*out = len(info.fields)
	return CodeOK
}

// TypeInfoStructField writes the name of field i and exports its type.
func TypeInfoStructField(p ffi.BorrowedSharedPtr[TypeInfo], i int, outName *string, outChild *ffi.OwnedExclusivePtr[TypeInfo]) Code {
	info, ok := ffi.BoxAsRef(p)
	if !ok || outName == nil || outChild == nil {
		return CodeAbsent
	}
	if i < 0 || i >= len(info.fields) {
		return CodeAbsent
	}
	f := info.fields[i]
	*outName = f.Name
	*outChild = ffi.ExportBox(f.Info.clone())
	return CodeOK
}

// TypeInfoDecimal writes the width and scale of a DECIMAL.
func TypeInfoDecimal(p ffi.BorrowedSharedPtr[TypeInfo], outWidth, outScale *uint8) Code {
	info, ok := ffi.BoxAsRef(p)
	if !ok || outWidth == nil || outScale == nil {
		return CodeAbsent
	}
	w, s, ok := info.Decimal()
	if !ok {
		return CodeAbsent
	}
	*outWidth, *outScale = w, s
	return CodeOK
}
