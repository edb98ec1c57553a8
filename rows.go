package duckffi

import (
	"context"
	"database/sql"
	"sync"
	"sync/atomic"

	"github.com/marcboeker/go-duckdb-ffi/ffi"
	"github.com/marcboeker/go-duckdb-ffi/task"
)

type column struct {
	name string
	info *TypeInfo
}

// RowSet is a paged cursor over a query result.
//
// The column metadata never changes after construction and is read without
// locking. The cursor state is guarded by mu, since the foreign side may
// fetch rows from several threads at once.
type RowSet struct {
	session *ffi.Arc[Session]
	columns []column

	mu       sync.Mutex
	rows     *sql.Rows
	pageSize int
	page     [][]any
	pos      int
	done     bool

	err atomic.Pointer[string]
}

func (RowSet) FFIOrigin() ffi.FromArc { return ffi.FromArc{} }

func newRowSet(session *ffi.Arc[Session], rows *sql.Rows, pageSize int) (*RowSet, error) {
	fail := func(err error) (*RowSet, error) {
		_ = rows.Close()
		session.Release()
		return nil, err
	}

	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return fail(getError(errColumns, err))
	}

	columns := make([]column, len(colTypes))
	for i, ct := range colTypes {
		info, err := parseTypeInfo(ct.DatabaseTypeName())
		if err != nil {
			return fail(columnError(getError(errColumns, err), i))
		}
		columns[i] = column{name: ct.Name(), info: info}
	}

	return &RowSet{
		session:  session,
		columns:  columns,
		rows:     rows,
		pageSize: pageSize,
	}, nil
}

// Drop closes the cursor and releases the session.
func (r *RowSet) Drop() {
	r.mu.Lock()
	_ = r.rows.Close()
	r.done = true
	r.page = nil
	r.mu.Unlock()

	r.session.Release()
}

// ColumnCount returns the number of result columns.
func (r *RowSet) ColumnCount() int {
	return len(r.columns)
}

// Err returns the error that ended iteration, if any.
func (r *RowSet) Err() string {
	if msg := r.err.Load(); msg != nil {
		return *msg
	}
	return ""
}

func (r *RowSet) setErr(err error) {
	msg := err.Error()
	r.err.Store(&msg)
}

// fill reads the next page. It must be called with mu held.
func (r *RowSet) fill() error {
	r.page = r.page[:0]
	r.pos = 0

	n := len(r.columns)
	for len(r.page) < r.pageSize && r.rows.Next() {
		row := make([]any, n)
		dest := make([]any, n)
		for i := range row {
			dest[i] = &row[i]
		}
		if err := r.rows.Scan(dest...); err != nil {
			return getError(errNextRow, err)
		}
		r.page = append(r.page, row)
	}

	if len(r.page) < r.pageSize {
		r.done = true
		if err := r.rows.Err(); err != nil {
			return getError(errNextRow, err)
		}
		return r.rows.Close()
	}
	return nil
}

// nextRow returns the next buffered row, fetching a new page when the
// current one is used up.
func (r *RowSet) nextRow() ([]any, bool) {
	if r.err.Load() != nil {
		return nil, false
	}
	if r.pos >= len(r.page) {
		if r.done {
			return nil, false
		}
		_, err := task.BlockOn(func(context.Context) (struct{}, error) {
			return struct{}{}, r.fill()
		})
		if err != nil {
			r.done = true
			r.setErr(err)
			return nil, false
		}
		if len(r.page) == 0 {
			return nil, false
		}
	}

	row := r.page[r.pos]
	r.pos++
	return row, true
}

// Next advances to the next row and calls fn once for every non-NULL
// value in it. The cell pointer is only valid until fn returns. Next
// reports false when the result is exhausted or iteration failed; see Err.
func (r *RowSet) Next(fn func(idx int, cell ffi.BorrowedSharedPtr[CellValue])) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	row, ok := r.nextRow()
	if !ok {
		return false
	}

	// The whole row is encoded before the first cell is delivered.
	cells := make([]*CellValue, len(row))
	for i, v := range row {
		// NULLs are skipped; the receiver starts from all-NULL rows.
		if v == nil {
			continue
		}
		info := r.columns[i].info
		b, err := encodeValue(info, v)
		if err != nil {
			r.done = true
			r.setErr(columnError(err, i))
			return false
		}
		cells[i] = &CellValue{info: info, value: v, bytes: b}
	}

	for i, c := range cells {
		if c == nil {
			continue
		}
		ffi.Lend(c, func(p ffi.BorrowedSharedPtr[CellValue]) {
			fn(i, p)
		})
	}
	return true
}

// CellValue is one non-NULL value of the current row. It only ever
// crosses the boundary as a borrowed pointer.
type CellValue struct {
	info  *TypeInfo
	value any
	bytes []byte
}

func (CellValue) FFIOrigin() ffi.FromRef { return ffi.FromRef{} }

func (c *CellValue) Type() Type {
	return c.info.typ
}

func (c *CellValue) Info() *TypeInfo {
	return c.info
}

// Bytes returns the serialized value.
func (c *CellValue) Bytes() []byte {
	return c.bytes
}

// Value returns the value as scanned from the driver.
func (c *CellValue) Value() any {
	return c.value
}

// RowSetFree releases an owned row set pointer.
func RowSetFree(p ffi.OwnedSharedPtr[RowSet]) {
	ffi.FreeArc(p)
}

// RowSetColumnsCount returns the number of columns, or zero for a null or
// stale pointer.
func RowSetColumnsCount(p ffi.BorrowedSharedPtr[RowSet]) int {
	r, ok := ffi.ArcAsRef(p)
	if !ok {
		return 0
	}
	return r.ColumnCount()
}

// SetMetadataFunc receives the metadata of one column. info is null for
// types that are fully described by their code; otherwise the receiver
// owns it and must free it with TypeInfoFree.
type SetMetadataFunc func(idx int, name string, code Type, info ffi.OwnedExclusivePtr[TypeInfo])

// RowSetFillColumnsMetadata calls set synchronously for every column.
func RowSetFillColumnsMetadata(p ffi.BorrowedSharedPtr[RowSet], set SetMetadataFunc) Code {
	r, ok := ffi.ArcAsRef(p)
	if !ok || set == nil {
		return CodeAbsent
	}

	for i, col := range r.columns {
		var info ffi.OwnedExclusivePtr[TypeInfo]
		if col.info.typ.hasTypeInfo() {
			info = ffi.ExportBox(col.info.clone())
		}
		set(i, col.name, col.info.typ, info)
	}
	return CodeOK
}

// DeserializeValueFunc receives one non-NULL value of the current row. The
// cell pointer is only valid for the duration of the call.
type DeserializeValueFunc func(idx int, cell ffi.BorrowedSharedPtr[CellValue])

// RowSetNextRow delivers the next row through fn. It returns CodeOK if a
// row was delivered and CodeAbsent when the result is exhausted, iteration
// failed, or p is null or stale.
func RowSetNextRow(p ffi.BorrowedSharedPtr[RowSet], fn DeserializeValueFunc) Code {
	r, ok := ffi.ArcAsRef(p)
	if !ok || fn == nil {
		return CodeAbsent
	}
	return codeOf(r.Next(fn))
}

// RowSetError returns the message of the error that ended iteration, or an
// empty string.
func RowSetError(p ffi.BorrowedSharedPtr[RowSet]) string {
	r, ok := ffi.ArcAsRef(p)
	if !ok {
		return ""
	}
	return r.Err()
}
