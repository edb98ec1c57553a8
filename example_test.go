package duckffi_test

import (
	"encoding/binary"
	"fmt"
	"log"

	duckffi "github.com/marcboeker/go-duckdb-ffi"
	"github.com/marcboeker/go-duckdb-ffi/ffi"
	"github.com/marcboeker/go-duckdb-ffi/task"
)

// wait turns a completion callback pair into a blocking call.
func wait(start func(tcb task.Tcb)) (ffi.OwnedSharedPtr[ffi.Opaque], error) {
	type result struct {
		ptr ffi.OwnedSharedPtr[ffi.Opaque]
		err error
	}
	ch := make(chan result, 1)
	start(task.Tcb{
		Complete: func(_ task.TcsPtr, p ffi.OwnedSharedPtr[ffi.Opaque]) { ch <- result{ptr: p} },
		Fail:     func(_ task.TcsPtr, msg string) { ch <- result{err: fmt.Errorf("%s", msg)} },
	})
	r := <-ch
	return r.ptr, r.err
}

// Example_sessionQuery opens an in-memory database, runs a query and streams
// the rows back the way a foreign caller would.
func Example_sessionQuery() {
	p, err := wait(func(tcb task.Tcb) { duckffi.SessionCreate(tcb, "?bridge_page_size=2") })
	if err != nil {
		log.Fatalf("failed to open session: %s", err)
	}
	session := ffi.Cast[duckffi.Session](p)
	defer duckffi.SessionFree(session)

	query := `SELECT range::INTEGER AS n, 'duck ' || range AS name FROM range(3)`
	p, err = wait(func(tcb task.Tcb) {
		duckffi.SessionQuery(tcb, ffi.FromRaw[duckffi.Session, ffi.Borrowed, ffi.Shared](session.Addr()), query)
	})
	if err != nil {
		log.Fatalf("failed to run query: %s", err)
	}
	rows := ffi.Cast[duckffi.RowSet](p)
	defer duckffi.RowSetFree(rows)

	view := ffi.FromRaw[duckffi.RowSet, ffi.Borrowed, ffi.Shared](rows.Addr())
	duckffi.RowSetFillColumnsMetadata(view, func(idx int, name string, code duckffi.Type, info ffi.OwnedExclusivePtr[duckffi.TypeInfo]) {
		defer duckffi.TypeInfoFree(info)
		fmt.Printf("column %d: %s %s\n", idx, name, code)
	})

	for {
		var n int32
		var name string
		code := duckffi.RowSetNextRow(view, func(idx int, cell ffi.BorrowedSharedPtr[duckffi.CellValue]) {
			c, _ := ffi.RefAsRef(cell)
			switch idx {
			case 0:
				n = int32(binary.LittleEndian.Uint32(c.Bytes()))
			case 1:
				name = string(c.Bytes())
			}
		})
		if code != duckffi.CodeOK {
			break
		}
		fmt.Println(n, name)
	}
	// Output:
	// column 0: n INTEGER
	// column 1: name VARCHAR
	// 0 duck 0
	// 1 duck 1
	// 2 duck 2
}
