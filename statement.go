package duckffi

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"strings"
	"unicode"

	"github.com/marcboeker/go-duckdb-ffi/ffi"
	"github.com/marcboeker/go-duckdb-ffi/task"
)

// PreparedStatement is a statement prepared on a session. It keeps the
// session alive until it is freed.
type PreparedStatement struct {
	session    *ffi.Arc[Session]
	stmt       *sql.Stmt
	query      string
	paramCount int
	readOnly   bool
}

func (PreparedStatement) FFIOrigin() ffi.FromArc { return ffi.FromArc{} }

func prepareStatement(ctx context.Context, s *ffi.Arc[Session], query string) (*PreparedStatement, error) {
	db := s.Get().db

	n, err := countParams(ctx, db, query)
	if err != nil {
		return nil, getError(errPrepare, err)
	}

	stmt, err := db.PrepareContext(ctx, query)
	if err != nil {
		return nil, getError(errPrepare, err)
	}

	return &PreparedStatement{
		session:    s.Clone(),
		stmt:       stmt,
		query:      query,
		paramCount: n,
		readOnly:   isReadOnly(query),
	}, nil
}

// countParams prepares query directly on a driver connection, since
// database/sql does not expose the placeholder count.
func countParams(ctx context.Context, db *sql.DB, query string) (int, error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	n := 0
	err = conn.Raw(func(driverConn any) error {
		var ds driver.Stmt
		var err error
		switch c := driverConn.(type) {
		case driver.ConnPrepareContext:
			ds, err = c.PrepareContext(ctx, query)
		case driver.Conn:
			ds, err = c.Prepare(query)
		default:
			return errors.New("driver connection cannot prepare statements")
		}
		if err != nil {
			return err
		}
		defer ds.Close()

		n = ds.NumInput()
		return nil
	})
	return n, err
}

var readOnlyKeywords = map[string]struct{}{
	"SELECT":    {},
	"FROM":      {},
	"VALUES":    {},
	"TABLE":     {},
	"SHOW":      {},
	"DESCRIBE":  {},
	"EXPLAIN":   {},
	"SUMMARIZE": {},
}

// isReadOnly reports whether query starts with a keyword that cannot
// modify the database.
func isReadOnly(query string) bool {
	q := strings.TrimLeftFunc(query, func(r rune) bool {
		return unicode.IsSpace(r) || r == '('
	})
	end := strings.IndexFunc(q, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	if end >= 0 {
		q = q[:end]
	}
	_, ok := readOnlyKeywords[strings.ToUpper(q)]
	return ok
}

// ParamCount returns the number of placeholders in the statement.
func (s *PreparedStatement) ParamCount() int {
	return s.paramCount
}

// ReadOnly reports whether the statement only reads.
func (s *PreparedStatement) ReadOnly() bool {
	return s.readOnly
}

// Drop closes the statement and releases its session.
func (s *PreparedStatement) Drop() {
	_ = s.stmt.Close()
	s.session.Release()
}

func (s *PreparedStatement) query(ctx context.Context, values *PreSerializedValues) (*RowSet, error) {
	n := 0
	if values != nil {
		n = values.Len()
	}
	if n != s.paramCount {
		return nil, getError(errQuery, paramCountError(n, s.paramCount))
	}

	args, err := values.args()
	if err != nil {
		return nil, getError(errQuery, err)
	}

	rows, err := s.stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, getError(errQuery, err)
	}
	return newRowSet(s.session.Clone(), rows, s.session.Get().opts.PageSize)
}

// PreparedStatementFree releases an owned statement pointer.
func PreparedStatementFree(p ffi.OwnedSharedPtr[PreparedStatement]) {
	ffi.FreeArc(p)
}

// PreparedStatementParamCount writes the number of placeholders.
func PreparedStatementParamCount(p ffi.BorrowedSharedPtr[PreparedStatement], out *int) Code {
	s, ok := ffi.ArcAsRef(p)
	if !ok || out == nil {
		return CodeAbsent
	}
	*out = s.paramCount
	return CodeOK
}

// PreparedStatementIsReadOnly returns CodeOK for statements that only
// read, and CodeAbsent otherwise or for a null pointer.
func PreparedStatementIsReadOnly(p ffi.BorrowedSharedPtr[PreparedStatement]) Code {
	s, ok := ffi.ArcAsRef(p)
	return codeOf(ok && s.readOnly)
}

// PreparedStatementQuery runs the statement with values and completes with
// an owned row set pointer. The values are consumed, whatever the outcome.
func PreparedStatementQuery(tcb task.Tcb, p ffi.BorrowedSharedPtr[PreparedStatement], values ffi.OwnedExclusivePtr[PreSerializedValues]) {
	vals, verr := takeValues(values)
	s, ok := ffi.CloneArc(p)
	task.Spawn(tcb, func(ctx context.Context) (*RowSet, error) {
		if !ok {
			return nil, getError(errInvalidStatement, nil)
		}
		defer s.Release()
		if verr != nil {
			return nil, verr
		}
		return s.Get().query(ctx, vals)
	})
}
