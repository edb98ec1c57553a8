package duckffi

import (
	"context"
	"database/sql"

	"github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"

	"github.com/marcboeker/go-duckdb-ffi/ffi"
	"github.com/marcboeker/go-duckdb-ffi/task"
)

// Session is an open DuckDB database. It is shared by every statement and
// row set created from it and closed when the last of them is freed.
type Session struct {
	db   *sql.DB
	opts Options
	path string
}

func (Session) FFIOrigin() ffi.FromArc { return ffi.FromArc{} }

func openSession(ctx context.Context, dsn string) (*Session, error) {
	driverDSN, opts, err := parseDSN(dsn)
	if err != nil {
		return nil, err
	}

	connector, err := duckdb.NewConnector(driverDSN, nil)
	if err != nil {
		return nil, getError(errConnect, err)
	}
	db := sql.OpenDB(connector)
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, getError(errConnect, err)
	}

	path := getConnString(driverDSN)
	Logger().Debug("session opened", zap.String("path", path), zap.Int("page_size", opts.PageSize))
	return &Session{db: db, opts: opts, path: path}, nil
}

// Drop closes the database once the last reference is gone.
func (s *Session) Drop() {
	if err := s.db.Close(); err != nil {
		Logger().Warn("closing session", zap.String("path", s.path), zap.Error(err))
		return
	}
	Logger().Debug("session closed", zap.String("path", s.path))
}

// Options returns the session's settings.
func (s *Session) Options() Options {
	return s.opts
}

// DB returns the underlying database handle.
func (s *Session) DB() *sql.DB {
	return s.db
}

func (s *Session) query(ctx context.Context, self *ffi.Arc[Session], query string, values *PreSerializedValues) (*RowSet, error) {
	args, err := values.args()
	if err != nil {
		return nil, getError(errQuery, err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, getError(errQuery, err)
	}
	return newRowSet(self.Clone(), rows, s.opts.PageSize)
}

// withSession keeps the session behind p alive for the duration of work,
// which runs as a spawned task reporting through tcb.
func withSession[T ffi.ArcFFI](tcb task.Tcb, p ffi.BorrowedSharedPtr[Session], work func(ctx context.Context, s *ffi.Arc[Session]) (*T, error)) {
	s, ok := ffi.CloneArc(p)
	task.Spawn(tcb, func(ctx context.Context) (*T, error) {
		if !ok {
			return nil, getError(errInvalidSession, nil)
		}
		defer s.Release()
		return work(ctx, s)
	})
}

// SessionCreate opens the database named by dsn and completes with an
// owned session pointer.
//
// The DSN follows the driver's format, path?option=value. Options named
// bridge_page_size and bridge_max_open_conns configure the session itself.
func SessionCreate(tcb task.Tcb, dsn string) {
	task.Spawn(tcb, func(ctx context.Context) (*Session, error) {
		return openSession(ctx, dsn)
	})
}

// SessionFree releases an owned session pointer. The database closes once
// no statement or row set refers to it any more.
func SessionFree(p ffi.OwnedSharedPtr[Session]) {
	ffi.FreeArc(p)
}

// SessionPrepare prepares query and completes with an owned statement
// pointer.
func SessionPrepare(tcb task.Tcb, p ffi.BorrowedSharedPtr[Session], query string) {
	withSession(tcb, p, func(ctx context.Context, s *ffi.Arc[Session]) (*PreparedStatement, error) {
		return prepareStatement(ctx, s, query)
	})
}

// SessionQuery runs query and completes with an owned row set pointer.
func SessionQuery(tcb task.Tcb, p ffi.BorrowedSharedPtr[Session], query string) {
	SessionQueryWithValues(tcb, p, query, ffi.OwnedExclusivePtr[PreSerializedValues]{})
}

// SessionQueryWithValues runs query with the given parameters and completes
// with an owned row set pointer. The values are consumed, whatever the
// outcome.
func SessionQueryWithValues(tcb task.Tcb, p ffi.BorrowedSharedPtr[Session], query string, values ffi.OwnedExclusivePtr[PreSerializedValues]) {
	vals, verr := takeValues(values)
	withSession(tcb, p, func(ctx context.Context, s *ffi.Arc[Session]) (*RowSet, error) {
		if verr != nil {
			return nil, verr
		}
		return s.Get().query(ctx, s, query, vals)
	})
}
