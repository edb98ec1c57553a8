package duckffi

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marcboeker/go-duckdb-ffi/ffi"
	"github.com/marcboeker/go-duckdb-ffi/task"
)

func TestSessionOptions(t *testing.T) {
	session := openSessionPtr(t, "?bridge_page_size=3&bridge_max_open_conns=1&threads=1")
	defer SessionFree(session)

	s, ok := ffi.ArcAsRef(session)
	require.True(t, ok)
	require.Equal(t, Options{PageSize: 3, MaxOpenConns: 1}, s.Options())
	require.Equal(t, 1, s.DB().Stats().MaxOpenConnections)

	var threads string
	require.NoError(t, s.DB().QueryRow(`SELECT current_setting('threads')`).Scan(&threads))
	require.Equal(t, "1", threads)
}

func TestSessionFilePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ducks.db")

	first := openSessionPtr(t, path)
	sessionExec(t, first, `CREATE TABLE ducks AS SELECT 3::INTEGER AS n`)
	SessionFree(first)

	second := openSessionPtr(t, path)
	defer SessionFree(second)

	rs := queryRows(t, second, `SELECT n FROM ducks`)
	defer RowSetFree(rs)
	row, ok := fetchRow(t, rs)
	require.True(t, ok)
	require.Equal(t, uint32(3), binary.LittleEndian.Uint32(row[0].bytes))
}

func TestSessionSharedByChildren(t *testing.T) {
	session := openSessionPtr(t, "")
	a, ok := ffi.ArcAsRef(session)
	require.True(t, ok)
	db := a.DB()

	stmt := prepare(t, session, `SELECT 1`)
	rs := queryRows(t, session, `SELECT 2`)

	SessionFree(session)
	require.NoError(t, db.Ping())

	PreparedStatementFree(stmt)
	require.NoError(t, db.Ping())

	// The last reference closes the database.
	RowSetFree(rs)
	require.Error(t, db.Ping())
}

func TestSessionDoubleFree(t *testing.T) {
	session := openSessionPtr(t, "")
	a, ok := ffi.ArcAsRef(session)
	require.True(t, ok)
	db := a.DB()

	stmt := prepare(t, session, `SELECT 5::INTEGER AS n`)
	defer PreparedStatementFree(stmt)

	SessionFree(session)
	SessionFree(session)
	require.NoError(t, db.Ping())

	rs := awaitPtr[RowSet](t, func(tcb task.Tcb) {
		PreparedStatementQuery(tcb, borrowed(stmt), ffi.Null[PreSerializedValues, ffi.Owned, ffi.Exclusive]())
	})
	defer RowSetFree(rs)
	row, ok := fetchRow(t, rs)
	require.True(t, ok)
	require.Equal(t, uint32(5), binary.LittleEndian.Uint32(row[0].bytes))
}

func TestGetConnString(t *testing.T) {
	require.Equal(t, "", getConnString(""))
	require.Equal(t, ":memory:", getConnString(":memory:?threads=1"))
	require.Equal(t, "/tmp/a.db", getConnString("/tmp/a.db"))
}

func TestInitRejectsMissingConfig(t *testing.T) {
	err := Init(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestInitAfterRuntimeStartedChangesNothing(t *testing.T) {
	task.Workers()

	path := filepath.Join(t.TempDir(), "duckffi.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rows:\n  page_size: 7\n"), 0o600))

	before := Logger()
	taskBefore := task.Logger()
	pageSize := defaultOptions().PageSize

	require.ErrorIs(t, Init(path), task.ErrRuntimeStarted)
	require.Same(t, before, Logger())
	require.Same(t, taskBefore, task.Logger())
	require.Equal(t, pageSize, defaultOptions().PageSize)
}
