// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package duckffi exposes DuckDB to a foreign, garbage-collected caller.
//
// Sessions, prepared statements and row sets are reference counted and
// cross the boundary as ffi pointers. Operations that talk to the database
// run in the background and report through a task.Tcb. Everything else is
// synchronous and reports a Code.
package duckffi

import (
	"fmt"
	"net/url"
	"strings"
	"sync/atomic"

	"github.com/go-viper/mapstructure/v2"

	"github.com/marcboeker/go-duckdb-ffi/internal/config"
	"github.com/marcboeker/go-duckdb-ffi/internal/logging"
	"github.com/marcboeker/go-duckdb-ffi/task"
)

// Code is the integer result of a synchronous boundary call.
type Code int32

const (
	// CodeAbsent reports a null or stale pointer, an out-of-range index, or
	// a value of the wrong shape.
	CodeAbsent Code = 0
	CodeOK     Code = 1
)

func codeOf(ok bool) Code {
	if ok {
		return CodeOK
	}
	return CodeAbsent
}

// bridgeOptionPrefix marks DSN options consumed by the bridge. They are
// stripped before the DSN reaches the driver, which rejects unknown keys.
const bridgeOptionPrefix = "bridge_"

// Options are the per-session settings taken from the DSN.
type Options struct {
	// PageSize is the number of rows a row set buffers per fetch.
	PageSize int `mapstructure:"page_size"`
	// MaxOpenConns bounds the session's connection pool. Zero means
	// unlimited.
	MaxOpenConns int `mapstructure:"max_open_conns"`
}

var defaultPageSize atomic.Int64

func init() {
	defaultPageSize.Store(config.DefaultPageSize)
}

func defaultOptions() Options {
	return Options{PageSize: int(defaultPageSize.Load())}
}

// Init loads the configuration at path, which may be empty, and applies it
// to logging, the task runtime and the session defaults. It must run before
// the first session is created; once the task runtime has started it fails
// with task.ErrRuntimeStarted and changes nothing.
func Init(path string) error {
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	l, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}

	// Nothing may change before Configure succeeds.
	if err := task.Configure(task.Config{Workers: cfg.Runtime.Workers}); err != nil {
		return err
	}
	SetLogger(l)
	task.SetLogger(l.Named("task"))
	defaultPageSize.Store(int64(cfg.Rows.PageSize))
	return nil
}

func getConnString(dsn string) string {
	idx := strings.Index(dsn, "?")
	if idx < 0 {
		idx = len(dsn)
	}
	return dsn[0:idx]
}

// parseDSN splits the bridge options off dsn. It returns the DSN to hand to
// the driver and the decoded options.
func parseDSN(dsn string) (string, Options, error) {
	opts := defaultOptions()

	path := getConnString(dsn)
	rawQuery := strings.TrimPrefix(dsn[len(path):], "?")

	// Early-out, if the DSN does not contain configuration options.
	if len(rawQuery) == 0 {
		return path, opts, nil
	}

	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		return "", opts, getError(errParseDSN, err)
	}

	raw := make(map[string]any)
	for k, v := range query {
		if !strings.HasPrefix(k, bridgeOptionPrefix) {
			continue
		}
		if len(v) > 0 {
			raw[strings.TrimPrefix(k, bridgeOptionPrefix)] = v[0]
		}
		query.Del(k)
	}

	if err := decodeOptions(raw, &opts); err != nil {
		return "", opts, err
	}
	if opts.PageSize < 1 {
		return "", opts, getError(errInvalidOption, fmt.Errorf("%spage_size=%d", bridgeOptionPrefix, opts.PageSize))
	}

	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	return path, opts, nil
}

func decodeOptions(raw map[string]any, opts *Options) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           opts,
	})
	if err != nil {
		return getError(errInvalidOption, err)
	}
	if err := decoder.Decode(raw); err != nil {
		return getError(errInvalidOption, err)
	}
	return nil
}
