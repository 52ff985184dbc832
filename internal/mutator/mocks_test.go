package mutator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vvka-141/pgsanitize/pkg/sanitize"
)

// call records one statement sent to the mock connection.
type call struct {
	sql  string
	args []any
}

// mockConn is a scripted DBConnection. Query results and Exec results are
// consumed in order; when a script runs out, Query returns no rows and
// Exec affects zero rows.
type mockConn struct {
	queries  [][][]any
	execs    []int64
	execErr  error
	queryErr error

	execCalls  []call
	queryCalls []call
}

func (m *mockConn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	m.execCalls = append(m.execCalls, call{sql: sql, args: args})
	if m.execErr != nil {
		return pgconn.CommandTag{}, m.execErr
	}
	var n int64
	if len(m.execs) > 0 {
		n, m.execs = m.execs[0], m.execs[1:]
	}
	return pgconn.NewCommandTag(fmt.Sprintf("UPDATE %d", n)), nil
}

func (m *mockConn) Query(ctx context.Context, sql string, args ...any) (sanitize.Rows, error) {
	m.queryCalls = append(m.queryCalls, call{sql: sql, args: args})
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	var rows [][]any
	if len(m.queries) > 0 {
		rows, m.queries = m.queries[0], m.queries[1:]
	}
	return &mockRows{rows: rows, pos: -1}, nil
}

func (m *mockConn) QueryRow(ctx context.Context, sql string, args ...any) sanitize.Row {
	return mockRow{err: errors.New("not scripted")}
}

func (m *mockConn) InTx(ctx context.Context, fn func(sanitize.DBConnection) error) error {
	return fn(m)
}

func (m *mockConn) execSQL(contains string) []call {
	var out []call
	for _, c := range m.execCalls {
		if strings.Contains(c.sql, contains) {
			out = append(out, c)
		}
	}
	return out
}

type mockRow struct{ err error }

func (r mockRow) Scan(dest ...any) error { return r.err }

type mockRows struct {
	rows   [][]any
	pos    int
	closed bool
}

func (r *mockRows) Next() bool {
	r.pos++
	return r.pos < len(r.rows)
}

func (r *mockRows) Scan(dest ...any) error {
	row := r.rows[r.pos]
	if len(dest) != len(row) {
		return fmt.Errorf("scan: %d destinations for %d columns", len(dest), len(row))
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *int64:
			*p = row[i].(int64)
		case **string:
			if row[i] == nil {
				*p = nil
			} else {
				s := row[i].(string)
				*p = &s
			}
		default:
			return fmt.Errorf("scan: unsupported destination %T", d)
		}
	}
	return nil
}

func (r *mockRows) Err() error { return nil }
func (r *mockRows) Close()     { r.closed = true }

type mockLogger struct {
	verbose []string
	errors  []string
}

func (l *mockLogger) Verbose(format string, args ...interface{}) {
	l.verbose = append(l.verbose, fmt.Sprintf(format, args...))
}

func (l *mockLogger) Info(format string, args ...interface{}) {}

func (l *mockLogger) Error(format string, args ...interface{}) {
	l.errors = append(l.errors, fmt.Sprintf(format, args...))
}

func idRows(ids ...int64) [][]any {
	rows := make([][]any, len(ids))
	for i, id := range ids {
		rows[i] = []any{id}
	}
	return rows
}
