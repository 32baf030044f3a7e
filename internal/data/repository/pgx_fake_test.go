package repository

import (
	"context"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// scriptedDB records every statement and answers from canned results. It
// stands in for both the pool and the transactions it begins.
type scriptedDB struct {
	mu    sync.Mutex
	calls []string
	args  [][]any

	// execTag is returned by every Exec.
	execTag string
	// rows answers QueryRow by the first statement keyword that matches.
	rows map[string]func(dest ...any) error
}

type rowFunc func(dest ...any) error

func (f rowFunc) Scan(dest ...any) error { return f(dest...) }

func (db *scriptedDB) record(call string, args ...any) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.calls = append(db.calls, call)
	db.args = append(db.args, args)
}

func (db *scriptedDB) recorded() []string {
	db.mu.Lock()
	defer db.mu.Unlock()
	return append([]string(nil), db.calls...)
}

func statementName(sql string) string {
	return strings.Join(strings.Fields(sql), " ")
}

func (db *scriptedDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	panic("Query is not scripted")
}

func (db *scriptedDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	name := statementName(sql)
	db.record("query: "+name, args...)
	for key, scan := range db.rows {
		if strings.Contains(name, key) {
			return rowFunc(scan)
		}
	}
	return rowFunc(func(...any) error { return pgx.ErrNoRows })
}

func (db *scriptedDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	db.record("exec: "+statementName(sql), args...)
	return pgconn.NewCommandTag(db.execTag), nil
}

func (db *scriptedDB) Begin(context.Context) (pgx.Tx, error) {
	db.record("begin")
	return &scriptedTx{db: db}, nil
}

func (db *scriptedDB) Ping(context.Context) error { return nil }

func (db *scriptedDB) Close() {}

type scriptedTx struct {
	pgx.Tx
	db   *scriptedDB
	done bool
}

func (tx *scriptedTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return tx.db.Exec(ctx, sql, args...)
}

func (tx *scriptedTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return tx.db.QueryRow(ctx, sql, args...)
}

func (tx *scriptedTx) Commit(context.Context) error {
	tx.done = true
	tx.db.record("commit")
	return nil
}

func (tx *scriptedTx) Rollback(context.Context) error {
	if tx.done {
		return pgx.ErrTxClosed
	}
	tx.done = true
	tx.db.record("rollback")
	return nil
}

// kinds reduces recorded calls to their first words, e.g. "exec: SELECT".
func kinds(calls []string, words int) []string {
	out := make([]string, len(calls))
	for i, c := range calls {
		fields := strings.Fields(c)
		if len(fields) > words {
			fields = fields[:words]
		}
		out[i] = strings.Join(fields, " ")
	}
	return out
}
