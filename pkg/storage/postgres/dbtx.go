package postgres

import (
	"context"
	"database/sql"
)

// DBTX is the subset of database/sql the queries need.
// *sql.DB, *sql.Conn and *sql.Tx all satisfy it.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// withTx begins a transaction on conn, runs fn with it, and commits on
// success or rolls back on error or panic. Panics are rethrown.
func withTx(ctx context.Context, conn *sql.Conn, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(ctx, tx)
	return err
}

// nullBytes sends a nil slice as SQL NULL
func nullBytes(b []byte) any {
	if b == nil {
		return nil
	}
	return b
}

// nullString sends a nil pointer as SQL NULL
func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
