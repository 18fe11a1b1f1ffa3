package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/platinummonkey/gvserver/pkg/storage"
)

const tracerName = "github.com/platinummonkey/gvserver/pkg/storage/postgres"

// Store implements storage.Storage on PostgreSQL
type Store struct {
	db             *sql.DB
	acquireTimeout time.Duration
}

var _ storage.Storage = (*Store)(nil)

// NewStore wraps an open pool. Every operation waits at most acquireTimeout
// for a connection.
func NewStore(db *sql.DB, acquireTimeout time.Duration) *Store {
	return &Store{db: db, acquireTimeout: acquireTimeout}
}

// DB returns the underlying pool
func (s *Store) DB() *sql.DB {
	return s.db
}

// Ping checks that a connection can be acquired and used
func (s *Store) Ping(ctx context.Context) error {
	return s.withConn(ctx, "ping", func(ctx context.Context, conn *sql.Conn) error {
		return conn.PingContext(ctx)
	})
}

// Stats returns pool statistics
func (s *Store) Stats() sql.DBStats {
	return s.db.Stats()
}

// Close closes the pool
func (s *Store) Close() error {
	return s.db.Close()
}

// acquire takes a connection from the pool, giving up after acquireTimeout.
// The returned connection is not bound to the timeout.
func (s *Store) acquire(ctx context.Context) (*sql.Conn, error) {
	acquireCtx, cancel := context.WithTimeout(ctx, s.acquireTimeout)
	defer cancel()

	conn, err := s.db.Conn(acquireCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, storage.ErrAcquireTimeout
		}
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	return conn, nil
}

// withConn runs fn on an acquired connection inside a span named op
func (s *Store) withConn(ctx context.Context, op string, fn func(ctx context.Context, conn *sql.Conn) error) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "postgres."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("db.system", "postgresql"), attribute.String("db.operation", op)),
	)
	defer span.End()

	conn, err := s.acquire(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "acquire")
		return err
	}
	defer conn.Close()

	if err := fn(ctx, conn); err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, op)
		}
		return err
	}
	return nil
}

// withTx runs fn in a transaction on an acquired connection
func (s *Store) withTx(ctx context.Context, op string, fn func(ctx context.Context, tx DBTX) error) error {
	return s.withConn(ctx, op, func(ctx context.Context, conn *sql.Conn) error {
		return withTx(ctx, conn, fn)
	})
}
