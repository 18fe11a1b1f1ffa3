package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/platinummonkey/gvserver/pkg/storage"
)

// ConnectionConfig holds database connection configuration
type ConnectionConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// AcquireTimeout bounds every wait for a pooled connection,
	// including the startup ping
	AcquireTimeout time.Duration
}

// Open creates the connection pool and pings it under the acquire timeout.
// A pool that cannot be reached is closed and reported as an error.
func Open(ctx context.Context, config ConnectionConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", config.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, config.AcquireTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("failed to ping postgres: %w", storage.ErrAcquireTimeout)
		}
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return db, nil
}
