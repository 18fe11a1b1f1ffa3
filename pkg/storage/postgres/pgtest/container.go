//go:build integration

// Package pgtest starts a disposable PostgreSQL for integration tests
package pgtest

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/platinummonkey/gvserver/pkg/storage/postgres"
)

// Option configures container cleanup behavior
type Option func(*config)

type config struct {
	removeVolumes  bool
	cleanupTimeout time.Duration
	acquireTimeout time.Duration
}

// WithRemoveVolumes ensures volumes are removed on cleanup (default: true)
func WithRemoveVolumes(remove bool) Option {
	return func(c *config) {
		c.removeVolumes = remove
	}
}

// WithCleanupTimeout sets the timeout for cleanup operations (default: 30s)
func WithCleanupTimeout(timeout time.Duration) Option {
	return func(c *config) {
		c.cleanupTimeout = timeout
	}
}

// WithAcquireTimeout sets the pool acquire timeout used by Open (default: 5s)
func WithAcquireTimeout(timeout time.Duration) Option {
	return func(c *config) {
		c.acquireTimeout = timeout
	}
}

// Setup starts PostgreSQL, opens a pool through postgres.Open and applies
// the embedded migrations. The test is skipped when no container runtime is
// available. Cleanup is registered with t.
func Setup(t *testing.T, opts ...Option) *sql.DB {
	t.Helper()

	cfg := &config{
		removeVolumes:  true,
		cleanupTimeout: 30 * time.Second,
		acquireTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	ctx := context.Background()

	provider, err := testcontainers.ProviderDocker.GetProvider()
	if err != nil {
		t.Skip("Docker/Podman not available, skipping integration tests")
	}
	defer provider.Close()

	containerOpts := []testcontainers.ContainerCustomizer{
		tcpostgres.WithDatabase("gvserver_test"),
		tcpostgres.WithUsername("gvserver"),
		tcpostgres.WithPassword("gvserver_test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second)),
	}
	if cfg.removeVolumes {
		containerOpts = append(containerOpts,
			testcontainers.CustomizeRequest(testcontainers.GenericContainerRequest{
				ContainerRequest: testcontainers.ContainerRequest{AutoRemove: true},
			}),
		)
	}

	container, err := tcpostgres.Run(ctx, "postgres:15-alpine", containerOpts...)
	if err != nil {
		t.Skipf("Failed to start PostgreSQL container: %v", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := postgres.Open(ctx, postgres.ConnectionConfig{
		URL:             connStr,
		MaxOpenConns:    10,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Minute,
		AcquireTimeout:  cfg.acquireTimeout,
	})
	require.NoError(t, err)
	require.NoError(t, postgres.Migrate(ctx, db), "failed to run migrations")

	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("Warning: Failed to close database: %v", err)
		}

		// the test context may already be cancelled
		cleanupCtx, cancel := context.WithTimeout(context.Background(), cfg.cleanupTimeout)
		defer cancel()
		if err := container.Terminate(cleanupCtx); err != nil {
			t.Errorf("Failed to terminate container: %v", err)
		}
	})

	return db
}
