package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/gvserver/pkg/storage"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db, time.Second), mock
}

func TestStore_Ping(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectPing()

	require.NoError(t, store.Ping(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_AcquireTimeout(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	db.SetMaxOpenConns(1)

	// hold the only connection
	held, err := db.Conn(context.Background())
	require.NoError(t, err)
	defer held.Close()

	store := NewStore(db, 50*time.Millisecond)

	start := time.Now()
	creds, err := store.LookupCredentials(context.Background(), "alice")
	assert.Nil(t, creds)
	assert.ErrorIs(t, err, storage.ErrAcquireTimeout)
	assert.Less(t, time.Since(start), time.Second)
}

func TestStore_AcquireCallerCancelled(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	db.SetMaxOpenConns(1)

	held, err := db.Conn(context.Background())
	require.NoError(t, err)
	defer held.Close()

	store := NewStore(db, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = store.UsernameTaken(ctx, "alice")
	require.Error(t, err)
	assert.False(t, errors.Is(err, storage.ErrAcquireTimeout))
}

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"no rows", sql.ErrNoRows, storage.ErrNotFound},
		{"unique violation", &pq.Error{Code: "23505", Constraint: "users_username_key"}, storage.ErrAlreadyExists},
		{"sentinel passes through", storage.ErrAcquireTimeout, storage.ErrAcquireTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateError("op", tt.err)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
		})
	}

	other := translateError("insert user", &pq.Error{Code: "23503"})
	assert.False(t, errors.Is(other, storage.ErrAlreadyExists))
	assert.Contains(t, other.Error(), "insert user")
}

func TestWithTx_RollbackOnPanic(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.Panics(t, func() {
		_ = store.withTx(context.Background(), "test", func(ctx context.Context, tx DBTX) error {
			panic("boom")
		})
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}
