package observability

import (
	"bytes"
	"context"
	"errors"
	"net"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewShutdownManager_DefaultTimeout(t *testing.T) {
	sm := NewShutdownManager(NewLogger(InfoLevel, &bytes.Buffer{}), 0)
	assert.Equal(t, 30*time.Second, sm.shutdownTimeout)

	sm = NewShutdownManager(NewLogger(InfoLevel, &bytes.Buffer{}), time.Second)
	assert.Equal(t, time.Second, sm.shutdownTimeout)
}

func TestShutdownManager_Shutdown(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	server := &http.Server{Handler: http.NotFoundHandler()}
	served := make(chan error, 1)
	go func() { served <- server.Serve(listener) }()

	sm := NewShutdownManager(NewLogger(InfoLevel, &bytes.Buffer{}), 5*time.Second, server)

	var calls atomic.Int32
	sm.RegisterShutdownFunc("db", func(context.Context) error {
		calls.Add(1)
		return nil
	})
	sm.RegisterShutdownFunc("redis", func(context.Context) error {
		calls.Add(1)
		return nil
	})

	require.NoError(t, sm.Shutdown())
	assert.Equal(t, int32(2), calls.Load())
	assert.ErrorIs(t, <-served, http.ErrServerClosed)
}

func TestShutdownManager_CollectsErrors(t *testing.T) {
	sm := NewShutdownManager(NewLogger(InfoLevel, &bytes.Buffer{}), time.Second)

	boom := errors.New("boom")
	sm.RegisterShutdownFunc("ok", func(context.Context) error { return nil })
	sm.RegisterShutdownFunc("broken", func(context.Context) error { return boom })

	err := sm.Shutdown()
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "broken")
}

func TestShutdownManager_Timeout(t *testing.T) {
	sm := NewShutdownManager(NewLogger(InfoLevel, &bytes.Buffer{}), 50*time.Millisecond)

	release := make(chan struct{})
	defer close(release)
	sm.RegisterShutdownFunc("slow", func(context.Context) error {
		<-release
		return nil
	})

	err := sm.Shutdown()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
}

func TestShutdownManager_WaitForShutdown(t *testing.T) {
	sm := NewShutdownManager(NewLogger(InfoLevel, &bytes.Buffer{}), time.Second)

	var called atomic.Bool
	sm.RegisterShutdownFunc("flag", func(context.Context) error {
		called.Store(true)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sm.WaitForShutdown(ctx) }()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("WaitForShutdown did not return")
	}
	assert.True(t, called.Load())
}
