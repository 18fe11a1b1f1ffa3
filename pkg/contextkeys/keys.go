// Package contextkeys provides centralized context key definitions
//
// IMPORTANT: All context keys used across the application must be defined here.
// This prevents typos, documents dependencies, and makes key usage discoverable.
//
// USAGE PATTERN:
//
//	import "github.com/platinummonkey/gvserver/pkg/contextkeys"
//	ctx = contextkeys.WithAuth(ctx, perms)
//	perms, _ := ctx.Value(contextkeys.AuthKey).(*auth.Permissions)
package contextkeys

import (
	"context"
	"time"
)

// Key is the type for context keys to prevent collisions
type Key string

const (
	// AuthKey contains *auth.Permissions
	// Set by: middleware.AuthMiddleware (pkg/middleware/auth.go)
	// Required by: GET/PUT/DELETE /users, all /pinpoints routes
	// Type: *auth.Permissions
	AuthKey Key = "auth_permissions"

	// RequestIDKey contains request ID string (UUID)
	// Set by: httputil.RequestIDMiddleware
	// Used by: Logger, error responses
	// Type: string
	RequestIDKey Key = "request_id"

	// LoggerKey contains *observability.Logger
	// Set by: httputil.LoggingMiddleware
	// Used by: Handlers that need structured logging with request context
	// Type: *observability.Logger
	LoggerKey Key = "logger"

	// RequestStartTimeKey contains request start timestamp
	// Set by: httputil.LoggingMiddleware
	// Used by: Duration calculation in request logs
	// Type: time.Time
	RequestStartTimeKey Key = "request_start_time"
)

// WithAuth adds request permissions to the context
func WithAuth(ctx context.Context, perms interface{}) context.Context {
	return context.WithValue(ctx, AuthKey, perms)
}

// WithRequestID adds request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// WithLogger adds logger to the context
func WithLogger(ctx context.Context, logger interface{}) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// WithRequestStartTime adds request start time to the context
func WithRequestStartTime(ctx context.Context, startTime time.Time) context.Context {
	return context.WithValue(ctx, RequestStartTimeKey, startTime)
}

// GetRequestID retrieves request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// GetRequestStartTime retrieves the request start time from context
func GetRequestStartTime(ctx context.Context) (time.Time, bool) {
	t, ok := ctx.Value(RequestStartTimeKey).(time.Time)
	return t, ok
}
