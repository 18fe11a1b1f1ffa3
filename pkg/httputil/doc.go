// Package httputil provides HTTP utilities for standardized request/response handling.
//
// # Response Helpers
//
// Every error body has the same shape, {"error": "..."}:
//
//	httputil.WriteBadRequest(w, "email is required")
//	httputil.WriteUnauthorized(w, "invalid token")
//	httputil.WriteInternalError(w) // the cause is logged, never returned
//
// # Request Parsing
//
//	var req SignupRequest
//	if !httputil.ParseJSONOrError(w, r, &req) {
//		return // 400 already written
//	}
//
//	userID, ok := httputil.ParsePathUUIDOrError(w, r, "user_id")
//
// # Middleware
//
//	handler := httputil.Chain(
//		httputil.RequestIDMiddleware,
//		httputil.LoggingMiddleware(logger),
//		httputil.RecoveryMiddleware,
//		httputil.MaxBytesMiddleware(20<<20),
//	)(router)
//
// RequestIDMiddleware must run before LoggingMiddleware so that log lines
// carry the request_id field.
package httputil
