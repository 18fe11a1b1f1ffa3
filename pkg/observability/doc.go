// Package observability provides structured logging, Prometheus metrics,
// OpenTelemetry tracing, health checks and graceful shutdown for gvserver.
//
// # Structured Logging
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	logger.WithField("username", "alice").Info("signup complete")
//
// Request-scoped logging picks up the request id and active span:
//
//	observability.FromContext(r.Context()).WithError(err).Error("login failed")
//
// # Prometheus Metrics
//
//	metrics := observability.NewMetrics(registry)
//	router.Use(observability.HTTPMetricsMiddleware(metrics))
//	metrics.RecordAuth("login", observability.OutcomeInvalidCredentials)
//	pool := auth.NewHashPool(workers, metrics.ObserveHash)
//
// # Health Checks
//
//	checker := observability.NewHealthChecker(version, metrics).
//		WithDatabase(store).
//		WithRedis(redisClient).
//		WithHashPool(workers, pool.InFlight)
//	observability.RegisterHealthRoutes(opsMux, checker)
//
// # Shutdown
//
//	sm := observability.NewShutdownManager(logger, timeout, apiServer, opsServer)
//	sm.RegisterShutdownFunc("database", func(context.Context) error { return store.Close() })
//	err := sm.WaitForShutdown(signalCtx)
package observability
