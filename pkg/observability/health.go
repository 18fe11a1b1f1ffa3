package observability

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// readinessTimeout bounds one readiness probe across all dependencies
const readinessTimeout = 5 * time.Second

// Database is what readiness needs from the store
type Database interface {
	Ping(ctx context.Context) error
	Stats() sql.DBStats
}

// HealthStatus is the readiness response body
type HealthStatus struct {
	Status       string                      `json:"status"`
	Timestamp    time.Time                   `json:"timestamp"`
	Version      string                      `json:"version,omitempty"`
	Dependencies map[string]DependencyStatus `json:"dependencies,omitempty"`
}

// DependencyStatus is the result of probing one dependency
type DependencyStatus struct {
	Status    string        `json:"status"`
	Message   string        `json:"message,omitempty"`
	Latency   time.Duration `json:"latency_ms,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

type dependency struct {
	name string
	// a failing critical dependency makes the service unhealthy; any other
	// failure only degrades it
	critical bool
	probe    func(ctx context.Context) DependencyStatus
}

// HealthChecker answers liveness and readiness probes for the ops listener
type HealthChecker struct {
	version string
	metrics *Metrics
	deps    []dependency
}

// NewHealthChecker creates a checker with no dependencies. metrics may be nil.
func NewHealthChecker(version string, metrics *Metrics) *HealthChecker {
	return &HealthChecker{version: version, metrics: metrics}
}

// WithDatabase adds the store as a critical dependency. Pool statistics are
// copied into the DB gauges on every probe and an exhausted pool degrades.
func (h *HealthChecker) WithDatabase(db Database) *HealthChecker {
	h.deps = append(h.deps, dependency{name: "database", critical: true, probe: func(ctx context.Context) DependencyStatus {
		status := timed(func() error { return db.Ping(ctx) })
		if status.Status != StatusHealthy {
			return status
		}
		stats := db.Stats()
		h.metrics.RecordDBStats(stats)
		if stats.MaxOpenConnections > 0 && stats.InUse >= stats.MaxOpenConnections {
			status.Status = StatusDegraded
			status.Message = "connection pool exhausted"
		}
		return status
	}})
	return h
}

// WithRedis adds the rate limiter's Redis. The limiter fails open, so Redis
// being down only degrades the service.
func (h *HealthChecker) WithRedis(client redis.Cmdable) *HealthChecker {
	h.deps = append(h.deps, dependency{name: "redis", probe: func(ctx context.Context) DependencyStatus {
		return timed(func() error { return client.Ping(ctx).Err() })
	}})
	return h
}

// WithHashPool reports degraded while every hashing slot is busy, since
// logins and signups are queueing.
func (h *HealthChecker) WithHashPool(workers int, inFlight func() int64) *HealthChecker {
	h.deps = append(h.deps, dependency{name: "hash_pool", probe: func(ctx context.Context) DependencyStatus {
		status := DependencyStatus{Status: StatusHealthy, Timestamp: time.Now()}
		if inFlight() >= int64(workers) {
			status.Status = StatusDegraded
			status.Message = "all hashing workers busy"
		}
		return status
	}})
	return h
}

func timed(probe func() error) DependencyStatus {
	start := time.Now()
	err := probe()
	status := DependencyStatus{Status: StatusHealthy, Latency: time.Since(start), Timestamp: start}
	if err != nil {
		status.Status = StatusUnhealthy
		status.Message = err.Error()
	}
	return status
}

// Check probes every dependency in registration order
func (h *HealthChecker) Check(ctx context.Context) HealthStatus {
	result := HealthStatus{
		Status:    StatusHealthy,
		Timestamp: time.Now(),
		Version:   h.version,
	}
	if len(h.deps) > 0 {
		result.Dependencies = make(map[string]DependencyStatus, len(h.deps))
	}

	for _, dep := range h.deps {
		status := dep.probe(ctx)
		result.Dependencies[dep.name] = status

		switch {
		case status.Status == StatusHealthy:
		case status.Status == StatusUnhealthy && dep.critical:
			result.Status = StatusUnhealthy
		case result.Status != StatusUnhealthy:
			result.Status = StatusDegraded
		}
	}
	return result
}

// Liveness returns 200 whenever the process can serve HTTP
func (h *HealthChecker) Liveness(w http.ResponseWriter, r *http.Request) {
	writeHealth(w, http.StatusOK, HealthStatus{Status: StatusHealthy, Timestamp: time.Now(), Version: h.version})
}

// Readiness probes the dependencies; 503 only when a critical one is down
func (h *HealthChecker) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	status := h.Check(ctx)
	code := http.StatusOK
	if status.Status == StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	writeHealth(w, code, status)
}

func writeHealth(w http.ResponseWriter, code int, status HealthStatus) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(status)
}

// RegisterHealthRoutes mounts the probes on the ops mux
func RegisterHealthRoutes(mux *http.ServeMux, checker *HealthChecker) {
	mux.HandleFunc("/health", checker.Readiness)
	mux.HandleFunc("/health/live", checker.Liveness)
	mux.HandleFunc("/health/ready", checker.Readiness)
}
