package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/platinummonkey/gvserver/pkg/httputil"
	"github.com/platinummonkey/gvserver/pkg/observability"
)

// RateLimitConfig defines rate limiting configuration
type RateLimitConfig struct {
	// RequestsPerWindow is the max requests allowed in the time window
	RequestsPerWindow int
	// WindowDuration is the time window for rate limiting
	WindowDuration time.Duration
	// TrustedProxies are the peers whose forwarding headers are believed.
	// Requests from anyone else are keyed by their connection address.
	TrustedProxies []*net.IPNet
}

// ParseTrustedProxies parses IP addresses and CIDR ranges
func ParseTrustedProxies(entries []string) ([]*net.IPNet, error) {
	nets := make([]*net.IPNet, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if !strings.Contains(entry, "/") {
			ip := net.ParseIP(entry)
			if ip == nil {
				return nil, fmt.Errorf("invalid trusted proxy %q", entry)
			}
			bits := 128
			if ip4 := ip.To4(); ip4 != nil {
				ip, bits = ip4, 32
			}
			nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, ipNet, err := net.ParseCIDR(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", entry, err)
		}
		nets = append(nets, ipNet)
	}
	return nets, nil
}

// DefaultRateLimitConfig returns the limits applied to login and signup
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		RequestsPerWindow: 20,
		WindowDuration:    time.Minute,
	}
}

// RateLimiter is a fixed-window counter stored in Redis, so limits are
// shared across instances.
type RateLimiter struct {
	redis  redis.Cmdable
	config *RateLimitConfig
	prefix string
}

// NewRateLimiter creates a new Redis-backed rate limiter
func NewRateLimiter(client redis.Cmdable, config *RateLimitConfig, prefix string) *RateLimiter {
	if config == nil {
		config = DefaultRateLimitConfig()
	}
	if prefix == "" {
		prefix = "gvserver:ratelimit"
	}

	return &RateLimiter{
		redis:  client,
		config: config,
		prefix: prefix,
	}
}

func (rl *RateLimiter) key(key string) string {
	return fmt.Sprintf("%s:%s", rl.prefix, key)
}

// Allow counts one request against key. It returns whether the request fits
// in the window and how many requests remain.
func (rl *RateLimiter) Allow(ctx context.Context, key string) (bool, int, error) {
	redisKey := rl.key(key)

	count64, err := rl.redis.Incr(ctx, redisKey).Result()
	if err != nil {
		return true, rl.config.RequestsPerWindow, fmt.Errorf("redis error: %w", err)
	}
	// the first hit opens the window
	if count64 == 1 {
		if err := rl.redis.Expire(ctx, redisKey, rl.config.WindowDuration).Err(); err != nil {
			return true, rl.config.RequestsPerWindow, fmt.Errorf("redis error: %w", err)
		}
	}

	count := int(count64)
	remaining := rl.config.RequestsPerWindow - count
	if remaining < 0 {
		remaining = 0
	}
	return count <= rl.config.RequestsPerWindow, remaining, nil
}

// TTL returns the time until the rate limit window resets
func (rl *RateLimiter) TTL(ctx context.Context, key string) (time.Duration, error) {
	return rl.redis.TTL(ctx, rl.key(key)).Result()
}

// Reset clears the rate limit for a key
func (rl *RateLimiter) Reset(ctx context.Context, key string) error {
	return rl.redis.Del(ctx, rl.key(key)).Err()
}

// RateLimitMiddleware limits requests per client IP. Redis failures let the
// request through.
type RateLimitMiddleware struct {
	limiter *RateLimiter
	metrics *observability.Metrics
}

// NewRateLimitMiddleware creates the middleware. metrics may be nil.
func NewRateLimitMiddleware(limiter *RateLimiter, metrics *observability.Metrics) *RateLimitMiddleware {
	return &RateLimitMiddleware{limiter: limiter, metrics: metrics}
}

// Limit wraps next; route labels the rate-limited metric and scopes the counter.
func (m *RateLimitMiddleware) Limit(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		key := route + ":ip:" + clientIP(r, m.limiter.config.TrustedProxies)

		allowed, remaining, err := m.limiter.Allow(ctx, key)
		if err != nil {
			observability.FromContext(ctx).WithError(err).Warn("rate limiter unavailable, allowing request")
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(m.limiter.config.RequestsPerWindow))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			retryAfter := m.limiter.config.WindowDuration
			if ttl, err := m.limiter.TTL(ctx, key); err == nil && ttl > 0 {
				retryAfter = ttl
			}
			m.metrics.RecordRateLimited(route)
			httputil.WriteTooManyRequests(w, retryAfter)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientIP returns the connection's remote address unless that peer is a
// trusted proxy. Behind a trusted proxy the right-most X-Forwarded-For hop
// that is not itself trusted wins, then X-Real-IP.
func clientIP(r *http.Request, trusted []*net.IPNet) string {
	peer, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		peer = r.RemoteAddr
	}
	if !isTrusted(net.ParseIP(peer), trusted) {
		return peer
	}

	if forwarded := r.Header.Values("X-Forwarded-For"); len(forwarded) > 0 {
		hops := strings.Split(strings.Join(forwarded, ","), ",")
		for i := len(hops) - 1; i >= 0; i-- {
			ip := net.ParseIP(strings.TrimSpace(hops[i]))
			if ip == nil {
				// everything left of a malformed hop is unverifiable
				break
			}
			if !isTrusted(ip, trusted) {
				return ip.String()
			}
		}
	}

	if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
		return ip.String()
	}
	return peer
}

func isTrusted(ip net.IP, trusted []*net.IPNet) bool {
	if ip == nil {
		return false
	}
	for _, n := range trusted {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}
