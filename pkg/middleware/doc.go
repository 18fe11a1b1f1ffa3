// Package middleware provides HTTP middleware for bearer authentication and
// rate limiting.
//
// AuthMiddleware validates the Authorization header and stores the caller's
// auth.Permissions in the request context:
//
//	authn := middleware.NewAuthMiddleware(tokenService, metrics)
//	protected := router.NewRoute().Subrouter()
//	protected.Use(authn.Handler)
//
//	perms := middleware.GetPermissions(r)
//
// RateLimitMiddleware keeps fixed-window counters per client IP in Redis so
// every instance enforces the same limit. Redis errors let requests through:
//
//	limiter := middleware.NewRateLimiter(redisClient, cfg, "gvserver:ratelimit")
//	rl := middleware.NewRateLimitMiddleware(limiter, metrics)
//	router.Handle("/login", rl.Limit("login", loginHandler)).Methods(http.MethodPost)
package middleware
