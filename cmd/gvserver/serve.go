package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/gvserver/pkg/api"
	"github.com/platinummonkey/gvserver/pkg/auth"
	"github.com/platinummonkey/gvserver/pkg/config"
	"github.com/platinummonkey/gvserver/pkg/middleware"
	"github.com/platinummonkey/gvserver/pkg/observability"
	"github.com/platinummonkey/gvserver/pkg/storage/postgres"
)

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the API and ops servers until SIGINT/SIGTERM",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger := observability.NewLogger(cfg.Observability.Level(), os.Stdout).
		WithField("service", cfg.Observability.OTelServiceName).
		WithField("version", version)

	tp, err := observability.InitTracing(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: version,
		Insecure:       cfg.Observability.OTelInsecure,
		SampleRatio:    cfg.Observability.OTelSampleRatio,
	}, logger)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}

	startup := newReleaser(logger)
	defer startup.release(context.Background())
	if tp != nil {
		startup.add("tracing", func(ctx context.Context) error {
			return observability.ShutdownTracing(ctx, tp, logger)
		})
	}

	db, err := postgres.Open(ctx, connectionConfig(cfg))
	if err != nil {
		return err
	}
	startup.add("database", func(context.Context) error { return db.Close() })
	if cfg.Database.MigrateOnStart {
		if err := postgres.Migrate(ctx, db); err != nil {
			return err
		}
		logger.Info("Migrations applied")
	}
	store := postgres.NewStore(db, cfg.Database.AcquireTimeout)

	var redisClient *redis.Client
	var limiter *middleware.RateLimiter
	if cfg.Redis.Enabled() {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("parse redis url: %w", err)
		}
		if cfg.Redis.Password != "" {
			opts.Password = cfg.Redis.Password
		}
		if cfg.Redis.DB != 0 {
			opts.DB = cfg.Redis.DB
		}
		redisClient = redis.NewClient(opts)
		startup.add("redis", func(context.Context) error { return redisClient.Close() })
		if cfg.RateLimit.Enabled {
			trusted, err := middleware.ParseTrustedProxies(cfg.RateLimit.TrustedProxies)
			if err != nil {
				return err
			}
			limiter = middleware.NewRateLimiter(redisClient, &middleware.RateLimitConfig{
				RequestsPerWindow: cfg.RateLimit.RequestsPerWindow,
				WindowDuration:    cfg.RateLimit.Window,
				TrustedProxies:    trusted,
			}, "")
		}
	} else if cfg.RateLimit.Enabled {
		logger.Warn("Rate limiting is enabled but no Redis URL is configured; login and signup are unlimited")
	}

	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(prometheus.DefaultRegisterer)
	}

	tokens, err := auth.NewTokenService([]byte(cfg.Application.JWTSecret), auth.WithValidity(cfg.Application.TokenValidity))
	if err != nil {
		return err
	}

	var observe auth.HashObserver
	if metrics != nil {
		observe = metrics.ObserveHash
	}
	hashPool := auth.NewHashPool(cfg.Hashing.Workers, observe)
	if metrics != nil {
		observability.RegisterHashPoolGauge(prometheus.DefaultRegisterer, hashPool.InFlight)
	}

	server := api.NewServer(api.Deps{
		Store:        store,
		Tokens:       tokens,
		HashPool:     hashPool,
		Logger:       logger,
		Metrics:      metrics,
		RateLimiter:  limiter,
		MaxBodyBytes: cfg.Application.MaxBodyBytes,
	})

	apiServer := &http.Server{
		Addr:         cfg.Application.Address(),
		Handler:      server.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		BaseContext:  func(net.Listener) context.Context { return observability.WithLogger(context.Background(), logger) },
	}

	checker := observability.NewHealthChecker(version, metrics).
		WithDatabase(store).
		WithHashPool(hashPool.Workers(), hashPool.InFlight)
	if redisClient != nil {
		checker.WithRedis(redisClient)
	}

	opsMux := http.NewServeMux()
	observability.RegisterHealthRoutes(opsMux, checker)
	if metrics != nil {
		opsMux.Handle("/metrics", observability.MetricsHandler(prometheus.DefaultGatherer))
	}
	opsServer := &http.Server{
		Addr:              net.JoinHostPort(cfg.Application.Host, strconv.Itoa(cfg.Server.OpsPort)),
		Handler:           opsMux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	shutdown := observability.NewShutdownManager(logger, cfg.Server.ShutdownTimeout, apiServer, opsServer)
	shutdown.RegisterShutdownFunc("database", func(context.Context) error { return store.Close() })
	if redisClient != nil {
		shutdown.RegisterShutdownFunc("redis", func(context.Context) error { return redisClient.Close() })
	}
	if tp != nil {
		shutdown.RegisterShutdownFunc("tracing", func(ctx context.Context) error {
			return observability.ShutdownTracing(ctx, tp, logger)
		})
	}

	startup.disarm()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.WithField("addr", apiServer.Addr).Info("Starting API server")
		return listen(apiServer)
	})
	g.Go(func() error {
		logger.WithField("addr", opsServer.Addr).Info("Starting ops server")
		return listen(opsServer)
	})
	g.Go(func() error {
		return shutdown.WaitForShutdown(gctx)
	})

	return g.Wait()
}

func listen(server *http.Server) error {
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%s: %w", server.Addr, err)
	}
	return nil
}
