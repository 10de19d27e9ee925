package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	httpAdapter "github.com/lorrc/service-desk-books/internal/adapters/primary/http"
	mw "github.com/lorrc/service-desk-books/internal/adapters/primary/http/middleware"
	"github.com/lorrc/service-desk-books/internal/adapters/secondary/postgres"
	"github.com/lorrc/service-desk-books/internal/adapters/secondary/redis"
	"github.com/lorrc/service-desk-books/internal/auth"
	"github.com/lorrc/service-desk-books/internal/config"
	"github.com/lorrc/service-desk-books/internal/core/ports"
	"github.com/lorrc/service-desk-books/internal/core/services"
	"github.com/lorrc/service-desk-books/internal/infrastructure/logging"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// 2. Initialize Structured Logger
	logger := logging.NewLogger(logging.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Output:      os.Stdout,
		ServiceName: cfg.App.Name,
		Environment: cfg.App.Environment,
	})

	logger.Info("starting service",
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	// 3. Initialize Database Pool
	ctx := context.Background()
	if cfg.Database.AutoMigrate {
		if err := postgres.Migrate(cfg.Database.URL, -1, logger); err != nil {
			logger.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		logger.Error("failed to parse database URL", "error", err)
		os.Exit(1)
	}

	// Apply database configuration
	poolConfig.MaxConns = int32(cfg.Database.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.Database.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.Database.ConnMaxLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Error("database ping failed", "error", err)
		os.Exit(1)
	}
	logger.Info("database connection established")

	// 4. Optional snapshot cache
	var (
		snapshotCache ports.SnapshotCache
		cacheHealth   httpAdapter.HealthChecker
	)
	if cfg.Redis.Enabled {
		cache, err := redis.NewSnapshotCache(ctx, redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer cache.Close()
		snapshotCache = cache
		cacheHealth = cache
		logger.Info("snapshot cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.TTL)
	}

	// 5. Initialize Security & Rate Limiters
	tokenManager := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.AccessTokenTTL)

	var (
		generalRateLimiter *mw.RateLimiter
		batchRateLimiter   *mw.RateLimitByKey
	)
	if cfg.RateLimit.Enabled {
		generalRateLimiter = mw.NewRateLimiter(mw.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			BurstSize:         cfg.RateLimit.BurstSize,
			CleanupInterval:   time.Minute,
			TTL:               3 * time.Minute,
		})

		batchConfig := mw.BatchRateLimiterConfig()
		batchConfig.RequestsPerSecond = cfg.RateLimit.BatchRPS
		batchConfig.BurstSize = cfg.RateLimit.BatchBurst
		batchRateLimiter = mw.NewRateLimitByKey(batchConfig)
	}

	// 6. Dependency Injection (Wiring the Hexagon)

	// Repositories (Secondary Adapters)
	companyRepo := postgres.NewCompanyRepository(pool)
	ticketRepo := postgres.NewTicketRepository(pool)
	hourRepo := postgres.NewHourRecordRepository(pool)
	snapshotRepo := postgres.NewSnapshotRepository(pool)

	// Services (Core)
	assembler := services.NewSnapshotAssembler(companyRepo, ticketRepo, hourRepo, time.Now, logger)
	snapshotService := services.NewSnapshotService(assembler, snapshotRepo, snapshotCache, cfg.Redis.TTL, logger)
	batchService := services.NewBatchService(assembler, companyRepo, snapshotRepo, snapshotCache, services.BatchOptions{
		Workers:        cfg.Batch.Workers,
		CompanyTimeout: cfg.Batch.CompanyTimeout,
		CacheTTL:       cfg.Redis.TTL,
	}, logger)

	// Handlers (Primary Adapters)
	errorHandler := httpAdapter.NewErrorHandler(logger)
	bookHandler := httpAdapter.NewBookHandler(snapshotService, batchService, errorHandler, logger)
	healthHandler := httpAdapter.NewHealthHandler(pool, cacheHealth, cfg.App.Version)

	// 7. Setup Router
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.RequestID)
	r.Use(mw.RequestLogger(logger))
	r.Use(mw.RecoveryLogger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", mw.RequestIDHeader},
		ExposedHeaders:   []string{mw.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           cfg.CORS.MaxAge,
	}))

	// Apply general rate limiting if enabled
	if generalRateLimiter != nil {
		r.Use(generalRateLimiter.Middleware)
	}

	// Health check endpoints (outside /api/v1 for standard probe paths)
	healthHandler.RegisterRoutes(r)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(mw.JWTMiddleware(tokenManager))

			var batchMiddlewares []func(http.Handler) http.Handler
			if batchRateLimiter != nil {
				batchMiddlewares = append(batchMiddlewares, batchRateLimiter.UserMiddleware)
			}
			r.Route("/books", func(r chi.Router) {
				bookHandler.RegisterRoutes(r, batchMiddlewares...)
			})
		})
	})

	// 8. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutdown signal received", "signal", sig.String())

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Graceful shutdown
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server shutdown complete")
}
