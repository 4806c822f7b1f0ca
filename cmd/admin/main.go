// Package main is the entrypoint of the bookbase admin console.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/bookbase/bookbase-admin/internal/bookbase"
	"github.com/bookbase/bookbase-admin/internal/cache"
	"github.com/bookbase/bookbase-admin/internal/config"
	"github.com/bookbase/bookbase-admin/internal/handler"
	"github.com/bookbase/bookbase-admin/internal/listing"
	"github.com/bookbase/bookbase-admin/internal/metrics"
	"github.com/bookbase/bookbase-admin/internal/middleware"
	"github.com/bookbase/bookbase-admin/internal/repository"
	"github.com/bookbase/bookbase-admin/internal/server"
	"github.com/bookbase/bookbase-admin/internal/service"
	"github.com/bookbase/bookbase-admin/internal/session"
)

// memoryAuditSize is how many events are kept without a database.
const memoryAuditSize = 200

func main() {
	ctx := context.Background()

	config.LoadEnvFiles()
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	// Redis holds sessions, list view state and the login throttle.
	cacheClient, err := cache.New(ctx, cfg.RedisURL, cfg.RedisPoolSize)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	logger.Info("connected to Redis")

	// The audit log lives in PostgreSQL when configured, in memory otherwise.
	var (
		auditLog repository.AuditLog
		dbCheck  handler.HealthChecker
		repo     *repository.Repository
	)
	if cfg.DatabaseURL != "" {
		repo, err = repository.New(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
		if err != nil {
			logger.Error(
				"failed to connect to database",
				slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
				slog.String("database_url", redactURL(cfg.DatabaseURL)),
			)
			os.Exit(1)
		}
		logger.Info("connected to database")
		if cfg.AuditAutoMigrate {
			if err := repo.Migrate(ctx); err != nil {
				logger.Error("failed to migrate audit schema", "error", err)
				os.Exit(1)
			}
			logger.Info("audit schema up to date")
		}
		auditLog = repository.NewAuditRepository(repo)
		dbCheck = repo
	} else {
		logger.Info("DATABASE_URL not set, keeping audit events in memory")
		auditLog = repository.NewMemoryAuditLog(memoryAuditSize)
	}

	recorder := metrics.NewInMemory()

	sessions, err := session.NewManager(cacheClient.Sessions(), cfg.SessionSecret, cfg.SessionTTL)
	if err != nil {
		logger.Error("failed to create session manager", "error", err)
		os.Exit(1)
	}

	client, err := bookbase.New(bookbase.Options{
		BaseURL:     cfg.APIBaseURL,
		Timeout:     cfg.APITimeout,
		RateLimit:   cfg.APIRateLimitRPS,
		Credentials: session.Provider{},
		Logger:      logger,
		Metrics:     recorder,
	})
	if err != nil {
		logger.Error("failed to create API client", "error", err)
		os.Exit(1)
	}

	views := cacheClient.Views(cfg.ViewStateTTL)
	h, err := handler.New(handler.Options{
		Logger:  logger,
		Auth:    service.NewAuthService(client, sessions, auditLog, recorder, logger),
		Catalog: service.NewCatalogService(client, auditLog, recorder, logger, cfg.MaxUploadSize),
		Loans:   service.NewLoanService(client, auditLog, recorder, logger),
		Covers:  client,
		Audit:   auditLog,
		Metrics: recorder,
		Views:   views,
		Sequencers: func(sessionID, view string) listing.Sequencer {
			return views.Sequencer(sessionID, view)
		},
		PageSize:      cfg.PageSize,
		MaxCoverSize:  cfg.MaxUploadSize,
		CookieName:    cfg.SessionCookieName,
		SecureCookies: cfg.SecureCookies(),
	})
	if err != nil {
		logger.Error("failed to create handlers", "error", err)
		os.Exit(1)
	}

	healthHandler := handler.NewHealthHandler(
		handler.ReadinessCheck{Name: "postgres", Checker: dbCheck, Required: true},
		handler.ReadinessCheck{Name: "redis", Checker: cacheClient, Required: true},
		handler.ReadinessCheck{Name: "bookbase_api", Checker: client},
	)
	metricsHandler := handler.NewMetricsHandler(recorder)

	r := setupRouter(h, healthHandler, metricsHandler, sessions, cacheClient, recorder, cfg, logger)

	srv := server.New(
		r,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)
	if repo != nil {
		srv.OnShutdown("postgres", func(context.Context) error {
			repo.Close()
			return nil
		})
	}
	srv.OnShutdown("redis", func(context.Context) error {
		return cacheClient.Close()
	})

	logger.Info("starting server",
		"port", cfg.AppPort,
		"api_base_url", redactURL(cfg.APIBaseURL),
		"env", cfg.AppEnv,
	)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(
	h *handler.Handler,
	healthHandler *handler.HealthHandler,
	metricsHandler *handler.MetricsHandler,
	sessions middleware.SessionResolver,
	cacheClient *cache.Cache,
	recorder metrics.Recorder,
	cfg *config.Config,
	logger *slog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment()}))

	// Health checks and metrics sit outside the session lookup.
	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)
	r.Get("/metrics", metricsHandler.Metrics)

	sessionCfg := middleware.SessionConfig{
		Logger:     logger,
		Sessions:   sessions,
		CookieName: cfg.SessionCookieName,
		LoginPath:  "/login",
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.LoadSession(sessionCfg))

		h.Mount(r, handler.RouteMiddleware{
			RequireSession: middleware.RequireSession(sessionCfg),
			LoginThrottle: middleware.ThrottleLogin(middleware.LoginThrottleConfig{
				Logger:   logger,
				Throttle: cacheClient.LoginThrottle(cfg.LoginMaxAttempts, cfg.LoginAttemptWindow),
				Enabled:  cfg.LoginThrottleEnabled,
				Metrics:  recorder,
			}),
			FormLimit:   middleware.MaxBodySize(cfg.MaxRequestBodySize),
			UploadLimit: middleware.MaxBodySize(cfg.UploadBodyLimit()),
		})
	})

	return r
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
