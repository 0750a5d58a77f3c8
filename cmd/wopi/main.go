package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"wopihost/docs"
	"wopihost/internal/config"
	"wopihost/internal/database"
	handlers "wopihost/internal/http/handler"
	"wopihost/internal/http/middleware"
	"wopihost/internal/identity"
	"wopihost/internal/lock"
	"wopihost/internal/logger"
	"wopihost/internal/otel"
	"wopihost/internal/repository/postgres"
	"wopihost/internal/resolver"
	"wopihost/internal/service"
	"wopihost/internal/storage"
)

// @title WOPI Host
// @version 1.0
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	log := logger.Open(cfg.LogFile, cfg.Location(), cfg.LogLevel)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, log)
	if err != nil {
		log.Fatal("failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warn("tracing_shutdown_failed", zap.Error(err))
		}
	}()

	store, err := storage.New(cfg.Storage)
	if err != nil {
		log.Fatal("failed to initialize document storage", zap.Error(err))
	}

	res, db, err := newResolver(ctx, cfg, store, log)
	if err != nil {
		log.Fatal("failed to initialize resolver", zap.Error(err))
	}
	if db != nil {
		defer db.Close()
	}

	var rdb *redis.Client
	if cfg.Lock.Mode == "redis" {
		rdb, err = lock.NewRedisClient(cfg.Redis)
		if err != nil {
			log.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer rdb.Close()
	}
	locker, err := lock.New(cfg.Lock, rdb, log)
	if err != nil {
		log.Fatal("failed to initialize document lock", zap.Error(err))
	}
	if cfg.Lock.Mode == "none" {
		log.Warn("document_lock_disabled")
	}

	wopiSvc := service.NewWopiService(res, store, locker, identity.NewStatic(cfg.Identity))

	app := fiber.New(fiber.Config{
		ErrorHandler:          handlers.ErrorHandler(),
		BodyLimit:             cfg.Storage.MaxDocumentBytes,
		UnescapePath:          true,
		DisableStartupMessage: true,
	})

	metrics, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatal("failed to register metrics", zap.Error(err))
	}

	// Register global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSAllowOrigins,
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Content-Type,Authorization,X-Requested-With",
	}))
	app.Use(otelfiber.Middleware())
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(log))
	app.Use(metrics.Handler())

	app.Get("/metrics", middleware.MetricsHandler(prometheus.DefaultGatherer))

	// Register HTTP routes with injected service
	handlers.RegisterRoutes(app, store, wopiSvc, log)

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		host := c.Get("Host")
		if host == "" {
			host = cfg.AppHost
		}
		docs.SwaggerInfo.Host = host
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	if cfg.StaticDir != "" {
		app.Static("/", cfg.StaticDir)
	}

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		log.Info("server_started",
			zap.String("addr", addr),
			zap.String("storage_backend", cfg.Storage.Backend),
			zap.String("resolver", cfg.Resolver.Strategy),
			zap.String("lock_mode", cfg.Lock.Mode),
		)
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatal("failed to start server", zap.Error(err))
		}
	case <-ctx.Done():
		log.Info("server_stopping")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error("server_shutdown_failed", zap.Error(err))
		}
	}
}

// newResolver builds the resolver selected by configuration. The returned db is
// non-nil only for the index strategy and must be closed by the caller.
func newResolver(ctx context.Context, cfg *config.AppConfig, store storage.Storage, log *zap.Logger) (resolver.Resolver, *sql.DB, error) {
	switch cfg.Resolver.Strategy {
	case "", "scan":
		return resolver.NewScan(store, cfg.Resolver.Strict), nil, nil
	case "index":
		db, err := database.OpenIndex(ctx, cfg.Database, log)
		if err != nil {
			return nil, nil, err
		}
		return resolver.NewIndex(postgres.NewDocumentPostgres(db), store), db, nil
	default:
		return nil, nil, fmt.Errorf("unsupported resolver strategy: %q", cfg.Resolver.Strategy)
	}
}
