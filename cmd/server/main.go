package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finspark-backoffice/internal/adapters/http/handlers"
	"finspark-backoffice/internal/adapters/http/middleware"
	"finspark-backoffice/internal/adapters/http/routes"
	"finspark-backoffice/internal/adapters/http/views"
	"finspark-backoffice/internal/adapters/persistence/models"
	"finspark-backoffice/internal/adapters/persistence/repositories"
	"finspark-backoffice/internal/apiclient"
	"finspark-backoffice/internal/config"
	"finspark-backoffice/internal/core/services"
	"finspark-backoffice/internal/notify"
	"finspark-backoffice/internal/observability/tracing"
	"finspark-backoffice/internal/session"
	"finspark-backoffice/internal/workspace"

	"github.com/gofiber/fiber/v2"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	shutdownTracing, err := tracing.Init(context.Background(), cfg.OTLPEndpoint, "finspark-backoffice", cfg.AppMode)
	if err != nil {
		log.Fatalf("❌ Failed to initialize tracing: %v", err)
	}

	// Session backend
	storage, purger, checks, closeStorage := openSessionStorage(cfg)
	defer closeStorage()

	// Notifications are rendered per browser; the log keeps a trail of errors
	center := notify.NewCenter()
	center.Subscribe(func(n notify.Notification) {
		if n.Level == notify.LevelError {
			log.Printf("⚠️ [%s] %s", n.Audience, n.Message)
		}
	})

	registry := workspace.NewRegistry(storage, center, workspace.Config{
		SessionMaxAge: cfg.Session.MaxAge,
		QueryTTL:      cfg.Query.TTL,
	})

	api := apiclient.New(apiclient.Config{
		BaseURL:   cfg.API.BaseURL,
		Timeout:   cfg.API.Timeout,
		UserAgent: "finspark-backoffice",
	})

	// Start janitor for idle workspaces and expired sessions
	janitor := services.NewJanitorService(cfg.JanitorSpec, registry, center, purger, cfg.Session.IdleTTL)
	if err := janitor.Start(); err != nil {
		log.Fatalf("❌ Failed to start janitor: %v", err)
	}
	defer janitor.Stop()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Finspark Back-office",
		Views:        views.New(cfg.IsDev()),
		ErrorHandler: middleware.CustomErrorHandler,
	})

	// Setup middlewares
	middleware.Setup(app, cfg)

	// Setup routes
	routes.Setup(app, routes.Deps{
		Config:     cfg,
		API:        api,
		Center:     center,
		Workspaces: registry,
		Checks:     checks,
	})

	// Graceful shutdown
	go gracefulShutdown(app)

	// Start server
	log.Printf("🚀 Server starting on port %s [MODE: %s]", cfg.Port, cfg.AppMode)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracing(ctx); err != nil {
		log.Printf("❌ Error flushing traces: %v", err)
	}
}

// openSessionStorage connects the configured session backend
func openSessionStorage(cfg *config.Config) (session.Storage, services.ExpiredPurger, map[string]handlers.Check, func()) {
	switch cfg.Session.Store {
	case config.SessionStoreMySQL:
		db, err := config.ConnectDatabase(cfg)
		if err != nil {
			log.Fatalf("❌ Failed to connect to database: %v", err)
		}

		// Auto migrate (creates the session table if not exist)
		if err := models.AutoMigrate(db); err != nil {
			log.Fatalf("❌ Failed to auto migrate: %v", err)
		}
		log.Println("✅ Database migration completed")

		storage := repositories.NewSessionStorage(db)
		checks := map[string]handlers.Check{
			"database": func(context.Context) error { return config.PingDatabase(db) },
		}
		return storage, storage, checks, func() {
			if err := config.CloseDatabase(db); err != nil {
				log.Printf("❌ Error closing database: %v", err)
			}
		}

	case config.SessionStoreRedis:
		rdb, err := config.ConnectRedis(cfg)
		if err != nil {
			log.Fatalf("❌ Failed to connect to redis: %v", err)
		}

		checks := map[string]handlers.Check{
			"redis": func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		}
		return repositories.NewRedisStorage(rdb, cfg.Redis.Prefix), nil, checks, func() {
			if err := rdb.Close(); err != nil {
				log.Printf("❌ Error closing redis: %v", err)
			}
		}

	default:
		log.Println("ℹ️ Using in-memory session store; sessions are lost on restart")
		return session.NewMemoryStorage(), nil, nil, func() {}
	}
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("❌ Error during shutdown: %v", err)
	}
	log.Println("✅ Server stopped gracefully")
}
