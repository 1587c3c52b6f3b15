package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dashboard-layout/internal/common/config"
	"dashboard-layout/internal/common/middleware"
	"dashboard-layout/internal/layout/catalog"
	"dashboard-layout/internal/layout/handlers"
	"dashboard-layout/internal/layout/repository"
	"dashboard-layout/internal/layout/service"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"golang.org/x/sync/errgroup"
)

// ============================================================
// Layout Service
// ============================================================

func main() {
	cfg := config.Load()
	if os.Getenv("PORT") == "" {
		cfg.Port = "3003"
	}

	scope, err := service.ParseCollapseScope(cfg.CollapseScope)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		log.Fatalf("load catalog: %v", err)
	}

	db, err := repository.OpenSQLite(cfg.LayoutDBPath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	repo := repository.New(db)
	if err := repo.Init(context.Background()); err != nil {
		log.Fatalf("init db: %v", err)
	}

	queue := service.NewWriteQueue(repo, time.Duration(cfg.PersistTimeoutSecs)*time.Second)
	registry := service.NewRegistry(repo, queue, scope)
	sessions := service.NewSessionManager()
	layoutHandler := handlers.NewLayoutHandler(sessions, registry, cat)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		AppName:      "Layout Service",
	})

	// ============================================================
	// Global Middleware
	// ============================================================

	app.Use(recover.New())
	app.Use(middleware.Logger("layout"))
	app.Use(middleware.CORS(cfg.CORSOrigins))

	// ============================================================
	// Health Check Routes
	// ============================================================

	app.Get("/health/live", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "alive"})
	})

	app.Get("/health/ready", func(c fiber.Ctx) error {
		if err := repo.Ping(c.Context()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "not ready"})
		}
		return c.JSON(fiber.Map{"status": "ready"})
	})

	// ============================================================
	// Layout Routes
	// ============================================================

	handlers.Register(app, layoutHandler)

	// ============================================================
	// Server Start
	// ============================================================

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("Starting Layout Service on %s (env: %s, collapse scope: %s)", addr, cfg.Environment, scope)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.Listen(addr)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Printf("[LAYOUT] shutdown: %v", err)
		}
		if err := queue.Flush(shutdownCtx); err != nil {
			log.Printf("[PERSIST] flush on shutdown: %v", err)
		}
		return queue.Close()
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Layout Service stopped: %v", err)
	}
}
