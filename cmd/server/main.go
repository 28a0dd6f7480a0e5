package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/foxxcyber/family-organizer/internal/config"
	"github.com/foxxcyber/family-organizer/internal/database"
	"github.com/foxxcyber/family-organizer/internal/handlers"
	"github.com/foxxcyber/family-organizer/internal/services"
)

func main() {
	// Load .env file if it exists
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zlog.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database
	db, err := database.Connect(ctx, cfg.DatabaseURL, zlog)
	if err != nil {
		zlog.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	if err := database.RunMigrations(ctx, db); err != nil {
		zlog.Fatal("failed to run migrations", zap.Error(err))
	}

	// Optional collaborators stay nil when not configured
	var gen services.ContentGenerator
	if gemini, err := services.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel); err == nil {
		gen = gemini
		zlog.Info("AI generation enabled", zap.String("model", cfg.GeminiModel))
	} else {
		zlog.Warn("AI generation disabled", zap.Error(err))
	}

	var mailer services.Mailer
	if smtp, err := services.NewSMTPMailer(cfg); err == nil {
		mailer = smtp
	} else if !errors.Is(err, services.ErrEmailDisabled) {
		zlog.Warn("failed to set up SMTP", zap.Error(err))
	} else {
		zlog.Info("email invites disabled")
	}

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		if err := db.Pool.Ping(c.Context()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "database unavailable"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	h := handlers.New(db, cfg, zlog, gen, mailer)
	h.RegisterRoutes(app)

	go func() {
		<-ctx.Done()
		zlog.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			zlog.Error("shutdown failed", zap.Error(err))
		}
	}()

	zlog.Info("server starting", zap.String("port", cfg.Port))
	if err := app.Listen(":" + cfg.Port); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}
