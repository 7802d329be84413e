package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"

	"beaconly/internal"
	"beaconly/internal/admin"
	"beaconly/internal/config"
	"beaconly/internal/database"
	"beaconly/internal/logging"
	"beaconly/internal/pkg/geoip"
)

const defaultShutdownTimeout = 30 * time.Second

func main() {
	// Missing .env is fine, env vars still apply
	_ = godotenv.Load()

	cfg := config.GetConfig()
	logger := logging.NewLogger(cfg)

	dbManager := database.NewManager(cfg, logger)
	if err := dbManager.Init(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	if err := dbManager.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	db := dbManager.GetConnection()
	admin.SetupUserIfNotExists(db, logger, cfg.AdminEmail, cfg.AdminPassword)

	geo := geoip.NewResolver(cfg.GeoDBPath, logger)
	defer geo.Close()

	app := fiber.New(fiber.Config{
		AppName:               cfg.AppName,
		DisableStartupMessage: cfg.IsProduction(),
	})
	internal.MountRoutes(app, db, geo, logger)

	go func() {
		logger.Info("starting server", "port", cfg.AppPort, "environment", cfg.Environment)
		if err := app.Listen(":" + cfg.AppPort); err != nil {
			log.Fatalf("Server stopped: %v", err)
		}
	}()

	waitForShutdownSignal(app, dbManager)
}

func waitForShutdownSignal(app *fiber.App, dbManager *database.Manager) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	sig := <-sigChan
	log.Printf("Received signal: %v", sig)

	if err := app.ShutdownWithTimeout(defaultShutdownTimeout); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
	if err := dbManager.Close(); err != nil {
		log.Printf("Error closing database: %v", err)
	}
	log.Println("Server shutdown complete")
}
