package internal

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"gorm.io/gorm"

	"beaconly/internal/config"
	"beaconly/internal/events"
	"beaconly/internal/http"
	"beaconly/internal/http/middleware"
	"beaconly/internal/pkg/geoip"
	"beaconly/internal/reports"
	"beaconly/internal/timerange"
)

// publicCORSConfig is the permissive CORS setup shared by all public
// endpoints: beacons and reads come from arbitrary origins.
var publicCORSConfig = cors.Config{
	AllowOrigins: "*",
	AllowMethods: "POST,GET,OPTIONS",
	AllowHeaders: "Origin, Content-Type, Accept, Authorization, Referrer, User-Agent",
}

// MountRoutes wires the full API surface onto the fiber app.
func MountRoutes(app *fiber.App, db *gorm.DB, geo *geoip.Resolver, logger *slog.Logger) {
	cfg := config.GetConfig()

	recorder := events.NewRecorder(db, logger)
	reader := reports.NewReader(db, logger, cfg.GetQueryTimeout())
	resolver := timerange.NewResolver()

	trackHandler := http.NewTrackHandler(recorder, geo, logger)
	statsHandler := http.NewStatsHandler(reader, resolver, logger)
	reportsHandler := http.NewReportsHandler(reader, resolver, logger)
	authHandler := http.NewAuthHandler(db, cfg.GetLoginSessionTimeout(), logger)

	app.Use(cors.New(publicCORSConfig))
	app.Use(middleware.Identify(db, logger))

	app.Get("/health", http.Health)

	track := app.Group("/api/track")
	track.Post("/session", trackHandler.Session)
	track.Post("/view", trackHandler.PageView)
	track.Post("/ping", trackHandler.Ping)
	track.Post("/click", trackHandler.Click)
	track.Post("/goal", trackHandler.Goal)

	stats := app.Group("/api/stats")
	stats.Get("/summary", statsHandler.Summary)
	stats.Get("/sessions", statsHandler.Sessions)
	stats.Get("/accesses", statsHandler.Accesses)
	stats.Get("/pings", statsHandler.Pings)
	stats.Get("/clicks", statsHandler.Clicks)
	stats.Get("/goals", statsHandler.Goals)

	reportsGroup := app.Group("/api/reports")
	reportsGroup.Get("/overview", reportsHandler.Overview)
	reportsGroup.Get("/timeseries", reportsHandler.Timeseries)
	reportsGroup.Get("/top-links", reportsHandler.TopLinks)
	reportsGroup.Get("/top-setup-items", reportsHandler.TopSetupItems)
	reportsGroup.Get("/pages", reportsHandler.Pages)
	reportsGroup.Get("/devices", reportsHandler.Devices)
	reportsGroup.Get("/device-top", reportsHandler.DeviceTop)
	reportsGroup.Get("/cities", reportsHandler.Cities)
	reportsGroup.Get("/button-clicks", reportsHandler.ButtonClicks)
	reportsGroup.Get("/base-accesses", reportsHandler.BaseAccesses)
	reportsGroup.Get("/session-duration", reportsHandler.SessionDuration)

	auth := app.Group("/api/auth")
	auth.Post("/login", authHandler.Login)
	auth.Post("/logout", authHandler.Logout)
}
