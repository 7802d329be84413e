package http

import (
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"beaconly/internal/events"
	"beaconly/internal/pkg/geoip"
)

// TrackHandler accepts beacon payloads from browsers and hands them to the
// recorder. Payloads are forgiving: unknown fields are kept as metadata and
// missing identifiers are generated server side.
type TrackHandler struct {
	recorder *events.Recorder
	geo      *geoip.Resolver
	logger   *slog.Logger
}

func NewTrackHandler(recorder *events.Recorder, geo *geoip.Resolver, logger *slog.Logger) *TrackHandler {
	return &TrackHandler{recorder: recorder, geo: geo, logger: logger}
}

func (h *TrackHandler) Session(c *fiber.Ctx) error {
	return h.track(c, h.recorder.TrackSession)
}

func (h *TrackHandler) PageView(c *fiber.Ctx) error {
	return h.track(c, h.recorder.TrackPageView)
}

func (h *TrackHandler) Ping(c *fiber.Ctx) error {
	return h.track(c, h.recorder.TrackPing)
}

func (h *TrackHandler) Click(c *fiber.Ctx) error {
	return h.track(c, h.recorder.TrackClick)
}

func (h *TrackHandler) Goal(c *fiber.Ctx) error {
	return h.track(c, h.recorder.TrackGoal)
}

func (h *TrackHandler) track(c *fiber.Ctx, record func(events.Payload) error) error {
	payload := events.Payload{}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&payload); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
		}
	}
	h.enrich(c, payload)
	if err := record(payload); err != nil {
		h.logger.Error("failed to record event", "path", c.Path(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to record event"})
	}
	return c.JSON(fiber.Map{"success": true})
}

// enrich fills in client details from request headers when the payload does
// not carry them itself. Header values come from the usual proxy and CDN
// conventions; payload values always win.
func (h *TrackHandler) enrich(c *fiber.Ctx, p events.Payload) {
	if !p.Has("userAgent") && !p.Has("user_agent") {
		if ua := c.Get("User-Agent"); ua != "" {
			p["userAgent"] = ua
		}
	}
	ip := clientIP(c)
	if !p.Has("ipAddress") && !p.Has("ip_address") && ip != "" {
		p["ipAddress"] = ip
	}
	if !p.Has("city") {
		if city := firstHeader(c, "cf-ipcity", "x-vercel-ip-city", "x-appengine-city"); city != "" {
			p["city"] = city
		}
	}
	if !p.Has("country") {
		if country := firstHeader(c, "cf-ipcountry", "x-vercel-ip-country", "x-appengine-country"); country != "" {
			p["country"] = country
		}
	}
	if h.geo != nil && ip != "" && (!p.Has("country") || !p.Has("city")) {
		country, city := h.geo.Lookup(ip)
		if !p.Has("country") && country != "" {
			p["country"] = country
		}
		if !p.Has("city") && city != "" {
			p["city"] = city
		}
	}
}

func clientIP(c *fiber.Ctx) string {
	if fwd := c.Get("x-forwarded-for"); fwd != "" {
		if idx := strings.Index(fwd, ","); idx >= 0 {
			fwd = fwd[:idx]
		}
		return strings.TrimSpace(fwd)
	}
	if real := c.Get("x-real-ip"); real != "" {
		return real
	}
	return c.IP()
}

func firstHeader(c *fiber.Ctx, names ...string) string {
	for _, name := range names {
		if v := c.Get(name); v != "" {
			return v
		}
	}
	return ""
}
