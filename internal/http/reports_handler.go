package http

import (
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"beaconly/internal/reports"
	"beaconly/internal/rollup"
	"beaconly/internal/timerange"
)

// ReportsHandler serves the derived views: overview ratios, timeseries and
// dimensional breakdowns over the raw event tables.
type ReportsHandler struct {
	reader   *reports.Reader
	resolver *timerange.Resolver
	logger   *slog.Logger
}

func NewReportsHandler(reader *reports.Reader, resolver *timerange.Resolver, logger *slog.Logger) *ReportsHandler {
	return &ReportsHandler{reader: reader, resolver: resolver, logger: logger}
}

func (h *ReportsHandler) resolve(c *fiber.Ctx) (timerange.Query, *timerange.Range, error) {
	q := rangeQuery(c)
	rng, err := h.resolver.Resolve(q)
	return q, rng, err
}

// limit reads the breakdown row cap. The default applies only when the
// parameter is absent or unparsable; an explicit value, zero included, is
// clamped into bounds instead.
func (h *ReportsHandler) limit(c *fiber.Ctx) int {
	raw := c.Query("limit")
	if raw == "" {
		return reports.DefaultLimit
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return reports.DefaultLimit
	}
	if n < 1 {
		return 1
	}
	return reports.ClampLimit(n)
}

func (h *ReportsHandler) Overview(c *fiber.Ctx) error {
	q, rng, err := h.resolve(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	overview, err := h.reader.Overview(rng)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return respondWithRange(c, q, rng, overview)
}

func (h *ReportsHandler) Timeseries(c *fiber.Ctx) error {
	q, rng, err := h.resolve(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	if name := c.Query("metric"); name != "" {
		metric, err := rollup.ParseMetric(name)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown metric"})
		}
		points, err := h.reader.TimeseriesForMetric(rng, metric)
		if err != nil {
			return respondError(c, h.logger, err)
		}
		return respondWithRange(c, q, rng, points)
	}
	points, err := h.reader.Timeseries(rng)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return respondWithRange(c, q, rng, points)
}

func (h *ReportsHandler) TopLinks(c *fiber.Ctx) error {
	q, rng, err := h.resolve(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	links, err := h.reader.TopLinks(rng, h.limit(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return respondWithRange(c, q, rng, links)
}

func (h *ReportsHandler) TopSetupItems(c *fiber.Ctx) error {
	q, rng, err := h.resolve(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	items, err := h.reader.TopSetupItems(rng, h.limit(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return respondWithRange(c, q, rng, items)
}

func (h *ReportsHandler) Pages(c *fiber.Ctx) error {
	q, rng, err := h.resolve(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	pages, err := h.reader.Pages(rng, h.limit(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return respondWithRange(c, q, rng, pages)
}

func (h *ReportsHandler) Devices(c *fiber.Ctx) error {
	q, rng, err := h.resolve(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	devices, err := h.reader.Devices(rng, h.limit(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return respondWithRange(c, q, rng, devices)
}

func (h *ReportsHandler) DeviceTop(c *fiber.Ctx) error {
	q, rng, err := h.resolve(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	top, err := h.reader.DeviceTop(rng)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return respondWithRange(c, q, rng, top)
}

func (h *ReportsHandler) Cities(c *fiber.Ctx) error {
	q, rng, err := h.resolve(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	cities, err := h.reader.Cities(rng, h.limit(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return respondWithRange(c, q, rng, cities)
}

func (h *ReportsHandler) ButtonClicks(c *fiber.Ctx) error {
	q, rng, err := h.resolve(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	buttons, err := h.reader.ButtonClicks(rng, h.limit(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return respondWithRange(c, q, rng, buttons)
}

func (h *ReportsHandler) BaseAccesses(c *fiber.Ctx) error {
	q, rng, err := h.resolve(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	path := c.Query("path", "/")
	days, err := h.reader.BaseAccesses(rng, path, h.limit(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return respondWithRange(c, q, rng, days)
}

func (h *ReportsHandler) SessionDuration(c *fiber.Ctx) error {
	q, rng, err := h.resolve(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	summary, err := h.reader.SessionDuration(rng)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return respondWithRange(c, q, rng, summary)
}
