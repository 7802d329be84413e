package http

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"beaconly/internal/reports"
	"beaconly/internal/rollup"
	"beaconly/internal/timerange"
)

// StatsHandler serves the simple per-metric counters backed by the daily
// rollup table.
type StatsHandler struct {
	reader   *reports.Reader
	resolver *timerange.Resolver
	logger   *slog.Logger
}

func NewStatsHandler(reader *reports.Reader, resolver *timerange.Resolver, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{reader: reader, resolver: resolver, logger: logger}
}

func (h *StatsHandler) Summary(c *fiber.Ctx) error {
	q := rangeQuery(c)
	rng, err := h.resolver.Resolve(q)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	stats, err := h.reader.StatsByRange(rng)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return respondWithRange(c, q, rng, stats)
}

func (h *StatsHandler) Sessions(c *fiber.Ctx) error {
	return h.count(c, rollup.MetricSessions)
}

func (h *StatsHandler) Accesses(c *fiber.Ctx) error {
	return h.count(c, rollup.MetricPageViews)
}

func (h *StatsHandler) Pings(c *fiber.Ctx) error {
	return h.count(c, rollup.MetricPings)
}

func (h *StatsHandler) Clicks(c *fiber.Ctx) error {
	return h.count(c, rollup.MetricClicks)
}

func (h *StatsHandler) Goals(c *fiber.Ctx) error {
	return h.count(c, rollup.MetricGoals)
}

func (h *StatsHandler) count(c *fiber.Ctx, metric rollup.Metric) error {
	q := rangeQuery(c)
	rng, err := h.resolver.Resolve(q)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	total, err := h.reader.Count(rng, metric)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return respondWithRange(c, q, rng, fiber.Map{"count": total})
}
