package http

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"beaconly/internal/reports"
	"beaconly/internal/timerange"
)

// rangeQuery reads the period/from/to query parameters shared by all
// stats and reports endpoints.
func rangeQuery(c *fiber.Ctx) timerange.Query {
	return timerange.Query{
		Period: timerange.Period(c.Query("period")),
		From:   c.Query("from"),
		To:     c.Query("to"),
	}
}

// envelope echoes the resolved range back to the caller alongside the data.
type envelope struct {
	Period string      `json:"period"`
	From   string      `json:"from"`
	To     string      `json:"to"`
	Data   interface{} `json:"data"`
}

func respondWithRange(c *fiber.Ctx, q timerange.Query, rng *timerange.Range, data interface{}) error {
	bounds := timerange.OrEpoch(rng, time.Now().UTC())
	return c.JSON(envelope{
		Period: string(q.Label()),
		From:   bounds.GTE.Format(time.RFC3339),
		To:     bounds.LTE.Format(time.RFC3339),
		Data:   data,
	})
}

func respondError(c *fiber.Ctx, logger *slog.Logger, err error) error {
	switch {
	case errors.Is(err, timerange.ErrInvalidRange):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid time range"})
	case errors.Is(err, reports.ErrTimeout):
		logger.Warn("query timed out", "path", c.Path(), "error", err)
		return c.Status(fiber.StatusGatewayTimeout).JSON(fiber.Map{"error": "query timed out"})
	default:
		logger.Error("request failed", "path", c.Path(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
}
