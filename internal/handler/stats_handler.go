package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/prapars-lang/kai/internal/service"
	"github.com/prapars-lang/kai/internal/utils"
)

// StatsHandler serves the teacher dashboard aggregation.
type StatsHandler struct {
	service service.StatsService
	logger  zerolog.Logger
}

// NewStatsHandler constructs the handler.
func NewStatsHandler(service service.StatsService, logger zerolog.Logger) *StatsHandler {
	return &StatsHandler{
		service: service,
		logger:  logger.With().Str("component", "stats_handler").Logger(),
	}
}

// Register attaches the stats route to the provided router group.
func (h *StatsHandler) Register(router fiber.Router) {
	router.Get("/stats", h.stats)
}

func (h *StatsHandler) stats(c *fiber.Ctx) error {
	activity := strings.TrimSpace(c.Query("activity"))

	stats, err := h.service.Stats(c.Context(), activity)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("stats aggregation failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "stats aggregation failed")
	}

	return utils.SendSuccess(c, "stats retrieved", stats)
}
