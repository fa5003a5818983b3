package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/prapars-lang/kai/internal/repository"
	"github.com/prapars-lang/kai/internal/service"
	"github.com/prapars-lang/kai/internal/utils"
)

// ActivityHandler exposes the grading audit trail.
type ActivityHandler struct {
	recorder service.ActivityRecorder
	logger   zerolog.Logger
}

// NewActivityHandler constructs the handler.
func NewActivityHandler(recorder service.ActivityRecorder, logger zerolog.Logger) *ActivityHandler {
	return &ActivityHandler{
		recorder: recorder,
		logger:   logger.With().Str("component", "activity_handler").Logger(),
	}
}

// Register attaches the activity route to the provided router group.
func (h *ActivityHandler) Register(router fiber.Router) {
	router.Get("/activity", h.list)
}

func (h *ActivityHandler) list(c *fiber.Ctx) error {
	filter := repository.ActivityLogFilter{
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("page_size", 20),
		Action:   strings.TrimSpace(c.Query("action")),
	}
	if rowID := c.QueryInt("row_id", 0); rowID > 0 {
		id := uint(rowID)
		filter.RowID = &id
	}

	entries, total, err := h.recorder.List(c.Context(), filter)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("activity listing failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "activity listing failed")
	}

	return utils.SendSuccess(c, "activity retrieved", fiber.Map{
		"entries": entries,
		"total":   total,
	})
}
