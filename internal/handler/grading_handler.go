package handler

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/prapars-lang/kai/internal/dto"
	"github.com/prapars-lang/kai/internal/middleware"
	"github.com/prapars-lang/kai/internal/observability"
	"github.com/prapars-lang/kai/internal/service"
	"github.com/prapars-lang/kai/internal/utils"
)

// GradingHandler wires the teacher grading workflow: the single editing
// session, and bulk AI grading with live progress over websocket.
type GradingHandler struct {
	grading service.GradingService
	bulk    service.BulkService
	stats   service.StatsService
	logger  zerolog.Logger
}

// NewGradingHandler constructs the handler.
func NewGradingHandler(grading service.GradingService, bulk service.BulkService, stats service.StatsService, logger zerolog.Logger) *GradingHandler {
	return &GradingHandler{
		grading: grading,
		bulk:    bulk,
		stats:   stats,
		logger:  logger.With().Str("component", "grading_handler").Logger(),
	}
}

// Register attaches grading endpoints to the router group.
func (h *GradingHandler) Register(router fiber.Router) {
	router.Post("/:id/start", h.start)
	router.Get("/session", h.session)
	router.Patch("/session/dimension", h.updateDimension)
	router.Patch("/session/comment", h.updateComment)
	router.Post("/session/auto", h.autoGrade)
	router.Post("/session/save", h.save)
	router.Delete("/session", h.cancel)

	router.Post("/bulk", h.bulkGrade)
	router.Use("/bulk/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			ctx := c.UserContext()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx = middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
			c.Locals("request_ctx", ctx)
			c.Locals("ws_actor", actorFromContext(c))
			c.Locals("ws_criteria", criteriaFromQuery(c))
			c.Locals("ws_sort", sortKeyFromQuery(c))
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	router.Get("/bulk/ws", websocket.New(h.bulkGradeWS))
}

func (h *GradingHandler) start(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	session, err := h.grading.Start(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "grading session started", session)
}

func (h *GradingHandler) session(c *fiber.Ctx) error {
	session, active := h.grading.Session()
	if !active {
		return utils.SendError(c, fiber.StatusNotFound, "no grading session in progress")
	}

	return utils.SendSuccess(c, "grading session retrieved", session)
}

func (h *GradingHandler) updateDimension(c *fiber.Ctx) error {
	var payload dto.DimensionUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	session, err := h.grading.UpdateDimension(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "dimension updated", session)
}

func (h *GradingHandler) updateComment(c *fiber.Ctx) error {
	var payload dto.CommentUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	session, err := h.grading.UpdateComment(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "comment updated", session)
}

func (h *GradingHandler) autoGrade(c *fiber.Ctx) error {
	session, err := h.grading.AutoGrade(c.Context())
	if err != nil {
		if errors.Is(err, service.ErrNoEditingSession) {
			return h.handleError(c, err)
		}
		requestLogger(h.logger, c).Warn().Err(err).Msg("ai suggestion unavailable")
		return utils.SendError(c, fiber.StatusBadGateway, "ai suggestion unavailable, try again or grade manually")
	}

	return utils.SendSuccess(c, "ai suggestion applied", session)
}

func (h *GradingHandler) save(c *fiber.Ctx) error {
	submission, err := h.grading.Save(c.Context(), actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	h.stats.Invalidate(c.Context())

	return utils.SendSuccess(c, "review saved", submission)
}

func (h *GradingHandler) cancel(c *fiber.Ctx) error {
	if err := h.grading.Cancel(); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "grading session cancelled", nil)
}

func (h *GradingHandler) bulkGrade(c *fiber.Ctx) error {
	report, err := h.bulk.GradeAll(c.Context(), criteriaFromQuery(c), sortKeyFromQuery(c), actorFromContext(c), nil)
	if err != nil {
		return h.handleError(c, err)
	}

	recordBulkOutcomes(report)
	h.stats.Invalidate(c.Context())

	return utils.SendSuccess(c, "bulk grading finished", report)
}

// bulkProgressMessage frames websocket payloads during a bulk run.
type bulkProgressMessage struct {
	Type     string            `json:"type"`
	Progress *dto.BulkProgress `json:"progress,omitempty"`
	Report   *dto.BulkReport   `json:"report,omitempty"`
	Error    string            `json:"error,omitempty"`
}

func (h *GradingHandler) bulkGradeWS(conn *websocket.Conn) {
	defer conn.Close()

	ctx, ok := conn.Locals("request_ctx").(context.Context)
	if !ok || ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	actor, _ := conn.Locals("ws_actor").(service.Actor)
	criteria, _ := conn.Locals("ws_criteria").(service.Criteria)
	sortKey, ok := conn.Locals("ws_sort").(service.SortKey)
	if !ok {
		sortKey = service.SortLatest
	}

	// A read pump watches for the client going away so the run stops instead
	// of grading into a closed socket.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	observer := service.BulkObserverFunc(func(progress dto.BulkProgress) {
		message := bulkProgressMessage{Type: "progress", Progress: &progress}
		if err := conn.WriteJSON(message); err != nil {
			cancel()
		}
	})

	h.logger.Info().Str("teacher", actor.Name).Msg("bulk grading websocket connected")

	report, err := h.bulk.GradeAll(ctx, criteria, sortKey, actor, observer)
	if err != nil && !errors.Is(err, context.Canceled) {
		_ = conn.WriteJSON(bulkProgressMessage{Type: "error", Error: err.Error()})
		return
	}

	recordBulkOutcomes(report)
	h.stats.Invalidate(context.Background())

	_ = conn.WriteJSON(bulkProgressMessage{Type: "report", Report: &report})
	h.logger.Info().Int("graded", report.Graded).Msg("bulk grading websocket finished")
}

func recordBulkOutcomes(report dto.BulkReport) {
	for _, item := range report.Items {
		observability.BulkGraded().WithLabelValues(item.Outcome).Inc()
	}
}

func (h *GradingHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "submission not found")
	case errors.Is(err, service.ErrSessionActive):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrNoEditingSession):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrBulkRunning):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrUnknownDimension):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("grading request failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "grading request failed")
	}
}
