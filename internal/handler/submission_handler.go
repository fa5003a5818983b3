package handler

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/prapars-lang/kai/internal/dto"
	"github.com/prapars-lang/kai/internal/middleware"
	"github.com/prapars-lang/kai/internal/service"
	"github.com/prapars-lang/kai/internal/utils"
)

// SubmissionHandler manages the student-facing submission endpoints.
type SubmissionHandler struct {
	service service.SubmissionService
	watcher *service.ResultWatcher
	logger  zerolog.Logger
}

// NewSubmissionHandler builds a submission handler instance.
func NewSubmissionHandler(service service.SubmissionService, watcher *service.ResultWatcher, logger zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		service: service,
		watcher: watcher,
		logger:  logger.With().Str("component", "submission_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *SubmissionHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Get("/result", h.result)

	router.Use("/result/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			ctx := c.UserContext()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx = middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
			c.Locals("request_ctx", ctx)
			c.Locals("ws_query", resultQueryFromRequest(c))
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	router.Get("/result/ws", websocket.New(h.resultWS))
}

func resultQueryFromRequest(c *fiber.Ctx) dto.ResultQuery {
	return dto.ResultQuery{
		Name:         strings.TrimSpace(c.Query("name")),
		Grade:        strings.TrimSpace(c.Query("grade")),
		Room:         strings.TrimSpace(c.Query("room")),
		ActivityType: strings.TrimSpace(c.Query("activityType")),
	}
}

// resultWS streams result updates while a student waits for grading. The
// watch stops itself once the result turns graded or the student leaves.
func (h *SubmissionHandler) resultWS(conn *websocket.Conn) {
	defer conn.Close()

	ctx, ok := conn.Locals("request_ctx").(context.Context)
	if !ok || ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	query, _ := conn.Locals("ws_query").(dto.ResultQuery)

	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for update := range h.watcher.Watch(ctx, query) {
		if err := conn.WriteJSON(update); err != nil {
			cancel()
			return
		}
	}
}

func (h *SubmissionHandler) list(c *fiber.Ctx) error {
	submissions, err := h.service.List(c.Context(), criteriaFromQuery(c), sortKeyFromQuery(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submissions retrieved", submissions)
}

func (h *SubmissionHandler) create(c *fiber.Ctx) error {
	payload := dto.SubmissionCreateRequest{
		Name:          strings.TrimSpace(c.FormValue("name")),
		StudentNumber: strings.TrimSpace(c.FormValue("studentNumber")),
		Grade:         strings.TrimSpace(c.FormValue("grade")),
		Room:          strings.TrimSpace(c.FormValue("room")),
		ActivityType:  strings.TrimSpace(c.FormValue("activityType")),
	}

	file, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "video file is required")
	}

	submission, err := h.service.Create(c.Context(), payload, file)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "submission received", submission)
}

func (h *SubmissionHandler) result(c *fiber.Ctx) error {
	query := dto.ResultQuery{
		Name:         strings.TrimSpace(c.Query("name")),
		Grade:        strings.TrimSpace(c.Query("grade")),
		Room:         strings.TrimSpace(c.Query("room")),
		ActivityType: strings.TrimSpace(c.Query("activityType")),
	}

	result, err := h.service.Result(c.Context(), query)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "result retrieved", result)
}

func (h *SubmissionHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "submission not found")
	case errors.Is(err, service.ErrUnsupportedFileType):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("submission request failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "request failed")
	}
}
