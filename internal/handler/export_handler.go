package handler

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/prapars-lang/kai/internal/service"
	"github.com/prapars-lang/kai/internal/utils"
)

// ExportHandler serves the score spreadsheet and the printable class report.
type ExportHandler struct {
	service service.ExportService
	logger  zerolog.Logger
}

// NewExportHandler constructs the handler.
func NewExportHandler(service service.ExportService, logger zerolog.Logger) *ExportHandler {
	return &ExportHandler{
		service: service,
		logger:  logger.With().Str("component", "export_handler").Logger(),
	}
}

// Register attaches the export routes to the provided router group.
func (h *ExportHandler) Register(router fiber.Router) {
	router.Get("/export/csv", h.csv)
	router.Get("/export/report", h.report)
}

func (h *ExportHandler) csv(c *fiber.Ctx) error {
	export, err := h.service.CSV(c.Context())
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("csv export failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "csv export failed")
	}

	// The Thai filename needs RFC 5987 encoding for the download header.
	c.Set(fiber.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="scores.csv"; filename*=UTF-8''%s`, url.PathEscape(export.Filename)))
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")

	return c.Send(export.Content)
}

func (h *ExportHandler) report(c *fiber.Ctx) error {
	request := service.ReportRequest{
		Grade:        strings.TrimSpace(c.Query("grade")),
		Room:         strings.TrimSpace(c.Query("room")),
		ActivityType: strings.TrimSpace(c.Query("activity")),
	}

	report, err := h.service.Report(c.Context(), request)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoMatchingRecords):
			return utils.SendError(c, fiber.StatusNotFound, "no matching records for the selected classroom")
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("report rendering failed")
			return utils.SendError(c, fiber.StatusInternalServerError, "report rendering failed")
		}
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)

	return c.Send(report)
}
