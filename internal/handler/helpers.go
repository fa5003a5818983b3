package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/prapars-lang/kai/internal/middleware"
	"github.com/prapars-lang/kai/internal/service"
)

func parseUintParam(c *fiber.Ctx, name string) (uint, error) {
	value := c.Params(name)
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, errors.New("invalid identifier")
	}
	return uint(parsed), nil
}

func actorFromContext(c *fiber.Ctx) service.Actor {
	return service.Actor{
		ID:   middleware.TeacherID(c),
		Name: middleware.TeacherName(c),
	}
}

// criteriaFromQuery reads the list filter the way the grading table sends it.
func criteriaFromQuery(c *fiber.Ctx) service.Criteria {
	return service.Criteria{
		Search:       strings.TrimSpace(c.Query("search")),
		Grade:        strings.TrimSpace(c.Query("grade")),
		Room:         strings.TrimSpace(c.Query("room")),
		ActivityType: strings.TrimSpace(c.Query("activity")),
		Status:       strings.TrimSpace(c.Query("status")),
	}
}

func sortKeyFromQuery(c *fiber.Ctx) service.SortKey {
	switch key := service.SortKey(strings.TrimSpace(c.Query("sort"))); key {
	case service.SortOldest, service.SortScoreHigh, service.SortScoreLow:
		return key
	default:
		return service.SortLatest
	}
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}
