package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/prapars-lang/kai/internal/config"
	"github.com/prapars-lang/kai/internal/utils"
)

var startedAt = time.Now()

// HealthResponse is the payload of the liveness endpoint.
type HealthResponse struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Service     string    `json:"service"`
	Environment string    `json:"environment"`
	Uptime      string    `json:"uptime"`
}

// HealthCheck reports process liveness. It deliberately skips dependency
// probes so a flaky cache never fails the load balancer check.
func HealthCheck(cfg config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		payload := HealthResponse{
			Status:      "ok",
			Timestamp:   time.Now().UTC(),
			Service:     cfg.AppName,
			Environment: cfg.AppEnv,
			Uptime:      time.Since(startedAt).Round(time.Second).String(),
		}

		return utils.SendSuccess(c, "service healthy", payload)
	}
}
