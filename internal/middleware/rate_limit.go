package middleware

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// RateLimit creates a per-caller rate limiter middleware instance. Login gets
// one to slow PIN guessing; uploads get one to keep the portal responsive.
func RateLimit(identifier string, max int, window time.Duration) fiber.Handler {
	if max <= 0 {
		max = 10
	}
	if window <= 0 {
		window = time.Second
	}

	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			teacherID := fmt.Sprintf("%v", c.Locals("teacher_id"))
			if teacherID == "" || teacherID == "0" || teacherID == "<nil>" {
				teacherID = c.IP()
			}
			return fmt.Sprintf("%s:%s", identifier, teacherID)
		},
	})
}
