package middleware

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/prapars-lang/kai/internal/utils"
)

// JWTProtected returns a middleware that validates JWT bearer tokens and
// binds the teacher's identity to the request.
func JWTProtected(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authorization := c.Get("Authorization")
		if authorization == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "authorization header missing")
		}

		const bearer = "Bearer "
		if !strings.HasPrefix(strings.ToLower(authorization), strings.ToLower(bearer)) {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid authorization header")
		}

		tokenString := strings.TrimSpace(authorization[len(bearer):])
		if tokenString == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token claims")
		}

		if teacherID := extractTeacherIDFromClaims(claims); teacherID != nil {
			c.Locals("teacher_id", *teacherID)
		}
		if name, ok := claims["name"].(string); ok && name != "" {
			c.Locals("teacher_name", name)
		}

		return c.Next()
	}
}

func extractTeacherIDFromClaims(claims jwt.MapClaims) *uint {
	keys := []string{"sub", "teacher_id", "id"}
	for _, key := range keys {
		if value, ok := claims[key]; ok {
			if normalized, err := normalizeTeacherID(value); err == nil {
				return &normalized
			}
		}
	}

	return nil
}

func normalizeTeacherID(value interface{}) (uint, error) {
	switch v := value.(type) {
	case float64:
		if v < 0 {
			return 0, fmt.Errorf("invalid subject")
		}
		return uint(v), nil
	case string:
		parsed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return 0, err
		}
		return uint(parsed), nil
	default:
		return 0, fmt.Errorf("unsupported subject type")
	}
}

// TeacherID returns the authenticated teacher's id, zero when absent.
func TeacherID(c *fiber.Ctx) uint {
	if value, ok := c.Locals("teacher_id").(uint); ok {
		return value
	}
	return 0
}

// TeacherName returns the authenticated teacher's display name.
func TeacherName(c *fiber.Ctx) string {
	if value, ok := c.Locals("teacher_name").(string); ok {
		return value
	}
	return ""
}
