package utils

import "github.com/gofiber/fiber/v2"

// APIResponse is the envelope every endpoint returns. Data is omitted on
// errors so clients can key purely off Success.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message"`
}

func successEnvelope(message string, data any) APIResponse {
	if message == "" {
		message = "success"
	}
	return APIResponse{Success: true, Data: data, Message: message}
}

// SendSuccess writes a 200 envelope.
func SendSuccess(c *fiber.Ctx, message string, data any) error {
	return c.Status(fiber.StatusOK).JSON(successEnvelope(message, data))
}

// SendSuccessWithStatus writes a success envelope with an explicit status,
// for endpoints that create resources.
func SendSuccessWithStatus(c *fiber.Ctx, status int, message string, data any) error {
	if status == 0 {
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(successEnvelope(message, data))
}

// SendError writes a failure envelope. Message must be safe to show to the
// caller; internal detail belongs in the request log.
func SendError(c *fiber.Ctx, status int, message string) error {
	if message == "" {
		message = "error"
	}
	return c.Status(status).JSON(APIResponse{Success: false, Message: message})
}
