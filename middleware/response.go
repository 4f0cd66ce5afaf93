package middleware

import (
	"lms/apperrors"
	"log"

	"github.com/gofiber/fiber/v2"
)

func JsonResponse(c *fiber.Ctx, statusCode int, status bool, message string, data interface{}) error {
	return c.Status(statusCode).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"data":    data,
	})
}

func ValidationErrorResponse(c *fiber.Ctx, errors map[string]string) error {
	return JsonResponse(c, fiber.StatusUnprocessableEntity, false, "Validation failed!", errors)
}

// ErrorResponse renders a service error. Typed apperrors carry their own
// status and reason code; anything else is an internal failure that must
// not leak detail to the client.
func ErrorResponse(c *fiber.Ctx, err error) error {
	if appErr, ok := apperrors.AsAppError(err); ok {
		return c.Status(appErr.Status).JSON(fiber.Map{
			"status":  false,
			"message": appErr.Message,
			"code":    appErr.Code,
			"data":    appErr.Data,
		})
	}

	log.Printf("[HTTP] internal error on %s %s: %v", c.Method(), c.Path(), err)
	return JsonResponse(c, fiber.StatusInternalServerError, false, "Something went wrong, please try again!", nil)
}
