package serverutils

import (
	"errors"

	"arthik-chat-be/internal/pkg/apperror"
	"arthik-chat-be/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

const (
	internalErrorMessage = "Failed to process message"
	internalErrorDetail  = "There was an issue processing your request. Please try again or contact support if the problem persists."
)

type ErrorBody struct {
	Message string                `json:"message"`
	Errors  []apperror.FieldError `json:"errors,omitempty"`
	Error   string                `json:"error,omitempty"`
}

func ErrorResponse(message string) ErrorBody {
	return ErrorBody{Message: message}
}

// NewErrorHandler returns the fiber.Config ErrorHandler. Internal causes are
// logged and never written to the response.
func NewErrorHandler(log logger.ILogger) fiber.ErrorHandler {
	return func(ctx *fiber.Ctx, err error) error {
		status, body := mapError(err)

		if status >= fiber.StatusInternalServerError {
			log.Error("HTTP", "Request failed", map[string]interface{}{
				"method": ctx.Method(),
				"path":   ctx.Path(),
				"error":  err,
			})
		} else {
			log.Debug("HTTP", "Request rejected", map[string]interface{}{
				"method": ctx.Method(),
				"path":   ctx.Path(),
				"status": status,
				"error":  err.Error(),
			})
		}

		return ctx.Status(status).JSON(body)
	}
}

func mapError(err error) (int, ErrorBody) {
	if appErr, ok := apperror.As(err); ok {
		switch appErr.Code {
		case apperror.CodeValidation:
			return fiber.StatusBadRequest, ErrorBody{Message: appErr.Message, Errors: appErr.Fields}
		case apperror.CodeNotFound:
			return fiber.StatusNotFound, ErrorBody{Message: appErr.Message}
		case apperror.CodeUnauthorized:
			return fiber.StatusUnauthorized, ErrorBody{Message: appErr.Message}
		}
		return fiber.StatusInternalServerError, ErrorBody{Message: internalErrorMessage, Error: internalErrorDetail}
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		switch {
		case fiberErr.Code == fiber.StatusUnprocessableEntity || fiberErr.Code == fiber.StatusBadRequest:
			// BodyParser failures
			return fiber.StatusBadRequest, ErrorBody{Message: "Invalid request body"}
		case fiberErr.Code < fiber.StatusInternalServerError:
			return fiberErr.Code, ErrorBody{Message: fiberErr.Message}
		}
	}

	return fiber.StatusInternalServerError, ErrorBody{Message: internalErrorMessage, Error: internalErrorDetail}
}
