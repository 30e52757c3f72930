package handlers

import (
	"errors"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/linkmark/internal/domain"
	"github.com/serroba/linkmark/internal/markdown"
	"go.uber.org/zap"
)

// APIError is the body of every API error response.
type APIError struct {
	Status  int    `json:"status"`
	Message string `json:"error"`
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) GetStatus() int {
	return e.Status
}

// UseErrorShape makes huma produce APIError bodies, including for its own
// request validation failures.
func UseErrorShape() {
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		details := make([]string, 0, len(errs))

		for _, err := range errs {
			if err != nil {
				details = append(details, err.Error())
			}
		}

		if len(details) > 0 {
			msg += ": " + strings.Join(details, "; ")
		}

		return &APIError{Status: status, Message: msg}
	}
}

// apiError maps a service error to a status error. resource names the
// thing that was looked up, e.g. "link".
func apiError(logger *zap.Logger, err error, resource string) error {
	var validation *domain.ValidationError

	switch {
	case errors.As(err, &validation):
		return huma.Error400BadRequest(validation.Error())
	case errors.Is(err, domain.ErrNotFound):
		return huma.Error404NotFound(resource + " not found")
	case errors.Is(err, domain.ErrUnauthenticated):
		return huma.Error401Unauthorized("authentication required")
	case errors.Is(err, domain.ErrForbidden):
		return huma.Error403Forbidden("an active subscription is required")
	case errors.Is(err, domain.ErrConflict):
		return huma.Error409Conflict(strings.TrimPrefix(err.Error(), domain.ErrConflict.Error()+": "))
	case errors.Is(err, domain.ErrExhausted):
		logger.Warn("allocation exhausted", zap.String("resource", resource))

		return huma.Error500InternalServerError(
			strings.TrimPrefix(err.Error(), domain.ErrExhausted.Error()+": "))
	case errors.Is(err, markdown.ErrConversionFailed):
		return huma.Error500InternalServerError(markdown.ErrConversionFailed.Error())
	}

	logger.Error("request failed", zap.String("resource", resource), zap.Error(err))

	return huma.Error500InternalServerError("internal server error")
}
