package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	sqlgateerrors "sqlgate/pkg/errors"
)

// ErrorResponse represents a standard API error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code,omitempty"`
}

// SuccessResponse represents a standard API success response
type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// RespondError writes an error response
func RespondError(c *gin.Context, statusCode int, errorMsg string) {
	c.JSON(statusCode, ErrorResponse{
		Error: errorMsg,
		Code:  statusCode,
	})
}

// RespondSuccess writes a success response
func RespondSuccess(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data:    data,
		Message: message,
	})
}

// statusFor maps classified pool errors onto HTTP status codes.
// Unclassified errors are the driver's own execution failures (bad
// query, constraint violation) and belong to the caller.
func statusFor(err error) int {
	switch {
	case errors.Is(err, sqlgateerrors.ErrPoolNotFound):
		return http.StatusNotFound
	case errors.Is(err, sqlgateerrors.ErrInvalidConfig):
		return http.StatusBadRequest
	case errors.Is(err, sqlgateerrors.ErrConnectionFailed),
		errors.Is(err, sqlgateerrors.ErrManagerClosed),
		errors.Is(err, sqlgateerrors.ErrPoolClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}
