package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse defines the structure of error responses
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// ErrorHandler is a middleware to catch panics and return structured errors
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				Logger := GetLogger()
				Logger.Error("Unhandled panic", zap.Any("error", err))

				c.JSON(http.StatusInternalServerError, ErrorResponse{
					Code:    "internal_error",
					Message: "Internal Server Error",
					Details: "An unexpected error occurred. Please try again later.",
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// statusForCode maps domain error codes onto HTTP statuses.
func statusForCode(code string) int {
	switch code {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeCapacityExhausted:
		return http.StatusConflict
	case CodeInvalidTransition:
		return http.StatusConflict
	case CodeOwnership:
		return http.StatusForbidden
	case CodeUpload:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// RespondError resolves a service failure to a JSON response. Typed domain
// errors keep their code; anything else is reported as an internal error
// without leaking details to the caller.
func RespondError(c *gin.Context, err error) {
	logger := GetLogger()
	if de, ok := AsError(err); ok {
		logger.Warn("request failed", zap.String("code", de.Code), zap.String("message", de.Message))
		c.JSON(statusForCode(de.Code), ErrorResponse{Code: de.Code, Message: de.Message})
		return
	}
	logger.Error("request failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Code:    "internal_error",
		Message: "Internal Server Error",
	})
}

// JSONError sends a standardized JSON error response
func JSONError(c *gin.Context, status int, message string, details string) {
	Logger := GetLogger()
	Logger.Warn(message, zap.String("details", details))
	c.JSON(status, ErrorResponse{Message: message, Details: details})
}
