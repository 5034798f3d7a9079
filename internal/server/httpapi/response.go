package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/questline/internal/common"
	"github.com/dmitrijs2005/questline/internal/logging"
	"github.com/gin-gonic/gin"
)

// Error codes carried in the envelope.
const (
	CodeBadRequest   = "bad_request"
	CodeUnauthorized = "unauthorized"
	CodeNotFound     = "not_found"
	CodeConflict     = "conflict"
	CodeRateLimited  = "rate_limited"
	CodeInternal     = "internal_error"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorEnvelope{
		Error: APIError{
			Message: message,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// respondServiceError maps a service error onto a status and envelope.
// Unexpected errors are logged and reported without detail.
func respondServiceError(c *gin.Context, logger logging.Logger, err error) {
	switch {
	case errors.Is(err, common.ErrorValidation):
		RespondError(c, http.StatusBadRequest, CodeBadRequest, err.Error())
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrInvalidToken):
		RespondError(c, http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	case errors.Is(err, common.ErrorNotFound):
		RespondError(c, http.StatusNotFound, CodeNotFound, "not found")
	case errors.Is(err, common.ErrorAlreadyExists):
		RespondError(c, http.StatusConflict, CodeConflict, err.Error())
	case errors.Is(err, common.ErrVersionConflict):
		RespondError(c, http.StatusConflict, CodeConflict, "concurrent update, please retry")
	default:
		logger.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
		RespondError(c, http.StatusInternalServerError, CodeInternal, "internal server error")
	}
}

func respondUnauthorized(c *gin.Context) {
	RespondError(c, http.StatusUnauthorized, CodeUnauthorized, "authentication required")
}

func respondBadRequest(c *gin.Context, message string) {
	RespondError(c, http.StatusBadRequest, CodeBadRequest, message)
}
