package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-invoice-dashboard/internal/http/middleware"
	"github.com/tbourn/go-invoice-dashboard/internal/services"
)

// ErrorResponse is the body of every non-2xx answer:
//
//	{"request_id": "...", "code": "validation_failed", "message": "invalid invoice form",
//	 "issues": [{"field": "amount", "message": "must be a number"}]}
type ErrorResponse struct {
	// Echo of X-Request-ID
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// One of the ErrCode constants
	Code    string `json:"code" example:"not_found"`
	Message string `json:"message" example:"invoice not found"`
	// Only set for validation_failed
	Issues []services.FieldIssue `json:"issues,omitempty"`
}

func requestID(c *gin.Context) string {
	return c.Writer.Header().Get("X-Request-ID")
}

// fail aborts with an ErrorResponse. Server-side failures are logged on the
// request logger; client errors are not.
func fail(c *gin.Context, status int, code, msg string) {
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("invoice api error")
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: requestID(c),
		Code:      code,
		Message:   msg,
	})
}

// Fail lets the router answer NoRoute and NoMethod with the same envelope.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

func failValidation(c *gin.Context, msg string, issues []services.FieldIssue) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
		RequestID: requestID(c),
		Code:      ErrCodeValidationFailed,
		Message:   msg,
		Issues:    issues,
	})
}

func ok(c *gin.Context, status int, body any) { c.JSON(status, body) }

func noContent(c *gin.Context) { c.Status(http.StatusNoContent) }

// seeOther finishes a form action by sending the browser to location.
func seeOther(c *gin.Context, location string) {
	c.Redirect(http.StatusSeeOther, location)
}
