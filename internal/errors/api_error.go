package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIError represents a simple standardized error response.
// The link metadata and upload endpoints share this shape so the admin UI
// can read the message from a single "error" field.
type APIError struct {
	Error   string                 `json:"error"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// NewAPIError creates a new APIError with the given message and optional details.
func NewAPIError(message string, details map[string]interface{}) *APIError {
	return &APIError{
		Error:   message,
		Details: details,
	}
}

// BadRequest sends a 400 Bad Request response without aborting.
func BadRequest(c *gin.Context, message string, details map[string]interface{}) {
	c.JSON(http.StatusBadRequest, NewAPIError(message, details))
}

// Internal sends a 500 Internal Server Error response without aborting.
// The message is shown to users as-is, so never pass raw upstream errors.
func Internal(c *gin.Context, message string, details map[string]interface{}) {
	c.JSON(http.StatusInternalServerError, NewAPIError(message, details))
}

// AbortWithNotFound sends a 404 Not Found response and aborts the request.
func AbortWithNotFound(c *gin.Context, message string, details map[string]interface{}) {
	c.AbortWithStatusJSON(http.StatusNotFound, NewAPIError(message, details))
}

// NoRoute is registered as the router fallback for unknown paths.
func NoRoute(c *gin.Context) {
	AbortWithNotFound(c, "Not found", map[string]interface{}{
		"path": c.Request.URL.Path,
	})
}
