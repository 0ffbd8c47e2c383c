package errors

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Middleware assigns a request id and renders any *AppError left on the
// gin context as {kind, message, request_id} with the matching HTTP status.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.New().String()
		c.Set("RequestID", requestID)
		c.Header("X-Request-ID", requestID)

		c.Next()

		if len(c.Errors) > 0 {
			Err(c, c.Errors[0].Err)
			c.Abort()
		}
	}
}

// Recovery turns a panic into a 500 AppError rather than crashing the
// process; panics in request handlers are bugs, not data errors, but the
// server must stay up for other workspaces.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				requestID, _ := c.Get("RequestID")
				id, _ := requestID.(string)

				var appErr *AppError
				if err, ok := r.(error); ok {
					appErr = Internal("panic recovered", err).WithRequestID(id)
				} else {
					appErr = Internal(fmt.Sprintf("panic recovered: %v", r), nil).WithRequestID(id)
				}
				c.JSON(http.StatusInternalServerError, appErr)
				c.Abort()
			}
		}()
		c.Next()
	}
}

// Err writes err as the JSON response body with the appropriate status.
func Err(c *gin.Context, err error) {
	requestID := c.GetString("RequestID")

	if appErr, ok := AsAppError(err); ok {
		if requestID != "" {
			appErr.RequestID = requestID
		}
		c.JSON(appErr.HTTPCode, appErr)
		return
	}

	c.JSON(http.StatusInternalServerError, &AppError{
		Kind:      KindInternal,
		Message:   err.Error(),
		HTTPCode:  http.StatusInternalServerError,
		RequestID: requestID,
	})
}
