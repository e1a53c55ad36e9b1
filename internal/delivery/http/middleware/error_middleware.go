package middleware

import (
	"errors"
	"net/http"

	"github.com/divyadhiman22/MyNotes/internal/delivery/http/response"
	"github.com/divyadhiman22/MyNotes/pkg/apperror"
	"github.com/divyadhiman22/MyNotes/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ErrorHandler renders the last error pushed with c.Error. Internal errors
// are logged and replaced by a generic message.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		reqID, _ := c.Get("RequestID")

		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			if appErr.Code >= http.StatusInternalServerError {
				logger.Log.Error("request failed",
					"request_id", reqID,
					"path", c.Request.URL.Path,
					"kind", appErr.Kind,
					"error", err,
				)
			}
			response.AppError(c, appErr, nil)
			return
		}

		logger.Log.Error("internal server error",
			"request_id", reqID,
			"path", c.Request.URL.Path,
			"error", err,
		)
		response.AppError(c, apperror.Internal(err), nil)
	}
}
