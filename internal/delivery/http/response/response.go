package response

import (
	"github.com/divyadhiman22/MyNotes/pkg/apperror"

	"github.com/gin-gonic/gin"
)

// Response standardizes the API JSON response
type Response struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Kind      string      `json:"kind,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Error     interface{} `json:"error,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

func requestID(c *gin.Context) string {
	reqID, _ := c.Get("RequestID")
	idStr, _ := reqID.(string)
	return idStr
}

// Success sends a success response
func Success(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, Response{
		Success:   true,
		Message:   message,
		Data:      data,
		RequestID: requestID(c),
	})
}

// Error sends an error response
func Error(c *gin.Context, code int, message string, err interface{}) {
	c.JSON(code, Response{
		Success:   false,
		Message:   message,
		Error:     err,
		RequestID: requestID(c),
	})
}

// AppError renders a typed error with its kind so clients can branch on it.
func AppError(c *gin.Context, appErr *apperror.AppError, details interface{}) {
	c.JSON(appErr.Code, Response{
		Success:   false,
		Message:   appErr.Message,
		Kind:      string(appErr.Kind),
		Error:     details,
		RequestID: requestID(c),
	})
}
