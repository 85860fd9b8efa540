package http

import (
	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-client/internal/adapters/http/dto"
)

// RespondWithErrorCode writes an error envelope for code, including the
// trace ID when the request is traced.
func RespondWithErrorCode(c *gin.Context, code dto.ErrorCode, message string) {
	c.JSON(code.Status(), dto.NewErrorResponse(code, message).WithTraceID(dto.GetTraceID(c)))
}

// AbortWithErrorCode aborts the request chain with an error envelope.
func AbortWithErrorCode(c *gin.Context, code dto.ErrorCode, message string) {
	c.AbortWithStatusJSON(code.Status(), dto.NewErrorResponse(code, message).WithTraceID(dto.GetTraceID(c)))
}

func noRoute(c *gin.Context) {
	RespondWithErrorCode(c, dto.ErrorCodeNotFound, "route not found")
}

func noMethod(c *gin.Context) {
	RespondWithErrorCode(c, dto.ErrorCodeMethodNotAllowed, "method not allowed")
}
