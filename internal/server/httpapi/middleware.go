package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/solward/accountd/internal/logging"
)

const requestIDHeader = "X-Request-Id"
const ctxRequestID = "request_id"

// RequestID propagates an inbound request id or mints one.
func RequestID() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id := ctx.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		ctx.Writer.Header().Set(requestIDHeader, id)
		ctx.Set(ctxRequestID, id)
		ctx.Next()
	}
}

// RequestLogger emits one structured line per request.
func RequestLogger(log logging.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()

		route := ctx.FullPath()
		if route == "" {
			route = ctx.Request.URL.Path
		}

		ctx.Next()

		log.Info(ctx.Request.Context(), "http_request",
			"method", ctx.Request.Method,
			"route", route,
			"status", ctx.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"request_id", ctx.GetString(ctxRequestID),
		)
	}
}
