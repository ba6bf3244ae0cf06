package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"mirror/internal/logger"
	"mirror/pkg/logging"
	"mirror/pkg/tracing"
)

const HeaderRequestID = "X-Request-ID"

// RequestContext tags the request context with a request id (reused from
// X-Request-ID when the host sends one) and the active trace id, so *Ctx
// log calls made by handlers carry both.
func RequestContext(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Header(HeaderRequestID, requestID)

		ctx := logging.WithEventID(c.Request.Context(), requestID)
		ctx = logging.WithServiceName(ctx, serviceName)
		if traceID := tracing.TraceIDFromContext(ctx); traceID != "" {
			ctx = logging.WithTraceID(ctx, traceID)
		}
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func Logger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		status := c.Writer.Status()
		fields := []interface{}{
			"status", status,
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
			"method", c.Request.Method,
			"path", path,
		}
		if msg := c.Errors.ByType(gin.ErrorTypePrivate).String(); msg != "" {
			fields = append(fields, "error", msg)
		}

		ctx := c.Request.Context()
		switch {
		case status >= 500:
			log.ErrorwCtx(ctx, "HTTP request", fields...)
		case status >= 400:
			log.WarnwCtx(ctx, "HTTP request", fields...)
		default:
			log.DebugwCtx(ctx, "HTTP request", fields...)
		}
	}
}

func Recovery(log logger.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.ErrorwCtx(c.Request.Context(), "Panic recovered",
			"error", recovered,
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
		)
		c.AbortWithStatusJSON(500, gin.H{
			"error":      "internal server error",
			"error_code": "INTERNAL_ERROR",
		})
	})
}
