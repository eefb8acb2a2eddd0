package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/storefront-backend/internal/platform/ctxutil"
	"github.com/yungbote/storefront-backend/internal/platform/logger"
)

// Response headers set by the response package; copied here to keep the
// middleware free of handler imports.
const (
	headerStorefrontError = "X-Storefront-Error"
	headerStorefrontAlert = "X-Storefront-Alert"
)

// RequestLogger emits one line per request: info for 2xx/3xx, warn for 4xx,
// error for 5xx.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []interface{}{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if route := c.FullPath(); route != "" {
			fields = append(fields, "route", route)
		}
		if td := ctxutil.GetTraceData(c.Request.Context()); td != nil {
			fields = append(fields, "trace_id", td.TraceID, "request_id", td.RequestID)
		}
		if alert := c.Writer.Header().Get(headerStorefrontAlert); alert != "" {
			fields = append(fields, "alert", alert)
		}
		if key := c.Writer.Header().Get(headerStorefrontError); key != "" {
			fields = append(fields, "error_key", key)
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "error", c.Errors.String())
		}

		switch {
		case status >= 500:
			log.Error("HTTP request", fields...)
		case status >= 400:
			log.Warn("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	}
}
