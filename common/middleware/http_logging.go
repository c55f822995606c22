package middleware

import (
	"time"

	"github.com/Manish-456/eatsy-backend/common/logger"
	auth "github.com/Manish-456/eatsy-backend/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLogger emits one "http_request" line per request. Server errors are
// logged at Error, client errors at Warn, everything else at Info. The
// route template is logged next to the raw path so ids in the URL can be
// grouped; the caller's user id is added once JWTParse has resolved it.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", routeOf(c)),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("body_size", c.Writer.Size()),
		}
		if query != "" {
			fields = append(fields, zap.String("query", query))
		}
		if rid := c.GetString(logger.RequestIDKey); rid != "" {
			fields = append(fields, zap.String("request_id", rid))
		}
		if uid := c.GetString(auth.UserIDKey); uid != "" {
			fields = append(fields, zap.String("user_id", uid))
		}
		// Causes attached by errors.Write; never part of the response body.
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case status >= 500:
			log.Error("http_request", fields...)
		case status >= 400:
			log.Warn("http_request", fields...)
		default:
			log.Info("http_request", fields...)
		}
	}
}

// routeOf returns the matched route template, or "unmatched" for 404s that
// never reached a handler.
func routeOf(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unmatched"
}
