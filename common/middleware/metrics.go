package middleware

import (
	"context"
	"fmt"
	"time"

	auth "github.com/Manish-456/eatsy-backend/middleware"
	awspkg "github.com/Manish-456/eatsy-backend/pkg/aws"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MetricsRecorder is the subset of awspkg.MetricsClient used by the HTTP layer.
type MetricsRecorder interface {
	RecordCount(ctx context.Context, metricName string, dimensions map[string]string) error
	RecordLatency(ctx context.Context, metricName string, duration time.Duration, dimensions map[string]string) error
	IsEnabled() bool
}

// MetricsMiddleware publishes request count, latency and error counters per
// route template. Dimensions are Service, Method, Path, Status (2xx..5xx)
// and Caller, which separates anonymous traffic from signed-in users.
func MetricsMiddleware(metricsClient MetricsRecorder, serviceName string, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		if metricsClient == nil || !metricsClient.IsEnabled() {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()
		dimensions := map[string]string{
			"Service": serviceName,
			"Method":  c.Request.Method,
			"Path":    routeOf(c),
			"Status":  statusClass(status),
			"Caller":  callerOf(c),
		}

		counters := []string{awspkg.MetricHTTPRequests}
		switch {
		case status >= 500:
			counters = append(counters, awspkg.MetricHTTPErrors, awspkg.MetricHTTP5xx)
		case status >= 400:
			counters = append(counters, awspkg.MetricHTTPErrors, awspkg.MetricHTTP4xx)
		}

		// Off the request path; CloudWatch calls can take hundreds of ms.
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := metricsClient.RecordLatency(ctx, awspkg.MetricHTTPLatency, duration, dimensions); err != nil {
				log.Debug("failed to record request latency", zap.Error(err))
			}
			for _, name := range counters {
				if err := metricsClient.RecordCount(ctx, name, dimensions); err != nil {
					log.Debug("failed to record request metric", zap.String("metric", name), zap.Error(err))
					return
				}
			}
		}()
	}
}

func statusClass(status int) string {
	if status < 100 || status > 599 {
		return "unknown"
	}
	return fmt.Sprintf("%dxx", status/100)
}

func callerOf(c *gin.Context) string {
	switch {
	case c.GetString(auth.UserIDKey) != "":
		return "user"
	case c.GetString(auth.Auth0IDKey) != "":
		return "identity"
	default:
		return "anonymous"
	}
}
