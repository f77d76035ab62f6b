package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/civigo/civigo/pkg/metrics"
)

// Metrics records request latency metrics for each HTTP request.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()

		// Unmatched routes share one label; raw URLs would blow up the
		// series cardinality under scanners.
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		status := strconv.Itoa(c.Writer.Status())
		metrics.APILatency.WithLabelValues(c.Request.Method, path, status).Observe(duration)
	}
}
