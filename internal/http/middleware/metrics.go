package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/saarthak-backend/internal/observability"
)

// Metrics records request counts and latency per site surface. Unmatched
// paths share one route label so scanners cannot grow the series set.
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		start := time.Now()
		m.ApiInflightInc()
		defer m.ApiInflightDec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		m.ObserveAPI(routeSurface(route), c.Request.Method, route, status, time.Since(start))
	}
}

// routeSurface buckets a route into the part of the site it serves.
func routeSurface(route string) string {
	switch {
	case strings.HasPrefix(route, "/api/admin"), strings.HasPrefix(route, "/admin"):
		return "admin"
	case strings.HasPrefix(route, "/api/"):
		return "api"
	case route == "/healthz", route == "/metrics", strings.HasPrefix(route, "/media"):
		return "infra"
	case route == "unmatched":
		return route
	default:
		return "site"
	}
}
