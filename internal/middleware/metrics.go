// metrics.go records a request count and a latency sample for every request the router
// serves, labelled by the matched route template.
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/talenttree/talenttree/internal/telemetry"
)

// unmatchedRoute labels requests no route claimed, so raw URLs never become series.
const unmatchedRoute = "<no-route>"

// MetricsMiddleware feeds http_requests_total{method, path, status} and
// http_request_duration_seconds{method, path}. The path label is the route template, for
// example /api/v1/organizations/:org_id/maps/:id, so organization and map ids stay out of
// the label set. Requests rejected further down the chain (401 from auth, 403 from the
// tenant checks, 429 from the limiter) are counted under the route they targeted.
//
// Register it after gin.Recovery() so the 500 written for a recovered panic is seen.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := routeLabel(c)
		method := c.Request.Method
		telemetry.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		telemetry.HTTPRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

func routeLabel(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return unmatchedRoute
}
