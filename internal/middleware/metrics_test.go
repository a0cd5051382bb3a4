package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/talenttree/talenttree/internal/telemetry"
	"github.com/talenttree/talenttree/internal/tenant"
)

const mapRoute = "/api/v1/organizations/:org_id/maps/:id"

// findSeries returns the series of c whose labels include every pair in labels, or nil.
func findSeries(t *testing.T, c prometheus.Collector, labels prometheus.Labels) *dto.Metric {
	t.Helper()
	ch := make(chan prometheus.Metric, 64)
	c.Collect(ch)
	close(ch)

	for m := range ch {
		var dm dto.Metric
		if err := m.Write(&dm); err != nil {
			t.Fatalf("write metric: %v", err)
		}
		have := make(map[string]string, len(dm.GetLabel()))
		for _, lp := range dm.GetLabel() {
			have[lp.GetName()] = lp.GetValue()
		}
		match := true
		for k, v := range labels {
			if have[k] != v {
				match = false
				break
			}
		}
		if match {
			return &dm
		}
	}
	return nil
}

func requestCount(t *testing.T, method, path, status string) float64 {
	t.Helper()
	dm := findSeries(t, telemetry.HTTPRequestsTotal, prometheus.Labels{"method": method, "path": path, "status": status})
	return dm.GetCounter().GetValue()
}

func latencySamples(t *testing.T, method, path string) uint64 {
	t.Helper()
	dm := findSeries(t, telemetry.HTTPRequestDuration, prometheus.Labels{"method": method, "path": path})
	return dm.GetHistogram().GetSampleCount()
}

// mapsRouter mounts a map route behind the tenant check the way the API router does, with a
// stub standing in for authentication that installs a member of organization 5.
func mapsRouter(handler gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(MetricsMiddleware())
	r.Use(func(c *gin.Context) {
		c.Set(CallerKey, tenant.Caller{Email: "ada@acme.com", OrganizationID: 5})
		c.Next()
	})
	org := r.Group("/api/v1/organizations/:org_id", RequireOrganizationAccess("org_id"))
	org.GET("/maps/:id", handler)
	org.DELETE("/maps/:id", RequireAdmin(), handler)
	return r
}

func serve(r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

// ---------------------------------------------------------------------------
// Route labels
// ---------------------------------------------------------------------------

func TestMetricsMiddleware_LabelsMapRouteByTemplate(t *testing.T) {
	r := mapsRouter(func(c *gin.Context) { c.Status(http.StatusOK) })
	beforeCount := requestCount(t, http.MethodGet, mapRoute, "200")
	beforeSamples := latencySamples(t, http.MethodGet, mapRoute)

	if w := serve(r, http.MethodGet, "/api/v1/organizations/5/maps/77"); w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	if got := requestCount(t, http.MethodGet, mapRoute, "200") - beforeCount; got != 1 {
		t.Errorf("http_requests_total delta = %v, want 1", got)
	}
	if got := latencySamples(t, http.MethodGet, mapRoute) - beforeSamples; got != 1 {
		t.Errorf("http_request_duration_seconds sample delta = %d, want 1", got)
	}
	if dm := findSeries(t, telemetry.HTTPRequestsTotal, prometheus.Labels{"path": "/api/v1/organizations/5/maps/77"}); dm != nil {
		t.Error("raw URL recorded as a path label, want the route template")
	}
}

func TestMetricsMiddleware_UnmatchedRoute(t *testing.T) {
	r := mapsRouter(func(c *gin.Context) { c.Status(http.StatusOK) })
	before := requestCount(t, http.MethodGet, unmatchedRoute, "404")

	serve(r, http.MethodGet, "/api/v1/organizations/5/nothing-here/3")

	if got := requestCount(t, http.MethodGet, unmatchedRoute, "404") - before; got != 1 {
		t.Errorf("<no-route> 404 delta = %v, want 1", got)
	}
	if dm := findSeries(t, telemetry.HTTPRequestsTotal, prometheus.Labels{"path": "/api/v1/organizations/5/nothing-here/3"}); dm != nil {
		t.Error("unmatched URL recorded as a path label")
	}
}

// ---------------------------------------------------------------------------
// Rejections and errors
// ---------------------------------------------------------------------------

func TestMetricsMiddleware_CountsTenantRejections(t *testing.T) {
	called := false
	r := mapsRouter(func(c *gin.Context) {
		called = true
		c.Status(http.StatusOK)
	})
	before := requestCount(t, http.MethodGet, mapRoute, "403")

	if w := serve(r, http.MethodGet, "/api/v1/organizations/6/maps/77"); w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}

	if called {
		t.Error("handler ran for a foreign organization")
	}
	if got := requestCount(t, http.MethodGet, mapRoute, "403") - before; got != 1 {
		t.Errorf("403 delta = %v, want 1", got)
	}
}

func TestMetricsMiddleware_CountsAdminRejections(t *testing.T) {
	r := mapsRouter(func(c *gin.Context) { c.Status(http.StatusNoContent) })
	before := requestCount(t, http.MethodDelete, mapRoute, "403")

	if w := serve(r, http.MethodDelete, "/api/v1/organizations/5/maps/77"); w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}

	if got := requestCount(t, http.MethodDelete, mapRoute, "403") - before; got != 1 {
		t.Errorf("DELETE 403 delta = %v, want 1", got)
	}
}

func TestMetricsMiddleware_RecordsHandlerErrors(t *testing.T) {
	r := mapsRouter(func(c *gin.Context) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render map"})
	})
	before := requestCount(t, http.MethodGet, mapRoute, "500")

	serve(r, http.MethodGet, "/api/v1/organizations/5/maps/1")

	if got := requestCount(t, http.MethodGet, mapRoute, "500") - before; got != 1 {
		t.Errorf("500 delta = %v, want 1", got)
	}
}
