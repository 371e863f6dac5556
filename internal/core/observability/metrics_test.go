package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func scrape(t *testing.T) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d want 200", rr.Code)
	}
	return rr.Body.String()
}

func TestMeshAndCacheMetrics_RegistrationAndLabels(t *testing.T) {
	ObserveMeshOp("encode", nil)
	ObserveMeshOp("envelope", errors.New("boom"))
	IncCacheHit()
	IncCacheMiss()
	ObserveCacheOp("mget", nil, 0.0004)
	IncInvalidation("ok")
	ObserveHTTP(http.MethodGet, "/encode", http.StatusOK, 0.002)

	body := scrape(t)

	for _, sample := range []string{
		`mesh_ops_total{op="encode",outcome="ok"} `,
		`mesh_ops_total{op="envelope",outcome="error"} `,
		`cache_results_total{outcome="hit"} `,
		`cache_results_total{outcome="miss"} `,
		`cache_op_duration_seconds_bucket`,
		`invalidation_events_total{outcome="ok"} `,
		`http_requests_total{method="GET",route="/encode",status="200"} `,
		`http_request_duration_seconds_bucket`,
	} {
		if !strings.Contains(body, sample) {
			t.Fatalf("missing sample %q in scrape:\n%s", sample, body)
		}
	}
}

func TestBuildInfoDefaultsToDev(t *testing.T) {
	ExposeBuildInfo("")
	if body := scrape(t); !strings.Contains(body, `app_build_info{version="dev"} 1`) {
		t.Fatalf("missing app_build_info sample:\n%s", body)
	}
}
