package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/storyweave/storyweave/internal/policy"
)

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/test")

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	req = req.WithContext(ctx)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected status %d, got %d", http.StatusTeapot, rr.Code)
	}

	metricsRR := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(metricsRR, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	metricsBody := metricsRR.Body.String()
	if !strings.Contains(metricsBody, "storyweave_http_requests_total{code=\"418\",route=\"/test\"} 1") {
		t.Fatalf("expected metrics to record request, got: %s", metricsBody)
	}
	if !strings.Contains(metricsBody, "storyweave_http_request_duration_seconds_bucket{route=\"/test\"") {
		t.Fatalf("expected duration histogram to be present, got: %s", metricsBody)
	}
}

func TestObserveDecisionCountsByReason(t *testing.T) {
	metrics := NewMetrics()

	metrics.ObserveDecision(policy.Decision{Outcome: policy.OutcomeDeny, Reason: policy.ReasonSovereigntyViolation})
	metrics.ObserveDecision(policy.Decision{Outcome: policy.OutcomeDeny, Reason: policy.ReasonSovereigntyViolation})
	metrics.ObserveDecision(policy.Decision{Outcome: policy.OutcomeGrant})

	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rr.Body.String()
	if !strings.Contains(body, "storyweave_policy_decisions_total{outcome=\"deny\",reason=\"sovereignty_violation\"} 2") {
		t.Fatalf("expected deny counter, got: %s", body)
	}
	if !strings.Contains(body, "storyweave_policy_decisions_total{outcome=\"grant\",reason=\"\"} 1") {
		t.Fatalf("expected grant counter, got: %s", body)
	}
}
