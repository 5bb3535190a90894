package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/radiusdt/marketing-dashboard/internal/config"
	"github.com/radiusdt/marketing-dashboard/internal/metrics"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestRequestIDGeneratesAndPropagates(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	_, err := uuid.Parse(seen)
	require.NoError(t, err)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))

	incoming := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, incoming)
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, incoming, seen)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "not a uuid\n")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.NotEqual(t, "not a uuid\n", seen)
}

func TestRecoveryMiddleware(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	h := NewRecoveryMiddleware(zap.New(core)).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/overview", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/views/executive-summary", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, 2, logs.FilterMessage("panic recovered").Len())
}

func TestWriteInternalError(t *testing.T) {
	tests := []struct {
		path        string
		contentType string
		body        string
	}{
		{"/api/v1/campaigns/c1", "application/json", `{"error":"internal server error"}`},
		{"/views/campaign-deep-dive", "text/plain; charset=utf-8", "internal server error\n"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeInternalError(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Equal(t, tt.contentType, rec.Header().Get("Content-Type"))
			assert.Equal(t, tt.body, rec.Body.String())
		})
	}
}

func TestLoggingMiddlewareLevels(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := NewLoggingMiddleware(zap.New(core))

	notFound := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	l.Handler(okHandler).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/views/segment-analysis", nil))
	l.Handler(notFound).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/views/nope", nil))
	l.Handler(okHandler).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zap.InfoLevel, entries[0].Level)
	assert.Equal(t, zap.WarnLevel, entries[1].Level)
	assert.Equal(t, zap.DebugLevel, entries[2].Level)
	assert.Equal(t, int64(404), entries[1].ContextMap()["status"])
}

func TestRateLimitMiddleware(t *testing.T) {
	m := metrics.NewMetrics("test", prometheus.NewRegistry())
	rl := NewRateLimitMiddleware(config.RateLimitConfig{Enabled: true, RPS: 1, Burst: 2}, zap.NewNop())
	rl.SetMetrics(m)

	r := chi.NewRouter()
	r.Get("/health", okHandler)
	r.Group(func(r chi.Router) {
		r.Use(rl.Handler)
		r.Get("/api/v1/campaigns/{id}", okHandler)
	})

	get := func(path, addr string) int {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = addr
		r.ServeHTTP(rec, req)
		return rec.Code
	}

	codes := make([]int, 0, 4)
	for _, id := range []string{"c1", "c2", "c3", "c4"} {
		codes = append(codes, get("/api/v1/campaigns/"+id, "10.0.0.1:5555"))
	}
	assert.Equal(t, []int{200, 200, 429, 429}, codes)
	// one series per route, not per campaign id
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RateLimitHits.WithLabelValues("/api/v1/campaigns/{id}")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.RateLimitHits))

	// another client has its own bucket
	assert.Equal(t, http.StatusOK, get("/api/v1/campaigns/c1", "10.0.0.2:5555"))

	// routes outside the group are never limited
	assert.Equal(t, http.StatusOK, get("/health", "10.0.0.1:5555"))

	rl.CleanupIPLimiters()
	assert.Equal(t, http.StatusOK, get("/api/v1/campaigns/c1", "10.0.0.1:5555"))
}

func TestMetricsMiddlewareUsesRoutePattern(t *testing.T) {
	m := metrics.NewMetrics("test", prometheus.NewRegistry())
	r := chi.NewRouter()
	r.Use(NewMetricsMiddleware(m).Handler)
	r.Get("/api/v1/campaigns/{id}", okHandler)

	for _, id := range []string{"c1", "c2"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/campaigns/"+id, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/api/v1/campaigns/{id}", "200")))
}
