package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newInstrumentedRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Post("/v1/ask", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"text":"ok"}`))
	})
	r.Get("/v1/announcements/{id}", func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "id") == "missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	})
	return r
}

func TestMiddleware_RecordsDurationAndCount(t *testing.T) {
	r := newInstrumentedRouter()

	req := httptest.NewRequest("POST", "/v1/ask", http.NoBody)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != 200 {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	requestsVal := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("POST", "/v1/ask", "200"))
	if requestsVal < 1 {
		t.Errorf("expected http_requests_total >= 1, got %f", requestsVal)
	}

	durationCount := testutil.CollectAndCount(httpRequestDuration)
	if durationCount == 0 {
		t.Error("expected http_request_duration_seconds to have observations")
	}
}

func TestMiddleware_PathLabelIsRoutePattern(t *testing.T) {
	r := newInstrumentedRouter()

	for _, id := range []string{"ann-1", "ann-2", "ann-3"} {
		req := httptest.NewRequest("GET", "/v1/announcements/"+id, http.NoBody)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	// All three IDs collapse into the route pattern series.
	val := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/v1/announcements/{id}", "200"))
	if val < 3 {
		t.Errorf("expected pattern series >= 3, got %f", val)
	}
	raw := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/v1/announcements/ann-1", "200"))
	if raw != 0 {
		t.Errorf("raw path minted its own series: %f", raw)
	}
}

func TestMiddleware_RecordsErrorStatus(t *testing.T) {
	r := newInstrumentedRouter()

	req := httptest.NewRequest("GET", "/v1/announcements/missing", http.NoBody)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != 404 {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
	val := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/v1/announcements/{id}", "404"))
	if val < 1 {
		t.Errorf("expected 404 series >= 1, got %f", val)
	}
}

func TestRouteLabel(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", "unknown"},
		{"/v1/ask", "/v1/ask"},
		{"/v1/announcements/{id}", "/v1/announcements/{id}"},
	}

	for _, tc := range tests {
		result := routeLabel(tc.input)
		if result != tc.expected {
			t.Errorf("routeLabel(%q) = %q, want %q", tc.input, result, tc.expected)
		}
	}
}

func TestStatusWriter_DefaultsToOK(t *testing.T) {
	rr := httptest.NewRecorder()
	sw := &statusWriter{ResponseWriter: rr, status: http.StatusOK}

	if _, err := sw.Write([]byte("body")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sw.status != http.StatusOK {
		t.Errorf("status = %d, want 200", sw.status)
	}

	// A later WriteHeader must not overwrite the recorded status.
	sw.WriteHeader(http.StatusInternalServerError)
	if sw.status != http.StatusOK {
		t.Errorf("status = %d, want 200 after implicit header", sw.status)
	}
}
