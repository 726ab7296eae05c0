package httpmiddleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"country_facts/backend/go/pkg/logger"
)

func testLogger() (*logger.Logger, *test.Hook) {
	l, hook := test.NewNullLogger()
	return logger.FromEntry(logrus.NewEntry(l)), hook
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.GET("/ok", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"id": GetRequestID(c)}) })
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	return r
}

func TestRequestID_GeneratesAndEchoes(t *testing.T) {
	log, _ := testLogger()
	r := newEngine(RequestID(log))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	id := w.Header().Get(RequestIDHeader)
	if len(id) != 36 {
		t.Fatalf("expected generated uuid, got %q", id)
	}
	if !strings.Contains(w.Body.String(), id) {
		t.Errorf("handler did not see request id: %s", w.Body.String())
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	r.ServeHTTP(w, req)
	if got := w.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("expected incoming id to be reused, got %q", got)
	}
}

func TestAccessLog_LevelByStatus(t *testing.T) {
	log, hook := testLogger()
	r := newEngine(RequestID(log), AccessLog(log), Recovery(log))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))
	if e := hook.LastEntry(); e == nil || e.Level != logrus.InfoLevel || e.Data["trace_id"] == nil {
		t.Fatalf("expected traced info access log, got %+v", e)
	}

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))
	if e := hook.LastEntry(); e.Level != logrus.WarnLevel {
		t.Errorf("expected warn for 404, got %v", e.Level)
	}
}

func TestRecovery_ReturnsJSON500(t *testing.T) {
	log, hook := testLogger()
	r := newEngine(Recovery(log))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"error":"Internal server error"`) {
		t.Errorf("unexpected body %s", w.Body.String())
	}
	if hook.LastEntry() == nil || hook.LastEntry().Level != logrus.ErrorLevel {
		t.Errorf("expected panic to be logged at error level")
	}
}

func TestCORS(t *testing.T) {
	r := newEngine(CORS(nil))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected wildcard origin, got %q", got)
	}

	r = newEngine(CORS([]string{"http://localhost:3000/"}))
	req := httptest.NewRequest(http.MethodOptions, "/ok", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Errorf("expected 204 preflight, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("expected echoed origin, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("unlisted origin was allowed: %q", got)
	}
}

type stubLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (s *stubLimiter) Allow(_ context.Context, key string) (bool, error) {
	s.keys = append(s.keys, key)
	return s.allow, s.err
}

func TestRateLimit(t *testing.T) {
	log, _ := testLogger()
	tests := []struct {
		name    string
		limiter *stubLimiter
		want    int
	}{
		{"allowed", &stubLimiter{allow: true}, http.StatusOK},
		{"limited", &stubLimiter{allow: false}, http.StatusTooManyRequests},
		{"store down fails open", &stubLimiter{err: errors.New("redis: connection refused")}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newEngine(RateLimit(tt.limiter, log))
			req := httptest.NewRequest(http.MethodGet, "/ok", nil)
			req.RemoteAddr = "10.0.0.7:5555"
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
			if len(tt.limiter.keys) != 1 || tt.limiter.keys[0] != "10.0.0.7" {
				t.Errorf("limiter keyed by %v", tt.limiter.keys)
			}
			if tt.want == http.StatusTooManyRequests && !strings.Contains(w.Body.String(), "Too many requests") {
				t.Errorf("unexpected body %s", w.Body.String())
			}
		})
	}
}
