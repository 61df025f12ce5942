package middleware_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"todo-app/internal/middleware"
	"todo-app/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(buf *bytes.Buffer, handler gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		// route log output into buf for this request
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context(), logger.New(buf, "debug")))
		c.Next()
	})
	r.Use(middleware.RequestID(), middleware.RequestLogger())
	r.GET("/x", handler)
	return r
}

func TestRequestID_GeneratesAndEchoes(t *testing.T) {
	var buf bytes.Buffer
	var seen string
	r := newEngine(&buf, func(c *gin.Context) {
		seen = c.GetString("request_id")
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	got := w.Header().Get(middleware.RequestIDHeader)
	if got == "" {
		t.Fatal("expected X-Request-ID header")
	}
	if seen != got {
		t.Errorf("context id %q != header id %q", seen, got)
	}
	if !strings.Contains(buf.String(), `"request_id":"`+got+`"`) {
		t.Errorf("log line missing request id: %s", buf.String())
	}
}

func TestRequestID_KeepsCallerID(t *testing.T) {
	var buf bytes.Buffer
	r := newEngine(&buf, func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(middleware.RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get(middleware.RequestIDHeader); got != "abc-123" {
		t.Errorf("header = %q, want abc-123", got)
	}
}

func TestRequestLogger_LevelByStatus(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantLevel string
	}{
		{"ok", http.StatusOK, `"level":"INFO"`},
		{"client error", http.StatusNotFound, `"level":"WARN"`},
		{"server error", http.StatusServiceUnavailable, `"level":"ERROR"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			r := newEngine(&buf, func(c *gin.Context) { c.Status(tt.status) })
			r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

			out := buf.String()
			for _, want := range []string{tt.wantLevel, `"method":"GET"`, `"path":"/x"`} {
				if !strings.Contains(out, want) {
					t.Errorf("expected log to contain %s, got: %s", want, out)
				}
			}
		})
	}
}
