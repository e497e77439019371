package trace

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"budgetbook/internal/log"
)

func TestHandlerAssignsRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	logger := log.New(log.Config{Handler: slog.NewTextHandler(&buf, nil)})
	m := NewMiddleware(logger)

	var seen string
	r := gin.New()
	r.Use(m.Handler())
	r.GET("/ok", func(c *gin.Context) {
		seen = GetRequestID(c.Request.Context())
		if FromGin(c) != seen {
			t.Errorf("gin and context request ids differ")
		}
		c.Status(http.StatusOK)
	})
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ok", nil))
	if !strings.HasPrefix(seen, "req_") {
		t.Fatalf("unexpected generated id %q", seen)
	}
	if rr.Header().Get(HeaderRequestID) != seen {
		t.Errorf("response header %q, want %q", rr.Header().Get(HeaderRequestID), seen)
	}

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(HeaderRequestID, "abc123")
	r.ServeHTTP(httptest.NewRecorder(), req)
	if seen != "abc123" {
		t.Errorf("incoming request id not reused: %q", seen)
	}

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))

	metrics := m.GetMetrics()
	if metrics.TotalRequests != 3 || metrics.TotalErrors != 1 {
		t.Errorf("unexpected metrics: %+v", metrics)
	}
	out := buf.String()
	if !strings.Contains(out, "component=trace") || !strings.Contains(out, "status_code=500") {
		t.Errorf("unexpected log output: %s", out)
	}
}

func TestGenerateRequestIDUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := GenerateRequestID()
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}
