package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/looplj/cellhub/internal/contexts"
	"github.com/looplj/cellhub/internal/tracing"
)

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("panic recovery", func(t *testing.T) {
		router := gin.New()
		router.Use(Recovery())

		router.GET("/panic", func(c *gin.Context) {
			panic("test panic")
		})

		req := httptest.NewRequest(http.MethodGet, "/panic", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != 500 {
			t.Errorf("expected status 500, got %d", w.Code)
		}

		if !strings.Contains(w.Body.String(), "CH500-CM-0001") {
			t.Errorf("expected platform error body, got %s", w.Body.String())
		}
	})

	t.Run("normal request without panic", func(t *testing.T) {
		router := gin.New()
		router.Use(Recovery())

		router.GET("/ok", func(c *gin.Context) {
			c.String(200, "OK")
		})

		req := httptest.NewRequest(http.MethodGet, "/ok", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != 200 {
			t.Errorf("expected status 200, got %d", w.Code)
		}
	})
}

func TestWithLoggingTracing(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("generates ids when absent", func(t *testing.T) {
		router := gin.New()
		router.Use(WithLoggingTracing(tracing.Config{}))

		var traceID string

		router.GET("/", func(c *gin.Context) {
			traceID, _ = contexts.GetTraceID(c.Request.Context())
			c.Status(http.StatusNoContent)
		})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if !strings.HasPrefix(traceID, "ch-") {
			t.Errorf("expected generated trace id, got %q", traceID)
		}

		if w.Header().Get(tracing.DefaultRequestHeader) == "" {
			t.Error("expected request id response header")
		}
	})

	t.Run("keeps the caller's trace id", func(t *testing.T) {
		router := gin.New()
		router.Use(WithLoggingTracing(tracing.Config{}))

		var traceID string

		router.GET("/", func(c *gin.Context) {
			traceID, _ = contexts.GetTraceID(c.Request.Context())
			c.Status(http.StatusNoContent)
		})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(tracing.DefaultTraceHeader, "ch-upstream")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if traceID != "ch-upstream" {
			t.Errorf("expected ch-upstream, got %q", traceID)
		}
	})
}

func TestBearerToken(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name   string
		header string
		want   string
		wantOK bool
	}{
		{"bearer", "Bearer abc.def", "abc.def", true},
		{"missing", "", "", false},
		{"wrong scheme", "Basic abc", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			if tt.header != "" {
				c.Request.Header.Set("Authorization", tt.header)
			}

			got, ok := bearerToken(c)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("bearerToken() = %q, %v; want %q, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestRequireAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RequireAuth())
	router.GET("/", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without claims, got %d", w.Code)
	}
}
