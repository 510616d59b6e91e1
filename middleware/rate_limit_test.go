package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func rateLimitedRouter(rate int, window time.Duration) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID())
	router.Use(RateLimit(rate, window))
	router.POST("/api/auth/login", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"token": "ok"})
	})
	return router
}

func TestRateLimitMiddleware(t *testing.T) {
	router := rateLimitedRouter(3, time.Minute)

	attempt := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "/api/auth/login", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	for i := 0; i < 3; i++ {
		if w := attempt(); w.Code != http.StatusOK {
			t.Errorf("Attempt %d: Expected status 200, got %d", i+1, w.Code)
		}
	}

	w := attempt()
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("Expected status 429 past the limit, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Rate limit exceeded") {
		t.Error("Expected rate limit message in response body")
	}
}

func TestRateLimitWindowReset(t *testing.T) {
	router := rateLimitedRouter(1, 20*time.Millisecond)

	attempt := func() int {
		req := httptest.NewRequest("POST", "/api/auth/login", nil)
		req.RemoteAddr = "192.168.1.2:12345"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	if code := attempt(); code != http.StatusOK {
		t.Fatalf("Expected first attempt to pass, got %d", code)
	}
	if code := attempt(); code != http.StatusTooManyRequests {
		t.Fatalf("Expected second attempt limited, got %d", code)
	}

	// A fresh window grants fresh tokens
	time.Sleep(30 * time.Millisecond)
	if code := attempt(); code != http.StatusOK {
		t.Errorf("Expected attempt after window reset to pass, got %d", code)
	}
}

func TestRateLimitPerIP(t *testing.T) {
	router := rateLimitedRouter(2, time.Minute)

	attempt := func(ip string) int {
		req := httptest.NewRequest("POST", "/api/auth/login", nil)
		req.Header.Set("X-Forwarded-For", ip)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	// Exhaust one caller's budget
	for i := 0; i < 3; i++ {
		attempt("10.0.0.1")
	}
	if code := attempt("10.0.0.1"); code != http.StatusTooManyRequests {
		t.Errorf("Expected exhausted IP limited, got %d", code)
	}

	// Another caller is unaffected
	if code := attempt("10.0.0.2"); code != http.StatusOK {
		t.Errorf("Expected fresh IP to pass, got %d", code)
	}
}

func TestNewRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(100, time.Minute)

	if limiter == nil {
		t.Fatal("Expected non-nil limiter")
	}
	if limiter.rate != 100 {
		t.Errorf("Expected rate 100, got %d", limiter.rate)
	}
	if limiter.window != time.Minute {
		t.Errorf("Expected window 1 minute, got %v", limiter.window)
	}
}
