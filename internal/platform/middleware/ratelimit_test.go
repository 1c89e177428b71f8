package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/labstack/echo/v4"
)

func rateLimitedHandler(cfg RateLimitConfig) (*echo.Echo, echo.HandlerFunc) {
	e := echo.New()
	handler := RateLimit(cfg)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	return e, handler
}

func chartsRequest(e *echo.Echo, tenant string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/charts", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if tenant != "" {
		c.Set("jwt_tenant_id", tenant)
	}
	return c, rec
}

func TestRateLimit_RequestsWithinLimit(t *testing.T) {
	e, handler := rateLimitedHandler(RateLimitConfig{RequestsPerSecond: 10, BurstSize: 5})

	for i := 0; i < 5; i++ {
		c, rec := chartsRequest(e, "")
		if err := handler(c); err != nil {
			t.Fatalf("request %d: expected no error, got %v", i+1, err)
		}
		if got := rec.Header().Get("X-RateLimit-Limit"); got != "10" {
			t.Errorf("request %d: expected X-RateLimit-Limit '10', got %q", i+1, got)
		}
	}
}

func TestRateLimit_ExceedsBurst(t *testing.T) {
	e, handler := rateLimitedHandler(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 2})

	for i := 0; i < 2; i++ {
		c, _ := chartsRequest(e, "")
		if err := handler(c); err != nil {
			t.Fatalf("request %d: expected no error, got %v", i+1, err)
		}
	}

	c, _ := chartsRequest(e, "")
	err := handler(c)
	if err == nil {
		t.Fatal("expected error for rate-limited request")
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", httpErr.Code)
	}
}

func TestRateLimit_RetryAfterHeader(t *testing.T) {
	e, handler := rateLimitedHandler(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1})

	c, _ := chartsRequest(e, "")
	_ = handler(c)

	c, rec := chartsRequest(e, "")
	if err := handler(c); err == nil {
		t.Fatal("expected error for rate-limited request")
	}

	retryAfter := rec.Header().Get("Retry-After")
	if retryAfter == "" {
		t.Fatal("expected Retry-After header to be set")
	}
	retryVal, err := strconv.Atoi(retryAfter)
	if err != nil {
		t.Fatalf("Retry-After header is not a valid integer: %q", retryAfter)
	}
	if retryVal < 1 {
		t.Errorf("expected Retry-After >= 1, got %d", retryVal)
	}
	if remaining := rec.Header().Get("X-RateLimit-Remaining"); remaining != "0" {
		t.Errorf("expected X-RateLimit-Remaining '0', got %q", remaining)
	}
}

func TestRateLimit_TenantsGetSeparateBuckets(t *testing.T) {
	e, handler := rateLimitedHandler(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1})

	c, _ := chartsRequest(e, "clinic-north")
	if err := handler(c); err != nil {
		t.Fatalf("clinic-north first request: expected no error, got %v", err)
	}

	c, _ = chartsRequest(e, "clinic-north")
	if err := handler(c); err == nil {
		t.Fatal("clinic-north second request: expected rate limit error")
	}

	// Another clinic from the same IP still has its own budget.
	c, _ = chartsRequest(e, "clinic-south")
	if err := handler(c); err != nil {
		t.Fatalf("clinic-south first request: expected no error, got %v", err)
	}
}

func TestRateLimit_DefaultConfig(t *testing.T) {
	cfg := DefaultRateLimitConfig()
	if cfg.RequestsPerSecond != 100 {
		t.Errorf("expected RequestsPerSecond 100, got %f", cfg.RequestsPerSecond)
	}
	if cfg.BurstSize != 200 {
		t.Errorf("expected BurstSize 200, got %d", cfg.BurstSize)
	}
}

func TestBucket_RetryAfterWithZeroRate(t *testing.T) {
	b := newBucket(0, 1)
	if ok, _ := b.take(); !ok {
		t.Fatal("expected first take to succeed")
	}
	ok, retryAfter := b.take()
	if ok {
		t.Fatal("expected empty bucket to refuse")
	}
	if retryAfter != 1 {
		t.Errorf("expected retryAfter 1 for zero refill rate, got %d", retryAfter)
	}
}

func TestBucketStore_SameKeySameBucket(t *testing.T) {
	store := newBucketStore(RateLimitConfig{RequestsPerSecond: 10, BurstSize: 5})

	b1 := store.get("clinic-north:10.0.0.1")
	if b1 == nil {
		t.Fatal("expected non-nil bucket")
	}
	if b2 := store.get("clinic-north:10.0.0.1"); b1 != b2 {
		t.Error("expected same bucket instance for same key")
	}
	if b3 := store.get("clinic-south:10.0.0.1"); b1 == b3 {
		t.Error("expected different bucket for different key")
	}
}
