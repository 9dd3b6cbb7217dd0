package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func TestRateLimitAllowsUnderLimit(t *testing.T) {
	rc := testRedis(t)
	e := echo.New()
	mw := RateLimitMiddleware(rc, testLogger(), RateLimitConfig{Limit: 3, Window: time.Minute, Prefix: "rl:test"})
	handler := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if err := handler(c); err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: got status %d, want 200", i, rec.Code)
		}
	}
}

func TestRateLimitBlocksOverLimit(t *testing.T) {
	rc := testRedis(t)
	e := echo.New()
	mw := RateLimitMiddleware(rc, testLogger(), RateLimitConfig{Limit: 2, Window: time.Minute, Prefix: "rl:test"})
	handler := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	var lastRec *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		lastRec = httptest.NewRecorder()
		c := e.NewContext(req, lastRec)
		if err := handler(c); err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
	}

	if lastRec.Code != http.StatusTooManyRequests {
		t.Fatalf("got status %d, want 429", lastRec.Code)
	}
	if lastRec.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
	if got := lastRec.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Fatalf("got X-RateLimit-Remaining %q, want 0", got)
	}
}

func TestRateLimitSeparatesUsers(t *testing.T) {
	rc := testRedis(t)
	e := echo.New()
	mw := RateLimitMiddleware(rc, testLogger(), RateLimitConfig{Limit: 1, Window: time.Minute, Prefix: "rl:test"})
	handler := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	send := func(userID int64) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.Set("user_id", userID)
		if err := handler(c); err != nil {
			t.Fatalf("request for user %d: %v", userID, err)
		}
		return rec.Code
	}

	if code := send(1); code != http.StatusOK {
		t.Fatalf("user 1 first request: got %d, want 200", code)
	}
	if code := send(1); code != http.StatusTooManyRequests {
		t.Fatalf("user 1 second request: got %d, want 429", code)
	}
	if code := send(2); code != http.StatusOK {
		t.Fatalf("user 2 should have their own window: got %d, want 200", code)
	}
}
