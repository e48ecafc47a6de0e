package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"

	"github.com/noah-isme/backend-pustaka/internal/common"
)

func TestMiddlewareEnforcesLimit(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	lim, err := NewRedisLimiter(client, "ratelimit:checkout", limiter.Rate{Period: time.Minute, Limit: 1})
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}

	handler := Handler{
		Limiter: lim,
		Key:     func(*http.Request) string { return "static" },
	}

	counted := handler.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/checkout", nil)
	rr1 := httptest.NewRecorder()
	counted.ServeHTTP(rr1, req.Clone(req.Context()))
	if rr1.Code != http.StatusOK {
		t.Fatalf("expected first request allowed, got %d", rr1.Code)
	}

	rr2 := httptest.NewRecorder()
	counted.ServeHTTP(rr2, req.Clone(req.Context()))
	if rr2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 on second request, got %d", rr2.Code)
	}
	if rr2.Header().Get("X-RateLimit-Limit") != "1" {
		t.Fatalf("unexpected limit header: %q", rr2.Header().Get("X-RateLimit-Limit"))
	}
}

func TestMiddlewareProceedsOnStoreError(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	lim, err := NewRedisLimiter(client, "ratelimit:test", limiter.Rate{Period: time.Second, Limit: 1})
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}
	mr.Close()

	called := false
	handler := Handler{
		Limiter: lim,
		Key:     func(*http.Request) string { return "err" },
		OnError: func(error) { called = true },
	}

	counted := handler.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	counted.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/checkout", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected handler to proceed on error, got %d", rr.Code)
	}
	if !called {
		t.Fatal("expected OnError callback to be invoked")
	}
}

func TestKeyByUserOrIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.9:4321"
	if got := KeyByUserOrIP(req); got != "ip:203.0.113.9" {
		t.Fatalf("unexpected anonymous key: %q", got)
	}

	authed := req.WithContext(common.WithUserID(req.Context(), "user-1"))
	if got := KeyByUserOrIP(authed); got != "user:user-1" {
		t.Fatalf("unexpected authenticated key: %q", got)
	}
}

func TestParseRate(t *testing.T) {
	fallback := limiter.Rate{Period: time.Minute, Limit: 10}
	if got := ParseRate("", fallback); got.Limit != 10 {
		t.Fatalf("expected fallback for empty input, got %+v", got)
	}
	if got := ParseRate("nonsense", fallback); got.Limit != 10 {
		t.Fatalf("expected fallback for invalid input, got %+v", got)
	}
	got := ParseRate("5-S", fallback)
	if got.Limit != 5 || got.Period != time.Second {
		t.Fatalf("unexpected parsed rate: %+v", got)
	}
}
