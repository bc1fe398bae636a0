package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestKeyByUserOrIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	req := httptest.NewRequest(http.MethodPost, "/dashboard/invoices", nil)
	req.RemoteAddr = net.JoinHostPort("203.0.113.9", "12345")
	c.Request = req

	if key := KeyByUserOrIP()(c); key != "ip:203.0.113.9" {
		t.Fatalf("ip key = %q", key)
	}

	req.Header.Set("X-User-ID", "  clerk-7 ")
	if key := KeyByUserOrIP()(c); key != "user:clerk-7" {
		t.Fatalf("header key = %q", key)
	}

	c.Set("userID", "u123")
	if key := KeyByUserOrIP()(c); key != "user:u123" {
		t.Fatalf("context key = %q", key)
	}
}

func TestNewRateLimiter_BurstFloorAndBucketReuse(t *testing.T) {
	rl := NewRateLimiter(2, 0, KeyByUserOrIP())
	if rl.burst != 1 {
		t.Fatalf("burst = %d, want 1", rl.burst)
	}
	lim := rl.limiterFor("k1")
	if rl.limiterFor("k1") != lim {
		t.Fatal("bucket not reused")
	}
	if rl.limiterFor("k2") == lim {
		t.Fatal("distinct keys share a bucket")
	}
}

func TestRateLimiter_SweepsIdleBuckets(t *testing.T) {
	rl := NewRateLimiter(1, 1, KeyByUserOrIP())
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	old := rl.limiterFor("stale")
	if !old.Allow() {
		t.Fatal("fresh bucket should allow")
	}

	now = now.Add(5 * time.Minute)
	rl.limiterFor("active")

	now = now.Add(6 * time.Minute) // stale idle 11m, active idle 6m
	rl.limiterFor("active")

	rl.mu.Lock()
	_, staleKept := rl.buckets["stale"]
	_, activeKept := rl.buckets["active"]
	rl.mu.Unlock()
	if staleKept {
		t.Fatal("idle bucket should be swept")
	}
	if !activeKept {
		t.Fatal("active bucket should survive the sweep")
	}
	if rl.limiterFor("stale") == old {
		t.Fatal("swept bucket should be recreated")
	}
}

func TestRateLimiter_RetryAfter(t *testing.T) {
	cases := []struct {
		rps  float64
		want string
	}{
		{5, "1"},
		{0.5, "2"},
		{0.25, "4"},
		{0, "60"},
	}
	for _, tc := range cases {
		if got := NewRateLimiter(tc.rps, 1, KeyByUserOrIP()).retryAfter(); got != tc.want {
			t.Errorf("rps=%v retryAfter=%q, want %q", tc.rps, got, tc.want)
		}
	}
}

func TestIsRateBypass(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if IsRateBypass(c) {
		t.Fatal("unset flag should be false")
	}
	c.Set(ctxKeyRateBypass, "yes")
	if IsRateBypass(c) {
		t.Fatal("non-bool flag should be false")
	}
	c.Set(ctxKeyRateBypass, true)
	if !IsRateBypass(c) {
		t.Fatal("flag should be true")
	}
}

func newLimitedRouter(rl *RateLimiter, pre ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Header(requestIDHeader, "rid-1"); c.Next() })
	r.Use(pre...)
	r.Use(rl.Handler())
	r.GET("/dashboard/invoices", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/dashboard/invoices", func(c *gin.Context) { c.Status(http.StatusSeeOther) })
	r.DELETE("/dashboard/invoices/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func TestRateLimiter_Handler_WritesLimitedReadsFree(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := newLimitedRouter(NewRateLimiter(0, 1, KeyByUserOrIP()))

	do := func(method, path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(method, path, nil)
		req.RemoteAddr = "198.51.100.4:5000"
		r.ServeHTTP(w, req)
		return w
	}

	before := testutil.ToFloat64(rateLimited.WithLabelValues("/dashboard/invoices/:id"))

	if w := do(http.MethodPost, "/dashboard/invoices"); w.Code != http.StatusSeeOther {
		t.Fatalf("first write -> %d", w.Code)
	}
	for i := 0; i < 3; i++ {
		if w := do(http.MethodGet, "/dashboard/invoices"); w.Code != http.StatusOK {
			t.Fatalf("read %d -> %d", i, w.Code)
		}
	}

	w := do(http.MethodDelete, "/dashboard/invoices/inv-1")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second write -> %d, want 429", w.Code)
	}
	if ra := w.Header().Get("Retry-After"); ra != "60" {
		t.Fatalf("Retry-After = %q", ra)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["code"] != "too_many_requests" || body["request_id"] != "rid-1" {
		t.Fatalf("body = %+v", body)
	}
	if !strings.Contains(body["message"], "retry") {
		t.Fatalf("message = %q", body["message"])
	}
	if got := testutil.ToFloat64(rateLimited.WithLabelValues("/dashboard/invoices/:id")); got != before+1 {
		t.Fatalf("rate_limited_total = %v, want %v", got, before+1)
	}
}

func TestRateLimiter_Handler_SeparateCallersAndReplayBypass(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(0, 1, KeyByUserOrIP())
	r := newLimitedRouter(rl, func(c *gin.Context) {
		if c.GetHeader("X-Replay") == "1" {
			c.Set(ctxKeyRateBypass, true)
		}
		c.Next()
	})

	post := func(user string, replay bool) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/dashboard/invoices", nil)
		req.Header.Set("X-User-ID", user)
		if replay {
			req.Header.Set("X-Replay", "1")
		}
		r.ServeHTTP(w, req)
		return w.Code
	}

	if code := post("alice", false); code != http.StatusSeeOther {
		t.Fatalf("alice first -> %d", code)
	}
	if code := post("bob", false); code != http.StatusSeeOther {
		t.Fatalf("bob first -> %d", code)
	}
	if code := post("alice", false); code != http.StatusTooManyRequests {
		t.Fatalf("alice second -> %d", code)
	}
	if code := post("alice", true); code != http.StatusSeeOther {
		t.Fatalf("alice replay -> %d", code)
	}
}
