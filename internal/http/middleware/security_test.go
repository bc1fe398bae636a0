package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func serveSecured(opt SecurityOptions, req *http.Request, override bool) *httptest.ResponseRecorder {
	r := gin.New()
	r.Use(SecurityHeaders(opt))
	r.GET("/dashboard/invoices", func(c *gin.Context) {
		if override {
			c.Header("Cache-Control", "no-store")
		}
		c.String(http.StatusOK, "[]")
	})
	r.POST("/dashboard/invoices", func(c *gin.Context) {
		c.Redirect(http.StatusSeeOther, "/dashboard/invoices")
	})
	r.DELETE("/dashboard/invoices/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSecurityHeaders_Baseline(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := serveSecured(SecurityOptions{}, httptest.NewRequest(http.MethodGet, "/dashboard/invoices", nil), false)

	h := w.Header()
	if h.Get("X-Content-Type-Options") != "nosniff" || h.Get("X-Frame-Options") != "DENY" || h.Get("Referrer-Policy") != "no-referrer" {
		t.Fatalf("baseline headers missing: %v", h)
	}
	if h.Get("Permissions-Policy") != "" || h.Get("X-Permitted-Cross-Domain-Policies") != "" {
		t.Fatalf("policy headers sent while disabled: %v", h)
	}
	if h.Get("Strict-Transport-Security") != "" {
		t.Fatalf("HSTS sent while disabled")
	}
}

func TestSecurityHeaders_CachePolicyByMethod(t *testing.T) {
	gin.SetMode(gin.TestMode)

	get := serveSecured(SecurityOptions{}, httptest.NewRequest(http.MethodGet, "/dashboard/invoices", nil), false)
	if cc := get.Header().Get("Cache-Control"); cc != cacheControlRead {
		t.Fatalf("GET Cache-Control = %q", cc)
	}
	if get.Header().Get("Pragma") != "" {
		t.Fatalf("GET should not carry Pragma")
	}

	post := serveSecured(SecurityOptions{}, httptest.NewRequest(http.MethodPost, "/dashboard/invoices", nil), false)
	if post.Code != http.StatusSeeOther {
		t.Fatalf("POST -> %d", post.Code)
	}
	if cc := post.Header().Get("Cache-Control"); cc != cacheControlWrite {
		t.Fatalf("POST Cache-Control = %q", cc)
	}
	if post.Header().Get("Pragma") != "no-cache" {
		t.Fatalf("POST Pragma = %q", post.Header().Get("Pragma"))
	}

	del := serveSecured(SecurityOptions{}, httptest.NewRequest(http.MethodDelete, "/dashboard/invoices/x", nil), false)
	if cc := del.Header().Get("Cache-Control"); cc != cacheControlWrite {
		t.Fatalf("DELETE Cache-Control = %q", cc)
	}

	overridden := serveSecured(SecurityOptions{}, httptest.NewRequest(http.MethodGet, "/dashboard/invoices", nil), true)
	if cc := overridden.Header().Get("Cache-Control"); cc != "no-store" {
		t.Fatalf("handler override lost: %q", cc)
	}
}

func TestSecurityHeaders_PolicyAndHSTS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	opt := SecurityOptions{EnableHSTS: true, HSTSMaxAge: time.Hour, EnablePolicy: true}

	req := httptest.NewRequest(http.MethodGet, "/dashboard/invoices", nil)
	req.TLS = &tls.ConnectionState{}
	w := serveSecured(opt, req, false)
	if got := w.Header().Get("Strict-Transport-Security"); got != "max-age=3600; includeSubDomains" {
		t.Fatalf("HSTS = %q", got)
	}
	if w.Header().Get("Permissions-Policy") == "" || w.Header().Get("X-Permitted-Cross-Domain-Policies") != "none" {
		t.Fatalf("policy headers missing: %v", w.Header())
	}

	plain := serveSecured(opt, httptest.NewRequest(http.MethodGet, "/dashboard/invoices", nil), false)
	if plain.Header().Get("Strict-Transport-Security") != "" {
		t.Fatalf("HSTS must not be sent over plain HTTP")
	}

	proxied := httptest.NewRequest(http.MethodGet, "/dashboard/invoices", nil)
	proxied.Header.Set("X-Forwarded-Proto", "HTTPS")
	w = serveSecured(SecurityOptions{EnableHSTS: true}, proxied, false)
	if got := w.Header().Get("Strict-Transport-Security"); got != "max-age=15552000; includeSubDomains" {
		t.Fatalf("default HSTS = %q", got)
	}
}
