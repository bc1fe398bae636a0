// Package httpapi assembles the dashboard HTTP server: the middleware chain,
// the invoice and dashboard routes, /health, /metrics and the optional
// Swagger UI. Every dependency (DB, page cache, config) is injected by the
// caller, so tests build the full pipeline over in-memory SQLite.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/tbourn/go-invoice-dashboard/internal/cache"
	"github.com/tbourn/go-invoice-dashboard/internal/config"
	_ "github.com/tbourn/go-invoice-dashboard/internal/docs"
	"github.com/tbourn/go-invoice-dashboard/internal/domain"
	"github.com/tbourn/go-invoice-dashboard/internal/http/handlers"
	"github.com/tbourn/go-invoice-dashboard/internal/http/middleware"
	"github.com/tbourn/go-invoice-dashboard/internal/repo"
	"github.com/tbourn/go-invoice-dashboard/internal/services"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"
)

// invoiceRepoShim satisfies services.InvoiceRepo with the repo package's
// free functions.
type invoiceRepoShim struct{}

func (invoiceRepoShim) InsertInvoice(ctx context.Context, db *gorm.DB, inv *domain.Invoice) error {
	return repo.InsertInvoice(ctx, db, inv)
}

func (invoiceRepoShim) UpdateInvoice(ctx context.Context, db *gorm.DB, id, customerID string, amount int64, status string) (int64, error) {
	return repo.UpdateInvoice(ctx, db, id, customerID, amount, status)
}

func (invoiceRepoShim) DeleteInvoice(ctx context.Context, db *gorm.DB, id string) (int64, error) {
	return repo.DeleteInvoice(ctx, db, id)
}

func (invoiceRepoShim) GetInvoice(ctx context.Context, db *gorm.DB, id string) (*domain.Invoice, error) {
	return repo.GetInvoice(ctx, db, id)
}

func (invoiceRepoShim) CountInvoices(ctx context.Context, db *gorm.DB, query string) (int64, error) {
	return repo.CountInvoices(ctx, db, query)
}

func (invoiceRepoShim) ListInvoicesPage(ctx context.Context, db *gorm.DB, query string, offset, limit int) ([]repo.InvoiceRow, error) {
	return repo.ListInvoicesPage(ctx, db, query, offset, limit)
}

func (invoiceRepoShim) ListCustomers(ctx context.Context, db *gorm.DB) ([]domain.Customer, error) {
	return repo.ListCustomers(ctx, db)
}

func (invoiceRepoShim) SummaryStats(ctx context.Context, db *gorm.DB) (repo.InvoiceTotals, error) {
	return repo.SummaryStats(ctx, db)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), idempotency and rate
// limiting, CORS and security headers, health and metrics endpoints, and then
// mounts the dashboard under cfg.DashboardPath and the invoice routes under
// cfg.InvoicesPath. pages may be nil to disable listing caching.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger (or plain Logger): structured logs, request-scoped logger
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Idempotency validator (before rate limiter to allow bypass on replay)
//  8. Rate limiter (invoice writes only, per user/IP, bypass on replay)
//  9. CORS and Security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, pages cache.Store, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging (with redaction unless disabled)
	if cfg.LogRedact {
		r.Use(middleware.RedactingLogger(middleware.RedactOptions{
			MaskHeaders: []string{
				"X-API-Key", // project-specific sensitive header example
			},
		}))
	} else {
		r.Use(middleware.Logger())
	}

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Idempotency validation (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{
			MaxLen: 200,
		},
		func(ctx context.Context, userID, scope, key string, now time.Time) (bool, error) {
			_, err := repo.GetIdempotency(ctx, db, userID, scope, key, now)
			switch {
			case err == nil:
				return true, nil
			case errors.Is(err, repo.ErrNotFound):
				return false, nil
			default:
				return false, err
			}
		},
	))

	// 8) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 9) CORS and security headers
	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins)...)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// API docs
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db/page cache
	invSvc := services.NewInvoiceService(db, invoiceRepoShim{}, pages)
	if cfg.InvoicesPath != "" {
		invSvc.InvoicesPath = cfg.InvoicesPath
	}
	h := handlers.New(invSvc, pages, handlers.Options{
		InvoicesPath:   invSvc.InvoicesPath,
		IdempotencyTTL: cfg.IdempotencyTTL,
	})

	// Dashboard
	dash := groupWithPrefix(r, cfg.DashboardPath)
	{
		dash.GET("", h.Summary)
		dash.GET("/customers", h.ListCustomers)
	}

	// Invoices
	inv := groupWithPrefix(r, invSvc.InvoicesPath)
	{
		inv.GET("", gzip.Gzip(gzip.DefaultCompression), h.ListInvoices)
		inv.POST("", h.CreateInvoice)
		inv.GET("/:id", h.GetInvoice)
		inv.POST("/:id", h.UpdateInvoice)
		inv.PUT("/:id", h.UpdateInvoice)
		inv.POST("/:id/delete", h.DeleteInvoice)
		inv.DELETE("/:id", h.DeleteInvoice)
	}
}

var (
	corsHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", "If-None-Match", middleware.HeaderIdempotencyKey}
	corsExposed = []string{"X-Request-ID", "Content-Length", "ETag", "X-Cache", "X-Invoice-ID", "Idempotency-Replayed"}
)

// corsMiddleware allows every origin when origins is empty and otherwise
// only the listed ones. Allow-Origin is set before gin-contrib/cors runs so
// it is present even on requests without an Origin header, which the
// dashboard's same-origin form posts are.
func corsMiddleware(origins []string) []gin.HandlerFunc {
	cc := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  corsHeaders,
		ExposeHeaders: corsExposed,
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cc.AllowAllOrigins = true
		return []gin.HandlerFunc{
			func(c *gin.Context) {
				c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
				c.Next()
			},
			cors.New(cc),
		}
	}

	cc.AllowOrigins = origins
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return []gin.HandlerFunc{
		func(c *gin.Context) {
			if o := c.GetHeader("Origin"); allowed[o] {
				c.Writer.Header().Set("Access-Control-Allow-Origin", o)
				c.Writer.Header().Add("Vary", "Origin")
			}
			c.Next()
		},
		cors.New(cc),
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
