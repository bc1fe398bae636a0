// Package handlers serves the invoice dashboard over HTTP.
//
// This file exposes the dashboard endpoints:
//   - GET    /dashboard                       (summary cards)
//   - GET    /dashboard/customers             (customer picker)
//   - GET    /dashboard/invoices              (listing, page cached, ETag support)
//   - POST   /dashboard/invoices              (create from form, 303 redirect)
//   - GET    /dashboard/invoices/{id}         (one invoice)
//   - POST   /dashboard/invoices/{id}         (update from form, 303 redirect)
//   - PUT    /dashboard/invoices/{id}         (same as POST)
//   - POST   /dashboard/invoices/{id}/delete  (delete, 204)
//   - DELETE /dashboard/invoices/{id}         (same as POST .../delete)
//
// Handlers are transport-thin: they decode the form, call InvoiceService and
// present its outcome. The service decides what a failure is; the handlers
// only map *services.ValidationError to 400 and everything else to 5xx.
//
// Idempotency:
// A create carrying an Idempotency-Key claims a record for (user, route, key)
// before inserting. A later request with the same key gets the original
// redirect with `Idempotency-Replayed: true`, or 409 while the first one is
// still running. A failed create releases its claim.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/go-invoice-dashboard/internal/cache"
	"github.com/tbourn/go-invoice-dashboard/internal/domain"
	"github.com/tbourn/go-invoice-dashboard/internal/http/middleware"
	"github.com/tbourn/go-invoice-dashboard/internal/repo"
	"github.com/tbourn/go-invoice-dashboard/internal/services"
	"github.com/tbourn/go-invoice-dashboard/internal/utils"
)

//
// Service contract (context-aware)
//

// InvoiceService defines the invoice actions and read models consumed by the
// HTTP handlers. *services.InvoiceService implements it.
type InvoiceService interface {
	CreateInvoice(ctx context.Context, form services.InvoiceForm) (*services.ActionResult, error)
	UpdateInvoice(ctx context.Context, id string, form services.InvoiceForm) (*services.ActionResult, error)
	DeleteInvoice(ctx context.Context, id string) (*services.ActionResult, error)

	ListPage(ctx context.Context, query string, page, pageSize int) ([]services.InvoiceView, int64, error)
	Get(ctx context.Context, id string) (*domain.Invoice, error)
	Customers(ctx context.Context) ([]domain.Customer, error)
	Summary(ctx context.Context) (*services.Summary, error)
}

//
// Handler wiring
//

// Options tunes optional handler behavior.
type Options struct {
	// InvoicesPath is the listing path used as the page cache key. It must
	// match the path the service revalidates.
	InvoicesPath string
	// IdempotencyTTL is how long a create's Idempotency-Key is honored.
	// Values <= 0 default to 24h.
	IdempotencyTTL time.Duration
}

// Handlers groups the dashboard endpoints.
type Handlers struct {
	invSvc       InvoiceService
	pages        cache.Store
	invoicesPath string
	idemTTL      time.Duration
}

// New constructs Handlers bound to the invoice service and page cache. pages
// may be nil, in which case the listing is always rendered fresh.
func New(invSvc InvoiceService, pages cache.Store, opts Options) *Handlers {
	h := &Handlers{
		invSvc:       invSvc,
		pages:        pages,
		invoicesPath: opts.InvoicesPath,
		idemTTL:      opts.IdempotencyTTL,
	}
	if h.invoicesPath == "" {
		h.invoicesPath = services.DefaultInvoicesPath
	}
	if h.idemTTL <= 0 {
		h.idemTTL = 24 * time.Hour
	}
	return h
}

//
// DTOs
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListInvoicesResponse wraps a page of the invoices listing.
type ListInvoicesResponse struct {
	Query      string                 `json:"query"`
	Invoices   []services.InvoiceView `json:"invoices"`
	Pagination Pagination             `json:"pagination"`
}

// ListCustomersResponse wraps the customer list.
type ListCustomersResponse struct {
	Customers []domain.Customer `json:"customers"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params,
// returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 6
		maxPageSize     = 100
	)
	page = utils.IntInRange(c.Query("page"), defaultPage, 1, 0)
	pageSize = utils.IntInRange(c.Query("page_size"), defaultPageSize, 1, maxPageSize)
	return
}

// readForm decodes an urlencoded or multipart body into an InvoiceForm.
func readForm(c *gin.Context) (services.InvoiceForm, error) {
	ct := c.ContentType()
	if ct == gin.MIMEMultipartPOSTForm {
		if err := c.Request.ParseMultipartForm(1 << 20); err != nil {
			return services.InvoiceForm{}, err
		}
	} else if err := c.Request.ParseForm(); err != nil {
		return services.InvoiceForm{}, err
	}
	return services.FormFromValues(c.Request.PostForm), nil
}

// listVariant names one rendering of the listing inside the page cache.
func listVariant(query string, page, pageSize int) string {
	return fmt.Sprintf("query=%s&page=%d&page_size=%d", url.QueryEscape(query), page, pageSize)
}

// listETag derives a weak ETag from the cache generation and the variant, so
// it changes whenever the listing is revalidated.
func listETag(gen uint64, variant string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(variant))
	return fmt.Sprintf(`W/"invoices:%d:%x"`, gen, h.Sum64())
}

// idempotencyDB returns the handle idempotency records live in, or nil when
// the service is not the concrete GORM-backed one.
func (h *Handlers) idempotencyDB() *gorm.DB {
	if svc, ok := h.invSvc.(*services.InvoiceService); ok {
		return svc.DB
	}
	return nil
}

// actionFailed presents an action error.
func actionFailed(c *gin.Context, code string, err error) {
	var ve *services.ValidationError
	switch {
	case errors.As(err, &ve):
		failValidation(c, "invalid invoice form", ve.Issues)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		fail(c, http.StatusServiceUnavailable, ErrCodeUnavailable, "request cancelled")
	default:
		fail(c, http.StatusInternalServerError, code, err.Error())
	}
}

//
// Handlers
//

// Summary godoc
// @ID          getSummary
// @Summary     Dashboard summary
// @Description Returns invoice and customer counts plus paid/pending totals (minor units and formatted).
// @Tags        Dashboard
// @Produce     json
// @Success     200  {object}  services.Summary
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /dashboard [get]
func (h *Handlers) Summary(c *gin.Context) {
	sum, err := h.invSvc.Summary(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, sum)
}

// ListCustomers godoc
// @ID          listCustomers
// @Summary     List customers
// @Description Returns every customer ordered by name, for the invoice form picker.
// @Tags        Dashboard
// @Produce     json
// @Success     200  {object}  handlers.ListCustomersResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /dashboard/customers [get]
func (h *Handlers) ListCustomers(c *gin.Context) {
	items, err := h.invSvc.Customers(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	if items == nil {
		items = []domain.Customer{}
	}
	ok(c, http.StatusOK, ListCustomersResponse{Customers: items})
}

// ListInvoices godoc
// @ID          listInvoices
// @Summary     List invoices (paginated, searchable)
// @Description Returns a page of invoices, newest first, matching the optional query against
// @Description customer name/email, amount, date and status. Responses are served from the
// @Description page cache until an invoice action revalidates the listing. Supports weak ETag
// @Description via If-None-Match and may return 304.
// @Tags        Invoices
// @Produce     json
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"invoices:3:af63bd4c8601b7be\")
// @Param       query          query   string  false "Search text"                  example(paid)
// @Param       page           query   int     false "Page number"                  minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"               minimum(1) maximum(100) default(6)
//
// @Success     200  {object} handlers.ListInvoicesResponse
// @Header      200  {string} ETag     "Weak ETag for current result"
// @Header      200  {string} X-Cache  "HIT or MISS"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /dashboard/invoices [get]
func (h *Handlers) ListInvoices(c *gin.Context) {
	ctx := c.Request.Context()
	query := strings.TrimSpace(c.Query("query"))
	page, pageSize := clampPagination(c)
	variant := listVariant(query, page, pageSize)

	// Page cache pre-check (best effort).
	var (
		gen    uint64
		cached = h.pages != nil
	)
	if cached {
		g, err := h.pages.Generation(ctx, h.invoicesPath)
		if err != nil {
			cache.Lookups.WithLabelValues("error").Inc()
			middleware.LoggerFrom(c).Warn().Err(err).Msg("page cache unavailable")
			cached = false
		} else {
			gen = g
			etag := listETag(gen, variant)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
			body, hit, err := h.pages.Get(ctx, h.invoicesPath, gen, variant)
			switch {
			case err != nil:
				cache.Lookups.WithLabelValues("error").Inc()
			case hit:
				cache.Lookups.WithLabelValues("hit").Inc()
				c.Header("X-Cache", "HIT")
				c.Data(http.StatusOK, "application/json; charset=utf-8", body)
				return
			default:
				cache.Lookups.WithLabelValues("miss").Inc()
			}
		}
	}

	items, total, err := h.invSvc.ListPage(ctx, query, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	totalPages := utils.TotalPages(total, pageSize)
	body, err := json.Marshal(ListInvoicesResponse{
		Query:    query,
		Invoices: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	if cached {
		if err := h.pages.Set(ctx, h.invoicesPath, gen, variant, body); err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Msg("page cache write failed")
		}
		c.Header("X-Cache", "MISS")
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

// GetInvoice godoc
// @ID          getInvoice
// @Summary     Get one invoice
// @Description Returns the invoice used to prefill the edit form.
// @Tags        Invoices
// @Produce     json
// @Param       id   path  string  true  "Invoice ID"
// @Success     200  {object} domain.Invoice
// @Failure     404  {object} handlers.ErrorResponse "Invoice not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /dashboard/invoices/{id} [get]
func (h *Handlers) GetInvoice(c *gin.Context) {
	inv, err := h.invSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrInvoiceNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "invoice not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, inv)
}

// CreateInvoice godoc
// @ID          createInvoice
// @Summary     Create an invoice
// @Description Validates the form, stores the amount in cents dated today (UTC), revalidates the
// @Description invoices listing and redirects to it. Supports idempotency via the
// @Description Idempotency-Key header (same key → same redirect, no second insert).
// @Tags        Invoices
// @Accept      x-www-form-urlencoded
// @Produce     json
//
// @Param       X-User-ID        header    string  false "User ID (demo header)"  example(user123)
// @Param       Idempotency-Key  header    string  false "Idempotency key for safe retries"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       customerId       formData  string  true  "Customer ID"
// @Param       amount           formData  string  true  "Amount in dollars"  example(42.50)
// @Param       status           formData  string  true  "pending or paid"    Enums(pending, paid)
//
// @Success     303  {string} string "See Other"
// @Header      303  {string} Location      "Invoices listing"
// @Header      303  {string} X-Invoice-ID  "ID of the created invoice"
// @Failure     400  {object} handlers.ErrorResponse "Validation failed"
// @Failure     409  {object} handlers.ErrorResponse "Same Idempotency-Key still in progress"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /dashboard/invoices [post]
func (h *Handlers) CreateInvoice(c *gin.Context) {
	ctx := c.Request.Context()
	form, err := readForm(c)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid form body")
		return
	}

	// Idempotency: a keyed create claims its record before inserting, so
	// two concurrent submissions cannot both write.
	var claim *domain.Idempotency
	db := h.idempotencyDB()
	if idemKey, _ := middleware.GetIdempotencyKey(c); idemKey != "" && db != nil {
		uid, scope := middleware.UserID(c), middleware.IdempotencyScope(c)
		if rec, err := repo.GetIdempotency(ctx, db, uid, scope, idemKey, time.Now().UTC()); err == nil {
			h.replayCreate(c, rec)
			return
		}
		rec, err := repo.CreateIdempotency(ctx, db, uid, scope, idemKey, "", domain.IdempotencyPending, h.idemTTL)
		switch {
		case err == nil:
			claim = rec
		case errors.Is(err, repo.ErrDuplicate):
			// claimed by a concurrent request between lookup and insert
			if rec, err := repo.GetIdempotency(ctx, db, uid, scope, idemKey, time.Now().UTC()); err == nil {
				h.replayCreate(c, rec)
				return
			}
			fail(c, http.StatusConflict, ErrCodeConflict, "a request with this Idempotency-Key is in progress")
			return
		default:
			middleware.LoggerFrom(c).Warn().Err(err).Msg("idempotency claim failed")
		}
	}

	res, err := h.invSvc.CreateInvoice(ctx, form)
	if err != nil {
		if claim != nil {
			if rerr := repo.ReleaseIdempotency(context.WithoutCancel(ctx), db, claim.ID); rerr != nil {
				middleware.LoggerFrom(c).Warn().Err(rerr).Msg("idempotency claim not released")
			}
		}
		actionFailed(c, ErrCodeCreateFailed, err)
		return
	}

	// The invoice exists either way, so a failed completion only costs the
	// client its replay.
	if claim != nil && res.Invoice != nil {
		if err := repo.CompleteIdempotency(ctx, db, claim.ID, res.Invoice.ID, http.StatusSeeOther); err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Str("invoice_id", res.Invoice.ID).Msg("idempotency record not completed")
		}
	}

	if res.Invoice != nil {
		c.Header("X-Invoice-ID", res.Invoice.ID)
	}
	seeOther(c, res.RedirectTo)
}

// replayCreate answers a keyed create whose record already exists: the
// original redirect once it completed, 409 while it is still running.
func (h *Handlers) replayCreate(c *gin.Context, rec *domain.Idempotency) {
	if rec.Status == domain.IdempotencyPending {
		fail(c, http.StatusConflict, ErrCodeConflict, "a request with this Idempotency-Key is in progress")
		return
	}
	c.Header("Idempotency-Replayed", "true")
	c.Header("X-Invoice-ID", rec.InvoiceID)
	seeOther(c, h.invoicesPath)
}

// UpdateInvoice godoc
// @ID          updateInvoice
// @Summary     Update an invoice
// @Description Validates the form, rewrites customer, amount and status (the date is kept),
// @Description revalidates the invoices listing and redirects to it. An unknown id is not an error.
// @Tags        Invoices
// @Accept      x-www-form-urlencoded
// @Produce     json
//
// @Param       id          path      string  true  "Invoice ID"
// @Param       customerId  formData  string  true  "Customer ID"
// @Param       amount      formData  string  true  "Amount in dollars"  example(42.50)
// @Param       status      formData  string  true  "pending or paid"    Enums(pending, paid)
//
// @Success     303  {string} string "See Other"
// @Header      303  {string} Location  "Invoices listing"
// @Failure     400  {object} handlers.ErrorResponse "Validation failed"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /dashboard/invoices/{id} [post]
// @Router      /dashboard/invoices/{id} [put]
func (h *Handlers) UpdateInvoice(c *gin.Context) {
	form, err := readForm(c)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid form body")
		return
	}

	res, err := h.invSvc.UpdateInvoice(c.Request.Context(), c.Param("id"), form)
	if err != nil {
		actionFailed(c, ErrCodeUpdateFailed, err)
		return
	}
	seeOther(c, res.RedirectTo)
}

// DeleteInvoice godoc
// @ID          deleteInvoice
// @Summary     Delete an invoice
// @Description Removes the invoice and revalidates the invoices listing. The caller stays on
// @Description the current page. An unknown id is not an error.
// @Tags        Invoices
// @Produce     json
// @Param       id   path  string  true  "Invoice ID"
// @Success     204  {string} string "No Content"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /dashboard/invoices/{id}/delete [post]
// @Router      /dashboard/invoices/{id} [delete]
func (h *Handlers) DeleteInvoice(c *gin.Context) {
	if _, err := h.invSvc.DeleteInvoice(c.Request.Context(), c.Param("id")); err != nil {
		actionFailed(c, ErrCodeDeleteFailed, err)
		return
	}
	noContent(c)
}
