// Package services – InvoiceService
//
// This file implements the invoice write actions submitted from the
// dashboard forms. Each action is a straight line: validate the form, convert
// the amount to minor units, issue exactly one statement, revalidate the
// cached invoices listing and tell the caller where to navigate.
//
// Failures are logged once, at the point they happen, and returned to the
// caller unchanged in kind: *ValidationError before any statement runs,
// *PersistenceError (wrapping the driver error) when the write fails. No
// action retries or recovers.
//
// Observability: every action runs in its own OpenTelemetry span and bumps
// invoice_actions_total{action,outcome}.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-invoice-dashboard/internal/domain"
	"github.com/tbourn/go-invoice-dashboard/internal/observability"
	"github.com/tbourn/go-invoice-dashboard/internal/repo"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultInvoicesPath is the listing revalidated and redirected to after a
// successful write.
const DefaultInvoicesPath = "/dashboard/invoices"

// InvoiceRepo defines the repository contract required by InvoiceService.
type InvoiceRepo interface {
	// InsertInvoice writes one new invoice row.
	InsertInvoice(ctx context.Context, db *gorm.DB, inv *domain.Invoice) error
	// UpdateInvoice rewrites customer, amount and status; returns rows affected.
	UpdateInvoice(ctx context.Context, db *gorm.DB, id, customerID string, amount int64, status string) (int64, error)
	// DeleteInvoice removes the row; returns rows affected.
	DeleteInvoice(ctx context.Context, db *gorm.DB, id string) (int64, error)

	GetInvoice(ctx context.Context, db *gorm.DB, id string) (*domain.Invoice, error)
	CountInvoices(ctx context.Context, db *gorm.DB, query string) (int64, error)
	ListInvoicesPage(ctx context.Context, db *gorm.DB, query string, offset, limit int) ([]repo.InvoiceRow, error)
	ListCustomers(ctx context.Context, db *gorm.DB) ([]domain.Customer, error)
	SummaryStats(ctx context.Context, db *gorm.DB) (repo.InvoiceTotals, error)
}

// Revalidator discards the cached rendering of a route path.
type Revalidator interface {
	Revalidate(ctx context.Context, path string) error
}

// ActionResult tells the caller what a successful write did.
type ActionResult struct {
	// Invoice is the row written by CreateInvoice; nil for the other actions.
	Invoice *domain.Invoice
	// RowsAffected is the number of rows the statement touched. An update or
	// delete of an unknown id reports 0 without failing.
	RowsAffected int64
	// RedirectTo is the path to navigate to, empty when the caller should stay.
	RedirectTo string
}

// InvoiceService performs the invoice write actions and serves the dashboard
// read models.
type InvoiceService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the invoice repository used by this service.
	Repo InvoiceRepo
	// Cache is revalidated after every successful write. May be nil.
	Cache Revalidator
	// InvoicesPath is the listing path; defaults to DefaultInvoicesPath.
	InvoicesPath string

	// Now and NewID are the clock and id source; replaced in tests.
	Now   func() time.Time
	NewID func() string
}

// NewInvoiceService constructs an InvoiceService with the default listing
// path, wall clock and UUID ids.
func NewInvoiceService(db *gorm.DB, r InvoiceRepo, cache Revalidator) *InvoiceService {
	return &InvoiceService{
		DB:           db,
		Repo:         r,
		Cache:        cache,
		InvoicesPath: DefaultInvoicesPath,
		Now:          time.Now,
		NewID:        uuid.NewString,
	}
}

// CreateInvoice validates form, inserts the invoice dated today (UTC) and
// revalidates the listing. On success the caller should redirect to
// RedirectTo.
func (s *InvoiceService) CreateInvoice(ctx context.Context, form InvoiceForm) (*ActionResult, error) {
	const action = "create"
	ctx, span := observability.Tracer().Start(ctx, "CreateInvoice")
	defer span.End()
	lg := actionLogger(ctx, action)

	v, err := form.Validate()
	if err != nil {
		return nil, s.fail(span, lg, action, err)
	}
	lg.Debug().
		Str("customer_id", v.CustomerID).
		Str("amount", form.Amount).
		Str("status", v.Status).
		Msg("parsed invoice form")

	inv := &domain.Invoice{
		ID:         s.newID(),
		CustomerID: v.CustomerID,
		Amount:     v.AmountCents,
		Status:     v.Status,
		Date:       s.now().UTC().Format(domain.DateLayout),
	}
	span.SetAttributes(attribute.String("invoice.id", inv.ID))
	lg.Debug().
		Str("invoice_id", inv.ID).
		Str("customer_id", inv.CustomerID).
		Int64("amount_cents", inv.Amount).
		Str("status", inv.Status).
		Str("date", inv.Date).
		Msg("inserting invoice")

	if err := s.Repo.InsertInvoice(ctx, s.DB, inv); err != nil {
		return nil, s.fail(span, lg, action, &PersistenceError{Op: "insert", Err: err})
	}
	lg.Info().Str("invoice_id", inv.ID).Msg("invoice created")

	if err := s.revalidate(ctx); err != nil {
		return nil, s.fail(span, lg, action, err)
	}
	ActionsTotal.WithLabelValues(action, outcomeOK).Inc()
	return &ActionResult{Invoice: inv, RowsAffected: 1, RedirectTo: s.listingPath()}, nil
}

// UpdateInvoice validates form and rewrites customer, amount and status of
// invoice id. The id and date columns are never written, and the existence of
// id is not checked: an unknown id succeeds with RowsAffected == 0.
func (s *InvoiceService) UpdateInvoice(ctx context.Context, id string, form InvoiceForm) (*ActionResult, error) {
	const action = "update"
	ctx, span := observability.Tracer().Start(ctx, "UpdateInvoice",
		trace.WithAttributes(attribute.String("invoice.id", id)),
	)
	defer span.End()
	lg := actionLogger(ctx, action)

	v, err := form.Validate()
	if err != nil {
		return nil, s.fail(span, lg, action, err)
	}
	lg.Debug().
		Str("invoice_id", id).
		Str("customer_id", v.CustomerID).
		Str("amount", form.Amount).
		Str("status", v.Status).
		Msg("parsed invoice form")
	lg.Debug().
		Str("invoice_id", id).
		Str("customer_id", v.CustomerID).
		Int64("amount_cents", v.AmountCents).
		Str("status", v.Status).
		Msg("updating invoice")

	n, err := s.Repo.UpdateInvoice(ctx, s.DB, id, v.CustomerID, v.AmountCents, v.Status)
	if err != nil {
		return nil, s.fail(span, lg, action, &PersistenceError{Op: "update", Err: err})
	}
	span.SetAttributes(attribute.Int64("db.rows_affected", n))
	lg.Info().Str("invoice_id", id).Int64("rows", n).Msg("invoice updated")

	if err := s.revalidate(ctx); err != nil {
		return nil, s.fail(span, lg, action, err)
	}
	ActionsTotal.WithLabelValues(action, outcomeOK).Inc()
	return &ActionResult{RowsAffected: n, RedirectTo: s.listingPath()}, nil
}

// DeleteInvoice removes invoice id with a single DELETE and revalidates the
// listing. It never asks the caller to redirect.
func (s *InvoiceService) DeleteInvoice(ctx context.Context, id string) (*ActionResult, error) {
	const action = "delete"
	ctx, span := observability.Tracer().Start(ctx, "DeleteInvoice",
		trace.WithAttributes(attribute.String("invoice.id", id)),
	)
	defer span.End()
	lg := actionLogger(ctx, action)

	lg.Debug().Str("invoice_id", id).Msg("deleting invoice")
	n, err := s.Repo.DeleteInvoice(ctx, s.DB, id)
	if err != nil {
		return nil, s.fail(span, lg, action, &PersistenceError{Op: "delete", Err: err})
	}
	span.SetAttributes(attribute.Int64("db.rows_affected", n))
	lg.Info().Str("invoice_id", id).Int64("rows", n).Msg("invoice deleted")

	if err := s.revalidate(ctx); err != nil {
		return nil, s.fail(span, lg, action, err)
	}
	ActionsTotal.WithLabelValues(action, outcomeOK).Inc()
	return &ActionResult{RowsAffected: n}, nil
}

func (s *InvoiceService) revalidate(ctx context.Context) error {
	if s.Cache == nil {
		return nil
	}
	path := s.listingPath()
	if err := s.Cache.Revalidate(ctx, path); err != nil {
		return fmt.Errorf("revalidate %s: %w", path, err)
	}
	return nil
}

// fail logs err once, marks the span and counts the outcome.
func (s *InvoiceService) fail(span trace.Span, lg zerolog.Logger, action string, err error) error {
	outcome := outcomeError
	ev := lg.Error()
	if errors.Is(err, ErrValidation) {
		outcome = outcomeInvalid
		ev = lg.Warn()
	}
	ev.Err(err).Msg("invoice action failed")
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	ActionsTotal.WithLabelValues(action, outcome).Inc()
	return err
}

func (s *InvoiceService) listingPath() string {
	if s.InvoicesPath == "" {
		return DefaultInvoicesPath
	}
	return s.InvoicesPath
}

func (s *InvoiceService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *InvoiceService) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

// actionLogger returns the request-scoped logger carried by ctx, falling back
// to the global logger, tagged with the action name.
func actionLogger(ctx context.Context, action string) zerolog.Logger {
	l := zerolog.Ctx(ctx)
	if l.GetLevel() == zerolog.Disabled {
		l = &log.Logger
	}
	return l.With().Str("action", action).Logger()
}
