package services

import (
	"context"
	"errors"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/tbourn/go-invoice-dashboard/internal/domain"
	"github.com/tbourn/go-invoice-dashboard/internal/observability"
	"github.com/tbourn/go-invoice-dashboard/internal/repo"
	"github.com/tbourn/go-invoice-dashboard/internal/utils"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// InvoiceView is one row of the invoices listing.
type InvoiceView struct {
	ID              string `json:"id"`
	CustomerID      string `json:"customer_id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	ImageURL        string `json:"image_url,omitempty"`
	Amount          int64  `json:"amount"`
	AmountFormatted string `json:"amount_formatted"`
	Status          string `json:"status"`
	Date            string `json:"date"`
}

// Summary backs the dashboard cards. Amounts are minor units with their
// formatted counterparts.
type Summary struct {
	Invoices         int64  `json:"invoices"`
	Customers        int64  `json:"customers"`
	Paid             int64  `json:"paid"`
	Pending          int64  `json:"pending"`
	PaidFormatted    string `json:"paid_formatted"`
	PendingFormatted string `json:"pending_formatted"`
}

var usd = message.NewPrinter(language.AmericanEnglish)

// FormatCurrency renders minor units as US dollars, e.g. 4250 -> "$42.50".
func FormatCurrency(cents int64) string {
	return usd.Sprintf("$%.2f", float64(cents)/100)
}

// ListPage returns one page of the invoices listing filtered by query. It
// applies defaults for invalid page/pageSize and returns the total match count.
func (s *InvoiceService) ListPage(ctx context.Context, query string, page, pageSize int) ([]InvoiceView, int64, error) {
	ctx, span := observability.Tracer().Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.String("query", query),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 6
	}
	offset := utils.PageOffset(page, pageSize)

	total, err := s.Repo.CountInvoices(ctx, s.DB, query)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []InvoiceView{}, 0, nil
	}

	rows, err := s.Repo.ListInvoicesPage(ctx, s.DB, query, offset, pageSize)
	if err != nil {
		return nil, 0, err
	}
	out := make([]InvoiceView, 0, len(rows))
	for _, r := range rows {
		out = append(out, InvoiceView{
			ID:              r.ID,
			CustomerID:      r.CustomerID,
			Name:            r.Name,
			Email:           r.Email,
			ImageURL:        r.ImageURL,
			Amount:          r.Amount,
			AmountFormatted: FormatCurrency(r.Amount),
			Status:          r.Status,
			Date:            r.Date,
		})
	}
	return out, total, nil
}

// Get returns the invoice with the given id, or ErrInvoiceNotFound.
func (s *InvoiceService) Get(ctx context.Context, id string) (*domain.Invoice, error) {
	inv, err := s.Repo.GetInvoice(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrInvoiceNotFound
	}
	return inv, err
}

// Customers lists every customer for the invoice form's customer picker.
func (s *InvoiceService) Customers(ctx context.Context) ([]domain.Customer, error) {
	return s.Repo.ListCustomers(ctx, s.DB)
}

// Summary returns the dashboard card figures.
func (s *InvoiceService) Summary(ctx context.Context) (*Summary, error) {
	t, err := s.Repo.SummaryStats(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	return &Summary{
		Invoices:         t.Invoices,
		Customers:        t.Customers,
		Paid:             t.Paid,
		Pending:          t.Pending,
		PaidFormatted:    FormatCurrency(t.Paid),
		PendingFormatted: FormatCurrency(t.Pending),
	}, nil
}
