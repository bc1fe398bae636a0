// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Invoice and
// Customer models.
//
// All functions are context-aware and accept a *gorm.DB handle. They follow
// the "thin repository" approach: each write issues exactly one statement and
// carries no business rules. Validation, minor-unit conversion and cache
// invalidation belong to services.InvoiceService.
//
// Error semantics:
//   - GetInvoice returns ErrNotFound when no row matches.
//   - UpdateInvoice and DeleteInvoice never treat a missing row as an error;
//     they report the affected row count instead.
//   - Driver errors (constraint violations, connectivity) are returned as is.
package repo

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-invoice-dashboard/internal/domain"
)

// ErrNotFound is returned by lookups that match no row.
var ErrNotFound = gorm.ErrRecordNotFound

// InvoiceRow is an invoice joined with the customer it is billed to, as shown
// in the dashboard listing.
type InvoiceRow struct {
	ID         string
	CustomerID string
	Name       string
	Email      string
	ImageURL   string
	Amount     int64
	Status     string
	Date       string
}

// InsertInvoice writes inv with a single INSERT of
// (id, customer_id, amount, status, date).
func InsertInvoice(ctx context.Context, db *gorm.DB, inv *domain.Invoice) error {
	return db.WithContext(ctx).
		Omit(clause.Associations).
		Select("id", "customer_id", "amount", "status", "date").
		Create(inv).Error
}

// UpdateInvoice sets customer_id, amount and status of the invoice with the
// given id. The id and date columns are never written. Zero affected rows is
// not an error.
func UpdateInvoice(ctx context.Context, db *gorm.DB, id, customerID string, amount int64, status string) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"customer_id": customerID,
			"amount":      amount,
			"status":      status,
		})
	return res.RowsAffected, res.Error
}

// DeleteInvoice hard-deletes the invoice with the given id and reports how
// many rows were removed.
func DeleteInvoice(ctx context.Context, db *gorm.DB, id string) (int64, error) {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Invoice{})
	return res.RowsAffected, res.Error
}

// GetInvoice fetches a single invoice by ID, or ErrNotFound.
func GetInvoice(ctx context.Context, db *gorm.DB, id string) (*domain.Invoice, error) {
	var inv domain.Invoice
	if err := db.WithContext(ctx).Where("id = ?", id).First(&inv).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

// CountInvoices returns the number of invoices matching query (see
// ListInvoicesPage for the matching rules).
func CountInvoices(ctx context.Context, db *gorm.DB, query string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Scopes(joinCustomers, matchQuery(query)).
		Count(&total).Error
	return total, err
}

// ListInvoicesPage returns one page of invoices joined with their customers,
// newest date first (ties broken by id). A non-empty query keeps rows whose
// customer name or email, amount, date or status contains it, ignoring case.
//
// The caller is responsible for computing offset and limit (e.g., (page-1)*pageSize).
func ListInvoicesPage(ctx context.Context, db *gorm.DB, query string, offset, limit int) ([]InvoiceRow, error) {
	out := make([]InvoiceRow, 0, limit)
	err := db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Select(`invoices.id, invoices.customer_id, customers.name, customers.email,
			customers.image_url, invoices.amount, invoices.status, invoices.date`).
		Scopes(joinCustomers, matchQuery(query)).
		Order("invoices.date DESC, invoices.id ASC").
		Offset(offset).
		Limit(limit).
		Scan(&out).Error
	return out, err
}

// ListCustomers returns every customer ordered by name, for the invoice form.
func ListCustomers(ctx context.Context, db *gorm.DB) ([]domain.Customer, error) {
	var out []domain.Customer
	err := db.WithContext(ctx).Order("name ASC, id ASC").Find(&out).Error
	return out, err
}

func joinCustomers(db *gorm.DB) *gorm.DB {
	return db.Joins("JOIN customers ON customers.id = invoices.customer_id")
}

func matchQuery(query string) func(*gorm.DB) *gorm.DB {
	q := strings.ToLower(strings.TrimSpace(query))
	return func(db *gorm.DB) *gorm.DB {
		if q == "" {
			return db
		}
		like := "%" + escapeLike(q) + "%"
		return db.Where(`LOWER(customers.name) LIKE ? ESCAPE '\'
			OR LOWER(customers.email) LIKE ? ESCAPE '\'
			OR CAST(invoices.amount AS TEXT) LIKE ? ESCAPE '\'
			OR invoices.date LIKE ? ESCAPE '\'
			OR LOWER(invoices.status) LIKE ? ESCAPE '\'`,
			like, like, like, like, like)
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }
