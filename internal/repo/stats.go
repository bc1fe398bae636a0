// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the aggregate queries behind the
// dashboard summary cards.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-invoice-dashboard/internal/domain"
)

// InvoiceTotals aggregates the invoices table for the dashboard cards.
// Amounts are minor units.
type InvoiceTotals struct {
	Invoices  int64
	Customers int64
	Paid      int64
	Pending   int64
}

// SummaryStats returns invoice and customer counts together with the paid and
// pending amount sums. An empty store yields all zeros.
func SummaryStats(ctx context.Context, db *gorm.DB) (InvoiceTotals, error) {
	var out InvoiceTotals

	var sums struct {
		Invoices int64
		Paid     int64
		Pending  int64
	}
	err := db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Select(`COUNT(*) AS invoices,
			COALESCE(SUM(CASE WHEN status = ? THEN amount ELSE 0 END), 0) AS paid,
			COALESCE(SUM(CASE WHEN status = ? THEN amount ELSE 0 END), 0) AS pending`,
			domain.StatusPaid, domain.StatusPending).
		Scan(&sums).Error
	if err != nil {
		return out, err
	}

	if err := db.WithContext(ctx).Model(&domain.Customer{}).Count(&out.Customers).Error; err != nil {
		return out, err
	}

	out.Invoices, out.Paid, out.Pending = sums.Invoices, sums.Paid, sums.Pending
	return out, nil
}
