// Package domain defines the persistence models for invoices and the
// customers they are billed to. These types are mapped with GORM and form the
// core data layer of the invoice dashboard.
package domain

// Invoice status values accepted by the store.
const (
	StatusPending = "pending"
	StatusPaid    = "paid"
)

// DateLayout is the calendar-date layout of Invoice.Date (YYYY-MM-DD).
const DateLayout = "2006-01-02"

// Customer is the party an invoice is billed to. Customers are read-only for
// this service; they are seeded out of band.
type Customer struct {
	ID       string `json:"id"        gorm:"type:varchar(36);primaryKey"`
	Name     string `json:"name"      gorm:"type:varchar(255);not null;index:idx_customers_name"`
	Email    string `json:"email"     gorm:"type:varchar(255);not null"`
	ImageURL string `json:"image_url" gorm:"type:varchar(255)"`
}

// TableName returns the database table name for Customer.
func (Customer) TableName() string { return "customers" }

// Invoice represents a single amount billed to a customer.
//
// Fields:
//   - ID: server-generated UUID, immutable after insert.
//   - CustomerID: foreign key to customers.id.
//   - Amount: minor currency units (cents), never negative.
//   - Status: "pending" or "paid" (enforced by DB constraint).
//   - Date: calendar date of creation in UTC (YYYY-MM-DD), never modified.
//
// Deletes are hard deletes, so there is no DeletedAt column.
type Invoice struct {
	ID         string `json:"id"          gorm:"type:varchar(36);primaryKey"`
	CustomerID string `json:"customer_id" gorm:"type:varchar(36);not null;index:idx_invoices_customer"`
	Amount     int64  `json:"amount"      gorm:"not null;check:chk_invoices_amount,amount >= 0"`
	Status     string `json:"status"      gorm:"type:varchar(16);not null;check:chk_invoices_status,status IN ('pending','paid')"`
	Date       string `json:"date"        gorm:"type:varchar(10);not null;index:idx_invoices_date"`

	// Customer is the billed party. Invoices are removed with their customer.
	Customer Customer `json:"-" gorm:"foreignKey:CustomerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Invoice.
func (Invoice) TableName() string { return "invoices" }

// ValidStatus reports whether s is one of the accepted invoice statuses.
func ValidStatus(s string) bool {
	return s == StatusPending || s == StatusPaid
}
