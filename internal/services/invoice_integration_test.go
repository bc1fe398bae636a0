package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-invoice-dashboard/internal/cache"
	"github.com/tbourn/go-invoice-dashboard/internal/domain"
	"github.com/tbourn/go-invoice-dashboard/internal/repo"
)

// sqlRepo binds InvoiceRepo to the GORM repository functions.
type sqlRepo struct{}

func (sqlRepo) InsertInvoice(ctx context.Context, db *gorm.DB, inv *domain.Invoice) error {
	return repo.InsertInvoice(ctx, db, inv)
}
func (sqlRepo) UpdateInvoice(ctx context.Context, db *gorm.DB, id, customerID string, amount int64, status string) (int64, error) {
	return repo.UpdateInvoice(ctx, db, id, customerID, amount, status)
}
func (sqlRepo) DeleteInvoice(ctx context.Context, db *gorm.DB, id string) (int64, error) {
	return repo.DeleteInvoice(ctx, db, id)
}
func (sqlRepo) GetInvoice(ctx context.Context, db *gorm.DB, id string) (*domain.Invoice, error) {
	return repo.GetInvoice(ctx, db, id)
}
func (sqlRepo) CountInvoices(ctx context.Context, db *gorm.DB, query string) (int64, error) {
	return repo.CountInvoices(ctx, db, query)
}
func (sqlRepo) ListInvoicesPage(ctx context.Context, db *gorm.DB, query string, offset, limit int) ([]repo.InvoiceRow, error) {
	return repo.ListInvoicesPage(ctx, db, query, offset, limit)
}
func (sqlRepo) ListCustomers(ctx context.Context, db *gorm.DB) ([]domain.Customer, error) {
	return repo.ListCustomers(ctx, db)
}
func (sqlRepo) SummaryStats(ctx context.Context, db *gorm.DB) (repo.InvoiceTotals, error) {
	return repo.SummaryStats(ctx, db)
}

func newSQLiteService(t *testing.T) (*InvoiceService, *gorm.DB, *cache.Memory) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := db.Create(&domain.Customer{ID: "c1", Name: "Evil Rabbit", Email: "evil@rabbit.com"}).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := db.Create(&domain.Customer{ID: "c2", Name: "Michael Novotny", Email: "michael@novotny.com"}).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	mem := cache.NewMemory(time.Minute)
	s := NewInvoiceService(db, sqlRepo{}, mem)
	return s, db, mem
}

func TestInvoiceLifecycle_SQLite(t *testing.T) {
	s, db, mem := newSQLiteService(t)
	ctx := context.Background()
	today := time.Now().UTC().Format(domain.DateLayout)

	gen0, _ := mem.Generation(ctx, "/dashboard/invoices")

	res, err := s.CreateInvoice(ctx, InvoiceForm{CustomerID: "c1", Amount: "42.50", Status: "pending"})
	if err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}
	id := res.Invoice.ID

	var stored domain.Invoice
	if err := db.First(&stored, "id = ?", id).Error; err != nil {
		t.Fatalf("readback: %v", err)
	}
	if stored.Amount != 4250 || stored.Status != "pending" || stored.Date != today || stored.CustomerID != "c1" {
		t.Fatalf("stored = %+v", stored)
	}
	if gen1, _ := mem.Generation(ctx, "/dashboard/invoices"); gen1 != gen0+1 {
		t.Fatalf("create did not revalidate listing: gen %d -> %d", gen0, gen1)
	}

	// Update keeps id and date.
	db.Model(&domain.Invoice{}).Where("id = ?", id).Update("date", "2020-01-01")
	if _, err := s.UpdateInvoice(ctx, id, InvoiceForm{CustomerID: "c2", Amount: "10", Status: "paid"}); err != nil {
		t.Fatalf("UpdateInvoice: %v", err)
	}
	if err := db.First(&stored, "id = ?", id).Error; err != nil {
		t.Fatalf("readback: %v", err)
	}
	if stored.ID != id || stored.Date != "2020-01-01" || stored.CustomerID != "c2" || stored.Amount != 1000 || stored.Status != "paid" {
		t.Fatalf("after update = %+v", stored)
	}

	// Unknown id: success, zero rows.
	up, err := s.UpdateInvoice(ctx, "00000000-0000-0000-0000-000000000000", InvoiceForm{CustomerID: "c1", Amount: "1", Status: "paid"})
	if err != nil || up.RowsAffected != 0 {
		t.Fatalf("update unknown = (%+v, %v)", up, err)
	}

	items, total, err := s.ListPage(ctx, "novotny", 1, 10)
	if err != nil || total != 1 || items[0].ID != id || items[0].AmountFormatted != "$10.00" {
		t.Fatalf("ListPage = (%+v, %d, %v)", items, total, err)
	}

	del, err := s.DeleteInvoice(ctx, id)
	if err != nil || del.RowsAffected != 1 || del.RedirectTo != "" {
		t.Fatalf("DeleteInvoice = (%+v, %v)", del, err)
	}
	if _, err := s.Get(ctx, id); err != ErrInvoiceNotFound {
		t.Fatalf("expected ErrInvoiceNotFound after delete, got %v", err)
	}
}

func TestCreateInvoice_SQLite_StoreFailureIsPersistenceError(t *testing.T) {
	s, db, mem := newSQLiteService(t)
	ctx := context.Background()
	gen0, _ := mem.Generation(ctx, "/dashboard/invoices")

	if err := db.Migrator().DropTable(&domain.Invoice{}); err != nil {
		t.Fatalf("drop: %v", err)
	}
	_, err := s.CreateInvoice(ctx, InvoiceForm{CustomerID: "c1", Amount: "1", Status: "paid"})
	var perr *PersistenceError
	if !errors.As(err, &perr) || perr.Op != "insert" {
		t.Fatalf("expected insert PersistenceError, got %v", err)
	}
	if gen1, _ := mem.Generation(ctx, "/dashboard/invoices"); gen1 != gen0 {
		t.Fatalf("failed create must not revalidate")
	}
}
