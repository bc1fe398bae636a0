package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tbourn/go-invoice-dashboard/internal/domain"
	"github.com/tbourn/go-invoice-dashboard/internal/repo"
)

// ----- Fakes -----

type fakeInvoiceRepo struct {
	insertCalls int
	inserted    *domain.Invoice
	insertErr   error

	updateCalls                        int
	updateID, updateCustomer, updateSt string
	updateAmount                       int64
	updateRows                         int64
	updateErr                          error

	deleteCalls int
	deleteID    string
	deleteRows  int64
	deleteErr   error

	getInv *domain.Invoice
	getErr error

	countQuery string
	countTotal int64
	countErr   error

	pageCalls  int
	pageQuery  string
	pageOffset int
	pageLimit  int
	pageRows   []repo.InvoiceRow
	pageErr    error

	customers []domain.Customer
	totals    repo.InvoiceTotals
	totalsErr error
}

func (r *fakeInvoiceRepo) InsertInvoice(ctx context.Context, db *gorm.DB, inv *domain.Invoice) error {
	r.insertCalls++
	cp := *inv
	r.inserted = &cp
	return r.insertErr
}

func (r *fakeInvoiceRepo) UpdateInvoice(ctx context.Context, db *gorm.DB, id, customerID string, amount int64, status string) (int64, error) {
	r.updateCalls++
	r.updateID, r.updateCustomer, r.updateAmount, r.updateSt = id, customerID, amount, status
	return r.updateRows, r.updateErr
}

func (r *fakeInvoiceRepo) DeleteInvoice(ctx context.Context, db *gorm.DB, id string) (int64, error) {
	r.deleteCalls++
	r.deleteID = id
	return r.deleteRows, r.deleteErr
}

func (r *fakeInvoiceRepo) GetInvoice(ctx context.Context, db *gorm.DB, id string) (*domain.Invoice, error) {
	return r.getInv, r.getErr
}

func (r *fakeInvoiceRepo) CountInvoices(ctx context.Context, db *gorm.DB, query string) (int64, error) {
	r.countQuery = query
	return r.countTotal, r.countErr
}

func (r *fakeInvoiceRepo) ListInvoicesPage(ctx context.Context, db *gorm.DB, query string, offset, limit int) ([]repo.InvoiceRow, error) {
	r.pageCalls++
	r.pageQuery, r.pageOffset, r.pageLimit = query, offset, limit
	return r.pageRows, r.pageErr
}

func (r *fakeInvoiceRepo) ListCustomers(ctx context.Context, db *gorm.DB) ([]domain.Customer, error) {
	return r.customers, nil
}

func (r *fakeInvoiceRepo) SummaryStats(ctx context.Context, db *gorm.DB) (repo.InvoiceTotals, error) {
	return r.totals, r.totalsErr
}

type fakeRevalidator struct {
	paths []string
	err   error
}

func (f *fakeRevalidator) Revalidate(ctx context.Context, path string) error {
	f.paths = append(f.paths, path)
	return f.err
}

var fixedNow = time.Date(2024, 3, 9, 23, 30, 0, 0, time.FixedZone("UTC-5", -5*3600))

func newTestService(r *fakeInvoiceRepo, rv *fakeRevalidator) *InvoiceService {
	s := NewInvoiceService(nil, r, rv)
	s.Now = func() time.Time { return fixedNow }
	s.NewID = func() string { return "inv-1" }
	return s
}

func validForm() InvoiceForm {
	return InvoiceForm{CustomerID: "c1", Amount: "42.50", Status: "pending"}
}

// ----- Create -----

func TestCreateInvoice_Success(t *testing.T) {
	r, rv := &fakeInvoiceRepo{}, &fakeRevalidator{}
	s := newTestService(r, rv)
	before := testutil.ToFloat64(ActionsTotal.WithLabelValues("create", "ok"))

	res, err := s.CreateInvoice(context.Background(), validForm())
	if err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}
	if r.insertCalls != 1 {
		t.Fatalf("expected exactly one insert, got %d", r.insertCalls)
	}
	// 23:30 at UTC-5 is already the 10th in UTC.
	want := domain.Invoice{ID: "inv-1", CustomerID: "c1", Amount: 4250, Status: "pending", Date: "2024-03-10"}
	if r.inserted.ID != want.ID || r.inserted.CustomerID != want.CustomerID ||
		r.inserted.Amount != want.Amount || r.inserted.Status != want.Status || r.inserted.Date != want.Date {
		t.Fatalf("inserted = %+v; want %+v", *r.inserted, want)
	}
	if len(rv.paths) != 1 || rv.paths[0] != "/dashboard/invoices" {
		t.Fatalf("expected one revalidation of /dashboard/invoices, got %v", rv.paths)
	}
	if res.RedirectTo != "/dashboard/invoices" || res.Invoice == nil || res.Invoice.ID != "inv-1" || res.RowsAffected != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if got := testutil.ToFloat64(ActionsTotal.WithLabelValues("create", "ok")); got != before+1 {
		t.Fatalf("create/ok counter = %v; want %v", got, before+1)
	}
}

func TestCreateInvoice_InvalidStatus_NoWrite(t *testing.T) {
	r, rv := &fakeInvoiceRepo{}, &fakeRevalidator{}
	s := newTestService(r, rv)
	before := testutil.ToFloat64(ActionsTotal.WithLabelValues("create", "invalid"))

	f := validForm()
	f.Status = "overdue"
	res, err := s.CreateInvoice(context.Background(), f)
	if res != nil || !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation failure, got res=%+v err=%v", res, err)
	}
	if r.insertCalls != 0 || len(rv.paths) != 0 {
		t.Fatalf("validation failure must not write or revalidate (inserts=%d revalidations=%d)", r.insertCalls, len(rv.paths))
	}
	if got := testutil.ToFloat64(ActionsTotal.WithLabelValues("create", "invalid")); got != before+1 {
		t.Fatalf("create/invalid counter = %v; want %v", got, before+1)
	}
}

func TestCreateInvoice_NotANumber_NoWrite(t *testing.T) {
	r, rv := &fakeInvoiceRepo{}, &fakeRevalidator{}
	s := newTestService(r, rv)

	f := validForm()
	f.Amount = "not-a-number"
	_, err := s.CreateInvoice(context.Background(), f)
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Issues[0].Field != FieldAmount {
		t.Fatalf("expected amount validation issue, got %v", err)
	}
	if r.insertCalls != 0 {
		t.Fatalf("no statement may run before validation passes")
	}
}

func TestCreateInvoice_PersistenceError(t *testing.T) {
	cause := errors.New("FOREIGN KEY constraint failed")
	r, rv := &fakeInvoiceRepo{insertErr: cause}, &fakeRevalidator{}
	s := newTestService(r, rv)
	before := testutil.ToFloat64(ActionsTotal.WithLabelValues("create", "error"))

	res, err := s.CreateInvoice(context.Background(), validForm())
	if res != nil {
		t.Fatalf("expected nil result on failure")
	}
	var perr *PersistenceError
	if !errors.As(err, &perr) || perr.Op != "insert" || !errors.Is(err, cause) || !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected PersistenceError wrapping cause, got %v", err)
	}
	if len(rv.paths) != 0 {
		t.Fatalf("failed write must not revalidate")
	}
	if got := testutil.ToFloat64(ActionsTotal.WithLabelValues("create", "error")); got != before+1 {
		t.Fatalf("create/error counter = %v; want %v", got, before+1)
	}
}

func TestCreateInvoice_RevalidateError(t *testing.T) {
	r, rv := &fakeInvoiceRepo{}, &fakeRevalidator{err: errors.New("redis down")}
	s := newTestService(r, rv)

	_, err := s.CreateInvoice(context.Background(), validForm())
	if err == nil || !strings.Contains(err.Error(), "revalidate /dashboard/invoices") {
		t.Fatalf("expected revalidate error, got %v", err)
	}
	if r.insertCalls != 1 {
		t.Fatalf("insert should have run once before revalidation")
	}
}

func TestCreateInvoice_NilCacheAndCustomPath(t *testing.T) {
	r := &fakeInvoiceRepo{}
	s := &InvoiceService{Repo: r, InvoicesPath: "/app/invoices"}
	res, err := s.CreateInvoice(context.Background(), validForm())
	if err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}
	if res.RedirectTo != "/app/invoices" {
		t.Fatalf("RedirectTo = %q", res.RedirectTo)
	}
	if r.inserted.ID == "" || r.inserted.Date == "" {
		t.Fatalf("default id/clock not applied: %+v", r.inserted)
	}
}

func TestCreateInvoice_LogsThroughContextLogger(t *testing.T) {
	var buf bytes.Buffer
	lg := zerolog.New(&buf)
	ctx := lg.WithContext(context.Background())

	s := newTestService(&fakeInvoiceRepo{}, &fakeRevalidator{})
	if _, err := s.CreateInvoice(ctx, validForm()); err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}
	out := buf.String()
	for _, want := range []string{`"action":"create"`, "parsed invoice form", "inserting invoice", `"amount_cents":4250`, "invoice created"} {
		if !strings.Contains(out, want) {
			t.Fatalf("log output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	f := validForm()
	f.Status = "x"
	_, _ = s.CreateInvoice(ctx, f)
	if !strings.Contains(buf.String(), "invoice action failed") {
		t.Fatalf("validation failure not logged:\n%s", buf.String())
	}
}

// ----- Update -----

func TestUpdateInvoice_Success(t *testing.T) {
	r, rv := &fakeInvoiceRepo{updateRows: 1}, &fakeRevalidator{}
	s := newTestService(r, rv)

	res, err := s.UpdateInvoice(context.Background(), "inv-9", InvoiceForm{CustomerID: "c2", Amount: "0.1", Status: "paid"})
	if err != nil {
		t.Fatalf("UpdateInvoice: %v", err)
	}
	if r.updateCalls != 1 || r.updateID != "inv-9" || r.updateCustomer != "c2" || r.updateAmount != 10 || r.updateSt != "paid" {
		t.Fatalf("unexpected update args: %+v", r)
	}
	if res.RedirectTo != "/dashboard/invoices" || res.RowsAffected != 1 || res.Invoice != nil {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(rv.paths) != 1 {
		t.Fatalf("expected one revalidation, got %v", rv.paths)
	}
}

func TestUpdateInvoice_NonexistentID_ZeroRowsNoError(t *testing.T) {
	r, rv := &fakeInvoiceRepo{updateRows: 0}, &fakeRevalidator{}
	s := newTestService(r, rv)

	res, err := s.UpdateInvoice(context.Background(), "missing", validForm())
	if err != nil {
		t.Fatalf("update of unknown id must not fail: %v", err)
	}
	if res.RowsAffected != 0 || res.RedirectTo == "" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestUpdateInvoice_Invalid_NoWrite(t *testing.T) {
	r, rv := &fakeInvoiceRepo{}, &fakeRevalidator{}
	s := newTestService(r, rv)

	_, err := s.UpdateInvoice(context.Background(), "inv-1", InvoiceForm{CustomerID: "c1", Amount: "abc", Status: "paid"})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if r.updateCalls != 0 || len(rv.paths) != 0 {
		t.Fatalf("invalid update must not write or revalidate")
	}
}

func TestUpdateInvoice_PersistenceError(t *testing.T) {
	cause := errors.New("conn reset")
	r, rv := &fakeInvoiceRepo{updateErr: cause}, &fakeRevalidator{}
	s := newTestService(r, rv)

	_, err := s.UpdateInvoice(context.Background(), "inv-1", validForm())
	var perr *PersistenceError
	if !errors.As(err, &perr) || perr.Op != "update" || !errors.Is(err, cause) {
		t.Fatalf("expected update PersistenceError, got %v", err)
	}
	if len(rv.paths) != 0 {
		t.Fatalf("failed update must not revalidate")
	}
}

// ----- Delete -----

func TestDeleteInvoice_OneStatementNoRedirect(t *testing.T) {
	r, rv := &fakeInvoiceRepo{deleteRows: 1}, &fakeRevalidator{}
	s := newTestService(r, rv)

	res, err := s.DeleteInvoice(context.Background(), "inv-1")
	if err != nil {
		t.Fatalf("DeleteInvoice: %v", err)
	}
	if r.deleteCalls != 1 || r.deleteID != "inv-1" {
		t.Fatalf("expected one delete for inv-1, got calls=%d id=%q", r.deleteCalls, r.deleteID)
	}
	if res.RedirectTo != "" || res.RowsAffected != 1 {
		t.Fatalf("delete must never redirect: %+v", res)
	}
	if len(rv.paths) != 1 || rv.paths[0] != "/dashboard/invoices" {
		t.Fatalf("expected revalidation, got %v", rv.paths)
	}
}

func TestDeleteInvoice_Error(t *testing.T) {
	cause := errors.New("disk I/O error")
	r, rv := &fakeInvoiceRepo{deleteErr: cause}, &fakeRevalidator{}
	s := newTestService(r, rv)

	res, err := s.DeleteInvoice(context.Background(), "inv-1")
	if res != nil || !errors.Is(err, ErrPersistence) || !errors.Is(err, cause) {
		t.Fatalf("expected persistence error, got res=%+v err=%v", res, err)
	}
	if r.deleteCalls != 1 || len(rv.paths) != 0 {
		t.Fatalf("unexpected calls: deletes=%d revalidations=%d", r.deleteCalls, len(rv.paths))
	}
}
