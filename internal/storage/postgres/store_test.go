package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/ledgerline/invoiceadmin/internal/domain/invoice"
	"github.com/ledgerline/invoiceadmin/internal/domain/user"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	return New(db), mock, func() { db.Close() }
}

func expectationsMet(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateInvoice(t *testing.T) {
	store, mock, done := newMockStore(t)
	defer done()

	mock.ExpectExec("INSERT INTO invoices").
		WithArgs(sqlmock.AnyArg(), "cust-1", int64(34550), invoice.StatusPending,
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	created, err := store.CreateInvoice(context.Background(), invoice.Invoice{
		CustomerID:  "cust-1",
		AmountCents: 34550,
		Status:      invoice.StatusPending,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("expected id to be generated")
	}
	if created.Date.IsZero() {
		t.Fatalf("expected date to default to today")
	}
	expectationsMet(t, mock)
}

func TestUpdateInvoiceNotFound(t *testing.T) {
	store, mock, done := newMockStore(t)
	defer done()

	mock.ExpectQuery("SELECT id, customer_id, amount_cents").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := store.UpdateInvoice(context.Background(), invoice.Invoice{ID: "missing"})
	if err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestUpdateInvoiceZeroRows(t *testing.T) {
	store, mock, done := newMockStore(t)
	defer done()

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT id, customer_id, amount_cents").
		WithArgs("inv-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "customer_id", "amount_cents", "status", "date", "created_at", "updated_at",
		}).AddRow("inv-1", "cust-1", int64(100), "pending", now, now, now))
	// Row deleted between the read and the write.
	mock.ExpectExec("UPDATE invoices").
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := store.UpdateInvoice(context.Background(), invoice.Invoice{
		ID:          "inv-1",
		CustomerID:  "cust-1",
		AmountCents: 200,
		Status:      invoice.StatusPaid,
	})
	if err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestDeleteInvoice(t *testing.T) {
	store, mock, done := newMockStore(t)
	defer done()

	mock.ExpectExec("DELETE FROM invoices").
		WithArgs("inv-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM invoices").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.DeleteInvoice(context.Background(), "inv-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.DeleteInvoice(context.Background(), "missing"); err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestListInvoicesPassesTrimmedQuery(t *testing.T) {
	store, mock, done := newMockStore(t)
	defer done()

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT i.id, i.customer_id").
		WithArgs("amy", 6, 0).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "customer_id", "amount_cents", "status", "date", "created_at", "updated_at",
			"name", "email", "image_url",
		}).AddRow("inv-1", "cust-1", int64(34550), "pending", now, now, now,
			"Amy Burns", "amy@burns.com", ""))

	rows, err := store.ListInvoices(context.Background(), "  amy  ", 6, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 || rows[0].CustomerName != "Amy Burns" {
		t.Fatalf("unexpected rows %+v", rows)
	}
	expectationsMet(t, mock)
}

func TestInvoiceTotals(t *testing.T) {
	store, mock, done := newMockStore(t)
	defer done()

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count", "paid", "pending"}).
			AddRow(13, int64(120000), int64(45000)))

	count, paid, pending, err := store.InvoiceTotals(context.Background())
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	if count != 13 || paid != 120000 || pending != 45000 {
		t.Fatalf("unexpected totals %d %d %d", count, paid, pending)
	}
	expectationsMet(t, mock)
}

func TestGetUserByEmail(t *testing.T) {
	store, mock, done := newMockStore(t)
	defer done()

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT id, name, email, password_hash").
		WithArgs("admin@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "created_at"}).
			AddRow("user-1", "Admin", "admin@example.com", "$2a$10$hash", now))

	u, err := store.GetUserByEmail(context.Background(), "admin@example.com")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if u.ID != "user-1" {
		t.Fatalf("unexpected user %+v", u)
	}
	expectationsMet(t, mock)
}

func TestCreateSession(t *testing.T) {
	store, mock, done := newMockStore(t)
	defer done()

	expires := time.Now().Add(24 * time.Hour).UTC()
	mock.ExpectExec("INSERT INTO sessions").
		WithArgs(sqlmock.AnyArg(), "user-1", "deadbeef", expires, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	sess, err := store.CreateSession(context.Background(), user.Session{
		UserID:    "user-1",
		TokenHash: "deadbeef",
		ExpiresAt: expires,
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if sess.ID == "" {
		t.Fatalf("expected session id to be generated")
	}
	expectationsMet(t, mock)
}

func TestDeleteExpiredSessions(t *testing.T) {
	store, mock, done := newMockStore(t)
	defer done()

	mock.ExpectExec("DELETE FROM sessions WHERE expires_at").
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 4))

	removed, err := store.DeleteExpiredSessions(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if removed != 4 {
		t.Fatalf("expected 4 removed, got %d", removed)
	}
	expectationsMet(t, mock)
}

func TestMonthlyRevenue(t *testing.T) {
	store, mock, done := newMockStore(t)
	defer done()

	mock.ExpectQuery("SELECT to_char").
		WillReturnRows(sqlmock.NewRows([]string{"month", "sum"}).
			AddRow("Jan", int64(200000)).
			AddRow("Feb", int64(180000)))

	monthly, err := store.MonthlyRevenue(context.Background())
	if err != nil {
		t.Fatalf("revenue: %v", err)
	}
	if len(monthly) != 2 || monthly[0].Month != "Jan" || monthly[1].RevenueCents != 180000 {
		t.Fatalf("unexpected revenue %+v", monthly)
	}
	expectationsMet(t, mock)
}
