package memory

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ledgerline/invoiceadmin/internal/domain/customer"
	"github.com/ledgerline/invoiceadmin/internal/domain/invoice"
	"github.com/ledgerline/invoiceadmin/internal/domain/user"
)

func TestInvoiceFilteringAndOrdering(t *testing.T) {
	store := New()
	amy := store.SeedCustomer(customer.Customer{Name: "Amy Burns", Email: "amy@burns.com"})
	lee := store.SeedCustomer(customer.Customer{Name: "Lee Robinson", Email: "lee@robinson.com"})

	day := func(offset int) time.Time {
		return time.Date(2026, time.August, 1+offset, 0, 0, 0, 0, time.UTC)
	}
	for i, fixture := range []struct {
		customerID string
		status     invoice.Status
	}{
		{amy.ID, invoice.StatusPaid},
		{amy.ID, invoice.StatusPending},
		{lee.ID, invoice.StatusPaid},
	} {
		_, err := store.CreateInvoice(context.Background(), invoice.Invoice{
			CustomerID:  fixture.customerID,
			AmountCents: int64((i + 1) * 1000),
			Status:      fixture.status,
			Date:        day(i),
		})
		assert.NoError(t, err)
	}

	all, err := store.ListInvoices(context.Background(), "", 10, 0)
	assert.NoError(t, err)
	assert.Len(t, all, 3)
	// Newest date first.
	assert.Equal(t, "Lee Robinson", all[0].CustomerName)

	byName, err := store.ListInvoices(context.Background(), "amy", 10, 0)
	assert.NoError(t, err)
	assert.Len(t, byName, 2)

	byStatus, err := store.ListInvoices(context.Background(), "pending", 10, 0)
	assert.NoError(t, err)
	assert.Len(t, byStatus, 1)

	count, err := store.CountInvoices(context.Background(), "burns.com")
	assert.NoError(t, err)
	assert.Equal(t, 2, count)

	total, paid, pending, err := store.InvoiceTotals(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, int64(4000), paid)
	assert.Equal(t, int64(2000), pending)
}

func TestCustomerSummaries(t *testing.T) {
	store := New()
	amy := store.SeedCustomer(customer.Customer{Name: "Amy Burns", Email: "amy@burns.com"})
	store.SeedCustomer(customer.Customer{Name: "Lee Robinson", Email: "lee@robinson.com"})

	for _, fixture := range []struct {
		status invoice.Status
		cents  int64
	}{
		{invoice.StatusPaid, 5000},
		{invoice.StatusPending, 2500},
	} {
		_, err := store.CreateInvoice(context.Background(), invoice.Invoice{
			CustomerID:  amy.ID,
			AmountCents: fixture.cents,
			Status:      fixture.status,
		})
		assert.NoError(t, err)
	}

	summaries, err := store.ListCustomerSummaries(context.Background(), "")
	assert.NoError(t, err)
	assert.Len(t, summaries, 2)
	assert.Equal(t, "Amy Burns", summaries[0].Name)
	assert.Equal(t, 2, summaries[0].TotalInvoices)
	assert.Equal(t, int64(5000), summaries[0].TotalPaidCents)
	assert.Equal(t, int64(2500), summaries[0].TotalPendingCents)
	assert.Equal(t, 0, summaries[1].TotalInvoices)

	filtered, err := store.ListCustomerSummaries(context.Background(), "lee")
	assert.NoError(t, err)
	assert.Len(t, filtered, 1)
}

func TestSessionExpiry(t *testing.T) {
	store := New()

	live, err := store.CreateSession(context.Background(), user.Session{
		UserID:    "user-1",
		TokenHash: "live",
		ExpiresAt: time.Now().Add(time.Hour),
	})
	assert.NoError(t, err)

	_, err = store.CreateSession(context.Background(), user.Session{
		UserID:    "user-1",
		TokenHash: "stale",
		ExpiresAt: time.Now().Add(-time.Hour),
	})
	assert.NoError(t, err)

	got, err := store.GetSessionByTokenHash(context.Background(), "live")
	assert.NoError(t, err)
	assert.Equal(t, live.ID, got.ID)

	_, err = store.GetSessionByTokenHash(context.Background(), "stale")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	removed, err := store.DeleteExpiredSessions(context.Background(), time.Now())
	assert.NoError(t, err)
	assert.Equal(t, int64(1), removed)
}
