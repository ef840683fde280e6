// Package storage defines the persistence interfaces consumed by the
// services layer.
package storage

import (
	"context"
	"time"

	"github.com/ledgerline/invoiceadmin/internal/domain/customer"
	"github.com/ledgerline/invoiceadmin/internal/domain/invoice"
	"github.com/ledgerline/invoiceadmin/internal/domain/revenue"
	"github.com/ledgerline/invoiceadmin/internal/domain/user"
)

// InvoiceStore persists invoice records.
type InvoiceStore interface {
	CreateInvoice(ctx context.Context, inv invoice.Invoice) (invoice.Invoice, error)
	UpdateInvoice(ctx context.Context, inv invoice.Invoice) (invoice.Invoice, error)
	GetInvoice(ctx context.Context, id string) (invoice.Invoice, error)
	DeleteInvoice(ctx context.Context, id string) error

	// ListInvoices returns invoices joined with customers, newest first,
	// filtered by a free-text query over customer name, email and status.
	ListInvoices(ctx context.Context, query string, limit, offset int) ([]invoice.WithCustomer, error)
	CountInvoices(ctx context.Context, query string) (int, error)
	LatestInvoices(ctx context.Context, limit int) ([]invoice.WithCustomer, error)

	// InvoiceTotals returns the overall invoice count plus paid and
	// pending sums for the dashboard cards.
	InvoiceTotals(ctx context.Context) (count int, paidCents, pendingCents int64, err error)
}

// CustomerStore persists customer records.
type CustomerStore interface {
	GetCustomer(ctx context.Context, id string) (customer.Customer, error)
	ListCustomers(ctx context.Context) ([]customer.Customer, error)
	ListCustomerSummaries(ctx context.Context, query string) ([]customer.Summary, error)
	CountCustomers(ctx context.Context) (int, error)
}

// UserStore persists login identities.
type UserStore interface {
	CreateUser(ctx context.Context, u user.User) (user.User, error)
	GetUser(ctx context.Context, id string) (user.User, error)
	GetUserByEmail(ctx context.Context, email string) (user.User, error)
}

// SessionStore persists issued-token records.
type SessionStore interface {
	CreateSession(ctx context.Context, s user.Session) (user.Session, error)
	GetSessionByTokenHash(ctx context.Context, tokenHash string) (user.Session, error)
	TouchSession(ctx context.Context, id string) error
	DeleteSession(ctx context.Context, tokenHash string) error
	DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error)
}

// RevenueStore exposes aggregated revenue for the dashboard chart.
type RevenueStore interface {
	MonthlyRevenue(ctx context.Context) ([]revenue.Monthly, error)
}
