// Package dashboard aggregates the card, chart and latest-invoice data shown
// on the admin landing page.
package dashboard

import (
	"context"

	"github.com/ledgerline/invoiceadmin/internal/cache"
	"github.com/ledgerline/invoiceadmin/internal/domain/invoice"
	"github.com/ledgerline/invoiceadmin/internal/domain/revenue"
	"github.com/ledgerline/invoiceadmin/internal/errors"
	"github.com/ledgerline/invoiceadmin/internal/storage"
	"github.com/ledgerline/invoiceadmin/pkg/logger"
)

// LatestCount is how many recent invoices the dashboard shows.
const LatestCount = 5

// Summary is the full dashboard payload.
type Summary struct {
	InvoiceCount      int                    `json:"invoice_count"`
	CustomerCount     int                    `json:"customer_count"`
	TotalPaidCents    int64                  `json:"total_paid_cents"`
	TotalPendingCents int64                  `json:"total_pending_cents"`
	LatestInvoices    []invoice.WithCustomer `json:"latest_invoices"`
	Revenue           []revenue.Monthly      `json:"revenue"`
}

// Service assembles the dashboard from the stores, caching the result.
type Service struct {
	invoices  storage.InvoiceStore
	customers storage.CustomerStore
	revenue   storage.RevenueStore
	views     cache.ViewCache
	log       *logger.Logger
}

// New constructs a dashboard service.
func New(invoices storage.InvoiceStore, customers storage.CustomerStore, rev storage.RevenueStore, views cache.ViewCache, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("dashboard")
	}
	if views == nil {
		views = cache.Noop{}
	}
	return &Service{invoices: invoices, customers: customers, revenue: rev, views: views, log: log}
}

// Summary builds the dashboard payload, serving from cache when fresh.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	var cached Summary
	if hit, err := s.views.Get(ctx, cache.KeyDashboard, &cached); err == nil && hit {
		return cached, nil
	}

	count, paid, pending, err := s.invoices.InvoiceTotals(ctx)
	if err != nil {
		return Summary{}, errors.Database("Database Error: Failed to Fetch Card Data.", err)
	}
	customerCount, err := s.customers.CountCustomers(ctx)
	if err != nil {
		return Summary{}, errors.Database("Database Error: Failed to Fetch Card Data.", err)
	}
	latest, err := s.invoices.LatestInvoices(ctx, LatestCount)
	if err != nil {
		return Summary{}, errors.Database("Database Error: Failed to Fetch the Latest Invoices.", err)
	}
	monthly, err := s.revenue.MonthlyRevenue(ctx)
	if err != nil {
		return Summary{}, errors.Database("Database Error: Failed to Fetch Revenue.", err)
	}

	result := Summary{
		InvoiceCount:      count,
		CustomerCount:     customerCount,
		TotalPaidCents:    paid,
		TotalPendingCents: pending,
		LatestInvoices:    latest,
		Revenue:           monthly,
	}
	if err := s.views.Set(ctx, cache.KeyDashboard, result); err != nil {
		s.log.WithError(err).Warn("cache dashboard summary")
	}
	return result, nil
}
