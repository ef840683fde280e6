// Package customers exposes the customer listing with invoice aggregates.
package customers

import (
	"context"
	"strings"

	"github.com/ledgerline/invoiceadmin/internal/cache"
	"github.com/ledgerline/invoiceadmin/internal/domain/customer"
	"github.com/ledgerline/invoiceadmin/internal/errors"
	"github.com/ledgerline/invoiceadmin/internal/storage"
	"github.com/ledgerline/invoiceadmin/pkg/logger"
)

// Service reads customer data.
type Service struct {
	store storage.CustomerStore
	views cache.ViewCache
	log   *logger.Logger
}

// New constructs a customer service.
func New(store storage.CustomerStore, views cache.ViewCache, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("customers")
	}
	if views == nil {
		views = cache.Noop{}
	}
	return &Service{store: store, views: views, log: log}
}

// List returns all customers, for invoice form selection.
func (s *Service) List(ctx context.Context) ([]customer.Customer, error) {
	out, err := s.store.ListCustomers(ctx)
	if err != nil {
		return nil, errors.Database("Database Error: Failed to Fetch Customers.", err)
	}
	return out, nil
}

// Summaries returns customers with invoice totals, filtered by name/email.
// The unfiltered view is cached until the next invoice mutation.
func (s *Service) Summaries(ctx context.Context, query string) ([]customer.Summary, error) {
	query = strings.TrimSpace(query)

	if query == "" {
		var cached []customer.Summary
		if hit, err := s.views.Get(ctx, cache.KeyCustomers, &cached); err == nil && hit {
			return cached, nil
		}
	}

	out, err := s.store.ListCustomerSummaries(ctx, query)
	if err != nil {
		return nil, errors.Database("Database Error: Failed to Fetch Customers.", err)
	}

	if query == "" {
		if err := s.views.Set(ctx, cache.KeyCustomers, out); err != nil {
			s.log.WithError(err).Warn("cache customer summaries")
		}
	}
	return out, nil
}
