// Package app wires stores, services and background workers together.
package app

import (
	"context"
	"time"

	"github.com/ledgerline/invoiceadmin/internal/cache"
	"github.com/ledgerline/invoiceadmin/internal/services/auth"
	"github.com/ledgerline/invoiceadmin/internal/services/customers"
	"github.com/ledgerline/invoiceadmin/internal/services/dashboard"
	"github.com/ledgerline/invoiceadmin/internal/services/invoices"
	"github.com/ledgerline/invoiceadmin/internal/storage"
	"github.com/ledgerline/invoiceadmin/internal/storage/memory"
	"github.com/ledgerline/invoiceadmin/pkg/logger"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation.
type Stores struct {
	Invoices  storage.InvoiceStore
	Customers storage.CustomerStore
	Users     storage.UserStore
	Sessions  storage.SessionStore
	Revenue   storage.RevenueStore
}

// Options carries non-store dependencies.
type Options struct {
	Views     cache.ViewCache
	JWTSecret []byte
	TokenTTL  time.Duration
	Issuer    string
	SweepCron string
}

// Application ties the domain services together and manages background work.
type Application struct {
	log     *logger.Logger
	sweeper *auth.Sweeper

	Auth      *auth.Service
	Invoices  *invoices.Service
	Customers *customers.Service
	Dashboard *dashboard.Service
}

// New builds a fully initialised application with the provided stores.
func New(stores Stores, opts Options, log *logger.Logger) (*Application, error) {
	if log == nil {
		log = logger.NewDefault("app")
	}

	mem := memory.New()
	if stores.Invoices == nil {
		stores.Invoices = mem
	}
	if stores.Customers == nil {
		stores.Customers = mem
	}
	if stores.Users == nil {
		stores.Users = mem
	}
	if stores.Sessions == nil {
		stores.Sessions = mem
	}
	if stores.Revenue == nil {
		stores.Revenue = mem
	}

	views := opts.Views
	if views == nil {
		views = cache.Noop{}
	}

	authSvc := auth.New(stores.Users, stores.Sessions, opts.JWTSecret, opts.TokenTTL, opts.Issuer, log.WithField("component", "auth"))
	invoiceSvc := invoices.New(stores.Invoices, stores.Customers, views, log.WithField("component", "invoices"))
	customerSvc := customers.New(stores.Customers, views, log.WithField("component", "customers"))
	dashboardSvc := dashboard.New(stores.Invoices, stores.Customers, stores.Revenue, views, log.WithField("component", "dashboard"))

	return &Application{
		log:       log,
		sweeper:   auth.NewSweeper(authSvc, opts.SweepCron, log.WithField("component", "session-sweeper")),
		Auth:      authSvc,
		Invoices:  invoiceSvc,
		Customers: customerSvc,
		Dashboard: dashboardSvc,
	}, nil
}

// Start launches background workers.
func (a *Application) Start(_ context.Context) error {
	return a.sweeper.Start()
}

// Stop halts background workers.
func (a *Application) Stop(_ context.Context) error {
	a.sweeper.Stop()
	return nil
}
