// Package invoices implements invoice form validation and CRUD on top of the
// invoice store. Mutations invalidate the cached dashboard and listing views.
package invoices

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ledgerline/invoiceadmin/internal/cache"
	"github.com/ledgerline/invoiceadmin/internal/domain/invoice"
	"github.com/ledgerline/invoiceadmin/internal/errors"
	"github.com/ledgerline/invoiceadmin/internal/storage"
	"github.com/ledgerline/invoiceadmin/pkg/logger"
)

// PageSize is the fixed page size of the invoice listing.
const PageSize = 6

// Form is the untrusted mutation input. Amount is in currency units and is
// converted to cents before storage.
type Form struct {
	CustomerID string  `json:"customer_id" validate:"required"`
	Amount     float64 `json:"amount" validate:"required,gt=0"`
	Status     string  `json:"status" validate:"required,oneof=pending paid"`
}

var validate = validator.New()

// Service validates invoice forms and persists them.
type Service struct {
	store     storage.InvoiceStore
	customers storage.CustomerStore
	views     cache.ViewCache
	log       *logger.Logger
}

// New constructs an invoice service.
func New(store storage.InvoiceStore, customers storage.CustomerStore, views cache.ViewCache, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("invoices")
	}
	if views == nil {
		views = cache.Noop{}
	}
	return &Service{store: store, customers: customers, views: views, log: log}
}

// Create validates the form and inserts a new invoice dated today.
func (s *Service) Create(ctx context.Context, form Form) (invoice.Invoice, error) {
	if err := s.validateForm(ctx, form, "Missing Fields. Failed to Create Invoice."); err != nil {
		return invoice.Invoice{}, err
	}

	created, err := s.store.CreateInvoice(ctx, invoice.Invoice{
		CustomerID:  form.CustomerID,
		AmountCents: toCents(form.Amount),
		Status:      invoice.Status(form.Status),
	})
	if err != nil {
		return invoice.Invoice{}, errors.Database("Database Error: Failed to Create Invoice.", err)
	}

	s.invalidateViews(ctx)
	s.log.WithField("invoice_id", created.ID).
		WithField("customer_id", created.CustomerID).
		Info("invoice created")
	return created, nil
}

// Update validates the form and rewrites an existing invoice.
func (s *Service) Update(ctx context.Context, id string, form Form) (invoice.Invoice, error) {
	if err := s.validateForm(ctx, form, "Missing Fields. Failed to Update Invoice."); err != nil {
		return invoice.Invoice{}, err
	}

	updated, err := s.store.UpdateInvoice(ctx, invoice.Invoice{
		ID:          id,
		CustomerID:  form.CustomerID,
		AmountCents: toCents(form.Amount),
		Status:      invoice.Status(form.Status),
	})
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return invoice.Invoice{}, errors.NotFound("Invoice not found.")
		}
		return invoice.Invoice{}, errors.Database("Database Error: Failed to Update Invoice.", err)
	}

	s.invalidateViews(ctx)
	s.log.WithField("invoice_id", id).Info("invoice updated")
	return updated, nil
}

// Delete removes an invoice by id.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteInvoice(ctx, id); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return errors.NotFound("Invoice not found.")
		}
		return errors.Database("Database Error: Failed to Delete Invoice.", err)
	}

	s.invalidateViews(ctx)
	s.log.WithField("invoice_id", id).Info("invoice deleted")
	return nil
}

// Get fetches a single invoice.
func (s *Service) Get(ctx context.Context, id string) (invoice.Invoice, error) {
	inv, err := s.store.GetInvoice(ctx, id)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return invoice.Invoice{}, errors.NotFound("Invoice not found.")
		}
		return invoice.Invoice{}, errors.Database("Database Error: Failed to Fetch Invoice.", err)
	}
	return inv, nil
}

// List returns one page of the filtered invoice listing. Pages are cached
// per query/page pair until the next mutation.
func (s *Service) List(ctx context.Context, query string, page int) (invoice.Page, error) {
	if page < 1 {
		page = 1
	}
	query = strings.TrimSpace(query)
	key := fmt.Sprintf("views:invoices:%s:%d", query, page)

	var cached invoice.Page
	if hit, err := s.views.Get(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	total, err := s.store.CountInvoices(ctx, query)
	if err != nil {
		return invoice.Page{}, errors.Database("Database Error: Failed to Fetch Invoices.", err)
	}
	rows, err := s.store.ListInvoices(ctx, query, PageSize, (page-1)*PageSize)
	if err != nil {
		return invoice.Page{}, errors.Database("Database Error: Failed to Fetch Invoices.", err)
	}

	result := invoice.Page{
		Invoices:   rows,
		Page:       page,
		Total:      total,
		TotalPages: (total + PageSize - 1) / PageSize,
	}
	if err := s.views.Set(ctx, key, result); err != nil {
		s.log.WithError(err).Warn("cache invoice page")
	}
	return result, nil
}

func (s *Service) validateForm(ctx context.Context, form Form, summary string) error {
	fields := make(map[string][]string)

	if err := validate.Struct(form); err != nil {
		var verrs validator.ValidationErrors
		if !stderrors.As(err, &verrs) {
			return errors.Internal("Failed to validate invoice form.", err)
		}
		for _, fe := range verrs {
			switch fe.Field() {
			case "CustomerID":
				fields["customer_id"] = append(fields["customer_id"], "Please select a customer.")
			case "Amount":
				fields["amount"] = append(fields["amount"], "Please enter an amount greater than $0.")
			case "Status":
				fields["status"] = append(fields["status"], "Please select an invoice status.")
			}
		}
	}

	// The selected customer must exist; an unknown id reads the same as a
	// missing selection to the operator.
	if form.CustomerID != "" && len(fields["customer_id"]) == 0 && s.customers != nil {
		if _, err := s.customers.GetCustomer(ctx, form.CustomerID); err != nil {
			if stderrors.Is(err, sql.ErrNoRows) {
				fields["customer_id"] = append(fields["customer_id"], "Please select a customer.")
			} else {
				return errors.Database("Database Error: Failed to Validate Invoice.", err)
			}
		}
	}

	if len(fields) > 0 {
		return errors.Validation(summary, fields)
	}
	return nil
}

func (s *Service) invalidateViews(ctx context.Context) {
	err := s.views.Invalidate(ctx, cache.KeyDashboard, cache.KeyCustomers, cache.PatternInvoicePages)
	if err != nil {
		s.log.WithError(err).Warn("invalidate cached views")
	}
}

func toCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
