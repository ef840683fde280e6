// Package memory provides an in-memory implementation of the storage
// interfaces. It is safe for concurrent use and is primarily intended for
// tests and local development.
package memory

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerline/invoiceadmin/internal/domain/customer"
	"github.com/ledgerline/invoiceadmin/internal/domain/invoice"
	"github.com/ledgerline/invoiceadmin/internal/domain/revenue"
	"github.com/ledgerline/invoiceadmin/internal/domain/user"
	"github.com/ledgerline/invoiceadmin/internal/storage"
)

// Store keeps all records in maps guarded by a single mutex.
type Store struct {
	mu        sync.RWMutex
	invoices  map[string]invoice.Invoice
	customers map[string]customer.Customer
	users     map[string]user.User
	sessions  map[string]user.Session // keyed by token hash
}

var _ storage.InvoiceStore = (*Store)(nil)
var _ storage.CustomerStore = (*Store)(nil)
var _ storage.UserStore = (*Store)(nil)
var _ storage.SessionStore = (*Store)(nil)
var _ storage.RevenueStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		invoices:  make(map[string]invoice.Invoice),
		customers: make(map[string]customer.Customer),
		users:     make(map[string]user.User),
		sessions:  make(map[string]user.Session),
	}
}

// SeedCustomer inserts a customer directly, for tests and local fixtures.
func (s *Store) SeedCustomer(c customer.Customer) customer.Customer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	s.customers[c.ID] = c
	return c
}

// --- InvoiceStore -----------------------------------------------------------

func (s *Store) CreateInvoice(_ context.Context, inv invoice.Invoice) (invoice.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	inv.CreatedAt = now
	inv.UpdatedAt = now
	if inv.Date.IsZero() {
		inv.Date = now.Truncate(24 * time.Hour)
	}
	s.invoices[inv.ID] = inv
	return inv, nil
}

func (s *Store) UpdateInvoice(_ context.Context, inv invoice.Invoice) (invoice.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.invoices[inv.ID]
	if !ok {
		return invoice.Invoice{}, sql.ErrNoRows
	}
	inv.Date = existing.Date
	inv.CreatedAt = existing.CreatedAt
	inv.UpdatedAt = time.Now().UTC()
	s.invoices[inv.ID] = inv
	return inv, nil
}

func (s *Store) GetInvoice(_ context.Context, id string) (invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inv, ok := s.invoices[id]
	if !ok {
		return invoice.Invoice{}, sql.ErrNoRows
	}
	return inv, nil
}

func (s *Store) DeleteInvoice(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.invoices[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.invoices, id)
	return nil
}

func (s *Store) ListInvoices(_ context.Context, query string, limit, offset int) ([]invoice.WithCustomer, error) {
	all := s.filtered(query)
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (s *Store) CountInvoices(_ context.Context, query string) (int, error) {
	return len(s.filtered(query)), nil
}

func (s *Store) LatestInvoices(_ context.Context, limit int) ([]invoice.WithCustomer, error) {
	all := s.filtered("")
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (s *Store) InvoiceTotals(_ context.Context) (int, int64, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var paid, pending int64
	for _, inv := range s.invoices {
		switch inv.Status {
		case invoice.StatusPaid:
			paid += inv.AmountCents
		case invoice.StatusPending:
			pending += inv.AmountCents
		}
	}
	return len(s.invoices), paid, pending, nil
}

func (s *Store) filtered(query string) []invoice.WithCustomer {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query = strings.ToLower(strings.TrimSpace(query))
	var out []invoice.WithCustomer
	for _, inv := range s.invoices {
		c := s.customers[inv.CustomerID]
		rec := invoice.WithCustomer{
			Invoice:       inv,
			CustomerName:  c.Name,
			CustomerEmail: c.Email,
			CustomerImage: c.ImageURL,
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(c.Name), query) &&
			!strings.Contains(strings.ToLower(c.Email), query) &&
			!strings.Contains(strings.ToLower(string(inv.Status)), query) {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// --- CustomerStore ----------------------------------------------------------

func (s *Store) GetCustomer(_ context.Context, id string) (customer.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.customers[id]
	if !ok {
		return customer.Customer{}, sql.ErrNoRows
	}
	return c, nil
}

func (s *Store) ListCustomers(_ context.Context) ([]customer.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]customer.Customer, 0, len(s.customers))
	for _, c := range s.customers {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) ListCustomerSummaries(_ context.Context, query string) ([]customer.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query = strings.ToLower(strings.TrimSpace(query))
	var out []customer.Summary
	for _, c := range s.customers {
		if query != "" &&
			!strings.Contains(strings.ToLower(c.Name), query) &&
			!strings.Contains(strings.ToLower(c.Email), query) {
			continue
		}
		sum := customer.Summary{Customer: c}
		for _, inv := range s.invoices {
			if inv.CustomerID != c.ID {
				continue
			}
			sum.TotalInvoices++
			switch inv.Status {
			case invoice.StatusPaid:
				sum.TotalPaidCents += inv.AmountCents
			case invoice.StatusPending:
				sum.TotalPendingCents += inv.AmountCents
			}
		}
		out = append(out, sum)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) CountCustomers(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.customers), nil
}

// --- UserStore --------------------------------------------------------------

func (s *Store) CreateUser(_ context.Context, u user.User) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.CreatedAt = time.Now().UTC()
	s.users[u.ID] = u
	return u, nil
}

func (s *Store) GetUser(_ context.Context, id string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return user.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return user.User{}, sql.ErrNoRows
}

// --- SessionStore -----------------------------------------------------------

func (s *Store) CreateSession(_ context.Context, sess user.Session) (user.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	sess.CreatedAt = now
	sess.LastSeenAt = now
	s.sessions[sess.TokenHash] = sess
	return sess, nil
}

func (s *Store) GetSessionByTokenHash(_ context.Context, tokenHash string) (user.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[tokenHash]
	if !ok || time.Now().After(sess.ExpiresAt) {
		return user.Session{}, sql.ErrNoRows
	}
	return sess, nil
}

func (s *Store) TouchSession(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for hash, sess := range s.sessions {
		if sess.ID == id {
			sess.LastSeenAt = time.Now().UTC()
			s.sessions[hash] = sess
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *Store) DeleteSession(_ context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, tokenHash)
	return nil
}

func (s *Store) DeleteExpiredSessions(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for hash, sess := range s.sessions {
		if !sess.ExpiresAt.After(before) {
			delete(s.sessions, hash)
			removed++
		}
	}
	return removed, nil
}

// --- RevenueStore -----------------------------------------------------------

func (s *Store) MonthlyRevenue(_ context.Context) ([]revenue.Monthly, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type bucket struct {
		key   time.Time
		total int64
	}
	buckets := make(map[time.Time]*bucket)
	cutoff := monthStart(time.Now().UTC()).AddDate(0, -11, 0)
	for _, inv := range s.invoices {
		if inv.Status != invoice.StatusPaid || inv.Date.Before(cutoff) {
			continue
		}
		key := monthStart(inv.Date)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{key: key}
			buckets[key] = b
		}
		b.total += inv.AmountCents
	}

	ordered := make([]*bucket, 0, len(buckets))
	for _, b := range buckets {
		ordered = append(ordered, b)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].key.Before(ordered[j].key) })

	out := make([]revenue.Monthly, 0, len(ordered))
	for _, b := range ordered {
		out = append(out, revenue.Monthly{Month: b.key.Format("Jan"), RevenueCents: b.total})
	}
	return out, nil
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
