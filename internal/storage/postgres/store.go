package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerline/invoiceadmin/internal/domain/customer"
	"github.com/ledgerline/invoiceadmin/internal/domain/invoice"
	"github.com/ledgerline/invoiceadmin/internal/domain/revenue"
	"github.com/ledgerline/invoiceadmin/internal/domain/user"
	"github.com/ledgerline/invoiceadmin/internal/storage"
)

// Store implements the storage interfaces backed by PostgreSQL.
type Store struct {
	db *sql.DB
}

var _ storage.InvoiceStore = (*Store)(nil)
var _ storage.CustomerStore = (*Store)(nil)
var _ storage.UserStore = (*Store)(nil)
var _ storage.SessionStore = (*Store)(nil)
var _ storage.RevenueStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// --- InvoiceStore -----------------------------------------------------------

func (s *Store) CreateInvoice(ctx context.Context, inv invoice.Invoice) (invoice.Invoice, error) {
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	inv.CreatedAt = now
	inv.UpdatedAt = now
	if inv.Date.IsZero() {
		inv.Date = now.Truncate(24 * time.Hour)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO invoices (id, customer_id, amount_cents, status, date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, inv.ID, inv.CustomerID, inv.AmountCents, inv.Status, inv.Date, inv.CreatedAt, inv.UpdatedAt)
	if err != nil {
		return invoice.Invoice{}, err
	}
	return inv, nil
}

func (s *Store) UpdateInvoice(ctx context.Context, inv invoice.Invoice) (invoice.Invoice, error) {
	existing, err := s.GetInvoice(ctx, inv.ID)
	if err != nil {
		return invoice.Invoice{}, err
	}

	inv.Date = existing.Date
	inv.CreatedAt = existing.CreatedAt
	inv.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE invoices
		SET customer_id = $2, amount_cents = $3, status = $4, updated_at = $5
		WHERE id = $1
	`, inv.ID, inv.CustomerID, inv.AmountCents, inv.Status, inv.UpdatedAt)
	if err != nil {
		return invoice.Invoice{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return invoice.Invoice{}, sql.ErrNoRows
	}
	return inv, nil
}

func (s *Store) GetInvoice(ctx context.Context, id string) (invoice.Invoice, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, customer_id, amount_cents, status, date, created_at, updated_at
		FROM invoices
		WHERE id = $1
	`, id)

	var inv invoice.Invoice
	if err := row.Scan(&inv.ID, &inv.CustomerID, &inv.AmountCents, &inv.Status, &inv.Date, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
		return invoice.Invoice{}, err
	}
	return inv, nil
}

func (s *Store) DeleteInvoice(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM invoices WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *Store) ListInvoices(ctx context.Context, query string, limit, offset int) ([]invoice.WithCustomer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT i.id, i.customer_id, i.amount_cents, i.status, i.date, i.created_at, i.updated_at,
		       c.name, c.email, c.image_url
		FROM invoices i
		JOIN customers c ON c.id = i.customer_id
		WHERE $1 = ''
		   OR c.name ILIKE '%' || $1 || '%'
		   OR c.email ILIKE '%' || $1 || '%'
		   OR i.status ILIKE '%' || $1 || '%'
		ORDER BY i.date DESC, i.created_at DESC
		LIMIT $2 OFFSET $3
	`, strings.TrimSpace(query), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanInvoiceRows(rows)
}

func (s *Store) CountInvoices(ctx context.Context, query string) (int, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM invoices i
		JOIN customers c ON c.id = i.customer_id
		WHERE $1 = ''
		   OR c.name ILIKE '%' || $1 || '%'
		   OR c.email ILIKE '%' || $1 || '%'
		   OR i.status ILIKE '%' || $1 || '%'
	`, strings.TrimSpace(query))

	var count int
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (s *Store) LatestInvoices(ctx context.Context, limit int) ([]invoice.WithCustomer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT i.id, i.customer_id, i.amount_cents, i.status, i.date, i.created_at, i.updated_at,
		       c.name, c.email, c.image_url
		FROM invoices i
		JOIN customers c ON c.id = i.customer_id
		ORDER BY i.date DESC, i.created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanInvoiceRows(rows)
}

func (s *Store) InvoiceTotals(ctx context.Context) (int, int64, int64, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(amount_cents) FILTER (WHERE status = 'paid'), 0),
		       COALESCE(SUM(amount_cents) FILTER (WHERE status = 'pending'), 0)
		FROM invoices
	`)

	var (
		count   int
		paid    int64
		pending int64
	)
	if err := row.Scan(&count, &paid, &pending); err != nil {
		return 0, 0, 0, err
	}
	return count, paid, pending, nil
}

func scanInvoiceRows(rows *sql.Rows) ([]invoice.WithCustomer, error) {
	var result []invoice.WithCustomer
	for rows.Next() {
		var rec invoice.WithCustomer
		if err := rows.Scan(&rec.ID, &rec.CustomerID, &rec.AmountCents, &rec.Status, &rec.Date,
			&rec.CreatedAt, &rec.UpdatedAt, &rec.CustomerName, &rec.CustomerEmail, &rec.CustomerImage); err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}

// --- CustomerStore ----------------------------------------------------------

func (s *Store) GetCustomer(ctx context.Context, id string) (customer.Customer, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, image_url, created_at
		FROM customers
		WHERE id = $1
	`, id)

	var c customer.Customer
	if err := row.Scan(&c.ID, &c.Name, &c.Email, &c.ImageURL, &c.CreatedAt); err != nil {
		return customer.Customer{}, err
	}
	return c, nil
}

func (s *Store) ListCustomers(ctx context.Context) ([]customer.Customer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, image_url, created_at
		FROM customers
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []customer.Customer
	for rows.Next() {
		var c customer.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.ImageURL, &c.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (s *Store) ListCustomerSummaries(ctx context.Context, query string) ([]customer.Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.name, c.email, c.image_url, c.created_at,
		       COUNT(i.id),
		       COALESCE(SUM(i.amount_cents) FILTER (WHERE i.status = 'pending'), 0),
		       COALESCE(SUM(i.amount_cents) FILTER (WHERE i.status = 'paid'), 0)
		FROM customers c
		LEFT JOIN invoices i ON i.customer_id = c.id
		WHERE $1 = ''
		   OR c.name ILIKE '%' || $1 || '%'
		   OR c.email ILIKE '%' || $1 || '%'
		GROUP BY c.id, c.name, c.email, c.image_url, c.created_at
		ORDER BY c.name
	`, strings.TrimSpace(query))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []customer.Summary
	for rows.Next() {
		var sum customer.Summary
		if err := rows.Scan(&sum.ID, &sum.Name, &sum.Email, &sum.ImageURL, &sum.CreatedAt,
			&sum.TotalInvoices, &sum.TotalPendingCents, &sum.TotalPaidCents); err != nil {
			return nil, err
		}
		result = append(result, sum)
	}
	return result, rows.Err()
}

func (s *Store) CountCustomers(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM customers`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// --- UserStore --------------------------------------------------------------

func (s *Store) CreateUser(ctx context.Context, u user.User) (user.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, u.ID, u.Name, u.Email, u.PasswordHash, u.CreatedAt)
	if err != nil {
		return user.User{}, err
	}
	return u, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (user.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, created_at
		FROM users
		WHERE id = $1
	`, id)
	return scanUser(row)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, created_at
		FROM users
		WHERE lower(email) = lower($1)
	`, email)
	return scanUser(row)
}

func scanUser(row *sql.Row) (user.User, error) {
	var u user.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		return user.User{}, err
	}
	return u, nil
}

// --- SessionStore -----------------------------------------------------------

func (s *Store) CreateSession(ctx context.Context, sess user.Session) (user.Session, error) {
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	sess.CreatedAt = now
	sess.LastSeenAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, token_hash, expires_at, created_at, last_seen_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, sess.ID, sess.UserID, sess.TokenHash, sess.ExpiresAt, sess.CreatedAt, sess.LastSeenAt)
	if err != nil {
		return user.Session{}, err
	}
	return sess, nil
}

func (s *Store) GetSessionByTokenHash(ctx context.Context, tokenHash string) (user.Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, token_hash, expires_at, created_at, last_seen_at
		FROM sessions
		WHERE token_hash = $1 AND expires_at > now()
	`, tokenHash)

	var sess user.Session
	if err := row.Scan(&sess.ID, &sess.UserID, &sess.TokenHash, &sess.ExpiresAt, &sess.CreatedAt, &sess.LastSeenAt); err != nil {
		return user.Session{}, err
	}
	return sess, nil
}

func (s *Store) TouchSession(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET last_seen_at = now() WHERE id = $1
	`, id)
	return err
}

func (s *Store) DeleteSession(ctx context.Context, tokenHash string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM sessions WHERE token_hash = $1
	`, tokenHash)
	return err
}

func (s *Store) DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM sessions WHERE expires_at <= $1
	`, before.UTC())
	if err != nil {
		return 0, err
	}
	rows, _ := result.RowsAffected()
	return rows, nil
}

// --- RevenueStore -----------------------------------------------------------

func (s *Store) MonthlyRevenue(ctx context.Context) ([]revenue.Monthly, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT to_char(date_trunc('month', date), 'Mon') AS month,
		       SUM(amount_cents)
		FROM invoices
		WHERE status = 'paid'
		  AND date >= date_trunc('month', now()) - interval '11 months'
		GROUP BY date_trunc('month', date)
		ORDER BY date_trunc('month', date)
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []revenue.Monthly
	for rows.Next() {
		var m revenue.Monthly
		if err := rows.Scan(&m.Month, &m.RevenueCents); err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}
