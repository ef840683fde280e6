package invoice

import "time"

// Status enumerates the lifecycle states of an invoice.
type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
)

// Valid reports whether the status is one of the known values.
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusPaid
}

// Invoice is a billing record owned by a customer. Amounts are stored in
// cents to avoid floating point drift.
type Invoice struct {
	ID          string    `json:"id"`
	CustomerID  string    `json:"customer_id"`
	AmountCents int64     `json:"amount_cents"`
	Status      Status    `json:"status"`
	Date        time.Time `json:"date"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// WithCustomer is an invoice joined with its customer for listing views.
type WithCustomer struct {
	Invoice
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	CustomerImage string `json:"customer_image,omitempty"`
}

// Page is one page of a filtered invoice listing.
type Page struct {
	Invoices   []WithCustomer `json:"invoices"`
	Page       int            `json:"page"`
	TotalPages int            `json:"total_pages"`
	Total      int            `json:"total"`
}
