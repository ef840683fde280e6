package customer

import "time"

// Customer is a billable party that invoices are issued against.
type Customer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	ImageURL  string    `json:"image_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Summary is a customer with invoice aggregates for the customers view.
type Summary struct {
	Customer
	TotalInvoices     int   `json:"total_invoices"`
	TotalPendingCents int64 `json:"total_pending_cents"`
	TotalPaidCents    int64 `json:"total_paid_cents"`
}
