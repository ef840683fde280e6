package revenue

// Monthly is one month of aggregated revenue for the dashboard chart.
type Monthly struct {
	Month        string `json:"month"` // e.g. "Jan"
	RevenueCents int64  `json:"revenue_cents"`
}
