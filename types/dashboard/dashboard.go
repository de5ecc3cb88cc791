package dashboard

// Stats are the aggregate counts shown on the admin dashboard.
type Stats struct {
	TotalContracts  int64 `json:"total_contracts"`
	TotalRequests   int64 `json:"total_requests"`
	PendingRequests int64 `json:"pending_requests"`
	SignedRequests  int64 `json:"signed_requests"`
	SignedToday     int64 `json:"signed_today"`
}
