package dto

// SweepResponse reports how many campaigns a sweep run claimed.
type SweepResponse struct {
	Processed int `json:"processed"`
}

// ReconcileResponse reports how many stuck campaigns were failed.
type ReconcileResponse struct {
	Reconciled int `json:"reconciled"`
}
