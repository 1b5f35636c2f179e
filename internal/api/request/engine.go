package request

// RecomputeRequest represents the request body for a manual engine run.
// Date is optional ("2006-01-02"); empty means today.
type RecomputeRequest struct {
	Date string `json:"date,omitempty"`
}

// BackfillRequest represents the request body for a historical price backfill.
type BackfillRequest struct {
	Ticker    string `json:"ticker"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}
