package model

// Leaderboard metrics a ranking can be requested for.
const (
	MetricTotal   = "total"
	MetricDaily   = "daily"
	MetricMonthly = "monthly"
	MetricHourly  = "hourly"
)

// LeaderboardEntry joins a portfolio's latest metric with its display
// identity. Read-side only; assembled from committed metric rows.
type LeaderboardEntry struct {
	Rank          int             `json:"rank"`
	Portfolio     Portfolio       `json:"portfolio"`
	OwnerUsername string          `json:"ownerUsername"`
	OwnerDisplay  string          `json:"ownerDisplayName"`
	Metric        PortfolioMetric `json:"metric"`
}
