package model

import "time"

// Risk categories band the risk score into ordered buckets.
// Thresholds: score < 33 Conservative, 33 <= score < 66 Moderate, else Aggressive.
const (
	RiskConservative = "Conservative"
	RiskModerate     = "Moderate"
	RiskAggressive   = "Aggressive"
)

// PortfolioMetric represents a point-in-time rollup of a portfolio's
// performance and risk. One all-zero baseline row is created with the
// portfolio; the aggregator appends a new row each run and never updates a
// prior one, so the most-recent-by-date row is the "current" metric.
type PortfolioMetric struct {
	ID              string    `json:"id"`
	PortfolioID     string    `json:"portfolioId"`
	HourlyReturn    float64   `json:"hourlyReturn"`
	DailyReturn     float64   `json:"dailyReturn"`
	MonthlyReturn   float64   `json:"monthlyReturn"`
	TotalReturn     float64   `json:"totalReturn"`
	Beta            float64   `json:"beta"`
	SharpeRatio     float64   `json:"sharpeRatio"`
	Volatility      float64   `json:"volatility"`
	PortfolioValue  float64   `json:"portfolioValue"`
	RiskScore       float64   `json:"riskScore"`
	RiskCategory    string    `json:"riskCategory"`
	LastUpdatedDate time.Time `json:"lastUpdatedDate"`
}

// BenchmarkReturn is one daily return observation for a reference index,
// consumed as comparator input by the beta calculation.
type BenchmarkReturn struct {
	ID        string    `json:"id"`
	Symbol    string    `json:"symbol"`
	Date      time.Time `json:"date"`
	ReturnPct float64   `json:"returnPct"`
}
