package service

import (
	"math"

	"github.com/stocktrackr/backend/internal/model"
)

// round2 rounds to two decimal places using "round half up" via math.Round.
// Used for returns, prices and scores so recomputation is bit-for-bit
// reproducible across runs.
func round2(value float64) float64 {
	return math.Round(value*100) / 100
}

// round4 rounds to four decimal places, the storage precision of position weights.
func round4(value float64) float64 {
	return math.Round(value*10000) / 10000
}

// percentReturn computes the percentage return of current against base,
// rounded to two decimals. Returns 0 when base is not positive: a zero cost
// basis or zero prior value must never produce a division error.
func percentReturn(current, base float64) float64 {
	if base <= 0 {
		return 0
	}
	return round2(current/base*100 - 100)
}

// mean returns the arithmetic mean of the series, 0 for an empty series.
func mean(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}
	var sum float64
	for _, v := range series {
		sum += v
	}
	return sum / float64(len(series))
}

// variance returns the population variance of the series, 0 for fewer than
// two observations.
func variance(series []float64) float64 {
	if len(series) < 2 {
		return 0
	}
	m := mean(series)
	var sum float64
	for _, v := range series {
		d := v - m
		sum += d * d
	}
	return sum / float64(len(series))
}

// stdDev returns the population standard deviation of the series.
func stdDev(series []float64) float64 {
	return math.Sqrt(variance(series))
}

// covariance returns the population covariance of two equal-length series,
// 0 for fewer than two paired observations.
func covariance(a, b []float64) float64 {
	if len(a) != len(b) || len(a) < 2 {
		return 0
	}
	meanA := mean(a)
	meanB := mean(b)
	var sum float64
	for i := range a {
		sum += (a[i] - meanA) * (b[i] - meanB)
	}
	return sum / float64(len(a))
}

// beta returns cov(portfolio, reference) / var(reference), 0 when the
// reference series has no variance.
func beta(portfolioReturns, referenceReturns []float64) float64 {
	refVar := variance(referenceReturns)
	if refVar == 0 {
		return 0
	}
	return covariance(portfolioReturns, referenceReturns) / refVar
}

// sharpeRatio returns (mean return - risk-free rate) / volatility, defined
// as 0 when volatility is 0.
func sharpeRatio(returns []float64, riskFreeRate, volatility float64) float64 {
	if volatility == 0 {
		return 0
	}
	return round2((mean(returns) - riskFreeRate) / volatility)
}

// riskScore maps volatility and beta onto a 0..100 score, monotonic in both.
// Negative beta does not reduce the score below the volatility contribution.
func riskScore(volatility, betaValue float64) float64 {
	score := volatility*4 + math.Max(betaValue, 0)*20
	return round2(math.Min(score, 100))
}

// riskCategory bands a risk score into ordered buckets.
// Thresholds: score < 33 Conservative, 33 <= score < 66 Moderate, else Aggressive.
func riskCategory(score float64) string {
	switch {
	case score < 33:
		return model.RiskConservative
	case score < 66:
		return model.RiskModerate
	default:
		return model.RiskAggressive
	}
}
