package estimator

import (
	"errors"
	"math"

	"github.com/Alias1177/Pathwatch/internal/market"
	"github.com/Alias1177/Pathwatch/internal/model"
)

// ErrInsufficientData is returned when a series has fewer than two points,
// too few to form a single return.
var ErrInsufficientData = errors.New("insufficient data: need at least 2 price points")

// Estimate derives annualized GBM drift and volatility from a historical
// price series using log returns at the series' sampling interval.
// A constant series yields sigma = 0, which is valid and propagates as
// deterministic drift through path generation.
func Estimate(series model.PriceSeries) (model.ModelParameters, error) {
	if series.Len() < 2 {
		return model.ModelParameters{}, ErrInsufficientData
	}

	returns := make([]float64, 0, series.Len()-1)
	for i := 1; i < series.Len(); i++ {
		prev := series.Points[i-1].Price
		cur := series.Points[i].Price
		returns = append(returns, math.Log(cur/prev))
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	// Sample variance; a single return gives zero variance
	variance := 0.0
	if len(returns) > 1 {
		for _, r := range returns {
			variance += (r - mean) * (r - mean)
		}
		variance /= float64(len(returns) - 1)
	}

	ppy := market.PeriodsPerYear(series.Interval)

	return model.ModelParameters{
		Mu:               mean * ppy,
		Sigma:            math.Sqrt(variance) * math.Sqrt(ppy),
		SamplingInterval: series.Interval,
	}, nil
}
