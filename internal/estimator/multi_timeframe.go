package estimator

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Alias1177/Pathwatch/internal/model"
)

// CandleSource supplies historical price series per sampling interval
type CandleSource interface {
	FetchHistory(ctx context.Context, symbol string, interval, lookback time.Duration) (model.PriceSeries, error)
}

// TimeframeWeight assigns a blend weight to one sampling interval
type TimeframeWeight struct {
	Interval time.Duration
	Weight   float64
}

// DefaultTimeframes weights finer intervals higher: recent microstructure
// dominates a short-horizon forecast, coarser frames stabilize drift.
var DefaultTimeframes = []TimeframeWeight{
	{Interval: time.Minute, Weight: 0.5},
	{Interval: 5 * time.Minute, Weight: 0.3},
	{Interval: 15 * time.Minute, Weight: 0.2},
}

// EstimateMultiTimeframe blends per-timeframe GBM estimates into one
// parameter set. Timeframes whose fetch or estimation fails are skipped
// with a warning; it errors only when every timeframe fails. The returned
// sampling interval is the finest interval that succeeded.
func EstimateMultiTimeframe(ctx context.Context, src CandleSource, symbol string, lookback time.Duration, frames []TimeframeWeight) (model.ModelParameters, error) {
	if len(frames) == 0 {
		frames = DefaultTimeframes
	}

	logger := log.With().Str("component", "estimator").Logger()

	var (
		muSum, sigmaSum, weightSum float64
		finest                     time.Duration
	)

	for _, tf := range frames {
		series, err := src.FetchHistory(ctx, symbol, tf.Interval, lookback)
		if err != nil {
			logger.Warn().Err(err).Dur("interval", tf.Interval).Msg("Timeframe fetch failed, skipping")
			continue
		}

		params, err := Estimate(series)
		if err != nil {
			logger.Warn().Err(err).Dur("interval", tf.Interval).Msg("Timeframe estimation failed, skipping")
			continue
		}

		muSum += params.Mu * tf.Weight
		sigmaSum += params.Sigma * tf.Weight
		weightSum += tf.Weight
		if finest == 0 || tf.Interval < finest {
			finest = tf.Interval
		}

		logger.Debug().
			Dur("interval", tf.Interval).
			Float64("mu", params.Mu).
			Float64("sigma", params.Sigma).
			Msg("Timeframe estimated")
	}

	if weightSum == 0 {
		return model.ModelParameters{}, fmt.Errorf("multi-timeframe estimation: all timeframes failed")
	}

	return model.ModelParameters{
		Mu:               muSum / weightSum,
		Sigma:            sigmaSum / weightSum,
		SamplingInterval: finest,
	}, nil
}
