package simulation

import (
	"math"
	"math/rand"
	"time"

	"github.com/Alias1177/Pathwatch/internal/market"
	"github.com/Alias1177/Pathwatch/internal/model"
)

// GenerateConfig holds everything needed to radiate one ensemble
type GenerateConfig struct {
	StartingPrice float64
	Mu            float64
	Sigma         float64
	NumPaths      int
	Steps         int
	StepInterval  time.Duration
	Seed          int64
	StartTime     time.Time
}

// NormalSource yields standard-normal variates. Injectable so generation
// is reproducible and test-isolated instead of leaning on a global RNG.
type NormalSource interface {
	Norm() float64
}

type seededNormal struct {
	rng *rand.Rand
}

// NewSeededNormal returns a NormalSource whose stream is fully determined
// by the seed
func NewSeededNormal(seed int64) NormalSource {
	return &seededNormal{rng: rand.New(rand.NewSource(seed))}
}

func (s *seededNormal) Norm() float64 { return s.rng.NormFloat64() }

// Generate radiates an ensemble of independent discrete-time GBM paths:
//
//	S_k = S_{k-1} * exp((mu - sigma^2/2)*dt + sigma*sqrt(dt)*Z_k)
//
// The variate stream is fully determined by the seed, so identical inputs
// reproduce bit-identical ensembles.
func Generate(cfg GenerateConfig) (*Ensemble, error) {
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return GenerateFrom(cfg, NewSeededNormal(cfg.Seed))
}

// GenerateFrom radiates an ensemble drawing variates from src. Used by
// Generate and by tests that inject a controlled stream.
func GenerateFrom(cfg GenerateConfig, src NormalSource) (*Ensemble, error) {
	if err := validate(cfg); err != nil {
		return nil, err
	}

	dt := market.YearFraction(cfg.StepInterval)
	drift := (cfg.Mu - 0.5*cfg.Sigma*cfg.Sigma) * dt
	diffusion := cfg.Sigma * math.Sqrt(dt)

	prices := make([][]float64, cfg.NumPaths)
	for i := range prices {
		path := make([]float64, cfg.Steps+1)
		path[0] = cfg.StartingPrice
		for k := 1; k <= cfg.Steps; k++ {
			z := src.Norm()
			path[k] = path[k-1] * math.Exp(drift+diffusion*z)
		}
		prices[i] = path
	}

	return newEnsemble(prices, cfg.StartTime, cfg.StepInterval), nil
}

func validate(cfg GenerateConfig) error {
	if cfg.StartingPrice <= 0 {
		return &model.InvalidParameterError{Param: "starting_price", Reason: "must be positive"}
	}
	if cfg.Sigma < 0 {
		return &model.InvalidParameterError{Param: "sigma", Reason: "must be non-negative"}
	}
	if cfg.NumPaths < 1 {
		return &model.InvalidParameterError{Param: "num_paths", Reason: "must be at least 1"}
	}
	if cfg.Steps < 1 {
		return &model.InvalidParameterError{Param: "forecast_horizon_steps", Reason: "must be at least 1"}
	}
	if cfg.StepInterval <= 0 {
		return &model.InvalidParameterError{Param: "step_interval", Reason: "must be positive"}
	}
	return nil
}
