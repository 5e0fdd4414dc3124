package simulation

import (
	"sort"

	"github.com/Alias1177/Pathwatch/internal/model"
)

// Detector clusters survivor price levels at a future offset into
// support/resistance/convergence zones ranked by path density.
type Detector struct {
	// Bins is the number of histogram buckets over the survivor price range
	Bins int
	// MinSurvivors is the survivor count below which no zones are reported
	MinSurvivors int
	// DensityFloor is the fraction of the densest bucket a bucket must
	// reach to qualify as a zone
	DensityFloor float64
	// MaxZones caps the number of zones returned (0 = unlimited)
	MaxZones int
}

// NewDetector returns a detector with the defaults used in live mode
func NewDetector() *Detector {
	return &Detector{
		Bins:         50,
		MinSurvivors: 5,
		DensityFloor: 0.3,
		MaxZones:     5,
	}
}

// Detect clusters the alive paths' prices at the given offset. The
// observed price decides support vs resistance; the densest cluster is
// always classified as convergence. Too few survivors yields an empty
// result, never an error.
func (d *Detector) Detect(m *Manager, offset int, observed float64) []model.ReversalZone {
	prices := m.SurvivorPrices(offset)
	if len(prices) < d.MinSurvivors {
		return nil
	}

	lo, hi := prices[0], prices[0]
	for _, p := range prices {
		if p < lo {
			lo = p
		}
		if p > hi {
			hi = p
		}
	}

	// Degenerate spread: every survivor sits on the same level
	if hi == lo {
		return []model.ReversalZone{{
			PriceLow:    lo,
			PriceHigh:   hi,
			Type:        model.ZoneConvergence,
			PathCount:   len(prices),
			Probability: 1,
		}}
	}

	counts := make([]int, d.Bins)
	binWidth := (hi - lo) / float64(d.Bins)
	for _, p := range prices {
		idx := int((p - lo) / binWidth)
		if idx >= d.Bins {
			idx = d.Bins - 1
		}
		counts[idx]++
	}

	peak, peakIdx := 0, 0
	for i, c := range counts {
		if c > peak {
			peak, peakIdx = c, i
		}
	}
	floor := float64(peak) * d.DensityFloor

	zones := make([]model.ReversalZone, 0, d.Bins)
	for i, c := range counts {
		if c == 0 || float64(c) < floor {
			continue
		}
		zLow := lo + float64(i)*binWidth
		zHigh := zLow + binWidth
		zones = append(zones, model.ReversalZone{
			PriceLow:    zLow,
			PriceHigh:   zHigh,
			Type:        classify(i == peakIdx, zLow, zHigh, observed),
			PathCount:   c,
			Probability: float64(c) / float64(len(prices)),
		})
	}

	// Rank by density; tighter bands win ties as more actionable
	sort.SliceStable(zones, func(i, j int) bool {
		if zones[i].Probability != zones[j].Probability {
			return zones[i].Probability > zones[j].Probability
		}
		return zones[i].Width() < zones[j].Width()
	})

	if d.MaxZones > 0 && len(zones) > d.MaxZones {
		zones = zones[:d.MaxZones]
	}
	return zones
}

// ConvergenceBands reports percentile bands of the survivor distribution
// at a future offset, densest first. Complements Detect with a coarse
// view of where the ensemble is headed.
func (d *Detector) ConvergenceBands(m *Manager, offset int) []model.ReversalZone {
	prices := m.SurvivorPrices(offset)
	if len(prices) < d.MinSurvivors {
		return nil
	}
	sort.Float64s(prices)

	quantiles := []float64{0.10, 0.25, 0.50, 0.75, 0.90}
	zones := make([]model.ReversalZone, 0, len(quantiles)-1)
	for i := 0; i < len(quantiles)-1; i++ {
		bLow := percentile(prices, quantiles[i])
		bHigh := percentile(prices, quantiles[i+1])
		count := 0
		for _, p := range prices {
			if p >= bLow && p <= bHigh {
				count++
			}
		}
		if count == 0 {
			continue
		}
		zones = append(zones, model.ReversalZone{
			PriceLow:    bLow,
			PriceHigh:   bHigh,
			Type:        model.ZoneConvergence,
			PathCount:   count,
			Probability: float64(count) / float64(len(prices)),
		})
	}

	sort.SliceStable(zones, func(i, j int) bool {
		if zones[i].Probability != zones[j].Probability {
			return zones[i].Probability > zones[j].Probability
		}
		return zones[i].Width() < zones[j].Width()
	})

	if d.MaxZones > 0 && len(zones) > d.MaxZones {
		zones = zones[:d.MaxZones]
	}
	return zones
}

func classify(isPeak bool, low, high, observed float64) model.ZoneType {
	if isPeak {
		return model.ZoneConvergence
	}
	switch {
	case high <= observed:
		return model.ZoneSupport
	case low >= observed:
		return model.ZoneResistance
	default:
		return model.ZoneConvergence
	}
}
