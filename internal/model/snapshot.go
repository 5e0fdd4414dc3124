package model

import "time"

// ModelParameters holds the estimated GBM coefficients for one run
type ModelParameters struct {
	Mu               float64       `json:"mu"`    // annualized drift
	Sigma            float64       `json:"sigma"` // annualized volatility, >= 0
	SamplingInterval time.Duration `json:"sampling_interval"`
}

// ZoneType classifies a reversal zone relative to the observed price
type ZoneType string

const (
	ZoneSupport     ZoneType = "support"
	ZoneResistance  ZoneType = "resistance"
	ZoneConvergence ZoneType = "convergence"
)

// ReversalZone is a price band where surviving paths cluster
type ReversalZone struct {
	PriceLow    float64  `json:"price_low"`
	PriceHigh   float64  `json:"price_high"`
	Type        ZoneType `json:"zone_type"`
	PathCount   int      `json:"path_count"`
	Probability float64  `json:"probability"`
}

// Center returns the midpoint of the zone band
func (z ReversalZone) Center() float64 {
	return (z.PriceLow + z.PriceHigh) / 2
}

// Width returns the band width of the zone
func (z ReversalZone) Width() float64 {
	return z.PriceHigh - z.PriceLow
}

// SurvivorStats summarizes the alive paths' prices at one offset
type SurvivorStats struct {
	Mean float64 `json:"mean"`
	P10  float64 `json:"p10"`
	P50  float64 `json:"p50"`
	P90  float64 `json:"p90"`
}

// SnapshotStatus tells the renderer how to interpret a snapshot
type SnapshotStatus string

const (
	// StatusLive means the snapshot reflects a fresh observation
	StatusLive SnapshotStatus = "live"
	// StatusStale means the fetch failed this tick and prior data is reused
	StatusStale SnapshotStatus = "stale"
	// StatusReseeded marks a discontinuity: the ensemble was regenerated
	StatusReseeded SnapshotStatus = "reseeded"
	// StatusStalled means the alive set emptied and a reseed is pending
	StatusStalled SnapshotStatus = "stalled"
)

// LiveSnapshot is the read model handed to the renderer each cycle.
// Immutable once produced; fully replaced on the next tick.
type LiveSnapshot struct {
	Symbol          string         `json:"symbol"`
	Status          SnapshotStatus `json:"status"`
	Observation     Observation    `json:"observation"`
	Offset          int            `json:"offset"`
	SurvivingPaths  int            `json:"surviving_paths"`
	TotalPaths      int            `json:"total_paths"`
	EliminatedCount int            `json:"eliminated_count"`
	EliminatedNow   int            `json:"eliminated_now"`
	Stats           *SurvivorStats `json:"stats,omitempty"`
	Zones           []ReversalZone `json:"zones"`
	AsOf            time.Time      `json:"as_of"`
}

// SurvivalRate returns the fraction of paths still alive
func (s *LiveSnapshot) SurvivalRate() float64 {
	if s.TotalPaths == 0 {
		return 0
	}
	return float64(s.SurvivingPaths) / float64(s.TotalPaths)
}
