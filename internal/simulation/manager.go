package simulation

import (
	"errors"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/Pathwatch/internal/model"
)

// ErrNoSurvivors is returned when every path in the ensemble has been
// eliminated. A reportable live-mode condition, not fatal to the process.
var ErrNoSurvivors = errors.New("no surviving paths in ensemble")

const notEliminated = -1

// Ensemble owns one generation of simulated paths. Path prices are
// immutable after creation; only the alive flags and elimination offsets
// change, and only through Eliminate.
type Ensemble struct {
	prices       [][]float64
	alive        []bool
	eliminatedAt []int
	aliveCount   int
	startTime    time.Time
	step         time.Duration
}

func newEnsemble(prices [][]float64, startTime time.Time, step time.Duration) *Ensemble {
	n := len(prices)
	alive := make([]bool, n)
	eliminatedAt := make([]int, n)
	for i := range alive {
		alive[i] = true
		eliminatedAt[i] = notEliminated
	}
	return &Ensemble{
		prices:       prices,
		alive:        alive,
		eliminatedAt: eliminatedAt,
		aliveCount:   n,
		startTime:    startTime,
		step:         step,
	}
}

// NumPaths returns the total number of paths in the ensemble
func (e *Ensemble) NumPaths() int { return len(e.prices) }

// Steps returns the number of forecast steps (offsets run 0..Steps)
func (e *Ensemble) Steps() int {
	if len(e.prices) == 0 {
		return 0
	}
	return len(e.prices[0]) - 1
}

// StartTime returns the wall-clock origin of offset 0
func (e *Ensemble) StartTime() time.Time { return e.startTime }

// StepInterval returns the duration of one forecast step
func (e *Ensemble) StepInterval() time.Duration { return e.step }

// PriceAt returns path id's predicted price at the given offset
func (e *Ensemble) PriceAt(id, offset int) float64 { return e.prices[id][offset] }

// IsAlive reports whether path id has not been eliminated
func (e *Ensemble) IsAlive(id int) bool { return e.alive[id] }

// EliminatedAt returns the offset a path was eliminated at, or -1
func (e *Ensemble) EliminatedAt(id int) int { return e.eliminatedAt[id] }

// AliveCount returns the number of surviving paths
func (e *Ensemble) AliveCount() int { return e.aliveCount }

// OffsetAt maps a wall-clock time to the nearest step offset, clamped to
// the forecast horizon
func (e *Ensemble) OffsetAt(t time.Time) int {
	if e.step <= 0 {
		return 0
	}
	offset := int(math.Round(float64(t.Sub(e.startTime)) / float64(e.step)))
	if offset < 0 {
		return 0
	}
	if max := e.Steps(); offset > max {
		return max
	}
	return offset
}

// Manager owns the live ensemble for one run. All mutation flows through
// Eliminate and Reset; ticks never overlap, so no locking is needed.
type Manager struct {
	ensemble *Ensemble
	logger   zerolog.Logger
}

// NewManager wraps a freshly generated ensemble
func NewManager(e *Ensemble) *Manager {
	return &Manager{
		ensemble: e,
		logger:   log.With().Str("component", "path_manager").Logger(),
	}
}

// Ensemble exposes the current ensemble for read-only traversal
func (m *Manager) Ensemble() *Ensemble { return m.ensemble }

// Survivors returns the ids of all currently alive paths
func (m *Manager) Survivors() []int {
	ids := make([]int, 0, m.ensemble.aliveCount)
	for id, alive := range m.ensemble.alive {
		if alive {
			ids = append(ids, id)
		}
	}
	return ids
}

// Eliminate marks a path dead and records the offset it died at.
// Idempotent: eliminating a dead path is a no-op, so the alive set only
// ever shrinks.
func (m *Manager) Eliminate(id, offset int) bool {
	e := m.ensemble
	if id < 0 || id >= len(e.alive) || !e.alive[id] {
		return false
	}
	e.alive[id] = false
	e.eliminatedAt[id] = offset
	e.aliveCount--
	return true
}

// SurvivorPrices returns the alive paths' predicted prices at an offset
func (m *Manager) SurvivorPrices(offset int) []float64 {
	prices := make([]float64, 0, m.ensemble.aliveCount)
	for id, alive := range m.ensemble.alive {
		if alive {
			prices = append(prices, m.ensemble.prices[id][offset])
		}
	}
	return prices
}

// Stats computes mean and percentile bands over the alive paths' prices
// at the given offset. Returns ErrNoSurvivors when the alive set is empty.
func (m *Manager) Stats(offset int) (model.SurvivorStats, error) {
	prices := m.SurvivorPrices(offset)
	if len(prices) == 0 {
		return model.SurvivorStats{}, ErrNoSurvivors
	}

	sum := 0.0
	for _, p := range prices {
		sum += p
	}
	sort.Float64s(prices)

	return model.SurvivorStats{
		Mean: sum / float64(len(prices)),
		P10:  percentile(prices, 0.10),
		P50:  percentile(prices, 0.50),
		P90:  percentile(prices, 0.90),
	}, nil
}

// Reset replaces the ensemble wholesale. No elimination state carries
// over into the new run.
func (m *Manager) Reset(e *Ensemble) {
	m.logger.Info().
		Int("old_paths", m.ensemble.NumPaths()).
		Int("new_paths", e.NumPaths()).
		Msg("Ensemble reset")
	m.ensemble = e
}

// Release drops the ensemble reference on termination
func (m *Manager) Release() {
	m.ensemble = newEnsemble(nil, time.Time{}, 0)
}

// percentile computes the q-quantile of sorted values with linear
// interpolation between closest ranks
func percentile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
