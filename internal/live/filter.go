package live

import (
	"math"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/Pathwatch/internal/model"
	"github.com/Alias1177/Pathwatch/internal/simulation"
)

// Filter eliminates paths whose predicted price diverges from a live
// observation beyond a relative tolerance.
type Filter struct {
	tolerance float64
	logger    zerolog.Logger
}

// NewFilter creates a filter with the given tolerance fraction
func NewFilter(tolerance float64) *Filter {
	return &Filter{
		tolerance: tolerance,
		logger:    log.With().Str("component", "path_filter").Logger(),
	}
}

// Tolerance returns the configured tolerance fraction
func (f *Filter) Tolerance() float64 { return f.tolerance }

// Apply compares one observation against every surviving path's predicted
// price at the nearest step offset and eliminates paths whose relative
// deviation exceeds the tolerance. Only the single nearest offset is
// checked; past offsets are never revisited. Repeated calls at the same
// offset are idempotent since dead paths are skipped.
func (f *Filter) Apply(m *simulation.Manager, obs model.Observation) (eliminated, offset int) {
	e := m.Ensemble()
	offset = e.OffsetAt(obs.Timestamp)

	for _, id := range m.Survivors() {
		predicted := e.PriceAt(id, offset)
		deviation := math.Abs(predicted-obs.Price) / obs.Price
		if deviation > f.tolerance {
			if m.Eliminate(id, offset) {
				eliminated++
			}
		}
	}

	if eliminated > 0 {
		f.logger.Debug().
			Int("offset", offset).
			Int("eliminated", eliminated).
			Int("alive", e.AliveCount()).
			Float64("price", obs.Price).
			Msg("Paths eliminated")
	}
	return eliminated, offset
}
