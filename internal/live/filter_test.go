package live

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/Pathwatch/internal/model"
	"github.com/Alias1177/Pathwatch/internal/simulation"
)

var testStart = time.Date(2025, 3, 3, 9, 30, 0, 0, time.UTC)

func generated(t *testing.T, cfg simulation.GenerateConfig) *simulation.Manager {
	t.Helper()
	e, err := simulation.Generate(cfg)
	require.NoError(t, err)
	return simulation.NewManager(e)
}

func flatConfig(numPaths, steps int) simulation.GenerateConfig {
	return simulation.GenerateConfig{
		StartingPrice: 100,
		Mu:            0,
		Sigma:         0,
		NumPaths:      numPaths,
		Steps:         steps,
		StepInterval:  time.Minute,
		Seed:          20,
		StartTime:     testStart,
	}
}

func obsAt(offset int, price float64) model.Observation {
	return model.Observation{
		Timestamp: testStart.Add(time.Duration(offset) * time.Minute),
		Price:     price,
	}
}

func TestApplyExactMatchNeverEliminates(t *testing.T) {
	// Feeding a path's exact predicted price back in must never kill it
	m := generated(t, simulation.GenerateConfig{
		StartingPrice: 100,
		Mu:            0.05,
		Sigma:         0.3,
		NumPaths:      10,
		Steps:         20,
		StepInterval:  time.Minute,
		Seed:          7,
		StartTime:     testStart,
	})
	f := NewFilter(0.0001)

	predicted := m.Ensemble().PriceAt(3, 5)
	eliminated, offset := f.Apply(m, obsAt(5, predicted))

	assert.Equal(t, 5, offset)
	assert.True(t, m.Ensemble().IsAlive(3), "exact-match path must survive")
	_ = eliminated // other paths may legitimately die
}

func TestApplyFlatScenarioAllSurvive(t *testing.T) {
	// S0=100, mu=0, sigma=0, N=3, T=5, tolerance=0.01:
	// observation 100 at offset 5 keeps all 3 paths alive
	m := generated(t, flatConfig(3, 5))
	f := NewFilter(0.01)

	eliminated, offset := f.Apply(m, obsAt(5, 100))

	assert.Equal(t, 5, offset)
	assert.Zero(t, eliminated)
	assert.Equal(t, 3, m.Ensemble().AliveCount())
}

func TestApplyZeroToleranceRequiresExactMatch(t *testing.T) {
	m := generated(t, flatConfig(5, 5))
	f := NewFilter(0)

	// Any deviation at all eliminates with zero tolerance
	eliminated, _ := f.Apply(m, obsAt(3, 100.0001))
	assert.Equal(t, 5, eliminated)
	assert.Zero(t, m.Ensemble().AliveCount())

	// Exact match survives even at zero tolerance
	m2 := generated(t, flatConfig(5, 5))
	eliminated, _ = f.Apply(m2, obsAt(3, 100))
	assert.Zero(t, eliminated)
	assert.Equal(t, 5, m2.Ensemble().AliveCount())
}

func TestApplyFullToleranceEliminatesNone(t *testing.T) {
	m := generated(t, simulation.GenerateConfig{
		StartingPrice: 100,
		Mu:            0,
		Sigma:         0.5,
		NumPaths:      50,
		Steps:         10,
		StepInterval:  time.Minute,
		Seed:          20,
		StartTime:     testStart,
	})
	f := NewFilter(1)

	// Paths stay within a band where relative deviation cannot exceed 1
	eliminated, _ := f.Apply(m, obsAt(10, 100))
	assert.Zero(t, eliminated)
	assert.Equal(t, 50, m.Ensemble().AliveCount())
}

func TestApplyEliminatesDivergentPaths(t *testing.T) {
	m := generated(t, flatConfig(4, 10))
	f := NewFilter(0.01)

	// 5% away from every flat path at offset 4
	eliminated, offset := f.Apply(m, obsAt(4, 105))

	assert.Equal(t, 4, offset)
	assert.Equal(t, 4, eliminated)
	assert.Zero(t, m.Ensemble().AliveCount())
	for id := 0; id < 4; id++ {
		assert.Equal(t, 4, m.Ensemble().EliminatedAt(id))
	}
}

func TestApplyIdempotentAtSameOffset(t *testing.T) {
	m := generated(t, flatConfig(4, 10))
	f := NewFilter(0.01)

	first, _ := f.Apply(m, obsAt(4, 105))
	assert.Equal(t, 4, first)

	// Update cadence finer than step duration revisits the same offset;
	// the repeat comparison must be a no-op
	second, _ := f.Apply(m, obsAt(4, 105))
	assert.Zero(t, second)
	assert.Zero(t, m.Ensemble().AliveCount())
}

func TestApplyRoundsToNearestOffset(t *testing.T) {
	m := generated(t, flatConfig(2, 10))
	f := NewFilter(0.01)

	obs := model.Observation{
		Timestamp: testStart.Add(3*time.Minute + 50*time.Second),
		Price:     100,
	}
	_, offset := f.Apply(m, obs)
	assert.Equal(t, 4, offset)
}
