package live

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/Pathwatch/internal/config"
	"github.com/Alias1177/Pathwatch/internal/estimator"
	"github.com/Alias1177/Pathwatch/internal/market"
	"github.com/Alias1177/Pathwatch/internal/model"
	"github.com/Alias1177/Pathwatch/internal/render"
	"github.com/Alias1177/Pathwatch/internal/simulation"
)

// HistoricalSource supplies the candle history used for estimation and
// starting-price resolution
type HistoricalSource interface {
	FetchHistory(ctx context.Context, symbol string, interval, lookback time.Duration) (model.PriceSeries, error)
}

// LiveSource supplies one observation per tick
type LiveSource interface {
	FetchLatest(ctx context.Context, symbol string) (model.Observation, error)
}

// State is the updater's lifecycle phase
type State int32

const (
	StateInitializing State = iota
	StateRunning
	StateStalled
	StateTerminated
)

// String implements fmt.Stringer
func (s State) String() string {
	switch s {
	case StateInitializing:
		return "INITIALIZING"
	case StateRunning:
		return "RUNNING"
	case StateStalled:
		return "STALLED"
	case StateTerminated:
		return "TERMINATED"
	}
	return "UNKNOWN"
}

// Updater drives the live loop: one observation per tick, filter the
// ensemble, re-derive zones, publish a snapshot. Ticks never overlap;
// the ensemble is mutated only from this loop, so no locking is needed.
type Updater struct {
	cfg       *config.Config
	hist      HistoricalSource
	liveSrc   LiveSource
	calendar  *market.Calendar
	renderers []render.Renderer
	metrics   *Metrics

	manager  *simulation.Manager
	filter   *Filter
	detector *simulation.Detector
	params   model.ModelParameters

	state     State
	lastObs   model.Observation
	hasObs    bool
	tickCount int
	reseeds   int

	logger zerolog.Logger
}

// NewUpdater wires the live loop. Metrics may be nil when no metrics
// endpoint is configured.
func NewUpdater(cfg *config.Config, hist HistoricalSource, liveSrc LiveSource, calendar *market.Calendar, renderers []render.Renderer, metrics *Metrics) *Updater {
	return &Updater{
		cfg:      cfg,
		hist:     hist,
		liveSrc:  liveSrc,
		calendar: calendar,
		// copy so callers cannot mutate the sink list mid-run
		renderers: append([]render.Renderer(nil), renderers...),
		metrics:   metrics,
		filter:    NewFilter(cfg.Tolerance),
		detector: &simulation.Detector{
			Bins:         cfg.ZoneBins,
			MinSurvivors: cfg.ZoneMinSurvivors,
			DensityFloor: cfg.ZoneDensityFloor,
			MaxZones:     cfg.ZoneMaxZones,
		},
		state:  StateInitializing,
		logger: log.With().Str("component", "live_updater").Logger(),
	}
}

// State returns the updater's current lifecycle phase
func (u *Updater) State() State { return u.state }

// Manager exposes the path manager, mainly for inspection in tests
func (u *Updater) Manager() *simulation.Manager { return u.manager }

// Init estimates parameters and radiates the initial ensemble. Estimator
// or generator failures here are fatal and move the updater straight to
// TERMINATED.
func (u *Updater) Init(ctx context.Context) error {
	series, err := u.hist.FetchHistory(ctx, u.cfg.Symbol, u.cfg.HistoryInterval, u.cfg.HistoryLookback)
	if err != nil {
		u.state = StateTerminated
		return fmt.Errorf("fetching history: %w", err)
	}

	if u.cfg.MultiTimeframe {
		u.params, err = estimator.EstimateMultiTimeframe(ctx, u.hist, u.cfg.Symbol, u.cfg.HistoryLookback, nil)
	} else {
		u.params, err = estimator.Estimate(series)
	}
	if err != nil {
		u.state = StateTerminated
		return fmt.Errorf("estimating parameters: %w", err)
	}

	startingPrice, err := u.calendar.ResolveStartingPrice(u.cfg.StartingPriceMode, u.cfg.StartingPrice, series)
	if err != nil {
		u.state = StateTerminated
		return fmt.Errorf("resolving starting price: %w", err)
	}

	ensemble, err := simulation.Generate(simulation.GenerateConfig{
		StartingPrice: startingPrice,
		Mu:            u.params.Mu,
		Sigma:         u.params.Sigma,
		NumPaths:      u.cfg.NumPaths,
		Steps:         u.cfg.HorizonSteps,
		StepInterval:  u.cfg.StepInterval,
		Seed:          u.cfg.Seed,
		StartTime:     time.Now(),
	})
	if err != nil {
		u.state = StateTerminated
		return fmt.Errorf("generating ensemble: %w", err)
	}

	u.manager = simulation.NewManager(ensemble)
	u.state = StateRunning
	if u.metrics != nil {
		u.metrics.Survivors.Set(float64(ensemble.AliveCount()))
	}

	u.logger.Info().
		Str("symbol", u.cfg.Symbol).
		Float64("mu", u.params.Mu).
		Float64("sigma", u.params.Sigma).
		Float64("starting_price", startingPrice).
		Int("paths", u.cfg.NumPaths).
		Int("steps", u.cfg.HorizonSteps).
		Msg("Ensemble radiated, entering live loop")
	return nil
}

// Run executes ticks at the configured cadence until the context is
// cancelled. The stop signal is only honored between ticks; each tick
// runs to completion before the next may start.
func (u *Updater) Run(ctx context.Context) error {
	if u.state != StateRunning {
		return fmt.Errorf("updater not initialized (state %s)", u.state)
	}

	ticker := time.NewTicker(u.cfg.UpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			u.terminate()
			return nil
		case <-ticker.C:
			u.Tick(ctx)
		}
	}
}

// Tick performs one discrete unit of work: fetch, filter, detect zones,
// publish a snapshot. Exported so tests and manual drivers can step the
// loop without the ticker.
func (u *Updater) Tick(ctx context.Context) {
	u.tickCount++
	if u.metrics != nil {
		u.metrics.TicksTotal.Inc()
	}

	if u.state == StateStalled {
		u.reseed(ctx)
		return
	}

	obs, err := u.fetchObservation(ctx)
	if err != nil {
		u.missedTick(ctx, err)
		return
	}
	u.lastObs = obs
	u.hasObs = true

	eliminatedNow, offset := u.filter.Apply(u.manager, obs)
	if u.metrics != nil {
		u.metrics.PathsEliminated.Add(float64(eliminatedNow))
		u.metrics.Survivors.Set(float64(u.manager.Ensemble().AliveCount()))
	}

	stats, err := u.manager.Stats(offset)
	if err != nil {
		if errors.Is(err, simulation.ErrNoSurvivors) {
			u.stall(ctx, obs, offset, eliminatedNow)
			return
		}
		u.logger.Error().Err(err).Msg("Survivor statistics failed")
		return
	}

	zoneOffset := offset + u.cfg.ZoneLookaheadSteps
	if max := u.manager.Ensemble().Steps(); zoneOffset > max {
		zoneOffset = max
	}
	zones := u.detector.Detect(u.manager, zoneOffset, obs.Price)
	if len(zones) == 0 {
		// Histogram clustering found nothing usable; fall back to the
		// coarse percentile view of where the ensemble is headed
		zones = u.detector.ConvergenceBands(u.manager, zoneOffset)
	}

	snap := u.snapshot(model.StatusLive, obs, offset, eliminatedNow)
	snap.Stats = &stats
	snap.Zones = zones
	u.publish(ctx, snap)
}

// fetchObservation pulls the latest tick under a bounded wait so upstream
// delay never blocks the loop cadence
func (u *Updater) fetchObservation(ctx context.Context) (model.Observation, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, u.cfg.FetchTimeout)
	defer cancel()

	start := time.Now()
	obs, err := u.liveSrc.FetchLatest(fetchCtx, u.cfg.Symbol)
	if u.metrics != nil {
		u.metrics.FetchDuration.Observe(time.Since(start).Seconds())
	}
	return obs, err
}

// missedTick reports a failed fetch and republishes the last known state
// so the operator sees stale data flagged as stale, not silently reused
func (u *Updater) missedTick(ctx context.Context, cause error) {
	if u.metrics != nil {
		u.metrics.MissedTicks.Inc()
	}
	u.logger.Warn().Err(cause).Int("tick", u.tickCount).Msg("Missed tick, will retry next cycle")

	offset := 0
	if u.hasObs {
		offset = u.manager.Ensemble().OffsetAt(u.lastObs.Timestamp)
	}
	snap := u.snapshot(model.StatusStale, u.lastObs, offset, 0)
	if stats, err := u.manager.Stats(offset); err == nil {
		snap.Stats = &stats
	}
	u.publish(ctx, snap)
}

// stall reports an emptied alive set. The following tick performs a full
// reseed instead of filtering.
func (u *Updater) stall(ctx context.Context, obs model.Observation, offset, eliminatedNow int) {
	u.state = StateStalled
	u.logger.Warn().
		Int("tick", u.tickCount).
		Float64("price", obs.Price).
		Msg("All paths eliminated, stalled until reseed")
	u.publish(ctx, u.snapshot(model.StatusStalled, obs, offset, eliminatedNow))
}

// reseed replaces the ensemble wholesale, anchored at the last observed
// price. The seed is offset per reseed so each regeneration is a distinct
// but still reproducible stream.
func (u *Updater) reseed(ctx context.Context) {
	if !u.hasObs {
		u.logger.Error().Msg("Cannot reseed without an observation")
		return
	}

	u.reseeds++
	ensemble, err := simulation.Generate(simulation.GenerateConfig{
		StartingPrice: u.lastObs.Price,
		Mu:            u.params.Mu,
		Sigma:         u.params.Sigma,
		NumPaths:      u.cfg.NumPaths,
		Steps:         u.cfg.HorizonSteps,
		StepInterval:  u.cfg.StepInterval,
		Seed:          u.cfg.Seed + int64(u.reseeds),
		StartTime:     time.Now(),
	})
	if err != nil {
		u.logger.Error().Err(err).Msg("Reseed failed, staying stalled")
		return
	}

	u.manager.Reset(ensemble)
	u.state = StateRunning
	if u.metrics != nil {
		u.metrics.Reseeds.Inc()
		u.metrics.Survivors.Set(float64(ensemble.AliveCount()))
	}
	u.logger.Info().
		Int("reseed", u.reseeds).
		Float64("starting_price", u.lastObs.Price).
		Msg("Ensemble reseeded from last observation")

	u.publish(ctx, u.snapshot(model.StatusReseeded, u.lastObs, 0, 0))
}

func (u *Updater) terminate() {
	u.state = StateTerminated
	u.manager.Release()
	u.logger.Info().Int("ticks", u.tickCount).Int("reseeds", u.reseeds).Msg("Live updater stopped")
}

func (u *Updater) snapshot(status model.SnapshotStatus, obs model.Observation, offset, eliminatedNow int) *model.LiveSnapshot {
	e := u.manager.Ensemble()
	return &model.LiveSnapshot{
		Symbol:          u.cfg.Symbol,
		Status:          status,
		Observation:     obs,
		Offset:          offset,
		SurvivingPaths:  e.AliveCount(),
		TotalPaths:      e.NumPaths(),
		EliminatedCount: e.NumPaths() - e.AliveCount(),
		EliminatedNow:   eliminatedNow,
		AsOf:            time.Now(),
	}
}

// publish fans the snapshot out to every sink under a bounded wait; a
// slow or failing sink is logged and never stops the loop
func (u *Updater) publish(ctx context.Context, snap *model.LiveSnapshot) {
	for _, r := range u.renderers {
		renderCtx, cancel := context.WithTimeout(ctx, u.cfg.RenderTimeout)
		if err := r.Render(renderCtx, snap); err != nil {
			u.logger.Warn().Err(err).Msg("Renderer failed")
		}
		cancel()
	}
}
