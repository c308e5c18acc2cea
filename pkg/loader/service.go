// Package loader runs load cycles: it fetches the history of every resolved
// device for the selected periods and keeps the latest result set.
package loader

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/NotCoffee418/energy_monitor/pkg/aggregator"
	"github.com/NotCoffee418/energy_monitor/pkg/comparison"
	"github.com/NotCoffee418/energy_monitor/pkg/config"
	"github.com/NotCoffee418/energy_monitor/pkg/devices"
	"github.com/NotCoffee418/energy_monitor/pkg/emutils"
	"github.com/NotCoffee418/energy_monitor/pkg/periods"
	"github.com/NotCoffee418/energy_monitor/pkg/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Engine struct {
	cfg     config.CardConfig
	states  StateSource
	fetcher Fetcher
	loc     *time.Location
	now     func() time.Time
	logger  *zap.Logger
	obs     Observer

	// set for the whole duration of a cycle
	loading atomic.Bool

	mu                 sync.RWMutex
	hostStates         types.StateSnapshot
	devices            []types.Device
	period             selection
	comparison         selection
	state              types.LoadState
	cycleID            string
	currentPeriod      types.Period
	comparisonPeriod   types.Period
	results            []types.AggregateResult
	classification     string
	devicesWithoutData int
	lastLoaded         *time.Time

	subsMu sync.Mutex
	subs   map[chan Snapshot]struct{}
}

// New creates an idle engine with the configured default selectors. obs may be nil.
func New(cfg config.CardConfig, states StateSource, fetcher Fetcher, loc *time.Location, logger *zap.Logger, obs Observer) *Engine {
	if obs == nil {
		obs = nopObserver{}
	}
	e := &Engine{
		cfg:        cfg,
		states:     states,
		fetcher:    fetcher,
		loc:        loc,
		now:        time.Now,
		logger:     logger,
		obs:        obs,
		period:     selection{selector: periods.Day},
		comparison: selection{selector: periods.PreviousDay},
		state:      types.LoadStateIdle,
		subs:       make(map[chan Snapshot]struct{}),
	}
	if s := periods.Selector(cfg.DefaultPeriod); periods.IsNamed(s) {
		e.period.selector = s
	}
	if s := periods.Selector(cfg.DefaultComparison); periods.IsComparison(s) {
		e.comparison.selector = s
	}
	return e
}

func (e *Engine) options() comparison.Options {
	return comparison.Options{
		ShowComparison: e.cfg.ShowComparison,
		ShowCosts:      e.cfg.ShowCosts,
		PricePerKwh:    e.cfg.PricePerKwh,
	}
}

// RefreshDevices re-reads the host states and re-resolves the device list.
// On failure the previous device list is kept.
func (e *Engine) RefreshDevices(ctx context.Context) error {
	snapshot, err := e.states.States(ctx)
	if err != nil {
		return fmt.Errorf("failed to refresh devices: %w", err)
	}
	resolved := devices.Resolve(snapshot, e.cfg)

	for _, d := range resolved {
		if !d.Found {
			e.logger.Warn("configured entity not found", zap.String("device_id", d.ID))
		}
	}
	for _, v := range devices.Validate(snapshot, e.configuredEntityIDs()) {
		if v.Exists && !v.IsEnergySensor {
			e.logger.Info("configured entity does not look like an energy sensor",
				zap.String("entity_id", v.EntityID), zap.String("reason", v.ValidationReason))
		}
	}

	e.mu.Lock()
	e.hostStates = snapshot
	e.devices = resolved
	e.mu.Unlock()

	e.logger.Info("devices resolved", zap.Int("devices", len(resolved)), zap.Int("host_entities", snapshot.Len()))
	return nil
}

func (e *Engine) configuredEntityIDs() []string {
	ids := make([]string, 0, len(e.cfg.Entities))
	for _, ent := range e.cfg.Entities {
		ids = append(ids, ent.EntityID)
	}
	return ids
}

func (e *Engine) Devices() []types.Device {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return slices.Clone(e.devices)
}

// Candidates lists the host sensors that could be configured, from the last refresh.
func (e *Engine) Candidates() []devices.Candidate {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return devices.Candidates(e.hostStates)
}

// Validation checks the configured entities against the last refresh.
func (e *Engine) Validation() []devices.Validation {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return devices.Validate(e.hostStates, e.configuredEntityIDs())
}

// SelectPeriod changes the primary period used by the next cycle.
// custom is only read for the custom selector.
func (e *Engine) SelectPeriod(s periods.Selector, custom types.Period) error {
	if s != periods.Custom && !periods.IsNamed(s) {
		return fmt.Errorf("%w: %q", periods.ErrUnknownPeriod, s)
	}
	e.mu.Lock()
	e.period = selection{selector: s, custom: custom}
	e.mu.Unlock()
	return nil
}

// SelectComparison changes the comparison period used by the next cycle.
func (e *Engine) SelectComparison(s periods.Selector, custom types.Period) error {
	if s != periods.Custom && !periods.IsComparison(s) {
		return fmt.Errorf("%w: %q", periods.ErrUnknownPeriod, s)
	}
	e.mu.Lock()
	e.comparison = selection{selector: s, custom: custom}
	e.mu.Unlock()
	return nil
}

func (e *Engine) resolvePeriods(now time.Time) (types.Period, types.Period, error) {
	var current, previous types.Period
	var err error

	if e.period.selector == periods.Custom {
		current = periods.CustomPeriod(e.period.custom.Start, e.period.custom.End)
	} else if current, err = periods.Named(now, e.period.selector); err != nil {
		return current, previous, err
	}

	if e.comparison.selector == periods.Custom {
		previous = periods.CustomPeriod(e.comparison.custom.Start, e.comparison.custom.End)
	} else if previous, err = periods.Comparison(now, e.comparison.selector); err != nil {
		return current, previous, err
	}
	return current, previous, nil
}

// EntityStats fetches one sensor over the selected primary period and summarises its samples.
func (e *Engine) EntityStats(ctx context.Context, entityID string) (types.Period, aggregator.SeriesStats, error) {
	e.mu.RLock()
	current, _, err := e.resolvePeriods(e.now().In(e.loc))
	e.mu.RUnlock()
	if err != nil {
		return current, aggregator.SeriesStats{}, err
	}
	series := e.fetcher.FetchSeries(ctx, entityID, current)
	return current, aggregator.Stats(series), nil
}

// StartLoad runs a cycle in the background. It returns false without doing
// anything when a cycle is already running.
func (e *Engine) StartLoad(ctx context.Context) bool {
	if !e.tryAcquire() {
		return false
	}
	go e.run(context.WithoutCancel(ctx))
	return true
}

// Load runs a cycle in the calling goroutine.
func (e *Engine) Load(ctx context.Context) error {
	if !e.tryAcquire() {
		return ErrLoadInProgress
	}
	e.run(ctx)
	return nil
}

// Loading reports whether a cycle is in flight.
func (e *Engine) Loading() bool {
	return e.loading.Load()
}

func (e *Engine) tryAcquire() bool {
	if e.loading.CompareAndSwap(false, true) {
		return true
	}
	e.logger.Debug("load already in progress, trigger dropped")
	e.obs.TriggerDropped()
	return false
}

func (e *Engine) run(ctx context.Context) {
	defer e.loading.Store(false)

	started := e.now()
	cycleID := uuid.NewString()
	logger := e.logger.With(zap.String("cycle_id", cycleID))

	e.mu.Lock()
	if len(e.devices) == 0 {
		e.results = nil
		e.classification = types.ErrorNoDevices
		e.devicesWithoutData = 0
		e.mu.Unlock()
		logger.Warn("no devices configured, nothing to load")
		e.obs.CycleFinished(types.ErrorNoDevices, 0, 0)
		e.publish()
		return
	}
	current, previous, err := e.resolvePeriods(started.In(e.loc))
	devs := slices.Clone(e.devices)
	opts := e.options()
	e.state = types.LoadStateLoading
	e.cycleID = cycleID
	e.results = nil
	e.classification = types.ErrorNone
	e.currentPeriod = current
	e.comparisonPeriod = previous
	e.mu.Unlock()

	e.publish()
	e.obs.CycleStarted()
	logger.Info("load cycle started",
		zap.Stringer("period", current),
		zap.Stringer("comparison_period", previous),
		zap.Int("devices", len(devs)))

	var results []types.AggregateResult
	var withoutData int
	if err == nil {
		results, withoutData, err = e.collect(ctx, logger, devs, current, previous, opts)
	}

	classification := types.ErrorNone
	switch {
	case err != nil:
		logger.Error("load cycle failed", zap.Error(err))
		classification = types.ErrorLoadFailed
		results = nil
	case withoutData == len(devs):
		logger.Warn("no historical data found for any device")
		classification = types.ErrorNoHistoricData
	case withoutData > 0:
		logger.Info("some devices returned no data", zap.Int("devices_without_data", withoutData))
	}

	finished := e.now()
	e.mu.Lock()
	e.state = types.LoadStateIdle
	e.results = results
	e.classification = classification
	e.devicesWithoutData = withoutData
	e.lastLoaded = &finished
	e.mu.Unlock()

	duration := finished.Sub(started)
	e.obs.CycleFinished(classification, duration, withoutData)
	logger.Info("load cycle finished",
		zap.Duration("duration", duration),
		zap.Int("results", len(results)),
		zap.String("classification", classification))
	e.publish()
}

// collect fetches and aggregates every device in order, one request at a time.
// A panic while processing is returned as an error.
func (e *Engine) collect(
	ctx context.Context,
	logger *zap.Logger,
	devs []types.Device,
	current, previous types.Period,
	opts comparison.Options,
) (results []types.AggregateResult, withoutData int, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic during load cycle", zap.Any("panic", r), zap.Stack("stack"))
			err = fmt.Errorf("panic during load cycle: %v", r)
		}
	}()

	results = make([]types.AggregateResult, 0, len(devs))
	for _, d := range devs {
		var currentKwh, comparisonKwh float64
		var points, comparisonPoints int

		// A device absent from the host is not queried; it stays as a result without data.
		if d.Found {
			for _, sensor := range d.Sensors {
				series := e.fetcher.FetchSeries(ctx, sensor.EntityID, current)
				currentKwh += aggregator.Consumption(series)
				points += len(series)

				if opts.ShowComparison {
					series = e.fetcher.FetchSeries(ctx, sensor.EntityID, previous)
					comparisonKwh += aggregator.Consumption(series)
					comparisonPoints += len(series)
				}
			}
		}

		res := comparison.Compare(d, emutils.Round2(currentKwh), emutils.Round2(comparisonKwh), opts)
		res.DataPoints = points
		res.ComparisonDataPoints = comparisonPoints
		if !res.HasData() {
			withoutData++
			logger.Debug("device returned no data", zap.String("device_id", d.ID))
		}
		results = append(results, res)

		e.mu.Lock()
		e.results = append(e.results, res)
		e.mu.Unlock()
		e.publish()
	}
	return results, withoutData, nil
}

// Snapshot returns a copy of the current state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	opts := e.options()
	snap := Snapshot{
		State:              e.state,
		CycleID:            e.cycleID,
		PeriodSelector:     e.period.selector,
		Period:             e.currentPeriod,
		ComparisonSelector: e.comparison.selector,
		ComparisonPeriod:   e.comparisonPeriod,
		ShowComparison:     opts.ShowComparison,
		ShowCosts:          opts.ShowCosts,
		PricePerKwh:        opts.PricePerKwh,
		Devices:            slices.Clone(e.devices),
		Results:            slices.Clone(e.results),
		Summary:            comparison.Summarize(e.results, opts),
		Error:              e.classification,
		DevicesWithoutData: e.devicesWithoutData,
	}
	if snap.Devices == nil {
		snap.Devices = []types.Device{}
	}
	if snap.Results == nil {
		snap.Results = []types.AggregateResult{}
	}
	snap.Bars = make([]Bar, 0, len(e.results))
	for _, r := range e.results {
		cur, cmp := comparison.BarHeights(r.CurrentKwh, r.ComparisonKwh)
		snap.Bars = append(snap.Bars, Bar{DeviceID: r.DeviceID, Current: cur, Comparison: cmp})
	}
	if e.lastLoaded != nil {
		t := *e.lastLoaded
		snap.LastLoaded = &t
	}
	return snap
}

// Subscribe returns a channel receiving a snapshot after every state change.
// Slow readers only see the latest snapshot. Call the returned func to unsubscribe.
func (e *Engine) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)
	e.subsMu.Lock()
	e.subs[ch] = struct{}{}
	e.subsMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			e.subsMu.Lock()
			delete(e.subs, ch)
			e.subsMu.Unlock()
		})
	}
}

func (e *Engine) publish() {
	snap := e.Snapshot()

	e.subsMu.Lock()
	defer e.subsMu.Unlock()
	for ch := range e.subs {
		select {
		case ch <- snap:
		default:
			// replace the stale snapshot
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}
