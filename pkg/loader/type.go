package loader

import (
	"context"
	"errors"
	"time"

	"github.com/NotCoffee418/energy_monitor/pkg/periods"
	"github.com/NotCoffee418/energy_monitor/pkg/types"
)

var ErrLoadInProgress = errors.New("load already in progress")

// Fetcher returns the samples of one sensor over a period. Failures yield an empty series.
type Fetcher interface {
	FetchSeries(ctx context.Context, entityID string, period types.Period) types.Series
}

// StateSource provides the host state registry used to resolve devices.
type StateSource interface {
	States(ctx context.Context) (types.StateSnapshot, error)
}

// Observer is notified about the cycle lifecycle.
type Observer interface {
	CycleStarted()
	CycleFinished(classification string, duration time.Duration, devicesWithoutData int)
	TriggerDropped()
}

type nopObserver struct{}

func (nopObserver) CycleStarted()                            {}
func (nopObserver) CycleFinished(string, time.Duration, int) {}
func (nopObserver) TriggerDropped()                          {}

// Bar is the chart height of one device relative to the larger of its two values.
type Bar struct {
	DeviceID   string  `json:"device_id"`
	Current    float64 `json:"current"`
	Comparison float64 `json:"comparison"`
}

// Snapshot is a copy of the engine state handed to readers.
type Snapshot struct {
	State              types.LoadState         `json:"state"`
	CycleID            string                  `json:"cycle_id,omitempty"`
	PeriodSelector     periods.Selector        `json:"period_selector"`
	Period             types.Period            `json:"period"`
	ComparisonSelector periods.Selector        `json:"comparison_selector"`
	ComparisonPeriod   types.Period            `json:"comparison_period"`
	ShowComparison     bool                    `json:"show_comparison"`
	ShowCosts          bool                    `json:"show_costs"`
	PricePerKwh        float64                 `json:"price_per_kwh"`
	Devices            []types.Device          `json:"devices"`
	Results            []types.AggregateResult `json:"results"`
	Bars               []Bar                   `json:"bars"`
	Summary            types.Summary           `json:"summary"`
	Error              string                  `json:"error"`
	DevicesWithoutData int                     `json:"devices_without_data"`
	LastLoaded         *time.Time              `json:"last_loaded,omitempty"`
}

// selection is a period selector plus the literal dates used when it is custom.
type selection struct {
	selector periods.Selector
	custom   types.Period
}
