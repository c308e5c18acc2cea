package api

import (
	"context"

	"github.com/NotCoffee418/energy_monitor/pkg/aggregator"
	"github.com/NotCoffee418/energy_monitor/pkg/devices"
	"github.com/NotCoffee418/energy_monitor/pkg/loader"
	"github.com/NotCoffee418/energy_monitor/pkg/periods"
	"github.com/NotCoffee418/energy_monitor/pkg/types"
)

// Engine is the part of loader.Engine the API drives.
type Engine interface {
	Snapshot() loader.Snapshot
	Subscribe() (<-chan loader.Snapshot, func())
	Devices() []types.Device
	Candidates() []devices.Candidate
	Validation() []devices.Validation
	RefreshDevices(ctx context.Context) error
	SelectPeriod(s periods.Selector, custom types.Period) error
	SelectComparison(s periods.Selector, custom types.Period) error
	EntityStats(ctx context.Context, entityID string) (types.Period, aggregator.SeriesStats, error)
	StartLoad(ctx context.Context) bool
	Loading() bool
}

type errorResponse struct {
	Error string `json:"error"`
}

type loadResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message"`
}

type selectionResponse struct {
	Selector    periods.Selector `json:"selector"`
	Start       *types.Date      `json:"start,omitempty"`
	End         *types.Date      `json:"end,omitempty"`
	LoadStarted bool             `json:"load_started"`
}

type statsResponse struct {
	EntityID string                 `json:"entity_id"`
	Period   types.Period           `json:"period"`
	Stats    aggregator.SeriesStats `json:"stats"`
}
