package types

type LoadState string

const (
	LoadStateIdle    LoadState = "idle"
	LoadStateLoading LoadState = "loading"
)

// Cycle-level classification messages.
const (
	ErrorNone           = ""
	ErrorNoDevices      = "no devices configured"
	ErrorNoHistoricData = "no historical data found for the selected period"
	ErrorLoadFailed     = "error while loading data"
)

// AggregateResult is the per-device outcome of one load cycle.
// Cost fields are nil when cost display is disabled.
type AggregateResult struct {
	DeviceID             string   `json:"device_id"`
	DeviceName           string   `json:"device_name"`
	Unit                 *string  `json:"unit"`
	CurrentKwh           float64  `json:"current_kwh"`
	ComparisonKwh        float64  `json:"comparison_kwh"`
	PercentChange        float64  `json:"percent_change"`
	CurrentCost          *float64 `json:"current_cost,omitempty"`
	ComparisonCost       *float64 `json:"comparison_cost,omitempty"`
	DataPoints           int      `json:"data_points"`
	ComparisonDataPoints int      `json:"comparison_data_points"`
}

// HasData reports whether any series of the device returned points.
func (r AggregateResult) HasData() bool {
	return r.DataPoints > 0 || r.ComparisonDataPoints > 0
}

// Summary totals all devices of a cycle.
type Summary struct {
	TotalCurrentKwh     float64  `json:"total_current_kwh"`
	TotalComparisonKwh  float64  `json:"total_comparison_kwh"`
	PercentChange       float64  `json:"percent_change"`
	TotalCurrentCost    *float64 `json:"total_current_cost,omitempty"`
	TotalComparisonCost *float64 `json:"total_comparison_cost,omitempty"`
}
