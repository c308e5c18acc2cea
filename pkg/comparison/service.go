package comparison

import (
	"github.com/NotCoffee418/energy_monitor/pkg/emutils"
	"github.com/NotCoffee418/energy_monitor/pkg/types"
)

// Options decide which derived fields are produced.
type Options struct {
	ShowComparison bool
	ShowCosts      bool
	PricePerKwh    float64
}

// PercentChange of current relative to comparison, rounded to 1 decimal.
// A zero comparison yields 0, so "no prior data" reads the same as "no change".
func PercentChange(current, comparison float64) float64 {
	if comparison == 0 {
		return 0
	}
	return emutils.Round1((current - comparison) / comparison * 100)
}

func Cost(kwh, pricePerKwh float64) float64 {
	return kwh * pricePerKwh
}

// Compare builds the result for one device from its two aggregates.
func Compare(device types.Device, currentKwh, comparisonKwh float64, opts Options) types.AggregateResult {
	if !opts.ShowComparison {
		comparisonKwh = 0
	}
	res := types.AggregateResult{
		DeviceID:      device.ID,
		DeviceName:    device.DisplayName,
		CurrentKwh:    currentKwh,
		ComparisonKwh: comparisonKwh,
		PercentChange: PercentChange(currentKwh, comparisonKwh),
	}
	if len(device.Sensors) > 0 {
		res.Unit = device.Sensors[0].Unit
	}
	if opts.ShowCosts {
		res.CurrentCost = emutils.Float64Ptr(Cost(currentKwh, opts.PricePerKwh))
		res.ComparisonCost = emutils.Float64Ptr(Cost(comparisonKwh, opts.PricePerKwh))
	}
	return res
}

// Summarize totals the results of one cycle.
func Summarize(results []types.AggregateResult, opts Options) types.Summary {
	var sum types.Summary
	for _, r := range results {
		sum.TotalCurrentKwh += r.CurrentKwh
		sum.TotalComparisonKwh += r.ComparisonKwh
	}
	sum.TotalCurrentKwh = emutils.Round2(sum.TotalCurrentKwh)
	sum.TotalComparisonKwh = emutils.Round2(sum.TotalComparisonKwh)
	sum.PercentChange = PercentChange(sum.TotalCurrentKwh, sum.TotalComparisonKwh)
	if opts.ShowCosts {
		sum.TotalCurrentCost = emutils.Float64Ptr(Cost(sum.TotalCurrentKwh, opts.PricePerKwh))
		sum.TotalComparisonCost = emutils.Float64Ptr(Cost(sum.TotalComparisonKwh, opts.PricePerKwh))
	}
	return sum
}

// BarHeights scales both values to percentages of the larger one for the chart.
func BarHeights(current, comparison float64) (float64, float64) {
	max := current
	if comparison > max {
		max = comparison
	}
	if max <= 0 {
		return 0, 0
	}
	return current / max * 100, comparison / max * 100
}
