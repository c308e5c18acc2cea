package aggregator

import (
	"github.com/NotCoffee418/energy_monitor/pkg/emutils"
	"github.com/NotCoffee418/energy_monitor/pkg/types"
)

// Consumption sums the increases between consecutive samples of a cumulative counter.
// A decrease is a counter reset and contributes nothing. Pairs with a
// non-numeric side are skipped. Result is rounded to 2 decimals.
func Consumption(series types.Series) float64 {
	if len(series) < 2 {
		return 0
	}

	var total float64
	for i := 0; i < len(series)-1; i++ {
		current, ok := series[i].Value()
		if !ok {
			continue
		}
		next, ok := series[i+1].Value()
		if !ok {
			continue
		}
		if next >= current {
			total += next - current
		}
	}
	return emutils.NonNegative(emutils.Round2(total))
}

// Stats computes min, max, average and the naive last minus first change over numeric samples.
func Stats(series types.Series) SeriesStats {
	values := make([]float64, 0, len(series))
	for _, s := range series {
		if v, ok := s.Value(); ok {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return SeriesStats{}
	}

	min, max, sum := values[0], values[0], 0.0
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		sum += v
	}
	avg := sum / float64(len(values))

	var net float64
	if len(values) > 1 {
		net = values[len(values)-1] - values[0]
	}

	return SeriesStats{
		Min:         emutils.Float64Ptr(min),
		Max:         emutils.Float64Ptr(max),
		Average:     emutils.Float64Ptr(avg),
		NetChange:   emutils.Float64Ptr(net),
		ValidPoints: len(values),
	}
}
