package aggregator

// SeriesStats summarises the numeric samples of a series.
// Pointer fields are nil when the series has no numeric samples.
type SeriesStats struct {
	Min         *float64 `json:"min"`
	Max         *float64 `json:"max"`
	Average     *float64 `json:"average"`
	NetChange   *float64 `json:"total_consumption"`
	ValidPoints int      `json:"valid_points"`
}
