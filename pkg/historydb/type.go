package historydb

import (
	"context"

	"github.com/NotCoffee418/energy_monitor/pkg/types"
)

// Fetcher is the upstream source of series, normally the Home Assistant client.
type Fetcher interface {
	FetchSeries(ctx context.Context, entityID string, period types.Period) types.Series
}

// Observer is notified about cache lookups.
type Observer interface {
	CacheHit()
	CacheMiss()
}

type cachedSeries struct {
	EntityID    string `db:"entity_id"`
	PeriodStart string `db:"period_start"`
	PeriodEnd   string `db:"period_end"`
	FetchedAt   int64  `db:"fetched_at"`
}

type cachedSample struct {
	Position  int    `db:"position"`
	State     string `db:"state"`
	Timestamp int64  `db:"timestamp"`
}
