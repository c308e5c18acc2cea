package hass

import (
	"errors"
	"fmt"
	"time"

	"github.com/NotCoffee418/energy_monitor/pkg/types"
)

var ErrEntityNotFound = errors.New("entity not found")

// HTTPError is returned for non-2xx responses from Home Assistant.
type HTTPError struct {
	Path       string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("home assistant %s returned %d: %s", e.Path, e.StatusCode, e.Body)
}

// historyState is one record of the history endpoint.
type historyState struct {
	EntityID    string                 `json:"entity_id"`
	State       string                 `json:"state"`
	LastChanged time.Time              `json:"last_changed"`
	LastUpdated time.Time              `json:"last_updated"`
	Attributes  types.EntityAttributes `json:"attributes"`
}

func (h historyState) sample() types.Sample {
	ts := h.LastChanged
	if ts.IsZero() {
		ts = h.LastUpdated
	}
	return types.Sample{State: h.State, Timestamp: ts}
}

// Observer is notified about failed history queries.
type Observer interface {
	FetchFailed(entityID string)
}
