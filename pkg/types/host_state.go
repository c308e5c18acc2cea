package types

import "time"

// EntityAttributes holds the attributes of a host entity the engine cares about.
type EntityAttributes struct {
	UnitOfMeasurement string `json:"unit_of_measurement,omitempty"`
	DeviceClass       string `json:"device_class,omitempty"`
	FriendlyName      string `json:"friendly_name,omitempty"`
	DeviceID          string `json:"device_id,omitempty"`
}

// EntityState is one entry of the host state registry.
type EntityState struct {
	EntityID    string           `json:"entity_id"`
	State       string           `json:"state"`
	Attributes  EntityAttributes `json:"attributes"`
	LastChanged time.Time        `json:"last_changed"`
	LastUpdated time.Time        `json:"last_updated"`
}

// StateSnapshot is the host state registry in host order.
type StateSnapshot struct {
	entities []EntityState
	index    map[string]int
}

func NewStateSnapshot(entities []EntityState) StateSnapshot {
	s := StateSnapshot{
		entities: entities,
		index:    make(map[string]int, len(entities)),
	}
	for i, e := range entities {
		s.index[e.EntityID] = i
	}
	return s
}

// Entities returns the entities in host order.
func (s StateSnapshot) Entities() []EntityState {
	return s.entities
}

func (s StateSnapshot) Get(entityID string) (EntityState, bool) {
	i, ok := s.index[entityID]
	if !ok {
		return EntityState{}, false
	}
	return s.entities[i], true
}

func (s StateSnapshot) Len() int {
	return len(s.entities)
}
