package types

import (
	"strconv"
	"strings"
	"time"
)

type SensorKind string

const (
	SensorKindEnergy SensorKind = "energy"
	SensorKindOther  SensorKind = "other"
)

type DeviceSource string

const (
	SourceAutoDetected DeviceSource = "auto-detected"
	SourceManual       DeviceSource = "manual"
)

const DefaultDeviceIcon = "mdi:lightning-bolt"

// SensorRef identifies one queryable state source.
// Unit is nil when the host does not know the sensor.
type SensorRef struct {
	EntityID string     `json:"entity_id"`
	Unit     *string    `json:"unit"`
	Kind     SensorKind `json:"type"`
}

// Device groups one or more sensors presented as one monitored unit.
type Device struct {
	ID          string       `json:"id"`
	DisplayName string       `json:"name"`
	Icon        string       `json:"icon"`
	Sensors     []SensorRef  `json:"entities"`
	Source      DeviceSource `json:"source"`
	Found       bool         `json:"found"`
}

// States the host reports when a sensor has no usable reading.
var invalidStates = map[string]struct{}{
	"unavailable": {},
	"unknown":     {},
	"none":        {},
	"":            {},
}

func IsSentinelState(state string) bool {
	_, ok := invalidStates[strings.ToLower(strings.TrimSpace(state))]
	return ok
}

// Sample is a single raw state reading as reported by the host.
type Sample struct {
	State     string    `json:"state"`
	Timestamp time.Time `json:"last_changed"`
}

// Value parses the sample state. Sentinels and non-numeric states are not values.
func (s Sample) Value() (float64, bool) {
	if IsSentinelState(s.State) {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s.State), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Series is a chronologically ordered sequence of samples for one sensor.
type Series []Sample
