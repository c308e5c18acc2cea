// Package devices groups host sensors into the devices the card monitors.
package devices

import (
	"fmt"
	"strings"

	"github.com/NotCoffee418/energy_monitor/pkg/config"
	"github.com/NotCoffee418/energy_monitor/pkg/emutils"
	"github.com/NotCoffee418/energy_monitor/pkg/types"
)

const (
	sensorDomain = "sensor."
	energyUnit   = "kWh"
	energyClass  = "energy"
	powerClass   = "power"
)

var (
	energyUnits = []string{"kWh", "Wh", "MWh", "GWh"}
	powerUnits  = []string{"W", "kW", "MW", "GW"}
)

// Cost and price sensors are derived from the primary measurements.
func isDerived(entityID string) bool {
	return strings.Contains(entityID, "_cost") || strings.Contains(entityID, "_price")
}

func isEnergyCounter(e types.EntityState) bool {
	return e.Attributes.UnitOfMeasurement == energyUnit ||
		e.Attributes.DeviceClass == energyClass ||
		(strings.Contains(e.EntityID, "energy") && !strings.Contains(e.EntityID, "power"))
}

// Resolve builds the ordered device list from the host snapshot and the card configuration.
// Manual entries overwrite auto-detected devices sharing their id.
func Resolve(snapshot types.StateSnapshot, cfg config.CardConfig) []types.Device {
	var order []string
	byID := make(map[string]*types.Device)

	put := func(d *types.Device) {
		if _, ok := byID[d.ID]; !ok {
			order = append(order, d.ID)
		}
		byID[d.ID] = d
	}

	if cfg.AutoDetect {
		for _, e := range snapshot.Entities() {
			if !strings.HasPrefix(e.EntityID, sensorDomain) || isDerived(e.EntityID) {
				continue
			}
			if !isEnergyCounter(e) {
				continue
			}

			groupID := e.Attributes.DeviceID
			if groupID == "" {
				groupID = e.EntityID
			}
			d, ok := byID[groupID]
			if !ok {
				d = &types.Device{
					ID:          groupID,
					DisplayName: displayName("", e),
					Icon:        types.DefaultDeviceIcon,
					Source:      types.SourceAutoDetected,
					Found:       true,
				}
				put(d)
			}
			d.Sensors = append(d.Sensors, types.SensorRef{
				EntityID: e.EntityID,
				Unit:     unitOf(e),
				Kind:     types.SensorKindEnergy,
			})
		}
	}

	for _, entry := range cfg.Entities {
		icon := entry.Icon
		if icon == "" {
			icon = types.DefaultDeviceIcon
		}
		d := &types.Device{
			ID:     entry.EntityID,
			Icon:   icon,
			Source: types.SourceManual,
		}
		if e, ok := snapshot.Get(entry.EntityID); ok {
			d.DisplayName = displayName(entry.Name, e)
			d.Found = true
			d.Sensors = []types.SensorRef{{EntityID: entry.EntityID, Unit: unitOf(e), Kind: types.SensorKindOther}}
		} else {
			d.DisplayName = entry.Name
			if d.DisplayName == "" {
				d.DisplayName = entry.EntityID
			}
			d.Found = false
			d.Sensors = []types.SensorRef{{EntityID: entry.EntityID, Unit: nil, Kind: types.SensorKindOther}}
		}
		put(d)
	}

	devices := make([]types.Device, 0, len(order))
	for _, id := range order {
		devices = append(devices, *byID[id])
	}
	return devices
}

func displayName(configured string, e types.EntityState) string {
	if configured != "" {
		return configured
	}
	if e.Attributes.FriendlyName != "" {
		return e.Attributes.FriendlyName
	}
	return e.EntityID
}

func unitOf(e types.EntityState) *string {
	if e.Attributes.UnitOfMeasurement == "" {
		return nil
	}
	return emutils.StringPtr(e.Attributes.UnitOfMeasurement)
}

// Classify reports whether the entity is an energy or power sensor and why.
// This is broader than the counter detection used by Resolve.
func Classify(e types.EntityState) (bool, string) {
	if isDerived(e.EntityID) {
		return false, "Cost/price sensor (excluded)"
	}
	dc := e.Attributes.DeviceClass
	if dc == energyClass || dc == powerClass {
		return true, fmt.Sprintf("Valid device_class: %s", dc)
	}
	unit := e.Attributes.UnitOfMeasurement
	if contains(energyUnits, unit) || contains(powerUnits, unit) {
		return true, fmt.Sprintf("Valid unit: %s", unit)
	}
	if strings.Contains(e.EntityID, "energy") && !strings.Contains(e.EntityID, "power") {
		return true, "Entity ID contains 'energy'"
	}
	return false, fmt.Sprintf("Not an energy sensor (device_class=%s, unit=%s)", dc, unit)
}

// Candidates lists every sensor entity a user could pick for manual configuration.
func Candidates(snapshot types.StateSnapshot) []Candidate {
	out := []Candidate{}
	for _, e := range snapshot.Entities() {
		if !strings.HasPrefix(e.EntityID, sensorDomain) {
			continue
		}
		ok, reason := Classify(e)
		if !ok {
			continue
		}
		out = append(out, Candidate{
			EntityID:          e.EntityID,
			FriendlyName:      displayName("", e),
			State:             e.State,
			UnitOfMeasurement: e.Attributes.UnitOfMeasurement,
			DeviceClass:       e.Attributes.DeviceClass,
			ValidationReason:  reason,
			StateValid:        isValidStateValue(e.State),
		})
	}
	return out
}

// Validate checks each entity id against the snapshot.
func Validate(snapshot types.StateSnapshot, entityIDs []string) []Validation {
	out := make([]Validation, 0, len(entityIDs))
	for _, id := range entityIDs {
		e, ok := snapshot.Get(id)
		if !ok {
			out = append(out, Validation{EntityID: id, ValidationReason: "Entity not found"})
			continue
		}
		isEnergy, reason := Classify(e)
		v := Validation{
			EntityID:         id,
			Exists:           true,
			IsEnergySensor:   isEnergy,
			ValidationReason: reason,
			State:            emutils.StringPtr(e.State),
			StateValid:       isValidStateValue(e.State),
			Unit:             unitOf(e),
		}
		if e.Attributes.DeviceClass != "" {
			v.DeviceClass = emutils.StringPtr(e.Attributes.DeviceClass)
		}
		out = append(out, v)
	}
	return out
}

func isValidStateValue(state string) bool {
	_, ok := types.Sample{State: state}.Value()
	return ok
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
