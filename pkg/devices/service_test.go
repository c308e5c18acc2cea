package devices

import (
	"testing"

	"github.com/NotCoffee418/energy_monitor/pkg/config"
	"github.com/NotCoffee418/energy_monitor/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entity(id, state, unit, class, name, deviceID string) types.EntityState {
	return types.EntityState{
		EntityID: id,
		State:    state,
		Attributes: types.EntityAttributes{
			UnitOfMeasurement: unit,
			DeviceClass:       class,
			FriendlyName:      name,
			DeviceID:          deviceID,
		},
	}
}

func testSnapshot() types.StateSnapshot {
	return types.NewStateSnapshot([]types.EntityState{
		entity("sensor.washer_energy", "12.5", "kWh", "energy", "Washer Energy", "dev-washer"),
		entity("sensor.washer_energy_today", "1.2", "kWh", "energy", "Washer Today", "dev-washer"),
		entity("sensor.washer_power", "230", "W", "power", "Washer Power", "dev-washer"),
		entity("sensor.energy_cost", "3.1", "EUR", "monetary", "Energy Cost", ""),
		entity("sensor.grid_price", "0.3", "EUR/kWh", "", "Grid Price", ""),
		entity("sensor.fridge_energy", "88", "", "", "", ""),
		entity("sensor.heat_pump", "400", "Wh", "energy", "Heat Pump", ""),
		entity("sensor.solar_energy_power", "3", "", "", "", ""),
		entity("light.kitchen", "on", "", "", "Kitchen", ""),
		entity("switch.energy_plug", "on", "kWh", "energy", "Plug", ""),
		entity("sensor.temperature", "21.5", "°C", "temperature", "Temp", ""),
	})
}

func TestResolveAutoDetect(t *testing.T) {
	cfg := config.DefaultCardConfig()
	devs := Resolve(testSnapshot(), cfg)

	require.Len(t, devs, 3)

	assert.Equal(t, "dev-washer", devs[0].ID)
	assert.Equal(t, "Washer Energy", devs[0].DisplayName)
	assert.Equal(t, types.SourceAutoDetected, devs[0].Source)
	assert.True(t, devs[0].Found)
	require.Len(t, devs[0].Sensors, 2)
	assert.Equal(t, "sensor.washer_energy", devs[0].Sensors[0].EntityID)
	assert.Equal(t, "sensor.washer_energy_today", devs[0].Sensors[1].EntityID)
	assert.Equal(t, types.SensorKindEnergy, devs[0].Sensors[0].Kind)

	// No device metadata: the sensor is its own group.
	assert.Equal(t, "sensor.fridge_energy", devs[1].ID)
	assert.Equal(t, "sensor.fridge_energy", devs[1].DisplayName)
	assert.Nil(t, devs[1].Sensors[0].Unit)

	assert.Equal(t, "sensor.heat_pump", devs[2].ID)
	assert.Equal(t, "Wh", *devs[2].Sensors[0].Unit)
	assert.Equal(t, types.DefaultDeviceIcon, devs[2].Icon)
}

func TestResolveAutoDetectDisabled(t *testing.T) {
	cfg := config.DefaultCardConfig()
	cfg.AutoDetect = false
	assert.Empty(t, Resolve(testSnapshot(), cfg))
}

func TestResolveManualMissingSensorIsKept(t *testing.T) {
	cfg := config.DefaultCardConfig()
	cfg.AutoDetect = false
	cfg.Entities = []config.EntityConfig{{EntityID: "sensor.does_not_exist", Name: "Ghost"}}

	devs := Resolve(testSnapshot(), cfg)
	require.Len(t, devs, 1)
	d := devs[0]
	assert.Equal(t, "sensor.does_not_exist", d.ID)
	assert.Equal(t, "Ghost", d.DisplayName)
	assert.False(t, d.Found)
	assert.Equal(t, types.SourceManual, d.Source)
	require.Len(t, d.Sensors, 1)
	assert.Nil(t, d.Sensors[0].Unit)
}

func TestResolveManualPresentSensor(t *testing.T) {
	cfg := config.DefaultCardConfig()
	cfg.AutoDetect = false
	cfg.Entities = []config.EntityConfig{{EntityID: "sensor.temperature", Icon: "mdi:thermometer"}}

	devs := Resolve(testSnapshot(), cfg)
	require.Len(t, devs, 1)
	assert.True(t, devs[0].Found)
	assert.Equal(t, "Temp", devs[0].DisplayName)
	assert.Equal(t, "mdi:thermometer", devs[0].Icon)
	assert.Equal(t, "°C", *devs[0].Sensors[0].Unit)
	assert.Equal(t, types.SensorKindOther, devs[0].Sensors[0].Kind)
}

func TestResolveManualOverridesAutoDetectedInPlace(t *testing.T) {
	cfg := config.DefaultCardConfig()
	cfg.Entities = []config.EntityConfig{
		{EntityID: "sensor.fridge_energy", Name: "Kitchen Fridge"},
		{EntityID: "sensor.missing"},
	}

	devs := Resolve(testSnapshot(), cfg)
	require.Len(t, devs, 4)
	assert.Equal(t, "sensor.fridge_energy", devs[1].ID)
	assert.Equal(t, "Kitchen Fridge", devs[1].DisplayName)
	assert.Equal(t, types.SourceManual, devs[1].Source)
	assert.Equal(t, "sensor.missing", devs[3].ID)
	assert.Equal(t, "sensor.missing", devs[3].DisplayName)
	assert.False(t, devs[3].Found)
}

func TestCandidates(t *testing.T) {
	cands := Candidates(testSnapshot())
	ids := make([]string, 0, len(cands))
	for _, c := range cands {
		ids = append(ids, c.EntityID)
	}
	assert.Equal(t, []string{
		"sensor.washer_energy",
		"sensor.washer_energy_today",
		"sensor.washer_power",
		"sensor.fridge_energy",
		"sensor.heat_pump",
	}, ids)
	assert.Equal(t, "Valid device_class: power", cands[2].ValidationReason)
	assert.Equal(t, "Entity ID contains 'energy'", cands[3].ValidationReason)
	assert.True(t, cands[0].StateValid)
}

func TestValidate(t *testing.T) {
	snap := types.NewStateSnapshot([]types.EntityState{
		entity("sensor.meter", "unavailable", "kWh", "", "Meter", ""),
		entity("sensor.humidity", "40", "%", "humidity", "", ""),
	})
	res := Validate(snap, []string{"sensor.meter", "sensor.humidity", "sensor.nope"})
	require.Len(t, res, 3)

	assert.True(t, res[0].Exists)
	assert.True(t, res[0].IsEnergySensor)
	assert.Equal(t, "Valid unit: kWh", res[0].ValidationReason)
	assert.False(t, res[0].StateValid)
	assert.Nil(t, res[0].DeviceClass)

	assert.True(t, res[1].Exists)
	assert.False(t, res[1].IsEnergySensor)
	assert.True(t, res[1].StateValid)
	assert.Equal(t, "humidity", *res[1].DeviceClass)

	assert.False(t, res[2].Exists)
	assert.Nil(t, res[2].Unit)
	assert.Equal(t, "Entity not found", res[2].ValidationReason)
}
