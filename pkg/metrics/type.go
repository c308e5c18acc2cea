package metrics

import "github.com/NotCoffee418/energy_monitor/pkg/types"

// outcome maps a cycle classification to a low-cardinality label.
func outcome(classification string) string {
	switch classification {
	case types.ErrorNone:
		return "ok"
	case types.ErrorNoDevices:
		return "no_devices"
	case types.ErrorNoHistoricData:
		return "no_data"
	case types.ErrorLoadFailed:
		return "failed"
	}
	return "other"
}
