package devices

// Candidate is a host sensor that looks like an energy or power measurement.
type Candidate struct {
	EntityID          string `json:"entity_id"`
	FriendlyName      string `json:"friendly_name"`
	State             string `json:"state"`
	UnitOfMeasurement string `json:"unit_of_measurement,omitempty"`
	DeviceClass       string `json:"device_class,omitempty"`
	ValidationReason  string `json:"validation_reason"`
	StateValid        bool   `json:"state_valid"`
}

// Validation is the outcome of checking one configured entity against the host.
type Validation struct {
	EntityID         string  `json:"entity_id"`
	Exists           bool    `json:"exists"`
	IsEnergySensor   bool    `json:"is_energy_sensor"`
	ValidationReason string  `json:"validation_reason"`
	State            *string `json:"state"`
	StateValid       bool    `json:"state_valid"`
	Unit             *string `json:"unit"`
	DeviceClass      *string `json:"device_class"`
}
