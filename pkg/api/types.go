package api

// statusResponse is the GET /api/v1/status body.
type statusResponse struct {
	WatchdogCounter int    `json:"watchdog_counter"`
	OverrideCounter int    `json:"override_counter"`
	BatteryEmpty    bool   `json:"battery_empty"`
	BatteryFull     bool   `json:"battery_full"`
	Strategy        string `json:"strategy"`
	Restarting      bool   `json:"restarting"`
}

// phaseResponse is one phase entry in the telemetry body.
type phaseResponse struct {
	RenewablePower int     `json:"renewable_power"`
	Current        float64 `json:"current"`
	Voltage        float64 `json:"voltage"`
}

// telemetryResponse is the GET /api/v1/telemetry body.
type telemetryResponse struct {
	SystemState    string           `json:"system_state"`
	AlarmFault     bool             `json:"alarm_fault"`
	Power          int              `json:"power"`
	PowerSetpoint  int              `json:"power_setpoint"`
	ChargeMode     string           `json:"charge_mode"`
	StateOfCharge  float64          `json:"state_of_charge"`
	Frequency      float64          `json:"frequency"`
	RenewablePower int              `json:"renewable_power"`
	Strategy       string           `json:"strategy,omitempty"`
	Phases         [3]phaseResponse `json:"phases"`
}

// commandRequest is the POST /api/v1/command body. Kind selects which
// of the value fields applies.
type commandRequest struct {
	Kind     string `json:"kind" binding:"required"`
	Setpoint int    `json:"setpoint"`
	Mode     string `json:"mode"`
	Strategy string `json:"strategy"`
	Source   string `json:"source"`
}

// commandResponse is the POST /api/v1/command body. Written is the
// setpoint actually sent to the device after limiting; zero for
// strategy commands.
type commandResponse struct {
	Written int `json:"written"`
}

// restartRequest is the POST /api/v1/restart body.
type restartRequest struct {
	Reason string `json:"reason"`
}

type errorResponse struct {
	Error string `json:"error"`
}
