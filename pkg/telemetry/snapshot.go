// Package telemetry defines the normalized device telemetry snapshot
// and the conversions from raw device units to display units.
package telemetry

import "strings"

// Raw system-state string markers.
const (
	// SystemStatePrefix is stripped from raw system states for display.
	SystemStatePrefix = "SYSTEM_STATE_"

	// AlarmMarker flags a fault when present in the stripped system state.
	AlarmMarker = "ERROR"

	// EmptyOrFullMarker signals the device's own battery empty/full condition.
	EmptyOrFullMarker = "EMPTY_OR_FULL"
)

// ChargeMode is the direction the battery is commanded to work in.
type ChargeMode string

const (
	// ChargeModeStop holds the battery idle.
	ChargeModeStop ChargeMode = "STOP"

	// ChargeModeCharge charges the battery (negative setpoint).
	ChargeModeCharge ChargeMode = "CHARGE"

	// ChargeModeDischarge discharges the battery (positive setpoint).
	ChargeModeDischarge ChargeMode = "DISCHARGE"
)

// ChargeModeFromSetpoint derives the charge mode from a setpoint's sign.
// Negative charges, positive discharges, zero stops.
func ChargeModeFromSetpoint(watts int) ChargeMode {
	switch {
	case watts < 0:
		return ChargeModeCharge
	case watts > 0:
		return ChargeModeDischarge
	default:
		return ChargeModeStop
	}
}

// Phase holds the per-phase renewable readings reported by the device.
type Phase struct {
	// RenewablePower is the renewable power on this phase in watts.
	RenewablePower int

	// CurrentMilli is the RMS current in milliamps.
	CurrentMilli int64

	// VoltageMilli is the RMS voltage in millivolts.
	VoltageMilli int64
}

// Current returns the phase current in amps.
func (p Phase) Current() float64 {
	return float64(p.CurrentMilli) / 1000
}

// Voltage returns the phase voltage in volts.
func (p Phase) Voltage() float64 {
	return float64(p.VoltageMilli) / 1000
}

// Snapshot is an immutable telemetry reading taken on a single poll.
type Snapshot struct {
	// SystemState is the raw system-state enum string.
	SystemState string

	// Power is the actual output power in watts.
	// Negative while charging, positive while discharging.
	Power int

	// PowerSetpoint is the active setpoint in watts.
	PowerSetpoint int

	// StateOfCharge is the battery state of charge as a fraction (0-1).
	StateOfCharge float64

	// FrequencyMilli is the grid frequency in millihertz.
	FrequencyMilli int64

	// Phases holds the three per-phase renewable readings.
	Phases [3]Phase

	// Strategy is the active control strategy, empty when credentials
	// are not configured and the strategy was not fetched.
	Strategy string
}

// DisplayState returns the system state with the raw prefix stripped.
func (s *Snapshot) DisplayState() string {
	return strings.TrimPrefix(s.SystemState, SystemStatePrefix)
}

// AlarmFault reports whether the system state signals an error condition.
func (s *Snapshot) AlarmFault() bool {
	return strings.Contains(s.DisplayState(), AlarmMarker)
}

// EmptyOrFull reports whether the device signals its own battery
// empty/full protection condition.
func (s *Snapshot) EmptyOrFull() bool {
	return strings.Contains(s.SystemState, EmptyOrFullMarker)
}

// ChargeMode derives the charge mode from the active setpoint's sign.
func (s *Snapshot) ChargeMode() ChargeMode {
	return ChargeModeFromSetpoint(s.PowerSetpoint)
}

// StateOfChargePercent returns the state of charge in percent.
func (s *Snapshot) StateOfChargePercent() float64 {
	return s.StateOfCharge * 100
}

// Frequency returns the grid frequency in hertz.
func (s *Snapshot) Frequency() float64 {
	return float64(s.FrequencyMilli) / 1000
}

// RenewablePower returns the total renewable power across all phases in watts.
func (s *Snapshot) RenewablePower() int {
	total := 0
	for _, p := range s.Phases {
		total += p.RenewablePower
	}
	return total
}
