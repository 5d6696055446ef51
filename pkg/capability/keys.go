// Package capability maintains the normalized capability values published
// to the host, detects value transitions, and repairs the capability
// schema when the expected set changes.
package capability

import "fmt"

// Capability keys published by the controller.
const (
	// KeySystemState is the display system state (prefix stripped).
	KeySystemState = "system_state"

	// KeyAlarmFault is true while the system state signals an error.
	KeyAlarmFault = "alarm_fault"

	// KeyChargeMode is the charge mode derived from the setpoint sign.
	KeyChargeMode = "charge_mode"

	// KeyControlStrategy is the device's active control strategy.
	// Only present when device credentials are configured.
	KeyControlStrategy = "control_strategy"

	// KeyBattery is the state of charge in percent.
	KeyBattery = "measure_battery"

	// KeyPower is the actual output power in watts.
	KeyPower = "measure_power"

	// KeyTargetPower is the active setpoint in watts.
	KeyTargetPower = "target_power"

	// KeyFrequency is the grid frequency in hertz.
	KeyFrequency = "measure_frequency"

	// KeyRenewablePower is the summed renewable power in watts.
	KeyRenewablePower = "measure_power.renewable"
)

// Flow trigger names fired on value transitions.
const (
	// TriggerSystemStateChanged fires when the display system state changes.
	TriggerSystemStateChanged = "system_state_changed"

	// TriggerChargeModeChanged fires when the charge mode changes.
	TriggerChargeModeChanged = "charge_mode_changed"

	// TriggerControlStrategyChanged fires when the control strategy changes.
	TriggerControlStrategyChanged = "control_strategy_changed"

	// TriggerFirmwareChanged fires when an installed firmware version changes.
	TriggerFirmwareChanged = "firmware_changed"

	// TriggerNewFirmwareAvailable fires when a new firmware version appears.
	TriggerNewFirmwareAvailable = "new_firmware_available"
)

// KeyPhasePower returns the per-phase renewable power key. Phases are 1-based.
func KeyPhasePower(phase int) string {
	return fmt.Sprintf("measure_power.p%d", phase)
}

// KeyPhaseCurrent returns the per-phase current key. Phases are 1-based.
func KeyPhaseCurrent(phase int) string {
	return fmt.Sprintf("measure_current.p%d", phase)
}

// KeyPhaseVoltage returns the per-phase voltage key. Phases are 1-based.
func KeyPhaseVoltage(phase int) string {
	return fmt.Sprintf("measure_voltage.p%d", phase)
}

// PhaseVisibility selects which per-phase telemetry capabilities are
// exposed. Index 0 is phase 1.
type PhaseVisibility [3]bool

// AllPhasesVisible exposes every phase.
var AllPhasesVisible = PhaseVisibility{true, true, true}

// ExpectedKeys computes the capability set the device is expected to
// expose, given whether the control strategy is polled and which phases
// are visible.
func ExpectedKeys(hasStrategy bool, visibility PhaseVisibility) []string {
	keys := []string{
		KeySystemState,
		KeyAlarmFault,
		KeyChargeMode,
		KeyBattery,
		KeyPower,
		KeyTargetPower,
		KeyFrequency,
		KeyRenewablePower,
	}

	if hasStrategy {
		keys = append(keys, KeyControlStrategy)
	}

	for i, visible := range visibility {
		if !visible {
			continue
		}
		phase := i + 1
		keys = append(keys, KeyPhasePower(phase), KeyPhaseCurrent(phase), KeyPhaseVoltage(phase))
	}

	return keys
}
