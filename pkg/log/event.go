package log

import (
	"time"
)

// Event represents a controller log event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"2,keyasint"`

	// DeviceID identifies the battery device the event relates to.
	DeviceID string `cbor:"3,keyasint,omitempty"`

	// Source identifies who initiated the action (command source tag).
	Source string `cbor:"4,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Poll        *PollEvent        `cbor:"10,keyasint,omitempty"` // Poll loop ticks
	Command     *CommandEvent     `cbor:"11,keyasint,omitempty"` // Setpoint/mode/strategy commands
	StateChange *StateChangeEvent `cbor:"12,keyasint,omitempty"` // Controller/device state transitions
	Firmware    *FirmwareEvent    `cbor:"13,keyasint,omitempty"` // Firmware status changes
	Error       *ErrorEventData   `cbor:"14,keyasint,omitempty"` // Errors at any layer
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryPoll is a telemetry poll tick result.
	CategoryPoll Category = 0
	// CategoryCommand is an inbound setpoint, mode or strategy command.
	CategoryCommand Category = 1
	// CategoryStateChange is a controller or device state transition.
	CategoryStateChange Category = 2
	// CategoryFirmware is a firmware status observation.
	CategoryFirmware Category = 3
	// CategoryError is an error event.
	CategoryError Category = 4
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryPoll:
		return "POLL"
	case CategoryCommand:
		return "COMMAND"
	case CategoryStateChange:
		return "STATE_CHANGE"
	case CategoryFirmware:
		return "FIRMWARE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// PollEvent captures the outcome of a single poll tick.
type PollEvent struct {
	// Success indicates whether the telemetry fetch completed.
	Success bool `cbor:"1,keyasint"`

	// WatchdogCounter is the counter value after this tick.
	WatchdogCounter int `cbor:"2,keyasint"`

	// OverrideCounter is the consecutive out-of-bounds counter after this tick.
	OverrideCounter int `cbor:"3,keyasint"`

	// Power is the reported output power in watts.
	Power int `cbor:"4,keyasint,omitempty"`

	// StateOfCharge is the reported state of charge in percent.
	StateOfCharge float64 `cbor:"5,keyasint,omitempty"`

	// Skipped is true when the tick was dropped because a poll was in flight.
	Skipped bool `cbor:"6,keyasint,omitempty"`
}

// CommandEvent captures a setpoint, charge-mode or strategy command.
type CommandEvent struct {
	// CommandID is a UUID correlating the command across log entries.
	CommandID string `cbor:"1,keyasint"`

	// Kind is the command kind (setpoint, charge_mode, strategy).
	Kind string `cbor:"2,keyasint"`

	// Requested is the requested setpoint in watts (setpoint/mode commands).
	Requested int `cbor:"3,keyasint,omitempty"`

	// Limited is the setpoint after limiting was applied.
	Limited int `cbor:"4,keyasint,omitempty"`

	// Strategy is the requested strategy (strategy commands).
	Strategy string `cbor:"5,keyasint,omitempty"`

	// Accepted indicates whether the command passed the authority gate.
	Accepted bool `cbor:"6,keyasint"`
}

// StateChangeEvent captures a state transition.
type StateChangeEvent struct {
	// Entity is what changed (system_state, charge_mode, control_strategy, controller).
	Entity string `cbor:"1,keyasint"`

	// OldState is the previous state.
	OldState string `cbor:"2,keyasint"`

	// NewState is the new state.
	NewState string `cbor:"3,keyasint"`

	// Reason provides optional context for the transition.
	Reason string `cbor:"4,keyasint,omitempty"`
}

// FirmwareEvent captures a firmware status observation.
type FirmwareEvent struct {
	// Component is the firmware component (dongle, battery).
	Component string `cbor:"1,keyasint"`

	// Installed is the installed firmware version.
	Installed string `cbor:"2,keyasint"`

	// Available is the available firmware version.
	Available string `cbor:"3,keyasint,omitempty"`
}

// ErrorEventData captures error details.
type ErrorEventData struct {
	// Op is the operation that failed (get_status, set_setpoint, ...).
	Op string `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`
}

// NewEvent creates an event with the current timestamp.
func NewEvent(category Category, deviceID string) Event {
	return Event{
		Timestamp: time.Now(),
		Category:  category,
		DeviceID:  deviceID,
	}
}
