package controller

import (
	"errors"
	"time"
)

// Controller constants.
const (
	// WatchdogStart is the watchdog counter's start and reset value.
	// Each failed poll decrements it; reaching zero forces a restart.
	WatchdogStart = 10

	// OverrideTrigger is the number of consecutive out-of-bounds polls
	// before a corrective setpoint write is issued. The same threshold
	// switches the battery protection tracker to its tight bounds.
	OverrideTrigger = 3

	// OverrideSource tags corrective setpoint writes in logs.
	OverrideSource = "min_max intervention"

	// FirmwareCheckInterval is the minimum time between firmware checks.
	FirmwareCheckInterval = 60 * time.Minute

	// DefaultRestartDelay is the pause before reinitializing after a
	// restart was triggered.
	DefaultRestartDelay = 10 * time.Second

	// WatchdogReason is the unavailability reason after watchdog expiry.
	WatchdogReason = "device stopped responding"
)

// Fixed setpoints for charge-mode commands, in watts.
const (
	setpointCharge    = -2200
	setpointDischarge = 1800
	setpointStop      = 0
)

// ErrNotControlling is returned when a command arrives while the device
// is not under the supervisory strategy and forcing is disabled.
var ErrNotControlling = errors.New("device is not under supervisory control")

// State is the controller's mutable state. It is owned by the controller
// and mutated only by the poll loop and command handlers, under the
// controller's lock.
type State struct {
	// Busy guards against overlapping polls. Ticks arriving while a poll
	// is in flight are dropped, not queued.
	Busy bool

	// WatchdogCounter starts at WatchdogStart, is decremented on poll
	// failure and reset on success. At zero the controller restarts.
	WatchdogCounter int

	// OverrideCounter counts consecutive polls with out-of-bounds output.
	OverrideCounter int

	// BatteryEmpty and BatteryFull mirror the protection tracker flags
	// as of the last poll.
	BatteryEmpty bool
	BatteryFull  bool

	// LastStrategy is the control strategy reported on the last poll.
	LastStrategy string

	// LastFirmwareCheck is when firmware status was last fetched.
	LastFirmwareCheck time.Time

	// Restarting guards against duplicate restarts.
	Restarting bool
}

func newState() State {
	return State{WatchdogCounter: WatchdogStart}
}
