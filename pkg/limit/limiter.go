// Package limit implements the setpoint limiting rules that keep requested
// charge/discharge power inside the configured bounds and the battery
// protection envelope. Limit is pure and must be applied before every
// setpoint write to the device.
package limit

// GuardBand is the tolerance in watts before a request beyond the
// maximum bound is clamped. Requests within the band pass unchanged to
// avoid rewriting setpoints that only marginally exceed the bound.
const GuardBand = 10

// Bounds holds the configured power bounds. All values are non-negative
// magnitudes in watts.
type Bounds struct {
	// PowerMin is the minimum usable setpoint magnitude. Requests closer
	// to zero than this are suppressed to zero rather than rounded up.
	PowerMin int

	// PowerMaxCharge is the maximum charge power.
	PowerMaxCharge int

	// PowerMaxDischarge is the maximum discharge power.
	PowerMaxDischarge int
}

// Flags carries the battery protection and authority state the limiter
// consults.
type Flags struct {
	// BatteryEmpty forces discharge requests to zero.
	BatteryEmpty bool

	// BatteryFull forces charge requests to zero.
	BatteryFull bool

	// StrategyOwned indicates the supervisory strategy controls the
	// device. When false the limiter does not apply.
	StrategyOwned bool
}

// Limit clamps a requested setpoint against the battery protection flags
// and the configured bounds. Negative requests charge, positive requests
// discharge, zero stops.
//
// The returned value never has the opposite sign of the request; it is
// either the request itself, a clamped magnitude of the same sign, or zero.
func Limit(requested int, flags Flags, bounds Bounds) int {
	if !flags.StrategyOwned {
		return requested
	}

	// Battery protection takes precedence over the configured bounds.
	if flags.BatteryEmpty && requested > 0 {
		return 0
	}
	if flags.BatteryFull && requested < 0 {
		return 0
	}

	if requested < 0 {
		// Charging. Suppress dead-band requests, cap at the maximum.
		if requested+bounds.PowerMin > 0 {
			return 0
		}
		if requested+bounds.PowerMaxCharge < -GuardBand {
			return -bounds.PowerMaxCharge
		}
		return requested
	}

	if requested > 0 {
		// Discharging, symmetric to the charging branch.
		if requested-bounds.PowerMin < 0 {
			return 0
		}
		if requested-bounds.PowerMaxDischarge > GuardBand {
			return bounds.PowerMaxDischarge
		}
	}

	return requested
}
