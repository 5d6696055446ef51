// Package protection implements the battery empty/full hysteresis tracker.
//
// The tracker decides once per poll whether the battery must be protected
// from further discharge (empty) or further charge (full). Three tiers of
// hysteresis bounds apply depending on how confident the controller is that
// the device is near its limit: wide bounds while the device itself reports
// an empty-or-full condition, tight bounds while a sustained min/max
// override is active, and the normal clearing bounds otherwise. The wide
// and tight branches only ever set the flags; clearing happens exclusively
// in the normal branch. The hysteresis prevents setpoint oscillation right
// at the boundary.
package protection

import (
	"strings"

	"github.com/homebatt/bess-go/pkg/telemetry"
)

// Hysteresis bounds in percent state of charge.
const (
	// WideEmptyBelow flags empty while the device reports empty-or-full.
	WideEmptyBelow = 20.0

	// WideFullAbove flags full while the device reports empty-or-full.
	WideFullAbove = 80.0

	// TightEmptyBelow flags empty under a sustained override.
	TightEmptyBelow = 1.0

	// TightFullAbove flags full under a sustained override.
	TightFullAbove = 99.0
)

// Tracker holds the battery protection flags between polls.
//
// Tracker is not safe for concurrent use; the controller updates it from
// the poll loop only, under its own lock.
type Tracker struct {
	empty bool
	full  bool
}

// NewTracker creates a tracker with both flags cleared.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Update recomputes the flags from this poll's readings. socPercent is the
// state of charge in percent, overrideSustained indicates the min/max
// override has been active for the trigger threshold of consecutive polls.
func (t *Tracker) Update(systemState string, socPercent float64, overrideSustained bool) {
	switch {
	case strings.Contains(systemState, telemetry.EmptyOrFullMarker):
		if socPercent < WideEmptyBelow {
			t.empty = true
		}
		if socPercent > WideFullAbove {
			t.full = true
		}
	case overrideSustained:
		if socPercent < TightEmptyBelow {
			t.empty = true
		}
		if socPercent > TightFullAbove {
			t.full = true
		}
	default:
		if socPercent >= TightEmptyBelow {
			t.empty = false
		}
		if socPercent <= TightFullAbove {
			t.full = false
		}
	}
}

// BatteryEmpty reports whether discharge must be blocked.
func (t *Tracker) BatteryEmpty() bool {
	return t.empty
}

// BatteryFull reports whether charge must be blocked.
func (t *Tracker) BatteryFull() bool {
	return t.full
}

// Reset clears both flags. Used when the controller restarts.
func (t *Tracker) Reset() {
	t.empty = false
	t.full = false
}
