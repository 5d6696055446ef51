// Package client talks to the battery device's local network API.
package client

import (
	"context"

	"github.com/homebatt/bess-go/pkg/telemetry"
)

// Control strategy identifiers reported by the device.
const (
	// StrategyAPI is the supervisory strategy. Setpoint and charge-mode
	// commands are only accepted while the device reports this strategy.
	StrategyAPI = "POWER_STRATEGY_API"
)

// API is the device's local network interface.
type API interface {
	// GetStatus fetches the current telemetry snapshot.
	GetStatus(ctx context.Context) (*telemetry.Snapshot, error)

	// GetStrategy fetches the active control strategy. Requires credentials.
	GetStrategy(ctx context.Context) (string, error)

	// SetStrategy claims or releases control by setting the strategy.
	SetStrategy(ctx context.Context, strategy string) error

	// SetSetpoint writes a power setpoint in watts. Negative charges,
	// positive discharges, zero stops.
	SetSetpoint(ctx context.Context, watts int) error

	// GetOTAStatus fetches the firmware status for dongle and battery.
	GetOTAStatus(ctx context.Context) (*OTAStatus, error)
}

// FirmwareInfo describes one component's firmware versions.
type FirmwareInfo struct {
	// Installed is the currently running firmware version.
	Installed string `json:"installed_firmware_version"`

	// Available is the newest version offered by the update server.
	Available string `json:"available_firmware_version"`
}

// UpdateAvailable reports whether a newer version is offered.
func (f FirmwareInfo) UpdateAvailable() bool {
	return f.Available != "" && f.Available != f.Installed
}

// OTAStatus is the firmware status for both updatable components.
type OTAStatus struct {
	// Dongle is the network dongle firmware status.
	Dongle FirmwareInfo `json:"self"`

	// Battery is the battery controller firmware status.
	Battery FirmwareInfo `json:"serial"`
}

// Equal reports whether two statuses carry identical versions.
func (o *OTAStatus) Equal(other *OTAStatus) bool {
	if other == nil {
		return false
	}
	return o.Dongle == other.Dongle && o.Battery == other.Battery
}
