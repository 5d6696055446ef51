package controller

import (
	"context"
	"fmt"

	"github.com/homebatt/bess-go/pkg/capability"
	"github.com/homebatt/bess-go/pkg/client"
	"github.com/homebatt/bess-go/pkg/log"
)

// checkFirmwareLocked fetches and diffs the firmware status, at most
// once per FirmwareCheckInterval. Must be called with the lock held.
func (c *Controller) checkFirmwareLocked(ctx context.Context) {
	now := c.now()
	if !c.state.LastFirmwareCheck.IsZero() && now.Sub(c.state.LastFirmwareCheck) < FirmwareCheckInterval {
		return
	}
	c.state.LastFirmwareCheck = now

	status, err := c.client.GetOTAStatus(ctx)
	if err != nil {
		event := log.NewEvent(log.CategoryError, c.cfg.DeviceID)
		event.Error = &log.ErrorEventData{Op: "get_ota_status", Message: err.Error()}
		c.logger.Log(event)
		return
	}

	c.diffFirmwareLocked(status)
	c.lastOTA = status
}

// diffFirmwareLocked raises the firmware events for both components:
// firmware-changed when the installed version moved, plus a user
// notification, and new-firmware-available when a new version appeared.
func (c *Controller) diffFirmwareLocked(current *client.OTAStatus) {
	components := []struct {
		name string
		cur  client.FirmwareInfo
		prev *client.FirmwareInfo
	}{
		{"dongle", current.Dongle, nil},
		{"battery", current.Battery, nil},
	}
	if c.lastOTA != nil {
		components[0].prev = &c.lastOTA.Dongle
		components[1].prev = &c.lastOTA.Battery
	}

	for _, comp := range components {
		if comp.prev != nil && comp.cur.Installed != comp.prev.Installed {
			tokens := map[string]any{
				"component": comp.name,
				"version":   comp.cur.Installed,
			}
			if err := c.sink.Trigger(capability.TriggerFirmwareChanged, tokens); err == nil {
				_ = c.sink.Notify(fmt.Sprintf("%s firmware updated to %s", comp.name, comp.cur.Installed))
			}

			event := log.NewEvent(log.CategoryFirmware, c.cfg.DeviceID)
			event.Firmware = &log.FirmwareEvent{
				Component: comp.name,
				Installed: comp.cur.Installed,
				Available: comp.cur.Available,
			}
			c.logger.Log(event)
		}

		newVersion := comp.cur.UpdateAvailable() &&
			(comp.prev == nil || comp.prev.Available != comp.cur.Available)
		if newVersion {
			tokens := map[string]any{
				"component": comp.name,
				"version":   comp.cur.Available,
			}
			_ = c.sink.Trigger(capability.TriggerNewFirmwareAvailable, tokens)

			event := log.NewEvent(log.CategoryFirmware, c.cfg.DeviceID)
			event.Firmware = &log.FirmwareEvent{
				Component: comp.name,
				Installed: comp.cur.Installed,
				Available: comp.cur.Available,
			}
			c.logger.Log(event)
		}
	}
}
