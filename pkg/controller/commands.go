package controller

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/homebatt/bess-go/pkg/client"
	"github.com/homebatt/bess-go/pkg/limit"
	"github.com/homebatt/bess-go/pkg/log"
	"github.com/homebatt/bess-go/pkg/telemetry"
)

// SetpointForMode translates a charge-mode command into its fixed
// setpoint. Unrecognized modes stop the battery.
func SetpointForMode(mode telemetry.ChargeMode) int {
	switch mode {
	case telemetry.ChargeModeCharge:
		return setpointCharge
	case telemetry.ChargeModeDischarge:
		return setpointDischarge
	case telemetry.ChargeModeStop:
		return setpointStop
	default:
		return setpointStop
	}
}

// SetChargeMode commands a charge mode. The mode is translated to its
// fixed setpoint, gated and limited like any setpoint command. Returns
// the setpoint actually written.
func (c *Controller) SetChargeMode(ctx context.Context, mode telemetry.ChargeMode, source string) (int, error) {
	return c.SetSetpoint(ctx, SetpointForMode(mode), source)
}

// SetSetpoint commands a raw power setpoint in watts. The command passes
// the control authority gate and the limiter before anything is written
// to the device. Returns the setpoint actually written.
func (c *Controller) SetSetpoint(ctx context.Context, requested int, source string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requestSetpointLocked(ctx, requested, source)
}

// SetStrategy commands the device's control strategy directly.
func (c *Controller) SetStrategy(ctx context.Context, strategy, source string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	commandID := uuid.NewString()

	if err := c.client.SetStrategy(ctx, strategy); err != nil {
		c.logCommand(commandID, "strategy", source, &log.CommandEvent{Strategy: strategy}, false)
		return fmt.Errorf("set strategy: %w", err)
	}

	c.state.LastStrategy = strategy
	c.logCommand(commandID, "strategy", source, &log.CommandEvent{Strategy: strategy}, true)
	return nil
}

// requestSetpointLocked is the control authority gate followed by the
// limiter and the network write. Must be called with the lock held.
func (c *Controller) requestSetpointLocked(ctx context.Context, requested int, source string) (int, error) {
	commandID := uuid.NewString()

	if err := c.claimAuthorityLocked(ctx); err != nil {
		c.logCommand(commandID, "setpoint", source, &log.CommandEvent{Requested: requested}, false)
		return 0, err
	}

	flags := limit.Flags{
		BatteryEmpty:  c.state.BatteryEmpty,
		BatteryFull:   c.state.BatteryFull,
		StrategyOwned: true,
	}
	limited := limit.Limit(requested, flags, c.control.Bounds())

	if err := c.client.SetSetpoint(ctx, limited); err != nil {
		c.logCommand(commandID, "setpoint", source,
			&log.CommandEvent{Requested: requested, Limited: limited}, false)
		return 0, fmt.Errorf("write setpoint: %w", err)
	}

	c.logCommand(commandID, "setpoint", source,
		&log.CommandEvent{Requested: requested, Limited: limited}, true)
	return limited, nil
}

// claimAuthorityLocked verifies the device is under the supervisory
// strategy. When it is not, the strategy is force-claimed if configured,
// otherwise the command is rejected.
func (c *Controller) claimAuthorityLocked(ctx context.Context) error {
	if c.state.LastStrategy == client.StrategyAPI {
		return nil
	}

	if !c.control.ForceControlStrategy {
		return fmt.Errorf("%w: device reports %q", ErrNotControlling, c.state.LastStrategy)
	}

	if err := c.client.SetStrategy(ctx, client.StrategyAPI); err != nil {
		return fmt.Errorf("claim control strategy: %w", err)
	}
	c.state.LastStrategy = client.StrategyAPI
	return nil
}

func (c *Controller) logCommand(commandID, kind, source string, cmd *log.CommandEvent, accepted bool) {
	cmd.CommandID = commandID
	cmd.Kind = kind
	cmd.Accepted = accepted

	event := log.NewEvent(log.CategoryCommand, c.cfg.DeviceID)
	event.Source = source
	event.Command = cmd
	c.logger.Log(event)
}
