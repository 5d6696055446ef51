// Package controller implements the supervisory control loop for the
// battery device: polling with watchdog recovery, state synchronization,
// min/max override monitoring, battery protection and the control
// authority gate for inbound commands.
package controller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/homebatt/bess-go/pkg/capability"
	"github.com/homebatt/bess-go/pkg/client"
	"github.com/homebatt/bess-go/pkg/limit"
	"github.com/homebatt/bess-go/pkg/log"
	"github.com/homebatt/bess-go/pkg/protection"
	"github.com/homebatt/bess-go/pkg/settings"
	"github.com/homebatt/bess-go/pkg/telemetry"
)

// Config holds the static controller configuration.
type Config struct {
	// DeviceID identifies the device in log events.
	DeviceID string

	// PollStrategy enables fetching the control strategy on each poll.
	// Requires device credentials.
	PollStrategy bool

	// RestartDelay overrides the pause before reinitialization.
	// Defaults to DefaultRestartDelay when zero.
	RestartDelay time.Duration
}

// Controller supervises one battery device.
type Controller struct {
	mu      sync.Mutex
	cfg     Config
	control settings.Control

	client   client.API
	sink     capability.Sink
	reg      *capability.Registry
	migrator *capability.Migrator
	tracker  *protection.Tracker
	logger   log.Logger

	state        State
	lastSnapshot *telemetry.Snapshot
	lastOTA      *client.OTAStatus

	baseCtx    context.Context
	cancelLoop context.CancelFunc
	loopDone   chan struct{}
	running    bool

	// Replaceable in tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration)
}

// New creates a controller for the given device.
func New(cfg Config, control settings.Control, api client.API, sink capability.Sink, logger log.Logger) *Controller {
	if logger == nil {
		logger = log.NoopLogger{}
	}
	return &Controller{
		cfg:      cfg,
		control:  control,
		client:   api,
		sink:     sink,
		reg:      capability.NewRegistry(sink, logger, cfg.DeviceID),
		migrator: capability.NewMigrator(sink, logger, cfg.DeviceID),
		tracker:  protection.NewTracker(),
		logger:   logger,
		state:    newState(),
		now:      time.Now,
		sleep:    sleepContext,
	}
}

// Registry exposes the published capability values.
func (c *Controller) Registry() *capability.Registry {
	return c.reg
}

// State returns a copy of the controller state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Telemetry returns the last successfully fetched snapshot.
func (c *Controller) Telemetry() (*telemetry.Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastSnapshot == nil {
		return nil, false
	}
	snap := *c.lastSnapshot
	return &snap, true
}

// Control returns the active control settings.
func (c *Controller) Control() settings.Control {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.control
}

// SetControl replaces the control settings at runtime. The polling
// interval takes effect on the next restart.
func (c *Controller) SetControl(control settings.Control) error {
	if err := control.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.control = control
	return nil
}

// Initialize repairs the capability schema before the first poll. The
// device is marked unavailable while the repair runs.
func (c *Controller) Initialize(ctx context.Context) error {
	c.mu.Lock()
	expected := capability.ExpectedKeys(c.cfg.PollStrategy, c.control.PhasesVisible)
	c.mu.Unlock()

	if _, err := c.migrator.Repair(ctx, expected); err != nil {
		return fmt.Errorf("capability schema repair: %w", err)
	}
	return nil
}

// Start launches the poll loop. The loop runs until Stop is called or
// the context is cancelled.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.baseCtx = ctx
	c.startLoopLocked()
}

func (c *Controller) startLoopLocked() {
	if c.running || c.baseCtx == nil {
		return
	}

	runCtx, cancel := context.WithCancel(c.baseCtx)
	done := make(chan struct{})
	c.cancelLoop = cancel
	c.loopDone = done
	c.running = true

	interval := time.Duration(c.control.PollingIntervalSeconds) * time.Second
	go c.run(runCtx, interval, done)
}

func (c *Controller) run(ctx context.Context, interval time.Duration, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.Tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Tick(ctx)
		}
	}
}

// Stop halts the poll loop and waits for an in-flight tick to finish.
func (c *Controller) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	cancel := c.cancelLoop
	done := c.loopDone
	c.running = false
	c.mu.Unlock()

	cancel()
	<-done
}

// Tick executes one poll cycle. Exported for the loop and for tests.
func (c *Controller) Tick(ctx context.Context) {
	c.mu.Lock()
	if c.state.Restarting {
		c.mu.Unlock()
		return
	}
	if c.state.WatchdogCounter <= 0 {
		c.mu.Unlock()
		c.scheduleRestart(WatchdogReason)
		return
	}
	if c.state.Busy {
		event := log.NewEvent(log.CategoryPoll, c.cfg.DeviceID)
		event.Poll = &log.PollEvent{
			Skipped:         true,
			WatchdogCounter: c.state.WatchdogCounter,
			OverrideCounter: c.state.OverrideCounter,
		}
		c.mu.Unlock()
		c.logger.Log(event)
		return
	}
	c.state.Busy = true
	c.mu.Unlock()

	snap, err := c.fetch(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Busy = false

	if err != nil {
		c.state.WatchdogCounter--

		event := log.NewEvent(log.CategoryError, c.cfg.DeviceID)
		event.Error = &log.ErrorEventData{Op: "poll", Message: err.Error()}
		c.logger.Log(event)

		event = log.NewEvent(log.CategoryPoll, c.cfg.DeviceID)
		event.Poll = &log.PollEvent{
			Success:         false,
			WatchdogCounter: c.state.WatchdogCounter,
			OverrideCounter: c.state.OverrideCounter,
		}
		c.logger.Log(event)
		return
	}

	c.state.WatchdogCounter = WatchdogStart
	c.state.LastStrategy = snap.Strategy
	c.lastSnapshot = snap
	_ = c.sink.SetAvailable()

	c.postPollLocked(ctx, snap)

	event := log.NewEvent(log.CategoryPoll, c.cfg.DeviceID)
	event.Poll = &log.PollEvent{
		Success:         true,
		WatchdogCounter: c.state.WatchdogCounter,
		OverrideCounter: c.state.OverrideCounter,
		Power:           snap.Power,
		StateOfCharge:   snap.StateOfChargePercent(),
	}
	c.logger.Log(event)
}

// fetch retrieves telemetry and, when enabled, the control strategy.
func (c *Controller) fetch(ctx context.Context) (*telemetry.Snapshot, error) {
	snap, err := c.client.GetStatus(ctx)
	if err != nil {
		return nil, err
	}

	if c.cfg.PollStrategy {
		strategy, err := c.client.GetStrategy(ctx)
		if err != nil {
			return nil, err
		}
		snap.Strategy = strategy
	}

	return snap, nil
}

// postPollLocked runs the post-poll processing chain: capability sync,
// override monitoring, battery protection and the firmware check.
// Failures here are logged and swallowed; they never fail the poll or
// touch the watchdog counter.
func (c *Controller) postPollLocked(ctx context.Context, snap *telemetry.Snapshot) {
	defer func() {
		if r := recover(); r != nil {
			event := log.NewEvent(log.CategoryError, c.cfg.DeviceID)
			event.Error = &log.ErrorEventData{Op: "post_poll", Message: fmt.Sprint(r)}
			c.logger.Log(event)
		}
	}()

	c.reg.Sync(snap, c.control.PhasesVisible)
	c.observeOverrideLocked(ctx, snap)

	c.tracker.Update(snap.SystemState, snap.StateOfChargePercent(),
		c.state.OverrideCounter >= OverrideTrigger)
	c.state.BatteryEmpty = c.tracker.BatteryEmpty()
	c.state.BatteryFull = c.tracker.BatteryFull()

	c.checkFirmwareLocked(ctx)
}

// observeOverrideLocked compares the reported output power against what
// the limiter allows. Consecutive violations increment the override
// counter; hitting the trigger threshold issues exactly one corrective
// setpoint write.
func (c *Controller) observeOverrideLocked(ctx context.Context, snap *telemetry.Snapshot) {
	flags := limit.Flags{
		BatteryEmpty:  c.state.BatteryEmpty,
		BatteryFull:   c.state.BatteryFull,
		StrategyOwned: snap.Strategy == client.StrategyAPI,
	}

	limited := limit.Limit(snap.Power, flags, c.control.Bounds())
	if limited == snap.Power {
		c.state.OverrideCounter = 0
		return
	}

	c.state.OverrideCounter++
	if c.state.OverrideCounter != OverrideTrigger {
		return
	}

	if _, err := c.requestSetpointLocked(ctx, limited, OverrideSource); err != nil {
		event := log.NewEvent(log.CategoryError, c.cfg.DeviceID)
		event.Source = OverrideSource
		event.Error = &log.ErrorEventData{Op: "override_write", Message: err.Error()}
		c.logger.Log(event)
	}
}

// scheduleRestart flags the alarm, marks the device unavailable and
// schedules a full reinitialization. Concurrent restart requests
// collapse into one.
func (c *Controller) scheduleRestart(reason string) {
	c.mu.Lock()
	if c.state.Restarting {
		c.mu.Unlock()
		return
	}
	c.state.Restarting = true
	c.mu.Unlock()

	c.reg.Publish(map[string]any{capability.KeyAlarmFault: true})
	_ = c.sink.SetUnavailable(reason)

	event := log.NewEvent(log.CategoryStateChange, c.cfg.DeviceID)
	event.StateChange = &log.StateChangeEvent{
		Entity:   "controller",
		OldState: "running",
		NewState: "restarting",
		Reason:   reason,
	}
	c.logger.Log(event)

	go c.restart()
}

// Restart requests a full controller restart, equivalent to the watchdog
// expiring. Safe to call repeatedly.
func (c *Controller) Restart(reason string) {
	c.scheduleRestart(reason)
}

// restart stops the loop, waits the restart delay and reinitializes
// from scratch.
func (c *Controller) restart() {
	c.Stop()

	ctx := c.restartContext()
	c.sleep(ctx, c.restartDelay())
	c.reinitialize(ctx)
}

func (c *Controller) restartContext() context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.baseCtx != nil {
		return c.baseCtx
	}
	return context.Background()
}

func (c *Controller) restartDelay() time.Duration {
	if c.cfg.RestartDelay > 0 {
		return c.cfg.RestartDelay
	}
	return DefaultRestartDelay
}

// reinitialize resets the controller state as if freshly booted, repairs
// the capability schema and resumes polling.
func (c *Controller) reinitialize(ctx context.Context) {
	c.mu.Lock()
	c.state = newState()
	c.state.Restarting = true
	c.tracker.Reset()
	c.lastSnapshot = nil
	c.lastOTA = nil
	c.mu.Unlock()

	if err := c.Initialize(ctx); err != nil {
		event := log.NewEvent(log.CategoryError, c.cfg.DeviceID)
		event.Error = &log.ErrorEventData{Op: "reinitialize", Message: err.Error()}
		c.logger.Log(event)
	}

	c.mu.Lock()
	c.state.Restarting = false
	c.startLoopLocked()
	c.mu.Unlock()

	event := log.NewEvent(log.CategoryStateChange, c.cfg.DeviceID)
	event.StateChange = &log.StateChangeEvent{
		Entity:   "controller",
		OldState: "restarting",
		NewState: "running",
	}
	c.logger.Log(event)
}

func sleepContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
