package capability

import (
	"fmt"
	"maps"
	"sync"

	"github.com/homebatt/bess-go/pkg/log"
	"github.com/homebatt/bess-go/pkg/telemetry"
)

// Registry tracks the capability values as published to the host and
// detects value transitions across polls.
type Registry struct {
	mu       sync.RWMutex
	sink     Sink
	logger   log.Logger
	deviceID string

	// Last successfully published value per key. Failed writes leave the
	// previous value in place so transition detection stays consistent.
	values map[string]any
}

// NewRegistry creates a registry publishing through the given sink.
func NewRegistry(sink Sink, logger log.Logger, deviceID string) *Registry {
	if logger == nil {
		logger = log.NoopLogger{}
	}
	return &Registry{
		sink:     sink,
		logger:   logger,
		deviceID: deviceID,
		values:   make(map[string]any),
	}
}

// Value returns the last published value for a key.
func (r *Registry) Value(key string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.values[key]
	return v, ok
}

// Snapshot returns a copy of all published values.
func (r *Registry) Snapshot() map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return maps.Clone(r.values)
}

// Publish writes each value through the sink. Writes are independent and
// best-effort: a failed key is logged and skipped, the rest proceed.
func (r *Registry) Publish(values map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, value := range values {
		if err := r.sink.SetValue(key, value); err != nil {
			event := log.NewEvent(log.CategoryError, r.deviceID)
			event.Error = &log.ErrorEventData{Op: "set_capability:" + key, Message: err.Error()}
			r.logger.Log(event)
			continue
		}
		r.values[key] = value
	}
}

// BuildValues maps a telemetry snapshot to the capability values to
// publish. Hidden phases are omitted; the strategy key is only present
// when a strategy was fetched.
func BuildValues(snap *telemetry.Snapshot, visibility PhaseVisibility) map[string]any {
	values := map[string]any{
		KeySystemState:    snap.DisplayState(),
		KeyAlarmFault:     snap.AlarmFault(),
		KeyChargeMode:     string(snap.ChargeMode()),
		KeyBattery:        snap.StateOfChargePercent(),
		KeyPower:          snap.Power,
		KeyTargetPower:    snap.PowerSetpoint,
		KeyFrequency:      snap.Frequency(),
		KeyRenewablePower: snap.RenewablePower(),
	}

	if snap.Strategy != "" {
		values[KeyControlStrategy] = snap.Strategy
	}

	for i, visible := range visibility {
		if !visible {
			continue
		}
		phase := i + 1
		values[KeyPhasePower(phase)] = snap.Phases[i].RenewablePower
		values[KeyPhaseCurrent(phase)] = snap.Phases[i].Current()
		values[KeyPhaseVoltage(phase)] = snap.Phases[i].Voltage()
	}

	return values
}

// Sync publishes a telemetry snapshot and fires the change triggers.
//
// All three triggers compare against the values as they stood before this
// poll's writes were applied. Trigger failures are logged and do not block
// the remaining triggers.
func (r *Registry) Sync(snap *telemetry.Snapshot, visibility PhaseVisibility) {
	values := BuildValues(snap, visibility)
	prior := r.Snapshot()

	r.Publish(values)

	r.fireOnChange(TriggerSystemStateChanged, KeySystemState, prior, values)
	r.fireOnChange(TriggerChargeModeChanged, KeyChargeMode, prior, values)
	r.fireOnChange(TriggerControlStrategyChanged, KeyControlStrategy, prior, values)
}

// fireOnChange fires one trigger if the newly computed value differs from
// the pre-update value for the key.
func (r *Registry) fireOnChange(trigger, key string, prior, current map[string]any) {
	newValue, ok := current[key]
	if !ok {
		return
	}
	if oldValue, had := prior[key]; had && oldValue == newValue {
		return
	}

	if err := r.sink.Trigger(trigger, map[string]any{key: newValue}); err != nil {
		event := log.NewEvent(log.CategoryError, r.deviceID)
		event.Error = &log.ErrorEventData{Op: "trigger:" + trigger, Message: err.Error()}
		r.logger.Log(event)
		return
	}

	oldValue, _ := prior[key]
	event := log.NewEvent(log.CategoryStateChange, r.deviceID)
	event.StateChange = &log.StateChangeEvent{
		Entity:   key,
		OldState: stringify(oldValue),
		NewState: stringify(newValue),
	}
	r.logger.Log(event)
}

func stringify(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
