package capability

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/homebatt/bess-go/pkg/log"
)

// PriorStateVersion is the current version of the prior-state snapshot.
const PriorStateVersion = 1

// DefaultSettleDelay is the pause between schema mutations, giving the
// host time to settle each add/remove before the next one.
const DefaultSettleDelay = 2 * time.Second

// RepairReason is the unavailability reason shown while the schema is
// being repaired.
const RepairReason = "capability schema repair"

// PriorState is a versioned snapshot of the published values taken
// deliberately before the schema is mutated, so surviving keys can be
// restored afterwards.
type PriorState struct {
	Version int            `json:"version"`
	TakenAt time.Time      `json:"taken_at"`
	Values  map[string]any `json:"values"`
}

// Migrator repairs the capability schema when the expected key set
// changed between releases or configuration updates.
type Migrator struct {
	sink     Sink
	logger   log.Logger
	deviceID string

	// Settle is the delay between schema mutations. Defaults to
	// DefaultSettleDelay when zero.
	Settle time.Duration

	// sleep is replaceable in tests.
	sleep func(ctx context.Context, d time.Duration)
}

// NewMigrator creates a migrator operating on the given sink.
func NewMigrator(sink Sink, logger log.Logger, deviceID string) *Migrator {
	if logger == nil {
		logger = log.NoopLogger{}
	}
	return &Migrator{
		sink:     sink,
		logger:   logger,
		deviceID: deviceID,
		Settle:   DefaultSettleDelay,
		sleep:    sleepContext,
	}
}

// Repair diffs the currently registered keys against the expected set and
// applies the difference: stale keys are removed, missing keys added, and
// prior values restored for keys that survive. The device is marked
// unavailable for the duration of the repair.
//
// Returns the prior-state snapshot when a repair was performed, or nil
// when the schema already matched.
func (m *Migrator) Repair(ctx context.Context, expected []string) (*PriorState, error) {
	current := m.sink.Keys()
	missing, stale := diffKeys(current, expected)

	if len(missing) == 0 && len(stale) == 0 {
		return nil, nil
	}

	// Snapshot before any mutation.
	prior := &PriorState{
		Version: PriorStateVersion,
		TakenAt: time.Now(),
		Values:  make(map[string]any, len(current)),
	}
	for _, key := range current {
		if value, ok := m.sink.Value(key); ok {
			prior.Values[key] = value
		}
	}

	_ = m.sink.SetUnavailable(RepairReason)

	m.logRepair("schema repair started",
		fmt.Sprintf("missing=%d stale=%d", len(missing), len(stale)))

	for _, key := range stale {
		if err := m.sink.RemoveKey(key); err != nil {
			return prior, fmt.Errorf("remove capability %q: %w", key, err)
		}
		m.sleep(ctx, m.settleDelay())
	}

	for _, key := range missing {
		if err := m.sink.AddKey(key); err != nil {
			return prior, fmt.Errorf("add capability %q: %w", key, err)
		}
		m.sleep(ctx, m.settleDelay())
	}

	// Restore prior values on the keys that survived the repair.
	for _, key := range expected {
		if value, ok := prior.Values[key]; ok {
			if err := m.sink.SetValue(key, value); err != nil {
				event := log.NewEvent(log.CategoryError, m.deviceID)
				event.Error = &log.ErrorEventData{Op: "restore:" + key, Message: err.Error()}
				m.logger.Log(event)
			}
		}
	}

	if err := m.sink.SetAvailable(); err != nil {
		return prior, fmt.Errorf("mark available after repair: %w", err)
	}

	m.logRepair("schema repair finished", "")

	return prior, nil
}

func (m *Migrator) settleDelay() time.Duration {
	if m.Settle > 0 {
		return m.Settle
	}
	return DefaultSettleDelay
}

func (m *Migrator) logRepair(state, reason string) {
	event := log.NewEvent(log.CategoryStateChange, m.deviceID)
	event.StateChange = &log.StateChangeEvent{
		Entity:   "capability_schema",
		NewState: state,
		Reason:   reason,
	}
	m.logger.Log(event)
}

// diffKeys splits the expected/current sets into keys to add and keys to
// remove.
func diffKeys(current, expected []string) (missing, stale []string) {
	for _, key := range expected {
		if !slices.Contains(current, key) {
			missing = append(missing, key)
		}
	}
	for _, key := range current {
		if !slices.Contains(expected, key) {
			stale = append(stale, key)
		}
	}
	return missing, stale
}

func sleepContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
