package capability

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homebatt/bess-go/pkg/log"
	"github.com/homebatt/bess-go/pkg/telemetry"
)

func testSnapshot() *telemetry.Snapshot {
	return &telemetry.Snapshot{
		SystemState:    "SYSTEM_STATE_RUNNING_SAFE",
		Power:          -500,
		PowerSetpoint:  -500,
		StateOfCharge:  0.42,
		FrequencyMilli: 50010,
		Phases: [3]telemetry.Phase{
			{RenewablePower: 100, CurrentMilli: 500, VoltageMilli: 230000},
			{RenewablePower: 50, CurrentMilli: 250, VoltageMilli: 231000},
			{RenewablePower: 25, CurrentMilli: 125, VoltageMilli: 229000},
		},
		Strategy: "POWER_STRATEGY_API",
	}
}

func TestBuildValues(t *testing.T) {
	values := BuildValues(testSnapshot(), AllPhasesVisible)

	assert.Equal(t, "RUNNING_SAFE", values[KeySystemState])
	assert.Equal(t, false, values[KeyAlarmFault])
	assert.Equal(t, "CHARGE", values[KeyChargeMode])
	assert.InDelta(t, 42.0, values[KeyBattery].(float64), 1e-9)
	assert.Equal(t, -500, values[KeyPower])
	assert.Equal(t, -500, values[KeyTargetPower])
	assert.InDelta(t, 50.01, values[KeyFrequency].(float64), 1e-9)
	assert.Equal(t, 175, values[KeyRenewablePower])
	assert.Equal(t, "POWER_STRATEGY_API", values[KeyControlStrategy])
	assert.Equal(t, 100, values[KeyPhasePower(1)])
	assert.InDelta(t, 0.125, values[KeyPhaseCurrent(3)].(float64), 1e-9)
}

func TestBuildValuesHiddenPhases(t *testing.T) {
	values := BuildValues(testSnapshot(), PhaseVisibility{true, false, false})

	_, hasP2 := values[KeyPhasePower(2)]
	_, hasP3 := values[KeyPhaseVoltage(3)]
	assert.False(t, hasP2)
	assert.False(t, hasP3)
	assert.Contains(t, values, KeyPhaseCurrent(1))
}

func TestBuildValuesWithoutStrategy(t *testing.T) {
	snap := testSnapshot()
	snap.Strategy = ""

	values := BuildValues(snap, AllPhasesVisible)

	_, ok := values[KeyControlStrategy]
	assert.False(t, ok)
}

func TestSyncFiresTriggersOnChange(t *testing.T) {
	sink := NewMemorySink()
	reg := NewRegistry(sink, log.NoopLogger{}, "dev")

	snap := testSnapshot()
	reg.Sync(snap, AllPhasesVisible)

	// First sync publishes everything and fires all three triggers
	names := triggerNames(sink)
	assert.Contains(t, names, TriggerSystemStateChanged)
	assert.Contains(t, names, TriggerChargeModeChanged)
	assert.Contains(t, names, TriggerControlStrategyChanged)

	// Unchanged snapshot fires nothing
	before := len(sink.Triggers())
	reg.Sync(snap, AllPhasesVisible)
	assert.Len(t, sink.Triggers(), before)

	// Only the changed value fires
	snap2 := testSnapshot()
	snap2.PowerSetpoint = 800 // CHARGE -> DISCHARGE
	reg.Sync(snap2, AllPhasesVisible)

	fired := sink.Triggers()[before:]
	require.Len(t, fired, 1)
	assert.Equal(t, TriggerChargeModeChanged, fired[0].Name)
	assert.Equal(t, "DISCHARGE", fired[0].Tokens[KeyChargeMode])
}

func TestSyncComparesAgainstPreUpdateValues(t *testing.T) {
	sink := NewMemorySink()
	reg := NewRegistry(sink, log.NoopLogger{}, "dev")
	reg.Sync(testSnapshot(), AllPhasesVisible)

	// Change two of the tracked values in one poll: both events fire and
	// each compares against the value before any of this poll's writes.
	snap := testSnapshot()
	snap.SystemState = "SYSTEM_STATE_STANDBY"
	snap.PowerSetpoint = 0

	before := len(sink.Triggers())
	reg.Sync(snap, AllPhasesVisible)

	fired := sink.Triggers()[before:]
	require.Len(t, fired, 2)
	assert.Equal(t, TriggerSystemStateChanged, fired[0].Name)
	assert.Equal(t, "STANDBY", fired[0].Tokens[KeySystemState])
	assert.Equal(t, TriggerChargeModeChanged, fired[1].Name)
	assert.Equal(t, "STOP", fired[1].Tokens[KeyChargeMode])
}

func TestPublishBestEffort(t *testing.T) {
	sink := &failingSink{MemorySink: NewMemorySink(), failKey: KeyPower}
	reg := NewRegistry(sink, log.NoopLogger{}, "dev")

	reg.Publish(map[string]any{
		KeyPower:   100,
		KeyBattery: 55.0,
	})

	// The failing key is skipped, the other write lands
	_, ok := reg.Value(KeyPower)
	assert.False(t, ok)
	v, ok := reg.Value(KeyBattery)
	require.True(t, ok)
	assert.Equal(t, 55.0, v)
}

func triggerNames(sink *MemorySink) []string {
	var names []string
	for _, rec := range sink.Triggers() {
		names = append(names, rec.Name)
	}
	return names
}

type failingSink struct {
	*MemorySink
	mu      sync.Mutex
	failKey string
}

func (f *failingSink) SetValue(key string, value any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if key == f.failKey {
		return errors.New("write rejected")
	}
	return f.MemorySink.SetValue(key, value)
}
