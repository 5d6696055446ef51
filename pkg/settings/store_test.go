package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homebatt/bess-go/pkg/capability"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "settings.yaml"))

	control, err := store.Load()
	require.NoError(t, err)

	assert.Equal(t, Default(), control)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	store := NewStore(path)

	control := Control{
		PowerMin:               60,
		PowerMaxCharge:         2100,
		PowerMaxDischarge:      1700,
		ForceControlStrategy:   true,
		PollingIntervalSeconds: 5,
		PhasesVisible:          capability.PhaseVisibility{true, false, true},
	}
	require.NoError(t, store.Save(control))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, control, loaded)
}

func TestLoadMigratesLegacyPowerMax(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	legacy := `
power_min: 50
power_max: 2500
polling_interval_seconds: 10
`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0644))

	store := NewStore(path)
	control, err := store.Load()
	require.NoError(t, err)

	assert.Equal(t, 2500, control.PowerMaxCharge)
	// Discharge bound is capped during migration
	assert.Equal(t, LegacyDischargeCap, control.PowerMaxDischarge)
	assert.Zero(t, control.LegacyPowerMax)

	// The migrated file was written back; loading again needs no migration
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "power_max:")

	again, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, control, again)
}

func TestLoadMigratesSmallLegacyPowerMax(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	legacy := "power_max: 1200\npolling_interval_seconds: 10\n"
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0644))

	control, err := NewStore(path).Load()
	require.NoError(t, err)

	assert.Equal(t, 1200, control.PowerMaxCharge)
	assert.Equal(t, 1200, control.PowerMaxDischarge)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Control)
		wantErr error
	}{
		{"Defaults", func(*Control) {}, nil},
		{"NegativeMin", func(c *Control) { c.PowerMin = -1 }, ErrNegativeBound},
		{"NegativeCharge", func(c *Control) { c.PowerMaxCharge = -100 }, ErrNegativeBound},
		{"ZeroInterval", func(c *Control) { c.PollingIntervalSeconds = 0 }, ErrInvalidInterval},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			control := Default()
			tt.mutate(&control)

			err := control.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestSaveRejectsInvalidSettings(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "settings.yaml"))

	control := Default()
	control.PowerMaxDischarge = -5

	assert.ErrorIs(t, store.Save(control), ErrNegativeBound)
}

func TestBounds(t *testing.T) {
	control := Default()
	bounds := control.Bounds()

	assert.Equal(t, control.PowerMin, bounds.PowerMin)
	assert.Equal(t, control.PowerMaxCharge, bounds.PowerMaxCharge)
	assert.Equal(t, control.PowerMaxDischarge, bounds.PowerMaxDischarge)
}
