// Package settings persists the control settings and migrates legacy
// versions of the settings file.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/homebatt/bess-go/pkg/capability"
	"github.com/homebatt/bess-go/pkg/limit"
)

// LegacyDischargeCap caps the discharge bound when migrating from the
// single power_max field. Older releases never discharged above this.
const LegacyDischargeCap = 1800

// Settings validation errors.
var (
	ErrNegativeBound   = errors.New("power bounds must be non-negative")
	ErrInvalidInterval = errors.New("polling interval must be at least 1 second")
)

// Control holds the persisted control settings.
type Control struct {
	// PowerMin is the minimum usable setpoint magnitude in watts.
	PowerMin int `yaml:"power_min" json:"power_min"`

	// PowerMaxCharge is the maximum charge power in watts.
	PowerMaxCharge int `yaml:"power_max_charge" json:"power_max_charge"`

	// PowerMaxDischarge is the maximum discharge power in watts.
	PowerMaxDischarge int `yaml:"power_max_discharge" json:"power_max_discharge"`

	// LegacyPowerMax is the single bound used before the charge/discharge
	// split. Non-zero only in settings files written by old releases.
	LegacyPowerMax int `yaml:"power_max,omitempty" json:"-"`

	// ForceControlStrategy claims the supervisory strategy before a
	// command instead of rejecting it.
	ForceControlStrategy bool `yaml:"force_control_strategy" json:"force_control_strategy"`

	// PollingIntervalSeconds is the telemetry poll interval.
	PollingIntervalSeconds int `yaml:"polling_interval_seconds" json:"polling_interval_seconds"`

	// PhasesVisible selects the per-phase telemetry capabilities.
	PhasesVisible capability.PhaseVisibility `yaml:"phases_visible" json:"phases_visible"`
}

// Default returns the control settings used when no file exists.
func Default() Control {
	return Control{
		PowerMin:               50,
		PowerMaxCharge:         2200,
		PowerMaxDischarge:      1800,
		ForceControlStrategy:   false,
		PollingIntervalSeconds: 10,
		PhasesVisible:          capability.AllPhasesVisible,
	}
}

// Bounds returns the configured limiter bounds.
func (c Control) Bounds() limit.Bounds {
	return limit.Bounds{
		PowerMin:          c.PowerMin,
		PowerMaxCharge:    c.PowerMaxCharge,
		PowerMaxDischarge: c.PowerMaxDischarge,
	}
}

// Validate checks the settings for plausibility.
func (c Control) Validate() error {
	if c.PowerMin < 0 || c.PowerMaxCharge < 0 || c.PowerMaxDischarge < 0 {
		return ErrNegativeBound
	}
	if c.PollingIntervalSeconds < 1 {
		return ErrInvalidInterval
	}
	return nil
}

// migrateLegacy splits the single power_max bound into the charge and
// discharge bounds. Returns true when a migration was applied.
func migrateLegacy(c *Control) bool {
	if c.LegacyPowerMax <= 0 {
		return false
	}
	if c.PowerMaxCharge == 0 && c.PowerMaxDischarge == 0 {
		c.PowerMaxCharge = c.LegacyPowerMax
		c.PowerMaxDischarge = min(c.LegacyPowerMax, LegacyDischargeCap)
	}
	c.LegacyPowerMax = 0
	return true
}

// Store reads and writes the settings file.
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore creates a store for the settings file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads the settings, applying the legacy migration and writing the
// migrated file back. A missing file yields the defaults.
func (s *Store) Load() (Control, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Control{}, fmt.Errorf("read settings: %w", err)
	}

	var control Control
	if err := yaml.Unmarshal(data, &control); err != nil {
		return Control{}, fmt.Errorf("parse settings: %w", err)
	}

	if migrateLegacy(&control) {
		if err := s.saveLocked(control); err != nil {
			return Control{}, fmt.Errorf("write migrated settings: %w", err)
		}
	}

	if err := control.Validate(); err != nil {
		return Control{}, err
	}
	return control, nil
}

// Save writes the settings atomically via a temp file and rename.
func (s *Store) Save(control Control) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := control.Validate(); err != nil {
		return err
	}
	return s.saveLocked(control)
}

func (s *Store) saveLocked(control Control) error {
	data, err := yaml.Marshal(control)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".settings-*.yaml")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	return os.Rename(tmpName, s.path)
}
