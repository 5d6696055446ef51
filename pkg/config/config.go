// Package config loads the daemon configuration from file, environment
// and defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// DefaultConfigPath is the path used when no --config flag is given.
const DefaultConfigPath = "config/bessd.yaml"

// Config is the daemon configuration.
type Config struct {
	Device    DeviceConfig    `mapstructure:"device"`
	API       APIConfig       `mapstructure:"api"`
	Log       LogConfig       `mapstructure:"log"`
	Settings  SettingsConfig  `mapstructure:"settings"`
	Discovery DiscoveryConfig `mapstructure:"discovery"`
}

// DeviceConfig locates the battery device.
type DeviceConfig struct {
	// Address is the device's host:port. Leave empty to discover the
	// device via mDNS.
	Address string `mapstructure:"address"`

	// Username and Password are the local API credentials. Without them
	// the control strategy is not polled and commands are rejected.
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`

	// Timeout bounds each device request.
	Timeout time.Duration `mapstructure:"timeout"`
}

// APIConfig configures the local HTTP API.
type APIConfig struct {
	Listen  string `mapstructure:"listen"`
	Enabled bool   `mapstructure:"enabled"`
}

// LogConfig configures logging output.
type LogConfig struct {
	// Level is the console log level (debug, info, warn, error).
	Level string `mapstructure:"level"`

	// EventFile is the CBOR event log path. Empty disables file logging.
	EventFile string `mapstructure:"event_file"`
}

// SettingsConfig locates the persisted control settings.
type SettingsConfig struct {
	Path string `mapstructure:"path"`
}

// DiscoveryConfig configures mDNS device discovery.
type DiscoveryConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Load reads the configuration from the given file (or the default path),
// environment variables prefixed with BESS_, and built-in defaults.
func Load(configPath *string) (*Config, error) {
	v := viper.New()

	v.SetDefault("device.address", "")
	v.SetDefault("device.username", "")
	v.SetDefault("device.password", "")
	v.SetDefault("device.timeout", "10s")
	v.SetDefault("api.listen", ":8420")
	v.SetDefault("api.enabled", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.event_file", "")
	v.SetDefault("settings.path", "settings.yaml")
	v.SetDefault("discovery.enabled", true)
	v.SetDefault("discovery.timeout", "15s")

	pathToUse := DefaultConfigPath
	if configPath != nil && *configPath != "" {
		pathToUse = *configPath
	}
	v.SetConfigFile(pathToUse)

	if err := v.ReadInConfig(); err != nil {
		// A missing file falls back to defaults and environment
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !notFound && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix("BESS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if !cfg.Device.HasAddress() && !cfg.Discovery.Enabled {
		return nil, fmt.Errorf("no device address configured and discovery disabled")
	}

	return &cfg, nil
}

// HasAddress reports whether a static device address is configured.
func (d DeviceConfig) HasAddress() bool {
	return d.Address != ""
}

// HasCredentials reports whether device credentials are configured.
func (d DeviceConfig) HasCredentials() bool {
	return d.Username != ""
}

// AddConfigFlag adds the --config flag to a pflag FlagSet.
func AddConfigFlag(fs *pflag.FlagSet) *string {
	return fs.StringP("config", "c", "", "Path to configuration file (default: "+DefaultConfigPath+")")
}
