// Command bessd supervises a battery storage device over its local
// network API.
//
// The daemon polls the device for telemetry, publishes the readings as
// capability values, enforces the configured power bounds and battery
// protection, and serves a local HTTP API for status and commands.
//
// Usage:
//
//	bessd [flags]
//
// Flags:
//
//	-c, --config string   Path to configuration file (default "config/bessd.yaml")
//
// Configuration can also be supplied through BESS_-prefixed environment
// variables, e.g. BESS_DEVICE_ADDRESS.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/homebatt/bess-go/pkg/api"
	"github.com/homebatt/bess-go/pkg/capability"
	"github.com/homebatt/bess-go/pkg/client"
	"github.com/homebatt/bess-go/pkg/config"
	"github.com/homebatt/bess-go/pkg/controller"
	"github.com/homebatt/bess-go/pkg/discovery"
	"github.com/homebatt/bess-go/pkg/log"
	"github.com/homebatt/bess-go/pkg/settings"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "bessd:", err)
		os.Exit(1)
	}
}

func run() error {
	fs := pflag.NewFlagSet("bessd", pflag.ExitOnError)
	configPath := config.AddConfigFlag(fs)
	_ = fs.Parse(os.Args[1:])

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	slogger := newSlogger(cfg.Log.Level)
	logger, closeLogger, err := newEventLogger(cfg.Log.EventFile, slogger)
	if err != nil {
		return err
	}
	defer closeLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	address := cfg.Device.Address
	deviceID := "bess"
	if !cfg.Device.HasAddress() {
		slogger.Info("no device address configured, browsing mDNS",
			"service", discovery.ServiceType, "timeout", cfg.Discovery.Timeout)

		svc, err := discovery.Find(ctx, discovery.Config{Timeout: cfg.Discovery.Timeout})
		if err != nil {
			return fmt.Errorf("device discovery: %w", err)
		}
		address = svc.Address()
		if svc.Instance != "" {
			deviceID = svc.Instance
		}
		slogger.Info("device discovered", "instance", svc.Instance, "address", address)
	}

	store := settings.NewStore(cfg.Settings.Path)
	control, err := store.Load()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	device := client.New(client.Config{
		Address:  address,
		Username: cfg.Device.Username,
		Password: cfg.Device.Password,
		Timeout:  cfg.Device.Timeout,
	})

	sink := capability.NewMemorySink(
		capability.ExpectedKeys(cfg.Device.HasCredentials(), control.PhasesVisible)...)

	ctrl := controller.New(controller.Config{
		DeviceID:     deviceID,
		PollStrategy: cfg.Device.HasCredentials(),
	}, control, device, sink, logger)

	if err := ctrl.Initialize(ctx); err != nil {
		return err
	}
	ctrl.Start(ctx)
	defer ctrl.Stop()

	slogger.Info("controller running", "device", deviceID, "address", address,
		"interval_seconds", control.PollingIntervalSeconds)

	if cfg.API.Enabled {
		server := api.NewServer(ctrl, ctrl.Registry(), store)
		slogger.Info("serving local API", "listen", cfg.API.Listen)
		if err := server.Run(ctx, cfg.API.Listen); err != nil && ctx.Err() == nil {
			return fmt.Errorf("api server: %w", err)
		}
	} else {
		<-ctx.Done()
	}

	slogger.Info("shutting down")
	return nil
}

// newSlogger builds the console logger at the configured level.
func newSlogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// newEventLogger assembles the event logger chain: always the console
// adapter, plus the CBOR event file when configured.
func newEventLogger(eventFile string, slogger *slog.Logger) (log.Logger, func(), error) {
	console := log.NewSlogAdapter(slogger)
	if eventFile == "" {
		return console, func() {}, nil
	}

	file, err := log.NewFileLogger(eventFile)
	if err != nil {
		return nil, nil, fmt.Errorf("open event log: %w", err)
	}
	return log.NewMultiLogger(file, console), func() { _ = file.Close() }, nil
}
