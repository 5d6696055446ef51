package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes controller events to an slog.Logger.
// Useful for development when you want to see controller events in console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger. Errors are logged at Warn level,
// everything else at Debug level.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("category", event.Category.String()),
	}

	if event.DeviceID != "" {
		attrs = append(attrs, slog.String("device_id", event.DeviceID))
	}
	if event.Source != "" {
		attrs = append(attrs, slog.String("source", event.Source))
	}

	level := slog.LevelDebug

	switch {
	case event.Poll != nil:
		attrs = append(attrs,
			slog.Bool("success", event.Poll.Success),
			slog.Int("watchdog", event.Poll.WatchdogCounter),
			slog.Int("override", event.Poll.OverrideCounter),
		)
		if event.Poll.Skipped {
			attrs = append(attrs, slog.Bool("skipped", true))
		}
		if event.Poll.Success {
			attrs = append(attrs,
				slog.Int("power", event.Poll.Power),
				slog.Float64("soc", event.Poll.StateOfCharge),
			)
		}
	case event.Command != nil:
		attrs = append(attrs,
			slog.String("command_id", event.Command.CommandID),
			slog.String("kind", event.Command.Kind),
			slog.Bool("accepted", event.Command.Accepted),
		)
		if event.Command.Strategy != "" {
			attrs = append(attrs, slog.String("strategy", event.Command.Strategy))
		} else {
			attrs = append(attrs,
				slog.Int("requested", event.Command.Requested),
				slog.Int("limited", event.Command.Limited),
			)
		}
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("entity", event.StateChange.Entity),
			slog.String("old_state", event.StateChange.OldState),
			slog.String("new_state", event.StateChange.NewState),
		)
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
	case event.Firmware != nil:
		attrs = append(attrs,
			slog.String("component", event.Firmware.Component),
			slog.String("installed", event.Firmware.Installed),
		)
		if event.Firmware.Available != "" {
			attrs = append(attrs, slog.String("available", event.Firmware.Available))
		}
	case event.Error != nil:
		level = slog.LevelWarn
		attrs = append(attrs,
			slog.String("op", event.Error.Op),
			slog.String("error", event.Error.Message),
		)
	}

	a.logger.LogAttrs(context.Background(), level, "controller event", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
