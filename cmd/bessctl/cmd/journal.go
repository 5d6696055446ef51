package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/homebatt/bess-go/pkg/log"
)

var (
	journalCategory string
	journalDevice   string
	journalSource   string
)

var journalCmd = &cobra.Command{
	Use:   "journal <file>",
	Short: "Print the events recorded in a CBOR event journal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var filter log.Filter
		if journalCategory != "" {
			category, err := parseCategory(journalCategory)
			if err != nil {
				return err
			}
			filter.Category = &category
		}
		filter.DeviceID = journalDevice
		filter.Source = journalSource

		reader, err := log.NewFilteredReader(args[0], filter)
		if err != nil {
			return err
		}
		defer reader.Close()

		count := 0
		for {
			event, err := reader.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				return fmt.Errorf("read journal: %w", err)
			}
			printEvent(event)
			count++
		}

		fmt.Printf("\n%d events\n", count)
		return nil
	},
}

func parseCategory(s string) (log.Category, error) {
	switch strings.ToUpper(s) {
	case "POLL":
		return log.CategoryPoll, nil
	case "COMMAND":
		return log.CategoryCommand, nil
	case "STATE_CHANGE":
		return log.CategoryStateChange, nil
	case "FIRMWARE":
		return log.CategoryFirmware, nil
	case "ERROR":
		return log.CategoryError, nil
	}
	return 0, fmt.Errorf("unknown category %q (poll, command, state_change, firmware, error)", s)
}

func printEvent(event log.Event) {
	line := fmt.Sprintf("%s  %-12s %s",
		event.Timestamp.Format("2006-01-02 15:04:05.000"),
		event.Category.String(),
		event.DeviceID)
	if event.Source != "" {
		line += "  [" + event.Source + "]"
	}
	fmt.Println(line)

	switch {
	case event.Poll != nil:
		p := event.Poll
		if p.Skipped {
			fmt.Println("    skipped, previous poll still running")
			return
		}
		fmt.Printf("    success=%v watchdog=%d override=%d power=%dW soc=%.1f%%\n",
			p.Success, p.WatchdogCounter, p.OverrideCounter, p.Power, p.StateOfCharge)
	case event.Command != nil:
		c := event.Command
		switch {
		case c.Strategy != "":
			fmt.Printf("    %s strategy=%s accepted=%v id=%s\n",
				c.Kind, c.Strategy, c.Accepted, c.CommandID)
		default:
			fmt.Printf("    %s requested=%dW limited=%dW accepted=%v id=%s\n",
				c.Kind, c.Requested, c.Limited, c.Accepted, c.CommandID)
		}
	case event.StateChange != nil:
		s := event.StateChange
		fmt.Printf("    %s: %s -> %s", s.Entity, s.OldState, s.NewState)
		if s.Reason != "" {
			fmt.Printf(" (%s)", s.Reason)
		}
		fmt.Println()
	case event.Firmware != nil:
		f := event.Firmware
		fmt.Printf("    %s installed=%s", f.Component, f.Installed)
		if f.Available != "" {
			fmt.Printf(" available=%s", f.Available)
		}
		fmt.Println()
	case event.Error != nil:
		fmt.Printf("    %s: %s\n", event.Error.Op, event.Error.Message)
	}
}

func init() {
	journalCmd.Flags().StringVar(&journalCategory, "category", "", "Only show events of this category (poll, command, state_change, firmware, error)")
	journalCmd.Flags().StringVar(&journalDevice, "device", "", "Only show events for this device ID")
	journalCmd.Flags().StringVar(&journalSource, "source", "", "Only show commands from this source")
	rootCmd.AddCommand(journalCmd)
}
