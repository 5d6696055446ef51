package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the controller state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var status struct {
			WatchdogCounter int    `json:"watchdog_counter"`
			OverrideCounter int    `json:"override_counter"`
			BatteryEmpty    bool   `json:"battery_empty"`
			BatteryFull     bool   `json:"battery_full"`
			Strategy        string `json:"strategy"`
			Restarting      bool   `json:"restarting"`
		}
		if err := getJSON("/api/v1/status", &status); err != nil {
			return err
		}

		fmt.Printf("%-20s: %d\n", "watchdog counter", status.WatchdogCounter)
		fmt.Printf("%-20s: %d\n", "override counter", status.OverrideCounter)
		fmt.Printf("%-20s: %v\n", "battery empty", status.BatteryEmpty)
		fmt.Printf("%-20s: %v\n", "battery full", status.BatteryFull)
		fmt.Printf("%-20s: %s\n", "strategy", status.Strategy)
		fmt.Printf("%-20s: %v\n", "restarting", status.Restarting)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
