package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

type controlSettings struct {
	PowerMin               int     `json:"power_min"`
	PowerMaxCharge         int     `json:"power_max_charge"`
	PowerMaxDischarge      int     `json:"power_max_discharge"`
	ForceControlStrategy   bool    `json:"force_control_strategy"`
	PollingIntervalSeconds int     `json:"polling_interval_seconds"`
	PhasesVisible          [3]bool `json:"phases_visible"`
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show the active control settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var control controlSettings
		if err := getJSON("/api/v1/settings", &control); err != nil {
			return err
		}
		printSettings(control)
		return nil
	},
}

var (
	setPowerMin          int
	setPowerMaxCharge    int
	setPowerMaxDischarge int
	setForceStrategy     bool
	setPollingInterval   int
)

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update control settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var control controlSettings
		if err := getJSON("/api/v1/settings", &control); err != nil {
			return err
		}

		if cmd.Flags().Changed("power-min") {
			control.PowerMin = setPowerMin
		}
		if cmd.Flags().Changed("power-max-charge") {
			control.PowerMaxCharge = setPowerMaxCharge
		}
		if cmd.Flags().Changed("power-max-discharge") {
			control.PowerMaxDischarge = setPowerMaxDischarge
		}
		if cmd.Flags().Changed("force-strategy") {
			control.ForceControlStrategy = setForceStrategy
		}
		if cmd.Flags().Changed("interval") {
			control.PollingIntervalSeconds = setPollingInterval
		}

		var updated controlSettings
		if err := putJSON("/api/v1/settings", control, &updated); err != nil {
			return err
		}
		printSettings(updated)
		return nil
	},
}

func printSettings(control controlSettings) {
	fmt.Printf("%-25s: %d W\n", "power min", control.PowerMin)
	fmt.Printf("%-25s: %d W\n", "power max charge", control.PowerMaxCharge)
	fmt.Printf("%-25s: %d W\n", "power max discharge", control.PowerMaxDischarge)
	fmt.Printf("%-25s: %v\n", "force control strategy", control.ForceControlStrategy)
	fmt.Printf("%-25s: %d s\n", "polling interval", control.PollingIntervalSeconds)
	fmt.Printf("%-25s: %v\n", "phases visible", control.PhasesVisible)
}

func init() {
	settingsSetCmd.Flags().IntVar(&setPowerMin, "power-min", 0, "Minimum usable setpoint magnitude in watts")
	settingsSetCmd.Flags().IntVar(&setPowerMaxCharge, "power-max-charge", 0, "Maximum charge power in watts")
	settingsSetCmd.Flags().IntVar(&setPowerMaxDischarge, "power-max-discharge", 0, "Maximum discharge power in watts")
	settingsSetCmd.Flags().BoolVar(&setForceStrategy, "force-strategy", false, "Claim the control strategy before commands")
	settingsSetCmd.Flags().IntVar(&setPollingInterval, "interval", 0, "Polling interval in seconds")

	settingsCmd.AddCommand(settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}
