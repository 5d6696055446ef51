package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var telemetryCmd = &cobra.Command{
	Use:   "telemetry",
	Short: "Show the latest device telemetry",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var tel struct {
			SystemState    string  `json:"system_state"`
			AlarmFault     bool    `json:"alarm_fault"`
			Power          int     `json:"power"`
			PowerSetpoint  int     `json:"power_setpoint"`
			ChargeMode     string  `json:"charge_mode"`
			StateOfCharge  float64 `json:"state_of_charge"`
			Frequency      float64 `json:"frequency"`
			RenewablePower int     `json:"renewable_power"`
			Strategy       string  `json:"strategy"`
			Phases         []struct {
				RenewablePower int     `json:"renewable_power"`
				Current        float64 `json:"current"`
				Voltage        float64 `json:"voltage"`
			} `json:"phases"`
		}
		if err := getJSON("/api/v1/telemetry", &tel); err != nil {
			return err
		}

		fmt.Printf("%-20s: %s\n", "system state", tel.SystemState)
		fmt.Printf("%-20s: %v\n", "alarm fault", tel.AlarmFault)
		fmt.Printf("%-20s: %d W\n", "power", tel.Power)
		fmt.Printf("%-20s: %d W\n", "setpoint", tel.PowerSetpoint)
		fmt.Printf("%-20s: %s\n", "charge mode", tel.ChargeMode)
		fmt.Printf("%-20s: %.1f %%\n", "state of charge", tel.StateOfCharge)
		fmt.Printf("%-20s: %.3f Hz\n", "frequency", tel.Frequency)
		fmt.Printf("%-20s: %d W\n", "renewable power", tel.RenewablePower)
		if tel.Strategy != "" {
			fmt.Printf("%-20s: %s\n", "strategy", tel.Strategy)
		}
		for i, phase := range tel.Phases {
			fmt.Printf("%-20s: %d W, %.2f A, %.1f V\n",
				fmt.Sprintf("phase %d", i+1), phase.RenewablePower, phase.Current, phase.Voltage)
		}
		return nil
	},
}

var capabilitiesCmd = &cobra.Command{
	Use:   "capabilities",
	Short: "Show the published capability values",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var values map[string]any
		if err := getJSON("/api/v1/capabilities", &values); err != nil {
			return err
		}
		printKeyed(values)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(telemetryCmd)
	rootCmd.AddCommand(capabilitiesCmd)
}
