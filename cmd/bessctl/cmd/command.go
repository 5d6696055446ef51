package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

type commandRequest struct {
	Kind     string `json:"kind"`
	Setpoint int    `json:"setpoint,omitempty"`
	Mode     string `json:"mode,omitempty"`
	Strategy string `json:"strategy,omitempty"`
	Source   string `json:"source"`
}

type commandResponse struct {
	Written int `json:"written"`
}

func sendCommand(req commandRequest) error {
	req.Source = "bessctl"

	var resp commandResponse
	if err := postJSON("/api/v1/command", req, &resp); err != nil {
		return err
	}
	if req.Kind != "strategy" {
		fmt.Printf("setpoint written: %d W\n", resp.Written)
	}
	return nil
}

var setpointCmd = &cobra.Command{
	Use:   "setpoint <watts>",
	Short: "Set a power setpoint (negative charges, positive discharges)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		watts, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid setpoint %q: %w", args[0], err)
		}
		return sendCommand(commandRequest{Kind: "setpoint", Setpoint: watts})
	},
}

var modeCmd = &cobra.Command{
	Use:   "mode <stop|charge|discharge>",
	Short: "Set the charge mode",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode := strings.ToUpper(args[0])
		switch mode {
		case "STOP", "CHARGE", "DISCHARGE":
		default:
			return fmt.Errorf("unknown mode %q", args[0])
		}
		return sendCommand(commandRequest{Kind: "charge_mode", Mode: mode})
	},
}

var strategyCmd = &cobra.Command{
	Use:   "strategy <name>",
	Short: "Set the device control strategy",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := sendCommand(commandRequest{Kind: "strategy", Strategy: args[0]}); err != nil {
			return err
		}
		fmt.Println("strategy set:", args[0])
		return nil
	},
}

var restartCmd = &cobra.Command{
	Use:   "restart",
	Short: "Restart the controller",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		body := struct {
			Reason string `json:"reason"`
		}{Reason: "restart requested via bessctl"}
		if err := postJSON("/api/v1/restart", body, nil); err != nil {
			return err
		}
		fmt.Println("restart scheduled")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(setpointCmd)
	rootCmd.AddCommand(modeCmd)
	rootCmd.AddCommand(strategyCmd)
	rootCmd.AddCommand(restartCmd)
}
