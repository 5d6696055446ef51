package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Open an interactive control shell",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rl, err := readline.NewEx(&readline.Config{
			Prompt:          "bess> ",
			InterruptPrompt: "^C",
			EOFPrompt:       "exit",
		})
		if err != nil {
			return fmt.Errorf("failed to create readline: %w", err)
		}
		defer rl.Close()

		printShellHelp()

		for {
			line, err := rl.Readline()
			if err != nil {
				if err == readline.ErrInterrupt {
					continue
				}
				return nil
			}

			input := strings.TrimSpace(line)
			if input == "" {
				continue
			}
			if input == "exit" || input == "quit" || input == "q" {
				return nil
			}

			if err := dispatchShell(input); err != nil {
				fmt.Fprintln(rl.Stderr(), "Error:", err)
			}
		}
	},
}

func dispatchShell(input string) error {
	parts := strings.Fields(input)
	name := strings.ToLower(parts[0])
	args := parts[1:]

	switch name {
	case "help", "?":
		printShellHelp()
		return nil

	case "status", "st":
		return statusCmd.RunE(statusCmd, nil)

	case "telemetry", "tel":
		return telemetryCmd.RunE(telemetryCmd, nil)

	case "capabilities", "caps":
		return capabilitiesCmd.RunE(capabilitiesCmd, nil)

	case "settings":
		return settingsCmd.RunE(settingsCmd, nil)

	case "setpoint", "sp":
		if len(args) != 1 {
			return fmt.Errorf("usage: setpoint <watts>")
		}
		watts, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid setpoint %q", args[0])
		}
		return sendCommand(commandRequest{Kind: "setpoint", Setpoint: watts})

	case "mode", "m":
		if len(args) != 1 {
			return fmt.Errorf("usage: mode <stop|charge|discharge>")
		}
		return modeCmd.RunE(modeCmd, args)

	case "strategy":
		if len(args) != 1 {
			return fmt.Errorf("usage: strategy <name>")
		}
		return strategyCmd.RunE(strategyCmd, args)

	case "restart":
		return restartCmd.RunE(restartCmd, nil)

	default:
		return fmt.Errorf("unknown command %q, try 'help'", name)
	}
}

func printShellHelp() {
	fmt.Println("Commands:")
	fmt.Println("  status (st)            Controller state")
	fmt.Println("  telemetry (tel)        Latest device telemetry")
	fmt.Println("  capabilities (caps)    Published capability values")
	fmt.Println("  settings               Active control settings")
	fmt.Println("  setpoint <watts> (sp)  Set a power setpoint")
	fmt.Println("  mode <m>               Set charge mode: stop, charge, discharge")
	fmt.Println("  strategy <name>        Set the control strategy")
	fmt.Println("  restart                Restart the controller")
	fmt.Println("  exit (q)               Leave the shell")
}

func init() {
	rootCmd.AddCommand(shellCmd)
}
