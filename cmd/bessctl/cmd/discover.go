package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/homebatt/bess-go/pkg/discovery"
)

var discoverTimeout time.Duration

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Browse the local network for battery devices",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("Browsing %s for up to %s...\n", discovery.ServiceType, discoverTimeout)

		svc, err := discovery.Find(cmd.Context(), discovery.Config{Timeout: discoverTimeout})
		if err != nil {
			return err
		}

		fmt.Printf("%-15s: %s\n", "instance", svc.Instance)
		fmt.Printf("%-15s: %s\n", "host", svc.Host)
		fmt.Printf("%-15s: %s\n", "addresses", strings.Join(svc.Addrs, ", "))
		fmt.Printf("%-15s: %d\n", "port", svc.Port)
		fmt.Printf("%-15s: %s\n", "fingerprint", svc.Fingerprint)
		fmt.Printf("%-15s: %s\n", "address", svc.Address())
		return nil
	},
}

func init() {
	discoverCmd.Flags().DurationVar(&discoverTimeout, "timeout", discovery.DefaultTimeout,
		"How long to browse before giving up")
	rootCmd.AddCommand(discoverCmd)
}
