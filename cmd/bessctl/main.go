// Command bessctl is the CLI companion to bessd. It talks to the
// daemon's local HTTP API.
package main

import "github.com/homebatt/bess-go/cmd/bessctl/cmd"

func main() {
	cmd.Execute()
}
