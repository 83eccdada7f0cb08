package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ╔═╗╦╔═╗╦  ╦╔╗╔╦╔═
  ╚═╗║║ ║║  ║║║║╠╩╗
  ╚═╝╩╚═╝╩═╝╩╝╚╝╩ ╩
`

func main() {
	rootCmd := &cobra.Command{
		Use:   "siolink",
		Short: "A Socket.IO client for the command line",
		Long: `Siolink connects to Socket.IO servers over WebSocket.

Stream server events to stdout, emit events with JSON arguments,
and expose client metrics for scraping. Features include:

  • Engine handshake and namespace join
  • Keepalive probes with payload validation
  • Acknowledgement round-trips
  • Prometheus metrics endpoint`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		connectCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		os.Exit(1)
	}
}

// printBanner prints the siolink ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// errorMsg prints an error message.
func errorMsg(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "\033[31m✗\033[0m %s\n", fmt.Sprintf(format, args...))
}
