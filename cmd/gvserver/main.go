// Command gvserver runs the pinpoint sharing API
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "gvserver",
		Short:         "Pinpoint sharing REST backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("GVSERVER_CONFIG"),
		"path to a YAML config file; GVSERVER_* environment variables override it")

	rootCmd.AddCommand(
		serveCmd(&configPath),
		migrateCmd(&configPath),
		versionCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
