// Command catalog-feeder serves windowed playlists over a paginated album
// catalog.
package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootParams struct {
	ConfigPath string
	LogLevel   string
}

func rootCmd() *cobra.Command {
	params := &rootParams{}
	cmd := &cobra.Command{
		Use:           "catalog-feeder",
		Short:         "Windowed playlists over a paginated album catalog",
		Version:       appVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&params.ConfigPath, "config", "c", "", "config file (default: ./catalog-feeder.yaml)")
	cmd.PersistentFlags().StringVar(&params.LogLevel, "log-level", "", "override log.level (debug, info, warn, error)")

	cmd.AddCommand(serveCmd(params), walkCmd(params))
	return cmd
}

func appVersion() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok || bi.Main.Version == "" {
		return "unknown"
	}
	return bi.Main.Version
}
