// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"fmt"
	"os"

	"github.com/ManuGH/hblink/internal/config"
	xglog "github.com/ManuGH/hblink/internal/log"
	"github.com/ManuGH/hblink/internal/version"
	"github.com/spf13/cobra"
)

// defaultConfigPath is used when neither --config nor HBLINK_CONFIG is set.
const defaultConfigPath = "hblink.yaml"

type rootOptions struct {
	configPath string
	background bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "hblinkd",
		Short:         "Heartbeat link supervisor",
		Long:          "hblinkd supervises a UDP heartbeat link and publishes one ordered connection status.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(cmd.Context(), opts)
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", config.ParseString("HBLINK_CONFIG", defaultConfigPath), "path to config file (YAML)")
	root.Flags().BoolVar(&opts.background, "background", false, "start in BACKGROUND instead of FOREGROUND")

	run := &cobra.Command{
		Use:   "run",
		Short: "Run the daemon (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(cmd.Context(), opts)
		},
	}
	run.Flags().BoolVar(&opts.background, "background", false, "start in BACKGROUND instead of FOREGROUND")

	root.AddCommand(run, newConfigCmd(opts), newResponderCmd(), newVersionCmd())
	return root
}

func main() {
	// Safe defaults until the config file has been loaded.
	xglog.Configure(xglog.Config{
		Level:   "info",
		Service: "hblink",
		Version: version.Version,
	})

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "hblinkd:", err)
		os.Exit(1)
	}
}
