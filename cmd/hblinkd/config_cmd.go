// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ManuGH/hblink/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// effectiveConfig is the YAML view printed by "config show".
type effectiveConfig struct {
	Prefs   map[string]string    `yaml:"prefs"`
	API     config.APIConfig     `yaml:"api"`
	Metrics config.MetricsConfig `yaml:"metrics"`
	Radio   config.RadioConfig   `yaml:"radio"`
	Sounds  config.SoundsConfig  `yaml:"sounds"`
	Log     config.LogConfig     `yaml:"log"`
}

func newConfigCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or edit the configuration file",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration (file, ENV overrides, defaults)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := config.Open(opts.configPath)
			if err != nil {
				return err
			}
			s := store.Settings()
			out, err := yaml.Marshal(effectiveConfig{
				Prefs:   store.Prefs(),
				API:     s.API,
				Metrics: s.Metrics,
				Radio:   s.Radio,
				Sounds:  s.Sounds,
				Log:     s.Log,
			})
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}

	set := &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Validate and persist one preference",
		Long: "Validate and atomically write one preference to the config file.\n" +
			"A running daemon picks the change up through its file watcher.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir := filepath.Dir(opts.configPath); dir != "." {
				if err := os.MkdirAll(dir, 0o750); err != nil {
					return fmt.Errorf("create config dir: %w", err)
				}
			}
			store, err := config.Open(opts.configPath)
			if err != nil {
				return err
			}
			if err := store.Set(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", args[0], store.GetString(args[0], ""))
			return err
		},
	}

	cmd.AddCommand(show, set)
	return cmd
}
