// Copyright (c) 2025 s2klaunch
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package cmd provides the command-line interface of s2klaunch. It implements
// the launch, status, and close commands that drive SAP2000 through its
// automation API, plus keychain management for the bridge token and the
// launch journal, using the Cobra CLI framework.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"s2klaunch/cli/internal/config"
	apperr "s2klaunch/cli/internal/errors"
	"s2klaunch/cli/internal/logging"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	showVersion bool
	configFile  string

	// v holds the layered configuration; commands bind their flags to it.
	v   = viper.New()
	cfg config.Config
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "s2klaunch",
	Short: "Launch SAP2000 and prepare a blank model through the OAPI",
	Long: `s2klaunch attaches to a running SAP2000 instance or spawns a new one through
the automation API (COM or .NET), initializes a blank model, and applies the
project defaults from the configuration file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		bindFlags(cmd)
		c, err := config.Load(v, configFile)
		if err != nil {
			return apperr.Wrap(apperr.InvalidConfig, "cannot load configuration", err)
		}
		cfg = c
		logger := logging.New(cfg.LogLevel, os.Stderr)
		slog.SetDefault(logger)
		cmd.SetContext(logging.WithLogger(cmd.Context(), logger))
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			fmt.Printf("s2klaunch %s\n", Version)
			return nil
		}
		return cmd.Help()
	},
}

// flagKeys maps command-line flags to configuration keys. Only the flags of
// the running command are bound, so commands may share flag names.
var flagKeys = map[string]string{
	"client":          "client",
	"attach":          "attach",
	"program-path":    "program_path",
	"remote-computer": "remote_computer",
	"path":            "path",
	"filename":        "filename",
	"units":           "units",
	"group":           "groups",
	"log-level":       "log_level",
	"bridge-address":  "bridge.address",
	"bridge-insecure": "bridge.insecure",
	"journal":         "journal.enabled",
}

func bindFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if key, ok := flagKeys[f.Name]; ok {
			_ = v.BindPFlag(key, f)
		}
	})
}

// addConnectionFlags registers the flags that select how SAP2000 is reached.
func addConnectionFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("client", "", "API binding: com or net")
	f.String("bridge-address", "", "Bridge host:port for the net binding")
	f.Bool("bridge-insecure", false, "Disable TLS to the bridge host")
}

// Execute runs the CLI and exits with 2 on acquisition failures and 1 on any
// other error.
func Execute() {
	err := rootCmd.Execute()
	if err == nil {
		return
	}
	if logging.IsLaunchFailure(err) {
		logging.PresentAcquisitionError(err)
	} else {
		fmt.Fprintln(os.Stderr, logging.PresentError("", err))
	}
	os.Exit(apperr.ExitCode(err))
}

func init() {
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "Show CLI version information")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default $XDG_CONFIG_HOME/s2klaunch/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
}
