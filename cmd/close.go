// Copyright (c) 2025 s2klaunch
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"s2klaunch/cli/internal/project"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var closeSave bool

// closeCmd attaches to the running instance and requests application exit.
var closeCmd = &cobra.Command{
	Use:   "close",
	Short: "Exit the running SAP2000 instance",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		lc, err := cfg.Connection()
		if err != nil {
			return err
		}
		lc.Attach = true

		c, err := connect(ctx, cfg, lc, false)
		if err != nil {
			return err
		}
		defer c.Close()

		p, err := c.conn.Acquire(ctx)
		if err != nil {
			return err
		}
		if err := project.Close(ctx, p, closeSave); err != nil {
			return err
		}
		pterm.Success.Println("SAP2000 closed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(closeCmd)
	addConnectionFlags(closeCmd)
	closeCmd.Flags().BoolVar(&closeSave, "save", false, "Save the open model before exiting")
}
