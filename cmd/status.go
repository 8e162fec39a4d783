// Copyright (c) 2025 s2klaunch
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"s2klaunch/cli/internal/project"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// statusCmd attaches to the running instance and reports whether it answers.
// The open model is left untouched.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether SAP2000 is running and answering API calls",
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
		s, err := c.conn.SessionOf(ctx, p)
		if err != nil {
			return err
		}
		if project.IsClosed(ctx, s) {
			pterm.Warning.Println("SAP2000 is registered as running but does not answer")
			return nil
		}
		info, err := project.Info(ctx, s)
		if err != nil {
			return err
		}
		v, _, err := s.Version(ctx)
		if err != nil {
			return err
		}

		return pterm.DefaultTable.WithData(pterm.TableData{
			{"Program", info.Name},
			{"Version", info.Version},
			{"Build", v.External},
			{"Level", info.Level},
			{"Binding", lc.Mode.String()},
		}).Render()
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	addConnectionFlags(statusCmd)
}
