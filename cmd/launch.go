// Copyright (c) 2025 s2klaunch
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"os"
	"os/signal"
	"time"

	"s2klaunch/cli/internal/launcher"
	"s2klaunch/cli/internal/logging"
	"s2klaunch/cli/internal/project"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	launchInfo  []string
	launchSave  bool
	launchExit  bool
	launchWatch time.Duration
)

// launchCmd acquires SAP2000 (attach or spawn), initializes a blank model, and
// applies the project defaults.
var launchCmd = &cobra.Command{
	Use:   "launch",
	Short: "Start or attach to SAP2000 and prepare a blank model",
	Long: `The launch command reaches SAP2000 in one of four ways, chosen from the
configuration: attach to the running instance (--attach), spawn one from an
explicit executable (--program-path), spawn one on a remote host through
CSiAPIService (--remote-computer), or spawn the registered installation.

The model is then initialized, units and project information are set, the
predefined materials are deleted, and the configured groups are defined.

With --watch the command stays running, probes the application at the given
interval, and relaunches it when it stops answering.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		log := logging.FromContext(ctx)

		lc, err := cfg.Connection()
		if err != nil {
			return err
		}
		setup, err := cfg.Setup()
		if err != nil {
			return err
		}
		extra, err := project.ParseInfoPairs(launchInfo)
		if err != nil {
			return err
		}
		setup.Info.Merge(extra)

		c, err := connect(ctx, cfg, lc, true)
		if err != nil {
			return err
		}
		defer c.Close()
		l := launcher.NewLauncher(c.conn, setup)

		sp, _ := newLogSpinner(os.Stderr).Start("launching SAP2000 (" + lc.Mode.String() + ")")
		h, err := l.Launch(ctx)
		_ = sp.Stop()
		if err != nil {
			return err
		}
		if err := prepare(ctx, l); err != nil {
			return err
		}
		pterm.Success.Printfln("SAP2000 v%s is ready (cycle %s)", h.Version.External, h.CycleID)

		if launchWatch > 0 {
			if err := watch(ctx, l, launchWatch); err != nil {
				return err
			}
		}

		if launchExit {
			if err := l.Close(ctx, false); err != nil {
				return err
			}
			log.Info("application closed")
		}
		return nil
	},
}

// prepare defines groups, refreshes the views, and saves when requested.
func prepare(ctx context.Context, l *launcher.Launcher) error {
	if len(cfg.Groups) > 0 {
		if err := l.DefineGroups(ctx, cfg.Groups...); err != nil {
			return err
		}
	}
	if err := l.Refresh(ctx); err != nil {
		return err
	}
	if launchSave {
		return l.Save(ctx)
	}
	return nil
}

// watch probes the application every interval until interrupted and
// relaunches it when the probe fails.
func watch(ctx context.Context, l *launcher.Launcher, interval time.Duration) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	log := logging.FromContext(ctx)
	log.Info("watching application; press Ctrl+C to stop", "interval", interval.String())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if !l.IsClosed(ctx) {
				continue
			}
			log.Warn("application stopped answering; relaunching")
			h, err := l.Relaunch(ctx)
			if err != nil {
				return err
			}
			if err := prepare(ctx, l); err != nil {
				return err
			}
			pterm.Success.Printfln("SAP2000 v%s relaunched (cycle %s)", h.Version.External, h.CycleID)
		}
	}
}

func init() {
	rootCmd.AddCommand(launchCmd)
	f := launchCmd.Flags()
	addConnectionFlags(launchCmd)
	f.Bool("attach", false, "Attach to the running instance instead of spawning one")
	f.String("program-path", "", "Spawn SAP2000 from this executable")
	f.String("remote-computer", "", "Spawn SAP2000 on this host through CSiAPIService")
	f.String("path", "", "Destination directory for the saved model")
	f.String("filename", "", "Model file name (.sdb is appended when missing)")
	f.String("units", "", "Units preset, e.g. kN_m_C or kip_in_F")
	f.StringSlice("group", nil, "Group to define after setup (repeatable)")
	f.Bool("journal", false, "Record the launch cycle in the launch journal")
	f.StringArrayVar(&launchInfo, "info", nil, "Project information item as key=value (repeatable)")
	f.BoolVar(&launchSave, "save", false, "Save the model to --path after setup")
	f.BoolVar(&launchExit, "exit", false, "Exit the application when done")
	f.DurationVar(&launchWatch, "watch", 0, "Probe the application at this interval and relaunch it when it dies")
}
