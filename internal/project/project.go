// Copyright (c) 2025 s2klaunch
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package project applies project defaults to a ready SAP2000 session and
// exposes its lifecycle operations (refresh, save, exit, liveness, groups).
//
// The functions take the session or process handle explicitly; nothing here
// holds state between calls. Every OAPI call must report status zero or the
// whole operation fails at that call. There is no partial rollback of values
// already applied.
package project

import (
	"context"
	"fmt"
	"path/filepath"

	apperr "s2klaunch/cli/internal/errors"
	"s2klaunch/cli/internal/logging"
	"s2klaunch/cli/internal/transport"
)

// Setup describes the defaults applied to every fresh model.
type Setup struct {
	Units Units
	Info  ProjectInfo
}

// check turns a call outcome into an OperationFailed error.
func check(call string, ret int, err error) error {
	if err != nil {
		return apperr.Wrap(apperr.OperationFailed, call+" failed", err)
	}
	return apperr.Status(call, ret)
}

func requireSession(s transport.Session) error {
	if s == nil {
		return apperr.New(apperr.NotConnected, "no active model session")
	}
	return nil
}

// SetupProject creates a blank document, sets units and project information,
// and deletes the predefined materials.
func SetupProject(ctx context.Context, s transport.Session, setup Setup) error {
	if err := requireSession(s); err != nil {
		return err
	}
	log := logging.FromContext(ctx).With("component", "project")

	ret, err := s.NewBlank(ctx)
	if err := check("File.NewBlank", ret, err); err != nil {
		return err
	}

	units := setup.Units
	if units == 0 {
		units = Default
	}
	ret, err = s.SetPresentUnits(ctx, int(units))
	if err := check("SetPresentUnits", ret, err); err != nil {
		return err
	}

	for _, e := range setup.Info.Present() {
		ret, err := s.SetProjectInfo(ctx, e.Key, *e.Value)
		if err := check(fmt.Sprintf("SetProjectInfo(%q)", e.Key), ret, err); err != nil {
			return err
		}
	}

	ret, err = s.DeleteAllMaterials(ctx)
	if err := check("DeleteAllMaterials", ret, err); err != nil {
		return err
	}

	log.Debug("project defaults applied", "units", units.String(), "info_items", len(setup.Info.Present()))
	return nil
}

// Refresh redraws all windows without preserving zoom.
func Refresh(ctx context.Context, s transport.Session) error {
	if err := requireSession(s); err != nil {
		return err
	}
	ret, err := s.RefreshView(ctx, 0, false)
	return check("View.RefreshView", ret, err)
}

// Save writes the model to dir/filename.
func Save(ctx context.Context, s transport.Session, dir, filename string) error {
	if err := requireSession(s); err != nil {
		return err
	}
	if dir == "" {
		return apperr.New(apperr.OperationFailed, "no destination path configured; cannot save")
	}
	if filename == "" {
		return apperr.New(apperr.OperationFailed, "no filename configured; cannot save")
	}
	target := filepath.Join(dir, filename)
	ret, err := s.Save(ctx, target)
	if err := check("File.Save", ret, err); err != nil {
		return err
	}
	logging.FromContext(ctx).Info("model saved", "component", "project", "path", target)
	return nil
}

// Close requests application exit, saving first when save is true. The caller
// must drop both handles after a nil return.
func Close(ctx context.Context, p transport.Process, save bool) error {
	if p == nil {
		return apperr.New(apperr.NotConnected, "no application process")
	}
	ret, err := p.Exit(ctx, save)
	return check("ApplicationExit", ret, err)
}

// IsClosed probes the session with GetProgramInfo. Only a failure of that
// probe call is classified as closed; a non-zero status still proves the
// process answered.
func IsClosed(ctx context.Context, s transport.Session) bool {
	if s == nil {
		return true
	}
	if _, _, err := s.ProgramInfo(ctx); err != nil {
		logging.FromContext(ctx).Debug("liveness probe failed", "component", "project", "error", err)
		return true
	}
	return false
}

// Info returns the program name, version, and license level.
func Info(ctx context.Context, s transport.Session) (transport.ProgramInfo, error) {
	if err := requireSession(s); err != nil {
		return transport.ProgramInfo{}, err
	}
	info, ret, err := s.ProgramInfo(ctx)
	if err := check("GetProgramInfo", ret, err); err != nil {
		return transport.ProgramInfo{}, err
	}
	return info, nil
}

// DefineGroups defines each group in order and stops at the first failure.
func DefineGroups(ctx context.Context, s transport.Session, groups ...string) error {
	if err := requireSession(s); err != nil {
		return err
	}
	for _, g := range groups {
		ret, err := s.SetGroup(ctx, g)
		if err := check(fmt.Sprintf("GroupDef.SetGroup(%q)", g), ret, err); err != nil {
			return err
		}
	}
	return nil
}
