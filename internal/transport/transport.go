// Copyright (c) 2025 s2klaunch
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package transport defines the capability surface of the SAP2000 automation API
// (OAPI) independently of how calls cross the process boundary.
//
// Two bindings implement it: the legacy component binding (COM IDispatch, see
// package com) and the managed-runtime binding (the .NET SAP2000v1 assembly hosted
// behind a gRPC bridge, see package bridge). The launcher is written once
// against these interfaces; launcher.OpenTransport picks the variant from
// configuration.
//
// Every OAPI call reports its outcome as an integer status where zero means
// success. Implementations return that status untouched and use the Go error
// only for transport-level failures (dead process, RPC error, missing COM class).
package transport

import (
	"context"
	"fmt"
	"strings"
)

const (
	// ProgID is the registered activation identifier of the SAP2000 API object.
	ProgID = "CSI.SAP2000.API.SapObject"
	// HelperProgID is the registered activation identifier of the helper (factory) object.
	HelperProgID = "SAP2000v1.Helper"
)

// Mode selects the binding technology.
type Mode string

const (
	// ModeCOM is the legacy component binding.
	ModeCOM Mode = "com"
	// ModeNET is the managed-runtime binding.
	ModeNET Mode = "net"
)

// ParseMode accepts "com" or "net" in any case.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeCOM, "":
		return ModeCOM, nil
	case ModeNET:
		return ModeNET, nil
	}
	return "", fmt.Errorf("unknown client mode %q (want com or net)", s)
}

func (m Mode) String() string { return strings.ToUpper(string(m)) }

// Transport reaches the automation API through one binding technology.
type Transport interface {
	// Mode reports the binding this transport implements.
	Mode() Mode
	// Helper creates the factory object used to spawn new processes.
	Helper(ctx context.Context) (Helper, error)
	// ActiveProcess returns the already running instance registered under progID.
	ActiveProcess(ctx context.Context, progID string) (Process, error)
	// Close releases binding resources. Live processes are not exited.
	Close() error
}

// Helper is the factory capability (cHelper) that constructs process objects.
type Helper interface {
	CreateFromPath(ctx context.Context, path string) (Process, error)
	CreateFromProgID(ctx context.Context, progID string) (Process, error)
	CreateFromProgIDHost(ctx context.Context, host, progID string) (Process, error)
}

// Process is the application's top-level object (cOAPI).
type Process interface {
	// Start issues ApplicationStart. Object creation alone does not start the program.
	Start(ctx context.Context) (int, error)
	// Exit issues ApplicationExit, saving the model first when save is true.
	Exit(ctx context.Context, save bool) (int, error)
	// Session returns the model object (cSapModel) of this process.
	Session(ctx context.Context) (Session, error)
}

// Version is the result of GetVersion.
type Version struct {
	External string
	Internal float64
}

// ProgramInfo is the result of GetProgramInfo.
type ProgramInfo struct {
	Name    string
	Version string
	Level   string
}

// Session is the active modeling document (cSapModel) inside a process.
type Session interface {
	InitializeNewModel(ctx context.Context) (int, error)
	Version(ctx context.Context) (Version, int, error)
	NewBlank(ctx context.Context) (int, error)
	SetPresentUnits(ctx context.Context, units int) (int, error)
	SetProjectInfo(ctx context.Context, item, data string) (int, error)
	DeleteAllMaterials(ctx context.Context) (int, error)
	RefreshView(ctx context.Context, window int, zoom bool) (int, error)
	Save(ctx context.Context, path string) (int, error)
	SetGroup(ctx context.Context, name string) (int, error)
	ProgramInfo(ctx context.Context) (ProgramInfo, int, error)
}
