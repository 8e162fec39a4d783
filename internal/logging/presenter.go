// Copyright (c) 2025 s2klaunch
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"fmt"
	"strings"

	apperr "s2klaunch/cli/internal/errors"

	"github.com/pterm/pterm"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// PresentError formats an error for user display with masking.
func PresentError(context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Mask(err.Error())
	}
	return fmt.Sprintf("%s: %s", context, Mask(err.Error()))
}

// FormatAcquisitionError formats a launcher failure in a user-friendly way,
// with guidance chosen by the error kind.
func FormatAcquisitionError(err error) string {
	var b strings.Builder

	b.WriteString(pterm.NewStyle(pterm.FgRed, pterm.Bold).Sprint("SAP2000 launch failed"))
	b.WriteString("\n\n")

	switch apperr.KindOf(err) {
	case apperr.AttachFailed:
		b.WriteString("No running instance of the program was found, or attaching to it failed.\n")
		b.WriteString("  • Start SAP2000 first, or run without --attach to spawn a new instance\n")
		b.WriteString("  • The running instance must be started by the same user as s2klaunch\n")
	case apperr.HelperUnavailable:
		b.WriteString("The SAP2000 API helper could not be created.\n")
		b.WriteString("  • Check that SAP2000 is installed and its API is registered\n")
		b.WriteString("  • In net mode, check that the bridge host is running\n")
	case apperr.SpawnFromPathFailed:
		b.WriteString("Cannot start a new instance of the program from the given path.\n")
		b.WriteString("  • Check that --program-path points to SAP2000.exe\n")
	case apperr.SpawnFromRegistryFailed:
		b.WriteString("Cannot start a new instance of the program.\n")
		b.WriteString("  • Run RegisterSAP2000.exe from the installation folder, or pass --program-path\n")
	case apperr.RemoteSpawnFailed:
		b.WriteString("Cannot connect with the remote computer.\n")
		b.WriteString("  • Check that CSiAPIService.exe is running on the remote host\n")
		b.WriteString("  • Check the firewall between this machine and the remote host\n")
	case apperr.StartFailed:
		b.WriteString("The program object was created but the application did not start.\n")
	case apperr.BootstrapFailed:
		b.WriteString("The application started but a blank model could not be initialized.\n")
	case apperr.TransportFailed:
		b.WriteString("The API transport could not be opened.\n")
		b.WriteString("  • In net mode, check --bridge-address and that the bridge host is running\n")
		b.WriteString("  • In com mode, run s2klaunch on the Windows machine where SAP2000 is installed\n")
	default:
		b.WriteString("The SAP2000 session could not be prepared.\n")
	}

	b.WriteString("\n")
	b.WriteString(pterm.NewStyle(pterm.FgGray).Sprint("Technical details: " + technicalDetails(err)))
	return b.String()
}

// IsLaunchFailure reports whether err is shown with FormatAcquisitionError
// rather than as a plain message.
func IsLaunchFailure(err error) bool {
	switch apperr.KindOf(err) {
	case apperr.BootstrapFailed, apperr.TransportFailed:
		return true
	}
	return apperr.IsAcquisition(err)
}

// technicalDetails prefers the bridge description when a gRPC status is in
// err's chain.
func technicalDetails(err error) string {
	if _, ok := status.FromError(err); ok {
		return FormatBridgeError(err)
	}
	return Mask(err.Error())
}

// FormatBridgeError describes a gRPC failure of the managed-runtime bridge.
func FormatBridgeError(err error) string {
	st, ok := status.FromError(err)
	if !ok {
		return Mask(err.Error())
	}
	switch st.Code() {
	case codes.Unavailable:
		return "bridge host unavailable: " + Mask(st.Message())
	case codes.Unauthenticated, codes.PermissionDenied:
		return "bridge rejected the access token; run 's2klaunch bridge token set'"
	case codes.DeadlineExceeded:
		return "bridge call timed out: " + Mask(st.Message())
	case codes.NotFound:
		return "bridge object not found (process gone?): " + Mask(st.Message())
	default:
		return st.Code().String() + ": " + Mask(st.Message())
	}
}

// PresentAcquisitionError displays a formatted launcher failure.
func PresentAcquisitionError(err error) {
	fmt.Println()
	fmt.Println(FormatAcquisitionError(err))
	fmt.Println()
}
