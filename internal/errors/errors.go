// Package errors defines typed errors with categories for user-friendly reporting.
// Every failure of the launcher carries a machine-readable Kind so the CLI can
// pick the right guidance text and exit status, while the wrapped cause keeps
// the transport detail for logs.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind is a machine-readable error category.
type Kind string

const (
	// InvalidConfig indicates a configuration the launcher cannot act on.
	InvalidConfig Kind = "invalid_config"
	// AttachFailed indicates no running instance could be attached to.
	AttachFailed Kind = "attach_failed"
	// HelperUnavailable indicates the helper (factory) object could not be created.
	HelperUnavailable Kind = "helper_unavailable"
	// SpawnFromPathFailed indicates the helper could not create a process from an explicit executable path.
	SpawnFromPathFailed Kind = "spawn_from_path_failed"
	// SpawnFromRegistryFailed indicates the helper could not create a process from the registered ProgID.
	SpawnFromRegistryFailed Kind = "spawn_from_registry_failed"
	// RemoteSpawnFailed indicates the helper could not create a process on the remote host.
	RemoteSpawnFailed Kind = "remote_spawn_failed"
	// StartFailed indicates the process object exists but ApplicationStart did not succeed.
	StartFailed Kind = "start_failed"
	// BootstrapFailed indicates the blank model could not be initialized.
	BootstrapFailed Kind = "bootstrap_failed"
	// OperationFailed indicates a session call returned a non-zero status.
	OperationFailed Kind = "operation_failed"
	// NotConnected indicates an operation on handles that were closed or never acquired.
	NotConnected Kind = "not_connected"
	// TransportFailed indicates the call transport itself could not be opened.
	TransportFailed Kind = "transport_failed"
)

// E wraps an error with kind and human-friendly message.
type E struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *E) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *E) Unwrap() error { return e.Err }

// Is reports whether target is an *E of the same kind, so that
// errors.Is(err, errors.New(AttachFailed, "")) matches by category.
func (e *E) Is(target error) bool {
	t, ok := target.(*E)
	return ok && t.Kind == e.Kind
}

func Wrap(kind Kind, msg string, err error) *E { return &E{Kind: kind, Message: msg, Err: err} }
func New(kind Kind, msg string) *E             { return &E{Kind: kind, Message: msg} }

// Status converts an automation API status code into an OperationFailed error.
// A zero status yields nil.
func Status(call string, ret int) error {
	if ret == 0 {
		return nil
	}
	return New(OperationFailed, fmt.Sprintf("%s returned status %d", call, ret))
}

// KindOf returns the kind of the first *E in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *E
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsAcquisition reports whether err is one of the fatal process-acquisition failures.
func IsAcquisition(err error) bool {
	switch KindOf(err) {
	case AttachFailed, HelperUnavailable, SpawnFromPathFailed,
		SpawnFromRegistryFailed, RemoteSpawnFailed, StartFailed:
		return true
	}
	return false
}

// ExitCode maps err to the hosting process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case IsAcquisition(err):
		return 2
	default:
		return 1
	}
}
