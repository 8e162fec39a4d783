// Copyright (c) 2025 s2klaunch
// Licensed under the MIT License. See LICENSE file in the project root for details.

package launcher

import (
	"context"

	apperr "s2klaunch/cli/internal/errors"
	"s2klaunch/cli/internal/transport"
	"s2klaunch/cli/internal/transport/bridge"
	"s2klaunch/cli/internal/transport/com"
)

// OpenTransport opens the binding selected by mode. bridgeOpts is only used
// in net mode.
func OpenTransport(ctx context.Context, mode transport.Mode, bridgeOpts bridge.Options) (transport.Transport, error) {
	switch mode {
	case transport.ModeCOM:
		t, err := com.Open()
		if err != nil {
			return nil, apperr.Wrap(apperr.TransportFailed, "cannot initialize COM", err)
		}
		return t, nil
	case transport.ModeNET:
		if bridgeOpts.Address == "" {
			return nil, apperr.New(apperr.InvalidConfig, "no bridge address configured for net mode")
		}
		t, err := bridge.Dial(ctx, bridgeOpts)
		if err != nil {
			return nil, apperr.Wrap(apperr.TransportFailed, "cannot reach the bridge host at "+bridgeOpts.Address, err)
		}
		return t, nil
	default:
		return nil, apperr.New(apperr.InvalidConfig, "unknown client mode "+string(mode))
	}
}
