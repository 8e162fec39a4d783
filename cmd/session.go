// Copyright (c) 2025 s2klaunch
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"errors"
	"os"
	"time"

	"s2klaunch/cli/internal/config"
	"s2klaunch/cli/internal/journal"
	"s2klaunch/cli/internal/journal/pgstore"
	"s2klaunch/cli/internal/keychain"
	"s2klaunch/cli/internal/launcher"
	"s2klaunch/cli/internal/logging"
	"s2klaunch/cli/internal/transport"
	"s2klaunch/cli/internal/transport/bridge"
)

// Environment overrides of the keychain secrets.
const (
	tokenEnv      = "S2KLAUNCH_BRIDGE_TOKEN"
	journalDSNEnv = "S2KLAUNCH_JOURNAL_DSN"
)

// connection bundles what a command needs to talk to SAP2000.
type connection struct {
	conn  *launcher.Connector
	tr    transport.Transport
	store *pgstore.Store
}

func (c *connection) Close() {
	if c.store != nil {
		c.store.Close()
	}
	_ = c.tr.Close()
}

// connect opens the configured transport and builds a Connector for lc.
// The launch journal is attached when withJournal is set and it is enabled.
func connect(ctx context.Context, c config.Config, lc launcher.Config, withJournal bool) (*connection, error) {
	log := logging.FromContext(ctx)

	var opts bridge.Options
	if lc.Mode == transport.ModeNET {
		opts = bridge.Options{
			Address:  c.Bridge.Address,
			Insecure: c.Bridge.Insecure,
			Token:    bridgeToken(ctx),
		}
	}
	tr, err := launcher.OpenTransport(ctx, lc.Mode, opts)
	if err != nil {
		return nil, err
	}

	out := &connection{tr: tr}
	var rec journal.Recorder = journal.Nop{}
	if withJournal && c.Journal.Enabled {
		if s := openJournal(ctx); s != nil {
			out.store = s
			rec = s
		}
	}

	conn, err := launcher.New(lc, tr, launcher.WithLogger(log), launcher.WithRecorder(rec))
	if err != nil {
		out.Close()
		return nil, err
	}
	out.conn = conn
	return out, nil
}

// bridgeToken returns the bridge token from the environment or the keychain,
// or "" when none is stored.
func bridgeToken(ctx context.Context) string {
	if t := os.Getenv(tokenEnv); t != "" {
		return t
	}
	km, err := keychain.GetManager()
	if err != nil {
		logging.FromContext(ctx).Debug("keychain unavailable; connecting to bridge without token", "error", err)
		return ""
	}
	t, err := km.LoadBridgeToken()
	if err != nil && !errors.Is(err, keychain.ErrNotFound) {
		logging.FromContext(ctx).Warn("cannot read bridge token", "error", err)
	}
	return t
}

// openJournal opens the launch journal. Failures are logged and yield nil;
// a missing journal never blocks a launch.
func openJournal(ctx context.Context) *pgstore.Store {
	log := logging.FromContext(ctx)
	dsn := os.Getenv(journalDSNEnv)
	if dsn == "" {
		km, err := keychain.GetManager()
		if err != nil {
			log.Warn("launch journal disabled: keychain unavailable", "error", err)
			return nil
		}
		if dsn, err = km.LoadJournalDSN(); err != nil {
			log.Warn("launch journal disabled: run 's2klaunch journal connect'", "error", err)
			return nil
		}
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	s, err := pgstore.Open(ctx, dsn)
	if err != nil {
		log.Warn("launch journal disabled", "error", logging.Mask(err.Error()))
		return nil
	}
	return s
}
