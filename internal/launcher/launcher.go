// Copyright (c) 2025 s2klaunch
// Licensed under the MIT License. See LICENSE file in the project root for details.

package launcher

import (
	"context"
	"sync"
	"time"

	apperr "s2klaunch/cli/internal/errors"
	"s2klaunch/cli/internal/journal"
	"s2klaunch/cli/internal/project"
	"s2klaunch/cli/internal/transport"

	"github.com/google/uuid"
)

// Handles is the process/session pair of one launch cycle.
type Handles struct {
	CycleID uuid.UUID
	Process transport.Process
	Session transport.Session
	Version transport.Version
}

// Valid reports whether both handles are held.
func (h Handles) Valid() bool { return h.Process != nil && h.Session != nil }

// Launcher runs complete launch cycles (acquire, bootstrap, project setup) and
// owns the resulting handles. All methods are serialized; the automation API
// is not reentrant.
type Launcher struct {
	mu      sync.Mutex
	conn    *Connector
	setup   project.Setup
	current Handles
}

// NewLauncher creates a Launcher applying setup to every fresh model.
func NewLauncher(conn *Connector, setup project.Setup) *Launcher {
	return &Launcher{conn: conn, setup: setup}
}

// Handles returns the current handles (zero value when none are held).
func (l *Launcher) Handles() Handles {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

// Launch acquires a process, initializes a blank model, and applies project setup.
func (l *Launcher) Launch(ctx context.Context) (Handles, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.launch(ctx, false)
}

// Relaunch drops the current handles without exiting the old process and
// runs a full launch cycle again. Use it when the process stopped responding.
func (l *Launcher) Relaunch(ctx context.Context) (Handles, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.current.Process != nil {
		l.conn.log.Warn("abandoning previous process without exit", "cycle", l.current.CycleID)
	}
	l.current = Handles{}
	return l.launch(ctx, true)
}

func (l *Launcher) launch(ctx context.Context, relaunch bool) (Handles, error) {
	c := l.conn
	h := Handles{CycleID: uuid.New()}
	start := c.now()
	log := c.cycleLogger("cycle", h.CycleID.String())
	log.Debug("launch cycle started", "strategy", string(c.cfg.Strategy()), "relaunch", relaunch)

	err := func() error {
		if err := c.PrepareDestination(); err != nil {
			return err
		}
		p, err := c.Acquire(ctx)
		if err != nil {
			return err
		}
		s, v, err := c.Bootstrap(ctx, p)
		if err != nil {
			return err
		}
		if err := project.SetupProject(ctx, s, l.setup); err != nil {
			return err
		}
		h.Process, h.Session, h.Version = p, s, v
		return nil
	}()

	l.record(ctx, h, start, relaunch, err)
	if err != nil {
		log.Error("launch cycle failed", "kind", string(apperr.KindOf(err)), "error", err)
		return Handles{}, err
	}
	l.current = h
	log.Info("S2K model launched", "seconds", int(c.now().Sub(start).Seconds()))
	return h, nil
}

// record reports the cycle to the journal. Journal failures never fail a launch.
func (l *Launcher) record(ctx context.Context, h Handles, start time.Time, relaunch bool, err error) {
	c := l.conn
	cfg := c.Config()
	e := journal.Entry{
		CycleID:  h.CycleID,
		Mode:     string(cfg.Mode),
		Strategy: string(cfg.Strategy()),
		Outcome:  journal.OutcomeReady,
		Version:  h.Version.External,
		Elapsed:  c.now().Sub(start),
		At:       start,
		Relaunch: relaunch,
	}
	if cfg.Strategy() == StrategyRemote {
		e.Host = cfg.RemoteHost
	}
	if err != nil {
		e.Outcome = journal.OutcomeFailed
		e.Kind = string(apperr.KindOf(err))
		e.Reason = err.Error()
	}
	if rerr := c.recorder.Record(ctx, e); rerr != nil {
		c.log.Warn("cannot record launch cycle", "cycle", h.CycleID.String(), "error", rerr)
	}
}

// Close requests application exit (saving first when save is true) and
// invalidates both handles on success.
func (l *Launcher) Close(ctx context.Context, save bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.current.Valid() {
		return apperr.New(apperr.NotConnected, "no application to close")
	}
	if err := project.Close(ctx, l.current.Process, save); err != nil {
		return err
	}
	l.current = Handles{}
	return nil
}

// IsClosed reports whether no live application is held.
func (l *Launcher) IsClosed(ctx context.Context) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.current.Valid() {
		return true
	}
	return project.IsClosed(ctx, l.current.Session)
}

// Save writes the model to the configured destination.
func (l *Launcher) Save(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.requireSession(); err != nil {
		return err
	}
	cfg := l.conn.Config()
	return project.Save(ctx, l.current.Session, cfg.Dir, cfg.Filename)
}

// Refresh redraws the application views.
func (l *Launcher) Refresh(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.requireSession(); err != nil {
		return err
	}
	return project.Refresh(ctx, l.current.Session)
}

// DefineGroups defines groups in order, stopping at the first failure.
func (l *Launcher) DefineGroups(ctx context.Context, groups ...string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.requireSession(); err != nil {
		return err
	}
	return project.DefineGroups(ctx, l.current.Session, groups...)
}

func (l *Launcher) requireSession() error {
	if !l.current.Valid() {
		return apperr.New(apperr.NotConnected, "no active model session; launch first")
	}
	return nil
}
