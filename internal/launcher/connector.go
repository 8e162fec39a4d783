// Copyright (c) 2025 s2klaunch
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package launcher acquires a live SAP2000 process through a transport and
// brings its model into a known, ready state.
//
// Acquisition follows a fixed decision tree. The binding (COM or .NET) is
// chosen once per Connector. Attach never falls back to spawning. When
// spawning, an explicit executable path wins over the registered ProgID, and
// a remote host is only honored on the ProgID branch. Every branch failure is
// terminal for the attempt and carries a typed error kind; the CLI turns
// those kinds into a non-zero exit status.
package launcher

import (
	"context"
	"log/slog"
	"os"
	"time"

	apperr "s2klaunch/cli/internal/errors"
	"s2klaunch/cli/internal/journal"
	"s2klaunch/cli/internal/transport"
)

// Config is the immutable connection configuration of a Connector.
type Config struct {
	Mode   transport.Mode
	Attach bool
	// ProgramPath and RemoteHost are ignored when Attach is set.
	ProgramPath string
	RemoteHost  string
	// Dir is the destination directory for saved models; empty disables saving.
	Dir      string
	Filename string
}

// Strategy is the acquisition branch resolved from a Config.
type Strategy string

const (
	StrategyAttach   Strategy = "attach"
	StrategyPath     Strategy = "path"
	StrategyRegistry Strategy = "registry"
	StrategyRemote   Strategy = "remote"
)

// Strategy resolves the acquisition branch. Attach wins over everything,
// then an explicit path, then a remote host, then the local registry.
func (c Config) Strategy() Strategy {
	switch {
	case c.Attach:
		return StrategyAttach
	case c.ProgramPath != "":
		return StrategyPath
	case c.RemoteHost != "":
		return StrategyRemote
	default:
		return StrategyRegistry
	}
}

// Connector resolves a process handle for one binding.
type Connector struct {
	cfg      Config
	tr       transport.Transport
	base     *slog.Logger
	log      *slog.Logger
	recorder journal.Recorder
	started  time.Time
	now      func() time.Time
}

// Option configures a Connector.
type Option func(*Connector)

// WithLogger sets the logger. The default is slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(c *Connector) { c.log = l }
}

// WithRecorder sets the launch journal recorder.
func WithRecorder(r journal.Recorder) Option {
	return func(c *Connector) { c.recorder = r }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Connector) { c.now = now }
}

// New creates a Connector. The transport must implement cfg.Mode.
func New(cfg Config, tr transport.Transport, opts ...Option) (*Connector, error) {
	if tr == nil {
		return nil, apperr.New(apperr.InvalidConfig, "no transport")
	}
	if tr.Mode() != cfg.Mode {
		return nil, apperr.New(apperr.InvalidConfig,
			"transport mode "+tr.Mode().String()+" does not match configured mode "+cfg.Mode.String())
	}
	c := &Connector{
		cfg:      cfg,
		tr:       tr,
		log:      slog.Default(),
		recorder: journal.Nop{},
		now:      time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	c.base = c.log
	c.log = c.cycleLogger()
	c.started = c.now()
	return c, nil
}

// Config returns the connection configuration.
func (c *Connector) Config() Config { return c.cfg }

// cycleLogger scopes the base logger to this component plus args. All
// attributes go into one With: pterm's slog handler replaces them on each call.
func (c *Connector) cycleLogger(args ...any) *slog.Logger {
	return c.base.With(append([]any{"component", "launcher"}, args...)...)
}

func (c *Connector) elapsed() time.Duration { return c.now().Sub(c.started) }

// PrepareDestination warns when no destination directory is configured and
// creates it when missing.
func (c *Connector) PrepareDestination() error {
	if c.cfg.Dir == "" {
		c.log.Warn("no destination path was passed; do not attempt to save")
		return nil
	}
	if _, err := os.Stat(c.cfg.Dir); err == nil {
		return nil
	}
	c.log.Info("creating directory", "path", c.cfg.Dir)
	if err := os.MkdirAll(c.cfg.Dir, 0o755); err != nil {
		return apperr.Wrap(apperr.InvalidConfig, "cannot create destination directory "+c.cfg.Dir, err)
	}
	return nil
}

// Acquire obtains a usable process handle following the decision tree.
func (c *Connector) Acquire(ctx context.Context) (transport.Process, error) {
	c.log.Info("using API", "mode", c.cfg.Mode.String())

	if c.cfg.Strategy() == StrategyAttach {
		return c.attach(ctx)
	}

	helper, err := c.tr.Helper(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.HelperUnavailable, "cannot create the API helper ("+c.cfg.Mode.String()+")", err)
	}

	p, err := c.spawn(ctx, helper)
	if err != nil {
		return nil, err
	}
	c.log.Info("application successfully initialized")

	ret, err := p.Start(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.StartFailed, "ApplicationStart failed", err)
	}
	if err := apperr.Status("ApplicationStart", ret); err != nil {
		return nil, apperr.Wrap(apperr.StartFailed, "application did not start", err)
	}
	c.log.Info("application successfully started", "seconds", int(c.elapsed().Seconds()))
	return p, nil
}

func (c *Connector) attach(ctx context.Context) (transport.Process, error) {
	if c.cfg.ProgramPath != "" || c.cfg.RemoteHost != "" {
		c.log.Debug("attach ignores program path and remote host",
			"program_path", c.cfg.ProgramPath, "remote_computer", c.cfg.RemoteHost)
	}
	p, err := c.tr.ActiveProcess(ctx, transport.ProgID)
	if err != nil {
		return nil, apperr.Wrap(apperr.AttachFailed,
			"no running instance of the program found or failed to attach ("+c.cfg.Mode.String()+")", err)
	}
	c.log.Info("attached to instance")
	return p, nil
}

func (c *Connector) spawn(ctx context.Context, h transport.Helper) (transport.Process, error) {
	switch c.cfg.Strategy() {
	case StrategyPath:
		if c.cfg.RemoteHost != "" {
			c.log.Warn("remote computer is ignored when a program path is given",
				"remote_computer", c.cfg.RemoteHost)
		}
		p, err := h.CreateFromPath(ctx, c.cfg.ProgramPath)
		if err != nil {
			return nil, apperr.Wrap(apperr.SpawnFromPathFailed,
				"cannot start a new instance of the program from "+c.cfg.ProgramPath, err)
		}
		return p, nil
	case StrategyRemote:
		p, err := h.CreateFromProgIDHost(ctx, c.cfg.RemoteHost, transport.ProgID)
		if err != nil {
			return nil, apperr.Wrap(apperr.RemoteSpawnFailed,
				"cannot connect with remote computer "+c.cfg.RemoteHost, err)
		}
		return p, nil
	default:
		p, err := h.CreateFromProgID(ctx, transport.ProgID)
		if err != nil {
			return nil, apperr.Wrap(apperr.SpawnFromRegistryFailed, "cannot start a new instance of the program", err)
		}
		return p, nil
	}
}

// SessionOf extracts the model object of p without initializing it.
func (c *Connector) SessionOf(ctx context.Context, p transport.Process) (transport.Session, error) {
	if p == nil {
		return nil, apperr.New(apperr.NotConnected, "no application process")
	}
	s, err := p.Session(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.BootstrapFailed, "cannot access SapModel", err)
	}
	return s, nil
}

// Bootstrap extracts the model of p and initializes a new blank model. The
// application version is queried and logged; it does not affect control flow.
func (c *Connector) Bootstrap(ctx context.Context, p transport.Process) (transport.Session, transport.Version, error) {
	s, err := c.SessionOf(ctx, p)
	if err != nil {
		return nil, transport.Version{}, err
	}

	ret, err := s.InitializeNewModel(ctx)
	if err != nil {
		return nil, transport.Version{}, apperr.Wrap(apperr.BootstrapFailed, "InitializeNewModel failed", err)
	}
	if err := apperr.Status("InitializeNewModel", ret); err != nil {
		return nil, transport.Version{}, apperr.Wrap(apperr.BootstrapFailed, "model was not initialized", err)
	}
	c.log.Info("SAP2000 OAPI model is up and running")

	v, ret, err := s.Version(ctx)
	if err != nil {
		return nil, transport.Version{}, apperr.Wrap(apperr.BootstrapFailed, "GetVersion failed", err)
	}
	if err := apperr.Status("GetVersion", ret); err != nil {
		return nil, transport.Version{}, apperr.Wrap(apperr.BootstrapFailed, "version query failed", err)
	}
	c.log.Info("running software version", "version", "v"+v.External)
	return s, v, nil
}
