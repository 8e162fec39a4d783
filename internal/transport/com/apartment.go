// Copyright (c) 2025 s2klaunch
// Licensed under the MIT License. See LICENSE file in the project root for details.

package com

import (
	"context"
	"errors"
	"runtime"
	"sync"
)

// ErrClosed is returned for calls issued after the transport was closed.
var ErrClosed = errors.New("com: transport closed")

// apartment owns one OS thread initialized as a single-threaded COM
// apartment. Every COM object created by the transport lives on that thread,
// so every call is marshaled onto it.
type apartment struct {
	calls chan func()
	quit  chan struct{}
	done  chan struct{}
	once  sync.Once
}

// newApartment starts the apartment thread. init runs first on the locked
// thread; an init error aborts start-up. uninit runs on the same thread when
// the apartment stops.
func newApartment(init func() error, uninit func()) (*apartment, error) {
	a := &apartment{
		calls: make(chan func()),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	ready := make(chan error, 1)
	go a.loop(init, uninit, ready)
	if err := <-ready; err != nil {
		return nil, err
	}
	return a, nil
}

func (a *apartment) loop(init func() error, uninit func(), ready chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(a.done)

	if err := init(); err != nil {
		ready <- err
		return
	}
	defer uninit()
	ready <- nil

	for {
		select {
		case fn := <-a.calls:
			fn()
		case <-a.quit:
			return
		}
	}
}

// do runs fn on the apartment thread and waits for it. ctx only bounds the
// wait for the thread to pick the call up; a running COM call is never
// interrupted.
func (a *apartment) do(ctx context.Context, fn func() error) error {
	res := make(chan error, 1)
	select {
	case a.calls <- func() { res <- fn() }:
	case <-a.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	return <-res
}

// stop runs final on the apartment thread, then stops it. Safe to call twice.
func (a *apartment) stop(final func()) {
	a.once.Do(func() {
		_ = a.do(context.Background(), func() error {
			final()
			return nil
		})
		close(a.quit)
		<-a.done
	})
}
