// Copyright (c) 2025 s2klaunch
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package journal records launch cycles: which binding and acquisition branch
// was used, how long it took, and how it ended. Fleets that spawn SAP2000 on
// shared calculation hosts use it to see which hosts fail to start.
package journal

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Outcome is the final state of a launch cycle.
type Outcome string

const (
	OutcomeReady  Outcome = "ready"
	OutcomeFailed Outcome = "failed"
)

// Entry describes one launch cycle.
type Entry struct {
	CycleID  uuid.UUID
	Mode     string
	Strategy string
	Host     string
	Outcome  Outcome
	// Kind is the error kind of a failed cycle.
	Kind    string
	Reason  string
	Version string
	Elapsed time.Duration
	At      time.Time
	// Relaunch is true when the cycle replaced an abandoned process.
	Relaunch bool
}

// Recorder persists entries.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

// Nop discards every entry.
type Nop struct{}

func (Nop) Record(context.Context, Entry) error { return nil }

// Memory keeps entries in process memory.
type Memory struct {
	mu      sync.Mutex
	entries []Entry
}

func (m *Memory) Record(_ context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

// Entries returns a copy of the recorded entries.
func (m *Memory) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Entry(nil), m.entries...)
}
