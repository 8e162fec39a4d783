// Copyright (c) 2025 s2klaunch
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package keychain keeps s2klaunch secrets in the OS credential store: the
// access token of the managed-runtime bridge and the DSN of the launch
// journal. Nothing secret is ever written to the config file.
package keychain

import (
	"errors"
	"runtime"
	"sync"

	"github.com/99designs/keyring"
)

// ServiceName identifies our keychain/credential store namespace.
const ServiceName = "s2klaunch"

// Keys used for storing secrets in the OS keychain.
const (
	KeyBridgeToken = "bridge_token"
	KeyJournalDSN  = "journal_dsn"
)

// ErrNotFound is returned when a secret has not been stored.
var ErrNotFound = errors.New("secret not found in keychain")

var (
	globalManager *Manager
	mu            sync.Mutex
)

// Manager provides thread-safe operations on the OS keychain.
type Manager struct {
	mu   sync.RWMutex
	ring keyring.Keyring
}

// NewManager opens the platform keyring.
func NewManager() (*Manager, error) {
	ring, err := openRing()
	if err != nil {
		return nil, err
	}
	return &Manager{ring: ring}, nil
}

// NewWithRing wraps an already opened keyring.
func NewWithRing(ring keyring.Keyring) *Manager {
	return &Manager{ring: ring}
}

// GetManager returns the process-wide manager, opening it on first use.
// A failed open is retried on the next call.
func GetManager() (*Manager, error) {
	mu.Lock()
	defer mu.Unlock()
	if globalManager != nil {
		return globalManager, nil
	}
	m, err := NewManager()
	if err != nil {
		return nil, err
	}
	globalManager = m
	return m, nil
}

// openRing opens native credential backends only; there is no file fallback.
func openRing() (keyring.Keyring, error) {
	var allowed []keyring.BackendType
	switch runtime.GOOS {
	case "windows":
		allowed = []keyring.BackendType{keyring.WinCredBackend}
	case "darwin":
		allowed = []keyring.BackendType{keyring.KeychainBackend, keyring.PassBackend}
	case "linux":
		allowed = []keyring.BackendType{keyring.SecretServiceBackend, keyring.KWalletBackend, keyring.PassBackend}
	default:
		return nil, errors.New("secure storage not supported on " + runtime.GOOS)
	}

	return keyring.Open(keyring.Config{
		ServiceName:     ServiceName,
		AllowedBackends: allowed,
		PassPrefix:      ServiceName,
		WinCredPrefix:   ServiceName,
	})
}

func (m *Manager) set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ring.Set(keyring.Item{Key: key, Data: []byte(value), Label: ServiceName + " " + key})
}

func (m *Manager) get(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	it, err := m.ring.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	if len(it.Data) == 0 {
		return "", ErrNotFound
	}
	return string(it.Data), nil
}

func (m *Manager) remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ring.Remove(key); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return err
	}
	return nil
}

// SaveBridgeToken stores the bridge access token.
func (m *Manager) SaveBridgeToken(token string) error { return m.set(KeyBridgeToken, token) }

// LoadBridgeToken returns the bridge access token or ErrNotFound.
func (m *Manager) LoadBridgeToken() (string, error) { return m.get(KeyBridgeToken) }

// ClearBridgeToken removes the bridge access token. Removing a missing token is not an error.
func (m *Manager) ClearBridgeToken() error { return m.remove(KeyBridgeToken) }

// SaveJournalDSN stores the launch journal DSN.
func (m *Manager) SaveJournalDSN(dsn string) error { return m.set(KeyJournalDSN, dsn) }

// LoadJournalDSN returns the launch journal DSN or ErrNotFound.
func (m *Manager) LoadJournalDSN() (string, error) { return m.get(KeyJournalDSN) }

// ClearJournalDSN removes the launch journal DSN.
func (m *Manager) ClearJournalDSN() error { return m.remove(KeyJournalDSN) }
