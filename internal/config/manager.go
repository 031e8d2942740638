package config

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mu-online/mupacket/crypto"
	"github.com/mu-online/mupacket/frame"
)

// Snapshot is one successfully loaded and resolved configuration: the
// parsed directives plus the concrete crypto.Scheme and XOR cipher
// table the demo binary decodes frames with, so a caller never has to
// re-derive them from Config itself.
type Snapshot struct {
	Config     Config
	Scheme     crypto.Scheme
	Cipher     [32]byte
	LoadedAt   time.Time
	Bytes      int
	MD5Hex     string
	SourcePath string
}

// Manager re-reads and re-resolves a directive configuration file (and
// its optional scheme.yaml sibling) on demand. It keeps the last
// successfully resolved Snapshot available even after a failed reload,
// so a SIGHUP handler can poke at a live process without losing the
// working key schedule to a typo in an edited config file.
type Manager struct {
	mu         sync.RWMutex
	configPath string
	schemePath string
	current    *Snapshot

	checkCalls    atomic.Uint64
	reloadCalls   atomic.Uint64
	reloadSuccess atomic.Uint64

	lastErrMu sync.RWMutex
	lastErr   string
}

// ManagerStats reports how many times a Manager has checked or
// reloaded its configuration, and the error (if any) from the most
// recent reload attempt.
type ManagerStats struct {
	CheckCalls    uint64
	ReloadCalls   uint64
	ReloadSuccess uint64
	LastError     string
}

// NewManager builds a Manager for configPath. When schemePath is
// non-empty, key schedules are resolved through its scheme.yaml
// contents (config.LoadSchemeFile); otherwise the directive's
// "scheme client|server;" resolves to the project's built-in
// crypto.CLIENT/crypto.SERVER.
func NewManager(configPath, schemePath string) *Manager {
	return &Manager{configPath: configPath, schemePath: schemePath}
}

// Check re-reads, parses, and resolves the configuration without
// replacing the Manager's current snapshot.
func (m *Manager) Check() (Snapshot, error) {
	m.checkCalls.Add(1)
	data, err := os.ReadFile(m.configPath)
	if err != nil {
		return Snapshot{}, fmt.Errorf("cannot re-read config file %s: %w", m.configPath, err)
	}

	cfg, err := Parse(string(data))
	if err != nil {
		return Snapshot{}, err
	}

	scheme, err := m.resolveScheme(cfg)
	if err != nil {
		return Snapshot{}, err
	}

	cipher := frame.XORCipher
	if cfg.Cipher != nil {
		cipher = *cfg.Cipher
	}

	sum := md5.Sum(data)
	return Snapshot{
		Config:     cfg,
		Scheme:     scheme,
		Cipher:     cipher,
		LoadedAt:   time.Now().UTC(),
		Bytes:      len(data),
		MD5Hex:     hex.EncodeToString(sum[:]),
		SourcePath: m.configPath,
	}, nil
}

// Reload is Check followed by replacing the Manager's current snapshot
// on success. A failed reload leaves the previous snapshot — and
// whichever scheme it resolved to — in place, and is recorded in
// Stats().LastError.
func (m *Manager) Reload() (Snapshot, error) {
	m.reloadCalls.Add(1)
	s, err := m.Check()
	if err != nil {
		m.setLastError(err.Error())
		return Snapshot{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = &s
	m.setLastError("")
	m.reloadSuccess.Add(1)
	return s, nil
}

// Current returns the Manager's last successfully resolved snapshot,
// if Reload has ever succeeded.
func (m *Manager) Current() (Snapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return Snapshot{}, false
	}
	return *m.current, true
}

// Stats reports the Manager's lifetime check/reload counters.
func (m *Manager) Stats() ManagerStats {
	return ManagerStats{
		CheckCalls:    m.checkCalls.Load(),
		ReloadCalls:   m.reloadCalls.Load(),
		ReloadSuccess: m.reloadSuccess.Load(),
		LastError:     m.getLastError(),
	}
}

// resolveScheme turns cfg's "scheme client|server;" directive into a
// concrete crypto.Scheme, preferring the Manager's scheme.yaml (if
// configured) over the built-in key schedules.
func (m *Manager) resolveScheme(cfg Config) (crypto.Scheme, error) {
	if m.schemePath != "" {
		sf, err := LoadSchemeFile(m.schemePath)
		if err != nil {
			return crypto.Scheme{}, fmt.Errorf("load scheme file: %w", err)
		}
		switch cfg.Scheme {
		case SchemeClient:
			return sf.Client.Scheme()
		case SchemeServer:
			return sf.Server.Scheme()
		}
	}

	switch cfg.Scheme {
	case SchemeClient:
		return crypto.CLIENT, nil
	case SchemeServer:
		return crypto.SERVER, nil
	default:
		return crypto.Scheme{}, fmt.Errorf("unknown scheme %q", cfg.Scheme)
	}
}

func (m *Manager) setLastError(s string) {
	m.lastErrMu.Lock()
	defer m.lastErrMu.Unlock()
	m.lastErr = s
}

func (m *Manager) getLastError() string {
	m.lastErrMu.RLock()
	defer m.lastErrMu.RUnlock()
	return m.lastErr
}
