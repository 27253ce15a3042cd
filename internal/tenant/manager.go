// Package tenant implements TenantManager: one process serving many
// tenants that share nothing, each with its own Engine and WAL file.
package tenant

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/intervaldb/intervaldb/internal/config"
	"github.com/intervaldb/intervaldb/internal/engine"
	"github.com/intervaldb/intervaldb/internal/metrics"
)

var validNamePart = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Sanitize returns name unchanged if it is non-empty and made only of
// [A-Za-z0-9_-]; any other name is rejected, not filtered.
func Sanitize(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("tenant: empty name")
	}
	if !validNamePart.MatchString(name) {
		return "", fmt.Errorf("tenant: name %q contains characters outside [A-Za-z0-9_-]", name)
	}
	return name, nil
}

// Manager lazily constructs one Engine per tenant on first access and
// hands out the same handle on every subsequent access.
type Manager struct {
	dataDir string
	limits  config.Limits
	logger  *slog.Logger
	metrics *metrics.Registry

	mu      sync.Mutex
	engines map[string]*engine.Engine
}

// New returns a Manager rooted at dataDir, creating it if missing.
func New(dataDir string, limits config.Limits, logger *slog.Logger, reg *metrics.Registry) (*Manager, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("tenant: creating data dir %s: %w", dataDir, err)
	}
	return &Manager{
		dataDir: dataDir,
		limits:  limits,
		logger:  logger,
		metrics: reg,
		engines: make(map[string]*engine.Engine),
	}, nil
}

// Get returns name's engine, constructing it on first access.
func (m *Manager) Get(name string) (*engine.Engine, error) {
	sanitized, err := Sanitize(name)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.engines[sanitized]; ok {
		return e, nil
	}

	path := m.walPath(sanitized)
	e, err := engine.Open(path, m.limits, m.logger.With("tenant", sanitized), m.metrics)
	if err != nil {
		return nil, err
	}
	m.engines[sanitized] = e
	return e, nil
}

// walPath resolves a sanitized tenant name to its WAL path.
func (m *Manager) walPath(sanitized string) string {
	return filepath.Join(m.dataDir, sanitized+".wal")
}

// Tenants returns the names of every tenant engine constructed so far.
func (m *Manager) Tenants() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.engines))
	for name := range m.engines {
		out = append(out, name)
	}
	return out
}

// Close stops every tenant's engine.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.engines {
		e.Close()
	}
}
