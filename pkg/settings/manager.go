package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jas0n325/captone-ui-sub006/internal/logging"
	"github.com/jas0n325/captone-ui-sub006/pkg/domain"
	"github.com/jas0n325/captone-ui-sub006/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed lock outlives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates settings access for terminals.
type Manager struct {
	store ports.SettingsStore

	mu    sync.Mutex
	locks map[string]*lockEntry

	locker    ports.DistributedLocker
	lockTTL   time.Duration
	monotonic bool
	logger    *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithMonotonic skips transaction numbers lower than the stored one.
func WithMonotonic(enabled bool) Option {
	return func(m *Manager) {
		m.monotonic = enabled
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a settings manager over store.
func NewManager(store ports.SettingsStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) acquire(terminalID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[terminalID]
	if !exists {
		entry = &lockEntry{}
		m.locks[terminalID] = entry
	}
	entry.refs++
	return entry
}

func (m *Manager) release(terminalID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[terminalID]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, terminalID)
	}
}

// PropagateTransactionNumber stores n as the terminal's last transaction number.
//
// A number lower than the stored one is still written (and logged) unless the manager
// is monotonic, in which case it is skipped.
func (m *Manager) PropagateTransactionNumber(ctx context.Context, terminalID string, n int64) error {
	if terminalID == "" {
		return fmt.Errorf("propagate transaction number: empty terminal id")
	}
	return m.WithLock(ctx, terminalID, func(ctx context.Context) error {
		current, err := m.store.LoadTransactionNumber(ctx, terminalID)
		switch {
		case errors.Is(err, domain.ErrSettingNotFound):
		case err != nil:
			return fmt.Errorf("load transaction number: %w", err)
		case current == n:
			return nil
		case n < current:
			if m.monotonic {
				m.logger.Warn("ignoring transaction number lower than stored",
					"terminal_id", terminalID, "stored", current, "reported", n)
				return nil
			}
			m.logger.Warn("transaction number moved backwards",
				"terminal_id", terminalID, "stored", current, "reported", n)
		}

		if err := m.store.SaveTransactionNumber(ctx, terminalID, n); err != nil {
			return fmt.Errorf("save transaction number: %w", err)
		}
		m.logger.Debug("transaction number propagated", "terminal_id", terminalID, "transaction_number", n)
		return nil
	})
}

// TransactionNumber returns the stored number, or domain.ErrSettingNotFound.
func (m *Manager) TransactionNumber(ctx context.Context, terminalID string) (int64, error) {
	var n int64
	err := m.WithLock(ctx, terminalID, func(ctx context.Context) error {
		var err error
		n, err = m.store.LoadTransactionNumber(ctx, terminalID)
		return err
	})
	return n, err
}

// Delete removes the terminal's settings.
func (m *Manager) Delete(ctx context.Context, terminalID string) error {
	return m.WithLock(ctx, terminalID, func(ctx context.Context) error {
		return m.store.Delete(ctx, terminalID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying settings store.
func (m *Manager) Store() ports.SettingsStore {
	return m.store
}

// WithLock executes fn while holding the terminal's lock.
func (m *Manager) WithLock(ctx context.Context, terminalID string, fn func(context.Context) error) error {
	entry := m.acquire(terminalID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(terminalID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, terminalID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrLockAcquire, err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("failed to release distributed lock (will expire via TTL)",
					"terminal_id", terminalID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
