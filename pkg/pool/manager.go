package pool

import (
	"context"
	"fmt"
	"sync"
	"time"

	sqlgateerrors "sqlgate/pkg/errors"
	"sqlgate/pkg/logger"
)

// State is the lifecycle state of the managed pool
type State int32

const (
	StateAbsent State = iota
	StateInitializing
	StateReady
	StateClosing
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateAbsent:
		return "Absent"
	case StateInitializing:
		return "Initializing"
	case StateReady:
		return "Ready"
	case StateClosing:
		return "Closing"
	default:
		return "Unknown"
	}
}

// Manager owns the single underlying pool handle for one configuration.
// All lifecycle transitions and lease accounting happen under one mutex;
// blocking driver I/O (open, lease, close) runs outside it.
type Manager struct {
	cfg       Config
	connector Connector
	log       *logger.Logger

	mu           sync.Mutex
	state        State
	handle       PoolHandle
	initDone     chan struct{} // closed when the in-flight creation finishes
	initErr      error         // creation outcome delivered to waiters
	closingDone  chan struct{} // closed when an in-flight shutdown finishes
	leases       map[*Lease]struct{}
	activeLeases int
	lastActivity time.Time
	closed       bool

	acquires     uint64
	releases     uint64
	staleRetries uint64
	recreations  uint64

	stop chan struct{}
	wg   sync.WaitGroup
}

// Stats is a point-in-time snapshot of manager state and counters
type Stats struct {
	State        string    `json:"state"`
	ActiveLeases int       `json:"active_leases"`
	Acquires     uint64    `json:"acquires"`
	Releases     uint64    `json:"releases"`
	StaleRetries uint64    `json:"stale_retries"`
	Recreations  uint64    `json:"recreations"`
	LastActivity time.Time `json:"last_activity"`
}

// NewManager creates a manager for one pool configuration. The pool
// itself is not created until the first acquire. When cfg.IdleTimeout
// is positive a background reclaimer is started; stop it with Close.
func NewManager(cfg Config, connector Connector) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if connector == nil {
		return nil, fmt.Errorf("%w: connector is required", sqlgateerrors.ErrInvalidConfig)
	}
	m := &Manager{
		cfg:       cfg,
		connector: connector,
		log:       logger.Get().Named("pool"),
		leases:    make(map[*Lease]struct{}),
	}
	if cfg.IdleTimeout > 0 {
		m.stop = make(chan struct{})
		m.wg.Add(1)
		go m.reclaimLoop()
	}
	return m, nil
}

// Config returns the configuration the pool is created from
func (m *Manager) Config() Config {
	return m.cfg
}

// Acquire leases one connection, creating the pool on first use.
// A pool handle that rejects the lease as closed/invalid is discarded
// and recreated exactly once before the error becomes fatal.
func (m *Manager) Acquire(ctx context.Context) (*Lease, error) {
	handle, err := m.pool(ctx)
	if err != nil {
		return nil, err
	}

	conn, err := handle.Lease(ctx)
	if err != nil {
		if !isPoolInvalid(err) {
			return nil, fmt.Errorf("%w: %v", sqlgateerrors.ErrConnectionFailed, err)
		}
		// The established pool went bad underneath us: rebuild it
		// from the same configuration and retry the lease once.
		handle, err = m.recreate(ctx, handle)
		if err != nil {
			return nil, err
		}
		conn, err = handle.Lease(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", sqlgateerrors.ErrConnectionFailed, err)
		}
	}

	lease := &Lease{conn: conn, mgr: m}
	m.mu.Lock()
	m.leases[lease] = struct{}{}
	m.activeLeases++
	m.acquires++
	m.lastActivity = time.Now()
	m.mu.Unlock()
	return lease, nil
}

// pool returns the ready handle, performing single-flight lazy creation.
func (m *Manager) pool(ctx context.Context) (PoolHandle, error) {
	for {
		m.mu.Lock()
		if m.closed {
			m.mu.Unlock()
			return nil, sqlgateerrors.ErrManagerClosed
		}
		switch m.state {
		case StateReady:
			h := m.handle
			m.mu.Unlock()
			return h, nil

		case StateInitializing:
			done := m.initDone
			m.mu.Unlock()
			select {
			case <-done:
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", sqlgateerrors.ErrConnectionFailed, ctx.Err())
			}
			m.mu.Lock()
			err := m.initErr
			m.mu.Unlock()
			if err != nil {
				return nil, fmt.Errorf("%w: %v", sqlgateerrors.ErrConnectionFailed, err)
			}
			// Loop: the pool may already have been reclaimed again.

		case StateClosing:
			done := m.closingDone
			m.mu.Unlock()
			select {
			case <-done:
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", sqlgateerrors.ErrConnectionFailed, ctx.Err())
			}

		case StateAbsent:
			done := make(chan struct{})
			m.initDone = done
			m.initErr = nil
			m.state = StateInitializing
			m.mu.Unlock()

			m.log.DebugWith("creating pool", "driver", m.cfg.Driver)
			handle, err := m.connector.Open(ctx, m.cfg)

			m.mu.Lock()
			if err != nil {
				m.state = StateAbsent
				m.initErr = err
			} else if m.closed {
				// Terminal close raced with creation; discard the new pool.
				m.state = StateAbsent
				m.initErr = sqlgateerrors.ErrManagerClosed
			} else {
				m.handle = handle
				m.state = StateReady
				m.lastActivity = time.Now()
			}
			close(done)
			m.mu.Unlock()

			if err != nil {
				return nil, fmt.Errorf("%w: %v", sqlgateerrors.ErrConnectionFailed, err)
			}
			if m.isClosed() {
				_ = handle.Close()
				return nil, sqlgateerrors.ErrManagerClosed
			}
			// Loop back to pick the handle up under the lock.
		}
	}
}

// recreate discards a pool handle that rejected a lease and builds a
// fresh one from the same configuration.
func (m *Manager) recreate(ctx context.Context, stale PoolHandle) (PoolHandle, error) {
	m.mu.Lock()
	current := m.state == StateReady && m.handle == stale
	if current {
		m.recreations++
	}
	m.mu.Unlock()

	if current {
		m.log.WarnWith("pool handle invalid, recreating", "driver", m.cfg.Driver)
		m.Shutdown()
	}
	// Another caller may already have replaced the handle; either way
	// the single-flight path below yields the current pool.
	return m.pool(ctx)
}

// touch refreshes the shared activity timestamp
func (m *Manager) touch(now time.Time) {
	m.mu.Lock()
	m.lastActivity = now
	m.mu.Unlock()
}

// finishLease removes a lease from tracking. Idempotent: only the call
// that actually removes the lease decrements the counter.
func (m *Manager) finishLease(l *Lease) {
	m.mu.Lock()
	if _, ok := m.leases[l]; ok {
		delete(m.leases, l)
		m.activeLeases--
		m.releases++
		m.lastActivity = time.Now()
	}
	m.mu.Unlock()
}

// Shutdown closes every tracked lease and the pool handle, best-effort,
// and returns the manager to the Absent state. The next acquire
// recreates the pool. Calling it with no pool established is a no-op.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	if m.state != StateReady {
		m.mu.Unlock()
		return
	}
	m.state = StateClosing
	m.closingDone = make(chan struct{})
	handle := m.handle
	m.handle = nil
	open := make([]*Lease, 0, len(m.leases))
	for l := range m.leases {
		open = append(open, l)
	}
	m.mu.Unlock()

	for _, l := range open {
		if err := l.Close(); err != nil {
			m.log.DebugWith("closing leased connection during shutdown", "error", err)
		}
	}
	if err := handle.Close(); err != nil {
		m.log.WarnWith("closing pool handle", "error", err)
	}

	m.mu.Lock()
	m.state = StateAbsent
	m.lastActivity = time.Time{}
	close(m.closingDone)
	m.closingDone = nil
	m.mu.Unlock()
}

// Close terminally stops the manager: the reclaimer is stopped, the
// pool is shut down, and further acquires fail with ErrManagerClosed.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	stop := m.stop
	m.mu.Unlock()

	if stop != nil {
		close(stop)
		m.wg.Wait()
	}
	m.Shutdown()
}

func (m *Manager) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Stats returns a snapshot of lifecycle state and lease accounting
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{
		State:        m.state.String(),
		ActiveLeases: m.activeLeases,
		Acquires:     m.acquires,
		Releases:     m.releases,
		StaleRetries: m.staleRetries,
		Recreations:  m.recreations,
		LastActivity: m.lastActivity,
	}
}
