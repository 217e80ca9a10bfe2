package pool

import "time"

// reclaimTick is the ceiling on the interval between idle inspections
const reclaimTick = time.Second

// reclaimLoop periodically retires the pool after the configured idle
// threshold. Runs only when Config.IdleTimeout is positive; stopped by
// Manager.Close.
func (m *Manager) reclaimLoop() {
	defer m.wg.Done()

	interval := m.cfg.IdleTimeout / 2
	if interval > reclaimTick {
		interval = reclaimTick
	}
	if interval <= 0 {
		interval = m.cfg.IdleTimeout
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.reclaimIdle(time.Now())
		}
	}
}

// reclaimIdle closes the pool when it has been idle past the threshold.
// The decision is made under the same mutex that protects lease
// accounting, so an acquire that increments the counter strictly before
// this read defers reclamation to a later tick. A pool with outstanding
// leases is never retired.
func (m *Manager) reclaimIdle(now time.Time) {
	m.mu.Lock()
	if m.state != StateReady || m.activeLeases > 0 ||
		m.lastActivity.IsZero() || now.Sub(m.lastActivity) < m.cfg.IdleTimeout {
		m.mu.Unlock()
		return
	}
	idle := now.Sub(m.lastActivity)

	// Swap the handle out while still holding the mutex so no acquire
	// can lease from a pool that is about to close.
	m.state = StateClosing
	m.closingDone = make(chan struct{})
	handle := m.handle
	m.handle = nil
	m.mu.Unlock()

	if err := handle.Close(); err != nil {
		// Reclamation is a background concern; never propagated.
		m.log.WarnWith("idle pool close failed", "error", err, "idle", idle)
	} else {
		m.log.InfoWith("idle pool reclaimed", "idle", idle)
	}

	m.mu.Lock()
	m.state = StateAbsent
	m.lastActivity = time.Time{}
	close(m.closingDone)
	m.closingDone = nil
	m.mu.Unlock()
}
