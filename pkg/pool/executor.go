package pool

import (
	"context"
	"fmt"

	sqlgateerrors "sqlgate/pkg/errors"
)

// Query leases a connection, runs the query, and returns the result.
// A stale-connection failure is retried exactly once on a fresh
// connection; any other failure is surfaced verbatim.
func (m *Manager) Query(ctx context.Context, query string, params []any) (*ResultSet, error) {
	return m.run(ctx, func(ctx context.Context, conn Conn) (*ResultSet, error) {
		return conn.Execute(ctx, query, params)
	})
}

// CallProcedure leases a connection and invokes a stored procedure,
// with the same retry semantics as Query.
func (m *Manager) CallProcedure(ctx context.Context, call ProcedureCall) (*ResultSet, error) {
	if call.Name == "" {
		return nil, fmt.Errorf("%w: procedure name is required", sqlgateerrors.ErrInvalidConfig)
	}
	return m.run(ctx, func(ctx context.Context, conn Conn) (*ResultSet, error) {
		return conn.CallProcedure(ctx, call)
	})
}

// run is the acquire -> execute -> classify -> retry-once -> release
// state machine. The lease is released on every exit path.
func (m *Manager) run(ctx context.Context, op func(context.Context, Conn) (*ResultSet, error)) (*ResultSet, error) {
	lease, err := m.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	rs, err := op(ctx, lease)
	if err == nil {
		m.release(lease)
		return rs, nil
	}
	if !IsStale(err) {
		m.release(lease)
		return nil, err
	}

	// Stale connection: drop it and retry the same operation exactly
	// once on a fresh lease. Close errors on the dead connection are
	// irrelevant to the caller's outcome.
	m.log.DebugWith("stale connection, retrying once", "error", err)
	m.release(lease)
	m.mu.Lock()
	m.staleRetries++
	m.mu.Unlock()

	retry, err := m.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	rs, err = op(ctx, retry)
	m.release(retry)
	if err != nil {
		if IsStale(err) {
			return nil, fmt.Errorf("%w: %v", sqlgateerrors.ErrConnectionFailed, err)
		}
		return nil, err
	}
	return rs, nil
}

// release closes a lease, keeping cleanup noise out of the caller's outcome
func (m *Manager) release(l *Lease) {
	if err := l.Close(); err != nil {
		m.log.DebugWith("releasing connection", "error", err)
	}
}
