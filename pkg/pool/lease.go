package pool

import (
	"context"
	"sync"
	"time"
)

// Lease is the temporary right to use one connection, held by exactly
// one caller between acquire and release. It wraps the raw driver
// connection, refreshing activity timestamps and counting operations
// before delegating. Payload and error semantics of the underlying
// calls are not altered.
type Lease struct {
	conn Conn
	mgr  *Manager

	mu         sync.Mutex
	lastActive time.Time
	ops        int64
}

// Execute runs a query on the leased connection
func (l *Lease) Execute(ctx context.Context, query string, params []any) (*ResultSet, error) {
	l.touch()
	return l.conn.Execute(ctx, query, params)
}

// CallProcedure invokes a stored procedure on the leased connection
func (l *Lease) CallProcedure(ctx context.Context, call ProcedureCall) (*ResultSet, error) {
	l.touch()
	return l.conn.CallProcedure(ctx, call)
}

// Close releases the lease. The driver close is always delegated (the
// driver tolerates repeated closes); lease accounting is decremented at
// most once no matter how many times Close is called.
func (l *Lease) Close() error {
	err := l.conn.Close()
	l.mgr.finishLease(l)
	return err
}

// LastActive returns when the lease last executed an operation
func (l *Lease) LastActive() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastActive
}

// Operations returns how many operations ran on this lease
func (l *Lease) Operations() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ops
}

func (l *Lease) touch() {
	now := time.Now()
	l.mu.Lock()
	l.lastActive = now
	l.ops++
	l.mu.Unlock()
	l.mgr.touch(now)
}
