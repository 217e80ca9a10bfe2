package pool

import (
	"context"
	"sync"

	sqlgateerrors "sqlgate/pkg/errors"
)

// fakeConnector is an in-memory Connector for exercising the manager
// without a real driver. Error queues are consumed one entry per call.
type fakeConnector struct {
	mu        sync.Mutex
	opens     int
	openErr   error
	gate      chan struct{} // when set, Open blocks until the gate closes
	leaseErrs []error
	execErrs  []error
	execs     int
	procs     []ProcedureCall
	handles   []*fakeHandle
}

func (f *fakeConnector) Open(ctx context.Context, cfg Config) (PoolHandle, error) {
	f.mu.Lock()
	f.opens++
	gate := f.gate
	err := f.openErr
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	h := &fakeHandle{c: f}
	f.mu.Lock()
	f.handles = append(f.handles, h)
	f.mu.Unlock()
	return h, nil
}

func (f *fakeConnector) openCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opens
}

func (f *fakeConnector) execCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.execs
}

func (f *fakeConnector) handle(i int) *fakeHandle {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.handles[i]
}

func (f *fakeConnector) popLeaseErr() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.leaseErrs) == 0 {
		return nil
	}
	err := f.leaseErrs[0]
	f.leaseErrs = f.leaseErrs[1:]
	return err
}

func (f *fakeConnector) popExecErr() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.execs++
	if len(f.execErrs) == 0 {
		return nil
	}
	err := f.execErrs[0]
	f.execErrs = f.execErrs[1:]
	return err
}

type fakeHandle struct {
	c      *fakeConnector
	mu     sync.Mutex
	closed bool
	closes int
	leased int
}

func (h *fakeHandle) Lease(ctx context.Context) (Conn, error) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, sqlgateerrors.ErrPoolClosed
	}
	h.leased++
	h.mu.Unlock()

	if err := h.c.popLeaseErr(); err != nil {
		return nil, err
	}
	return &fakeConn{c: h.c}, nil
}

func (h *fakeHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	h.closes++
	return nil
}

func (h *fakeHandle) isClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

type fakeConn struct {
	c      *fakeConnector
	mu     sync.Mutex
	closes int
}

var fakeResult = &ResultSet{Columns: []string{"n"}, Rows: [][]any{{int64(1)}}}

func (c *fakeConn) Execute(ctx context.Context, query string, params []any) (*ResultSet, error) {
	if err := c.c.popExecErr(); err != nil {
		return nil, err
	}
	return fakeResult, nil
}

func (c *fakeConn) CallProcedure(ctx context.Context, call ProcedureCall) (*ResultSet, error) {
	if err := c.c.popExecErr(); err != nil {
		return nil, err
	}
	c.c.mu.Lock()
	c.c.procs = append(c.c.procs, call)
	c.c.mu.Unlock()
	return fakeResult, nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closes++
	return nil
}

func (c *fakeConn) closeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closes
}
