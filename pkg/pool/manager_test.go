package pool

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	sqlgateerrors "sqlgate/pkg/errors"
)

func testConfig() Config {
	return Config{Driver: "fake", DSN: "DSN=test"}
}

func TestNewManagerRejectsBadConfig(t *testing.T) {
	_, err := NewManager(Config{}, &fakeConnector{})
	if !errors.Is(err, sqlgateerrors.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}

	_, err = NewManager(testConfig(), nil)
	if !errors.Is(err, sqlgateerrors.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for nil connector, got %v", err)
	}
}

func TestAcquireCreatesPoolLazily(t *testing.T) {
	fc := &fakeConnector{}
	m, err := NewManager(testConfig(), fc)
	if err != nil {
		t.Fatal(err)
	}
	defer m.Close()

	if fc.openCount() != 0 {
		t.Fatalf("pool created before first acquire: %d opens", fc.openCount())
	}
	if got := m.Stats().State; got != "Absent" {
		t.Fatalf("expected Absent before first acquire, got %s", got)
	}

	lease, err := m.Acquire(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer lease.Close()

	if fc.openCount() != 1 {
		t.Errorf("expected 1 open, got %d", fc.openCount())
	}
	if got := m.Stats().State; got != "Ready" {
		t.Errorf("expected Ready after acquire, got %s", got)
	}
}

// N concurrent acquires before any pool exists must result in exactly
// one connector open and N successful leases.
func TestSingleFlightInit(t *testing.T) {
	gate := make(chan struct{})
	fc := &fakeConnector{gate: gate}
	m, err := NewManager(testConfig(), fc)
	if err != nil {
		t.Fatal(err)
	}
	defer m.Close()

	const n = 16
	var wg sync.WaitGroup
	errs := make([]error, n)
	leases := make([]*Lease, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			leases[i], errs[i] = m.Acquire(context.Background())
		}(i)
	}

	close(gate)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("acquire %d failed: %v", i, err)
		}
	}
	if fc.openCount() != 1 {
		t.Errorf("expected exactly 1 open for %d concurrent acquires, got %d", n, fc.openCount())
	}
	if got := m.Stats().ActiveLeases; got != n {
		t.Errorf("expected %d active leases, got %d", n, got)
	}
	for _, l := range leases {
		l.Close()
	}
}

func TestInitFailurePropagatesToAllWaiters(t *testing.T) {
	boom := errors.New("resource unreachable")
	fc := &fakeConnector{openErr: boom}
	m, err := NewManager(testConfig(), fc)
	if err != nil {
		t.Fatal(err)
	}
	defer m.Close()

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = m.Acquire(context.Background())
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if !errors.Is(err, sqlgateerrors.ErrConnectionFailed) {
			t.Errorf("waiter %d: expected ErrConnectionFailed, got %v", i, err)
		}
	}
	if got := m.Stats().State; got != "Absent" {
		t.Errorf("expected Absent after failed creation, got %s", got)
	}

	// Waiters may retry; a healthy connector now succeeds.
	fc.mu.Lock()
	fc.openErr = nil
	fc.mu.Unlock()

	lease, err := m.Acquire(context.Background())
	if err != nil {
		t.Fatalf("retry after failed creation: %v", err)
	}
	lease.Close()
}

// activeLeases equals acquires minus completed releases and is never negative
func TestLeaseAccounting(t *testing.T) {
	fc := &fakeConnector{}
	m, err := NewManager(testConfig(), fc)
	if err != nil {
		t.Fatal(err)
	}
	defer m.Close()

	var leases []*Lease
	for i := 0; i < 5; i++ {
		l, err := m.Acquire(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		leases = append(leases, l)
	}
	if got := m.Stats().ActiveLeases; got != 5 {
		t.Fatalf("expected 5 active leases, got %d", got)
	}

	for _, l := range leases[:3] {
		l.Close()
	}
	st := m.Stats()
	if st.ActiveLeases != 2 {
		t.Errorf("expected 2 active leases, got %d", st.ActiveLeases)
	}
	if st.Acquires != 5 || st.Releases != 3 {
		t.Errorf("expected acquires=5 releases=3, got %d/%d", st.Acquires, st.Releases)
	}

	for _, l := range leases[3:] {
		l.Close()
	}
	if got := m.Stats().ActiveLeases; got != 0 {
		t.Errorf("expected 0 active leases, got %d", got)
	}
}

func TestInvalidPoolRecreatedOnce(t *testing.T) {
	fc := &fakeConnector{}
	m, err := NewManager(testConfig(), fc)
	if err != nil {
		t.Fatal(err)
	}
	defer m.Close()

	lease, err := m.Acquire(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	lease.Close()

	// Invalidate the established handle underneath the manager.
	fc.handle(0).Close()

	lease, err = m.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire after handle invalidation: %v", err)
	}
	lease.Close()

	if fc.openCount() != 2 {
		t.Errorf("expected pool recreated once (2 opens), got %d", fc.openCount())
	}
	if got := m.Stats().Recreations; got != 1 {
		t.Errorf("expected 1 recreation, got %d", got)
	}
}

func TestInvalidPoolSecondFailureIsFatal(t *testing.T) {
	fc := &fakeConnector{}
	m, err := NewManager(testConfig(), fc)
	if err != nil {
		t.Fatal(err)
	}
	defer m.Close()

	lease, err := m.Acquire(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	lease.Close()

	fc.handle(0).Close()
	fc.mu.Lock()
	fc.leaseErrs = []error{sqlgateerrors.ErrPoolClosed}
	fc.mu.Unlock()

	_, err = m.Acquire(context.Background())
	if !errors.Is(err, sqlgateerrors.ErrConnectionFailed) {
		t.Fatalf("expected ErrConnectionFailed after second lease failure, got %v", err)
	}
	if fc.openCount() != 2 {
		t.Errorf("expected exactly one recreation attempt, got %d opens", fc.openCount())
	}
}

func TestShutdownIdempotent(t *testing.T) {
	fc := &fakeConnector{}
	m, err := NewManager(testConfig(), fc)
	if err != nil {
		t.Fatal(err)
	}
	defer m.Close()

	lease, err := m.Acquire(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	lease.Close()

	m.Shutdown()
	m.Shutdown()

	if got := m.Stats().State; got != "Absent" {
		t.Errorf("expected Absent after shutdown, got %s", got)
	}
	if !fc.handle(0).isClosed() {
		t.Error("handle not closed by shutdown")
	}
}

func TestShutdownClosesOutstandingLeases(t *testing.T) {
	fc := &fakeConnector{}
	m, err := NewManager(testConfig(), fc)
	if err != nil {
		t.Fatal(err)
	}
	defer m.Close()

	l1, err := m.Acquire(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	l2, err := m.Acquire(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	m.Shutdown()

	st := m.Stats()
	if st.ActiveLeases != 0 {
		t.Errorf("expected 0 active leases after shutdown, got %d", st.ActiveLeases)
	}
	if st.State != "Absent" {
		t.Errorf("expected Absent, got %s", st.State)
	}

	// The holders' own releases remain safe and never double-decrement.
	l1.Close()
	l2.Close()
	if got := m.Stats().ActiveLeases; got != 0 {
		t.Errorf("active leases went negative: %d", got)
	}
}

func TestAcquireAfterShutdownRecreates(t *testing.T) {
	fc := &fakeConnector{}
	m, err := NewManager(testConfig(), fc)
	if err != nil {
		t.Fatal(err)
	}
	defer m.Close()

	lease, err := m.Acquire(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	lease.Close()
	m.Shutdown()

	lease, err = m.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire after shutdown: %v", err)
	}
	lease.Close()

	if fc.openCount() != 2 {
		t.Errorf("expected fresh open after shutdown, got %d opens", fc.openCount())
	}
}

func TestAcquireAfterCloseFails(t *testing.T) {
	fc := &fakeConnector{}
	m, err := NewManager(testConfig(), fc)
	if err != nil {
		t.Fatal(err)
	}
	m.Close()
	m.Close()

	_, err = m.Acquire(context.Background())
	if !errors.Is(err, sqlgateerrors.ErrManagerClosed) {
		t.Fatalf("expected ErrManagerClosed, got %v", err)
	}
}

func TestAcquireRespectsContext(t *testing.T) {
	gate := make(chan struct{})
	fc := &fakeConnector{gate: gate}
	m, err := NewManager(testConfig(), fc)
	if err != nil {
		t.Fatal(err)
	}
	defer m.Close()
	defer close(gate)

	// First caller holds the single-flight slot.
	go m.Acquire(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// Wait until the initializer is in flight, then the cancelled
	// waiter must fail instead of blocking forever.
	for m.Stats().State != "Initializing" {
		time.Sleep(time.Millisecond)
	}
	_, err = m.Acquire(ctx)
	if !errors.Is(err, sqlgateerrors.ErrConnectionFailed) {
		t.Fatalf("expected ErrConnectionFailed for cancelled waiter, got %v", err)
	}
}
