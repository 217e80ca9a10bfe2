// Package pool manages pools of live database connections and leases
// them to callers that submit queries or invoke stored procedures.
//
// The package is organized around a small set of collaborator interfaces:
//
// Connector opens the underlying driver pool for a configuration.
// PoolHandle represents one established driver pool that can lease
// connections. Conn is a single driver connection that executes queries
// and procedure calls.
//
// Manager owns exactly one PoolHandle at a time and drives it through
// the Absent -> Initializing -> Ready -> Closing -> Absent lifecycle.
// Creation is lazy and single-flight: the first caller to observe an
// absent pool creates it, concurrent callers block until creation
// completes and then lease from the ready pool. A pool handle that
// rejects a lease as closed/invalid is discarded and recreated once.
//
// Every lease is wrapped in a Lease that refreshes activity timestamps
// on each operation and reference-counts outstanding leases. When an
// idle threshold is configured, a background reclaimer closes the pool
// after the threshold elapses with no activity and no outstanding
// leases; the next acquire transparently recreates it.
//
// Manager.Query and Manager.CallProcedure are the caller-facing entry
// points. They acquire a lease, run the operation, and retry exactly
// once on a fresh connection when the driver reports a stale-connection
// class failure. The lease is released on every exit path.
package pool
